// Package sftp wraps a remote SFTP session with the file listing and
// transfer operations the dual-pane browser needs.
package sftp

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	sftplib "github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"skiff/internal/metrics"
	"skiff/util"
)

// FileInfo describes one directory entry, local or remote.
type FileInfo struct {
	Name  string
	Path  string
	IsDir bool
	Size  int64
	Mode  fs.FileMode
}

// SortFiles orders entries directories-first, then by name.  Both panes
// use the same order so the two listings line up visually.
func SortFiles(files []FileInfo) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].IsDir != files[j].IsDir {
			return files[i].IsDir
		}
		return files[i].Name < files[j].Name
	})
}

// ListLocal reads a local directory into the same shape the remote
// listing uses.  Entries whose metadata cannot be read are skipped.
func ListLocal(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:  e.Name(),
			Path:  filepath.Join(dir, e.Name()),
			IsDir: e.IsDir(),
			Size:  info.Size(),
			Mode:  info.Mode(),
		})
	}
	SortFiles(files)
	return files, nil
}

// Client is an established SFTP session over an SSH connection.  The
// underlying SSH client is owned by the caller; Close only shuts down
// the SFTP subsystem.
type Client struct {
	sftp    *sftplib.Client
	logger  *util.Logger
	metrics *metrics.Collector
}

// NewClient opens the SFTP subsystem on an authenticated SSH client.
func NewClient(conn *ssh.Client, logger *util.Logger, collector *metrics.Collector) (*Client, error) {
	sc, err := sftplib.NewClient(conn,
		sftplib.UseConcurrentReads(true),
		sftplib.UseConcurrentWrites(true),
	)
	if err != nil {
		return nil, fmt.Errorf("opening sftp subsystem: %w", err)
	}
	return &Client{sftp: sc, logger: logger, metrics: collector}, nil
}

// Close shuts down the SFTP subsystem.
func (c *Client) Close() error {
	return c.sftp.Close()
}

// HomeDir returns the remote user's working directory at session start.
func (c *Client) HomeDir() (string, error) {
	return c.sftp.Getwd()
}

// List reads a remote directory, directories first, then by name.
func (c *Client) List(dir string) ([]FileInfo, error) {
	entries, err := c.sftp.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, info := range entries {
		files = append(files, FileInfo{
			Name:  info.Name(),
			Path:  path.Join(dir, info.Name()),
			IsDir: info.IsDir(),
			Size:  info.Size(),
			Mode:  info.Mode(),
		})
	}
	SortFiles(files)
	return files, nil
}

// Download copies a remote file to a local path, creating or
// truncating the destination.
func (c *Client) Download(remotePath, localPath string) error {
	src, err := c.sftp.Open(remotePath)
	if err != nil {
		return fmt.Errorf("opening remote %s: %w", remotePath, err)
	}
	defer src.Close()

	dst, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", localPath, err)
	}

	n, err := c.copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("downloading %s: %w", remotePath, err)
	}

	c.logger.Verbose("downloaded %s (%d bytes)", remotePath, n)
	c.metrics.BytesInbound(n)
	c.metrics.TransferDone()
	return nil
}

// Upload copies a local file to a remote path, creating or truncating
// the destination.
func (c *Client) Upload(localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer src.Close()

	dst, err := c.sftp.Create(remotePath)
	if err != nil {
		return fmt.Errorf("creating remote %s: %w", remotePath, err)
	}

	n, err := c.copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("uploading %s: %w", localPath, err)
	}

	c.logger.Verbose("uploaded %s (%d bytes)", localPath, n)
	c.metrics.BytesOutbound(n)
	c.metrics.TransferDone()
	return nil
}

// Mkdir creates a remote directory.
func (c *Client) Mkdir(remotePath string) error {
	if err := c.sftp.Mkdir(remotePath); err != nil {
		return fmt.Errorf("creating remote %s: %w", remotePath, err)
	}
	return nil
}

// UploadDir recursively uploads a local directory tree, creating the
// remote directory first and then walking the local entries.
func (c *Client) UploadDir(localDir, remoteDir string) error {
	if err := c.Mkdir(remoteDir); err != nil {
		return err
	}

	entries, err := os.ReadDir(localDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", localDir, err)
	}

	for _, e := range entries {
		localPath := filepath.Join(localDir, e.Name())
		remotePath := path.Join(remoteDir, e.Name())
		if e.IsDir() {
			err = c.UploadDir(localPath, remotePath)
		} else {
			err = c.Upload(localPath, remotePath)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// copy streams src to dst through a pooled buffer and reports the
// byte count.
func (c *Client) copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := util.GetBuf()
	defer util.PutBuf(buf)
	return io.CopyBuffer(dst, src, *buf)
}
