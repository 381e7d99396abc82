package tunnel

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	skifferr "skiff/internal/errors"
	"skiff/internal/metrics"
	"skiff/util"
)

const (
	// pollInterval is the backoff between retries when a read reports
	// "not yet ready".  Short enough to keep both directions
	// responsive without a full event loop.
	pollInterval = 50 * time.Millisecond

	// nonblockWindow bounds a channel read taken under the lock so it
	// approximates a non-blocking call.  The backoff sleep happens
	// after the lock is released.
	nonblockWindow = time.Millisecond
)

// ChannelDialer opens forwarded byte streams through an already
// authenticated session.  *ssh.Client implements it.
type ChannelDialer interface {
	Dial(network, addr string) (net.Conn, error)
}

// Session binds a forwarded channel to a local stream endpoint and
// relays bytes between them in both directions until either side
// closes or fails.  The relay goroutines borrow the channel and the
// endpoint; the Session owns both and closes them on teardown.
type Session struct {
	channel  net.Conn
	endpoint net.Conn
	logger   *util.Logger
	metrics  *metrics.Collector

	// chanMu serializes individual channel calls across the two
	// directions.  It is never held across a backoff sleep or a
	// blocking read.
	chanMu sync.Mutex

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup

	errMu sync.Mutex
	err   error
}

// Establish opens a forwarded channel to targetHost:targetPort through
// the bastion and starts relaying between it and endpoint.
//
// The port is validated before any network activity; a refused
// channel-open is a TunnelError.  On success the caller typically runs
// a second SSH handshake against the other side of endpoint, which
// rides the relay transparently.
func Establish(bastion ChannelDialer, targetHost string, targetPort int, endpoint net.Conn,
	logger *util.Logger, collector *metrics.Collector) (*Session, error) {

	if targetPort < 1 || targetPort > 65535 {
		return nil, skifferr.WrapTunnel("validate", targetHost, targetPort, skifferr.ErrInvalidPort)
	}

	addr := util.FormatAddr(targetHost, targetPort)
	logger.Verbose("tunnel: opening forwarded channel to %s", addr)

	channel, err := bastion.Dial("tcp", addr)
	if err != nil {
		return nil, skifferr.WrapTunnel("open-channel", targetHost, targetPort, err)
	}

	s := &Session{
		channel:  channel,
		endpoint: endpoint,
		logger:   logger,
		metrics:  collector,
		done:     make(chan struct{}),
	}
	collector.RelayOpened()

	s.wg.Add(2)
	go s.relay("outbound", endpoint, channel, false)
	go s.relay("inbound", channel, endpoint, true)

	return s, nil
}

// relay pumps one direction: read from src, write everything read to
// dst.  Writes to a net.Conn are unbuffered, so every chunk is flushed
// as it goes out.  srcIsChannel selects which side of the pair needs
// the channel lock.
func (s *Session) relay(direction string, src, dst net.Conn, srcIsChannel bool) {
	defer s.wg.Done()

	buf := util.GetBuf()
	defer util.PutBuf(buf)
	b := *buf

	// Conns that reject deadlines (the ssh channel conn) fall back to
	// blocking reads taken outside the lock; this direction is the
	// channel's only reader, so the lock still covers every
	// read-or-write pairing that can actually race.
	deadlines := src.SetReadDeadline(time.Time{}) == nil

	for {
		select {
		case <-s.done:
			return
		default:
		}

		n, err := s.read(src, b, srcIsChannel, deadlines)

		if n > 0 {
			if werr := s.write(dst, b[:n], !srcIsChannel); werr != nil {
				s.finish(direction, werr)
				return
			}
			s.count(direction, int64(n))
		}

		switch {
		case err == nil:
			continue
		case isWouldBlock(err):
			// Not ready yet: back off briefly and retry.  The lock is
			// already released here.
			if deadlines && srcIsChannel {
				time.Sleep(pollInterval)
			}
			continue
		default:
			s.finish(direction, err)
			return
		}
	}
}

// read performs one bounded read from src.  Channel reads hold the
// lock only for the duration of the call itself.
func (s *Session) read(src net.Conn, b []byte, locked, deadlines bool) (int, error) {
	if !deadlines {
		return src.Read(b)
	}
	if locked {
		s.chanMu.Lock()
		src.SetReadDeadline(time.Now().Add(nonblockWindow)) //nolint:errcheck
		n, err := src.Read(b)
		s.chanMu.Unlock()
		return n, err
	}
	src.SetReadDeadline(time.Now().Add(pollInterval)) //nolint:errcheck
	return src.Read(b)
}

// write performs one full write to dst, holding the channel lock when
// dst is the shared channel.
func (s *Session) write(dst net.Conn, b []byte, locked bool) error {
	if locked {
		s.chanMu.Lock()
		defer s.chanMu.Unlock()
	}
	_, err := dst.Write(b)
	return err
}

func (s *Session) count(direction string, n int64) {
	if direction == "inbound" {
		s.metrics.BytesInbound(n)
	} else {
		s.metrics.BytesOutbound(n)
	}
}

// finish ends the session for this direction's terminal condition: a
// clean EOF tears down quietly, a hard error is recorded first.
func (s *Session) finish(direction string, err error) {
	if isClean(err) {
		s.logger.Relay(direction, "closed")
		s.teardown(nil)
		return
	}
	s.teardown(skifferr.WrapRelay(direction, err))
}

// teardown closes both sides exactly once.  The other direction
// notices the closed handles on its next operation and exits.
func (s *Session) teardown(err error) {
	s.once.Do(func() {
		if err != nil {
			s.errMu.Lock()
			s.err = err
			s.errMu.Unlock()
			s.logger.Error("%v", err)
			s.metrics.RecordError(err.Error())
		}
		close(s.done)

		s.chanMu.Lock()
		s.channel.Close()
		s.chanMu.Unlock()
		s.endpoint.Close()

		s.metrics.RelayClosed()
	})
}

// Close tears the session down and waits for both directions to stop.
func (s *Session) Close() error {
	s.teardown(nil)
	s.wg.Wait()
	return nil
}

// Wait blocks until the session has ended and returns the first hard
// relay error, if any.
func (s *Session) Wait() error {
	<-s.done
	s.wg.Wait()
	return s.Err()
}

// Done is closed when the session has ended.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the hard relay error that ended the session, or nil
// after a clean close.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// ── error classification ─────────────────────────────────────────────

// isWouldBlock reports whether err is a deadline expiry rather than a
// real failure.
func isWouldBlock(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// isClean returns true for conditions expected at end of stream or
// during shutdown.
func isClean(err error) bool {
	if err == nil || errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
