// Package metrics provides lightweight counters for tracking the
// runtime statistics of skiff sessions and tunnel relays.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one connection attempt and any
// tunnel relay it spawns.  A nil Collector is safe to use; all
// methods become no-ops.
type Collector struct {
	relaysActive  atomic.Int64
	relaysTotal   atomic.Int64
	bytesInbound  atomic.Int64 // channel → local endpoint
	bytesOutbound atomic.Int64 // local endpoint → channel
	transfers     atomic.Int64
	errorsTotal   atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Relay metrics ────────────────────────────────────────────────────

// RelayOpened increments both the active and total relay counters.
func (c *Collector) RelayOpened() {
	if c == nil {
		return
	}
	c.relaysActive.Add(1)
	c.relaysTotal.Add(1)
}

// RelayClosed decrements the active relay counter.
func (c *Collector) RelayClosed() {
	if c == nil {
		return
	}
	c.relaysActive.Add(-1)
}

// ActiveRelays returns the current number of live tunnel relays.
func (c *Collector) ActiveRelays() int64 {
	if c == nil {
		return 0
	}
	return c.relaysActive.Load()
}

// TotalRelays returns the lifetime relay count.
func (c *Collector) TotalRelays() int64 {
	if c == nil {
		return 0
	}
	return c.relaysTotal.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesInbound records n bytes relayed from the channel to the local
// endpoint.
func (c *Collector) BytesInbound(n int64) {
	if c == nil {
		return
	}
	c.bytesInbound.Add(n)
}

// BytesOutbound records n bytes relayed from the local endpoint to the
// channel.
func (c *Collector) BytesOutbound(n int64) {
	if c == nil {
		return
	}
	c.bytesOutbound.Add(n)
}

// TransferDone records one completed file transfer.
func (c *Collector) TransferDone() {
	if c == nil {
		return
	}
	c.transfers.Add(1)
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError notes a failure with its message for later inspection.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// LastError returns the most recent error message, or "".
func (c *Collector) LastError() string {
	if c == nil {
		return ""
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErrorMsg
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	ActiveRelays  int64         `json:"active_relays"`
	TotalRelays   int64         `json:"total_relays"`
	BytesInbound  int64         `json:"bytes_inbound"`
	BytesOutbound int64         `json:"bytes_outbound"`
	Transfers     int64         `json:"transfers"`
	Errors        int64         `json:"errors"`
	Uptime        time.Duration `json:"uptime"`
	LastError     string        `json:"last_error,omitempty"`
}

// Stats returns a consistent snapshot of the collector.
func (c *Collector) Stats() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	start := c.startTime
	lastMsg := c.lastErrorMsg
	c.mu.RUnlock()

	return Snapshot{
		ActiveRelays:  c.relaysActive.Load(),
		TotalRelays:   c.relaysTotal.Load(),
		BytesInbound:  c.bytesInbound.Load(),
		BytesOutbound: c.bytesOutbound.Load(),
		Transfers:     c.transfers.Load(),
		Errors:        c.errorsTotal.Load(),
		Uptime:        time.Since(start),
		LastError:     lastMsg,
	}
}
