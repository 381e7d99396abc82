package tunnel

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	skifferr "skiff/internal/errors"
	"skiff/internal/metrics"
	"skiff/util"
)

// fakeDialer stands in for an authenticated bastion client.
type fakeDialer struct {
	conn   net.Conn
	err    error
	dialed []string
}

func (d *fakeDialer) Dial(network, addr string) (net.Conn, error) {
	d.dialed = append(d.dialed, addr)
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func testLogger() *util.Logger {
	return util.NewLogger(0)
}

// ── Establish validation ─────────────────────────────────────────────

func TestEstablishRejectsInvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"zero", 0},
		{"negative", -1},
		{"too large", 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDialer{}
			_, err := Establish(d, "target", tt.port, nil, testLogger(), nil)
			if !skifferr.Is(err, skifferr.ErrInvalidPort) {
				t.Fatalf("err = %v, want ErrInvalidPort", err)
			}
			// Validation happens before any channel-open attempt.
			if len(d.dialed) != 0 {
				t.Errorf("dialed %v, want no network calls", d.dialed)
			}
		})
	}
}

func TestEstablishChannelRefused(t *testing.T) {
	d := &fakeDialer{err: skifferr.New("administratively prohibited")}
	_, err := Establish(d, "target", 5432, nil, testLogger(), nil)

	var te *skifferr.TunnelError
	if !skifferr.As(err, &te) {
		t.Fatalf("err = %v, want *TunnelError", err)
	}
	if te.Op != "open-channel" {
		t.Errorf("Op = %q, want open-channel", te.Op)
	}
	if len(d.dialed) != 1 || d.dialed[0] != "target:5432" {
		t.Errorf("dialed = %v", d.dialed)
	}
}

// ── Relay data path ──────────────────────────────────────────────────

// relayFixture wires a Session between two in-memory pipes:
//
//	caller ↔ [endpoint | relay | channel] ↔ service
//
// caller plays the local handshake side, service plays the remote
// host reached through the bastion.
type relayFixture struct {
	sess    *Session
	caller  net.Conn
	service net.Conn
	stats   *metrics.Collector
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()

	chanRelay, service := net.Pipe()
	endpoint, caller := net.Pipe()

	stats := metrics.New()
	sess, err := Establish(&fakeDialer{conn: chanRelay}, "target", 22, endpoint, testLogger(), stats)
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	t.Cleanup(func() {
		sess.Close()
		caller.Close()
		service.Close()
	})

	return &relayFixture{sess: sess, caller: caller, service: service, stats: stats}
}

// roundTrip pushes payload through one direction and asserts it comes
// out intact and in order.
func roundTrip(t *testing.T, payload []byte, src, dst net.Conn) {
	t.Helper()

	errCh := make(chan error, 1)
	go func() {
		_, err := src.Write(payload)
		errCh <- err
	}()

	got := make([]byte, len(payload))
	if _, err := io.ReadFull(dst, got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("payload corrupted in transit")
	}
}

func patterned(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func TestRelayOutbound(t *testing.T) {
	f := newRelayFixture(t)
	roundTrip(t, []byte("hello through the bastion"), f.caller, f.service)
}

func TestRelayInbound(t *testing.T) {
	f := newRelayFixture(t)
	roundTrip(t, []byte("greetings from the far side"), f.service, f.caller)
}

func TestRelayBothDirections(t *testing.T) {
	f := newRelayFixture(t)

	roundTrip(t, []byte("request"), f.caller, f.service)
	roundTrip(t, []byte("response"), f.service, f.caller)
	roundTrip(t, []byte("another request"), f.caller, f.service)
}

// TestRelayBufferBoundaries pushes streams at, below, and one byte
// past the relay buffer size in both directions.
func TestRelayBufferBoundaries(t *testing.T) {
	sizes := []int{1, util.DefaultBufSize - 1, util.DefaultBufSize, util.DefaultBufSize + 1}

	for _, n := range sizes {
		payload := patterned(n)

		f := newRelayFixture(t)
		roundTrip(t, payload, f.caller, f.service)
		roundTrip(t, payload, f.service, f.caller)
		f.sess.Close()
	}
}

func TestRelayByteCounters(t *testing.T) {
	f := newRelayFixture(t)

	roundTrip(t, patterned(100), f.caller, f.service)
	roundTrip(t, patterned(40), f.service, f.caller)

	// Counters are incremented after each relayed write lands, so
	// stop the session (Close joins both relay goroutines) before
	// reading them.
	f.sess.Close()

	s := f.stats.Stats()
	if s.BytesOutbound != 100 {
		t.Errorf("BytesOutbound = %d, want 100", s.BytesOutbound)
	}
	if s.BytesInbound != 40 {
		t.Errorf("BytesInbound = %d, want 40", s.BytesInbound)
	}
}

// ── Teardown ─────────────────────────────────────────────────────────

func TestRelayRemoteCloseTearsDown(t *testing.T) {
	f := newRelayFixture(t)

	// The remote service hanging up ends the whole session.
	f.service.Close()

	if err := f.sess.Wait(); err != nil {
		t.Fatalf("Wait after clean remote close: %v", err)
	}

	// The caller side observes the closed endpoint.
	f.caller.SetReadDeadline(time.Now().Add(time.Second)) //nolint:errcheck
	if _, err := f.caller.Read(make([]byte, 1)); err == nil {
		t.Error("expected error reading a torn-down endpoint")
	}
}

func TestRelayLocalCloseTearsDown(t *testing.T) {
	f := newRelayFixture(t)

	f.caller.Close()

	if err := f.sess.Wait(); err != nil {
		t.Fatalf("Wait after clean local close: %v", err)
	}
}

func TestRelayCloseIsIdempotent(t *testing.T) {
	f := newRelayFixture(t)

	if err := f.sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := f.sess.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	select {
	case <-f.sess.Done():
	default:
		t.Error("Done should be closed after Close")
	}
}

func TestRelayMetricsLifecycle(t *testing.T) {
	f := newRelayFixture(t)

	if got := f.stats.ActiveRelays(); got != 1 {
		t.Errorf("ActiveRelays = %d, want 1", got)
	}

	f.sess.Close()

	if got := f.stats.ActiveRelays(); got != 0 {
		t.Errorf("ActiveRelays after close = %d, want 0", got)
	}
	if got := f.stats.TotalRelays(); got != 1 {
		t.Errorf("TotalRelays = %d, want 1", got)
	}
}
