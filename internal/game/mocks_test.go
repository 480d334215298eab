package game

import (
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- NetworkSession ---

type MockNetworkSession struct {
	mock.Mock
}

func (m *MockNetworkSession) Close(reason string) {
	m.Called(reason)
}

func (m *MockNetworkSession) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockNetworkSession) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockNetworkSession) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// noopSession backs players in room and registry tests, where frames are
// read straight off the write queue and the socket is never touched.
type noopSession struct{}

func (noopSession) Close(string)          {}
func (noopSession) Write([]byte) error    { return nil }
func (noopSession) Read() ([]byte, error) { return nil, io.EOF }
func (noopSession) Ping() error           { return nil }

// chanSession is a scripted connection for gateway tests: the test feeds
// inbound frames through in and collects outbound frames from out.
type chanSession struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newChanSession() *chanSession {
	return &chanSession{
		in:     make(chan []byte, 16),
		out:    make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (s *chanSession) Read() ([]byte, error) {
	data, ok := <-s.in
	if !ok {
		return nil, io.EOF
	}
	return data, nil
}

func (s *chanSession) Write(data []byte) error {
	s.out <- data
	return nil
}

func (s *chanSession) Ping() error { return nil }

func (s *chanSession) Close(string) {
	s.once.Do(func() { close(s.closed) })
}

func (s *chanSession) send(t *testing.T, event string, ack *uint64, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	frame, err := json.Marshal(envelope{Event: event, Ack: ack, Data: raw})
	require.NoError(t, err)
	s.in <- frame
}

func (s *chanSession) sendRaw(frame []byte) {
	s.in <- frame
}

// --- Frame helpers ---

// recvEnvelope mirrors outEnvelope on the receiving side. Ack stays a
// pointer so tests can tell an absent id from an echoed zero.
type recvEnvelope struct {
	Event string          `json:"event"`
	Ack   *uint64         `json:"ack"`
	Data  json.RawMessage `json:"data"`
}

func decodeFrame(t *testing.T, frame []byte) recvEnvelope {
	t.Helper()
	var env recvEnvelope
	require.NoError(t, json.Unmarshal(frame, &env))
	return env
}

// drainEvents empties a player's write queue. Room tests never start the
// write pump, so every broadcast since the last drain is still queued.
func drainEvents(t *testing.T, p *Player) []recvEnvelope {
	t.Helper()
	var out []recvEnvelope
	for {
		select {
		case frame := <-p.writeChan:
			out = append(out, decodeFrame(t, frame))
		default:
			return out
		}
	}
}

func eventNames(envs []recvEnvelope) []string {
	names := make([]string, 0, len(envs))
	for _, env := range envs {
		names = append(names, env.Event)
	}
	return names
}

// findEvent returns the last occurrence of the named event, or fails.
func findEvent(t *testing.T, envs []recvEnvelope, name string) recvEnvelope {
	t.Helper()
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Event == name {
			return envs[i]
		}
	}
	t.Fatalf("no %q among %v", name, eventNames(envs))
	return recvEnvelope{}
}

func decodeData[T any](t *testing.T, env recvEnvelope) T {
	t.Helper()
	var data T
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data
}

// nextFrame pops the next outbound frame of a scripted session.
func nextFrame(t *testing.T, s *chanSession) recvEnvelope {
	t.Helper()
	select {
	case frame := <-s.out:
		return decodeFrame(t, frame)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outbound frame")
	}
	return recvEnvelope{}
}

// waitForEvent discards frames until the named event arrives.
func waitForEvent(t *testing.T, s *chanSession, name string) recvEnvelope {
	t.Helper()
	for {
		env := nextFrame(t, s)
		if env.Event == name {
			return env
		}
	}
}

// waitForAck discards broadcasts until the ack with the given id arrives.
func waitForAck(t *testing.T, s *chanSession, id uint64) recvEnvelope {
	t.Helper()
	for {
		env := nextFrame(t, s)
		if env.Event == EventAck && env.Ack != nil && *env.Ack == id {
			return env
		}
	}
}
