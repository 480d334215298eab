package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPlayer_WritePumpPreservesOrder(t *testing.T) {
	t.Parallel()
	session := &MockNetworkSession{}
	p := NewPlayer("conn-1", session)

	var got []string
	done := make(chan struct{})
	session.On("Write", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		got = append(got, string(args.Get(0).([]byte)))
		if len(got) == 3 {
			close(done)
		}
	})
	session.On("Close", "bye").Return()

	p.enqueue([]byte("one"))
	p.enqueue([]byte("two"))
	p.enqueue([]byte("three"))
	go p.WritePump()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("write pump never drained the queue")
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)

	p.CloseSession("bye")
	session.AssertExpectations(t)
}

func TestPlayer_EnqueueDropsWhenBacklogIsFull(t *testing.T) {
	t.Parallel()
	p := NewPlayer("conn-1", noopSession{})
	for i := 0; i < writeBacklog; i++ {
		p.enqueue([]byte("frame"))
	}

	// Must not block; the frame is dropped instead.
	p.enqueue([]byte("overflow"))
	assert.Len(t, p.writeChan, writeBacklog)
}

func TestPlayer_CloseSessionIsIdempotent(t *testing.T) {
	t.Parallel()
	session := &MockNetworkSession{}
	session.On("Close", "gone").Return().Once()

	p := NewPlayer("conn-1", session)
	p.CloseSession("gone")
	p.CloseSession("gone")
	session.AssertExpectations(t)
}

func TestPlayer_ResetForLobby(t *testing.T) {
	t.Parallel()
	p := NewPlayer("conn-1", noopSession{})
	p.setProfile(profilePayload{Username: "alice", AvatarSrc: "alice.png"})
	p.actionPoints = 0
	p.firewallUsed = true
	p.ready = true
	p.eliminated = true

	p.resetForLobby()
	assert.Equal(t, StartingActionPoints, p.actionPoints)
	assert.False(t, p.firewallUsed)
	assert.False(t, p.ready)
	assert.False(t, p.eliminated)
	// Identity survives the reset.
	require.Equal(t, "alice", p.username)
	require.Equal(t, "alice.png", p.avatar)
}
