package game

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const writeBacklog = 256
const pingInterval = 30 * time.Second

// Player is one websocket connection plus the per-match state attached to
// it. The identity fields live for the lifetime of the connection; the match
// fields are reset on room entry and when a finished room recycles into a
// rematch lobby.
type Player struct {
	id      string
	session NetworkSession
	limiter *rate.Limiter

	username string
	avatar   string

	colorIndex   int
	actionPoints int
	firewallUsed bool
	ready        bool
	eliminated   bool

	writeChan chan []byte
	closeOnce sync.Once
}

func NewPlayer(id string, session NetworkSession) *Player {
	return &Player{
		id:        id,
		session:   session,
		limiter:   rate.NewLimiter(2, 8),
		writeChan: make(chan []byte, writeBacklog),
	}
}

func (p *Player) ID() string { return p.id }

func (p *Player) setProfile(profile profilePayload) {
	p.username = profile.Username
	p.avatar = profile.AvatarSrc
}

// resetForLobby returns the match fields to their pre-game values.
func (p *Player) resetForLobby() {
	p.actionPoints = StartingActionPoints
	p.firewallUsed = false
	p.ready = false
	p.eliminated = false
}

// enqueue hands a frame to the write pump without blocking. A consumer that
// stopped draining loses frames rather than stalling the room.
func (p *Player) enqueue(data []byte) {
	select {
	case p.writeChan <- data:
	default:
	}
}

// CloseSession tears the connection down. Must only be called once the
// player is out of every roster, so no further frames can be enqueued.
func (p *Player) CloseSession(reason string) {
	p.closeOnce.Do(func() {
		close(p.writeChan)
		p.session.Close(reason)
	})
}

// WritePump drains the outbound queue onto the socket and keeps the
// connection alive with periodic pings. One goroutine per player; the single
// writer is what preserves per-connection ordering of room broadcasts.
func (p *Player) WritePump() {
	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()
	for {
		select {
		case data, ok := <-p.writeChan:
			if !ok {
				return
			}
			if err := p.session.Write(data); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := p.session.Ping(); err != nil {
				return
			}
		}
	}
}
