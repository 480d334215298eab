package game

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const tickInterval = 500 * time.Millisecond

// Registry owns the code→Room map and the connection→room back-reference.
// Constructed once in main and injected into the gateway; it is the only
// shared structure between rooms.
type Registry struct {
	locker   sync.RWMutex
	rooms    map[string]*Room
	byPlayer map[string]*Room
	log      *slog.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		byPlayer: make(map[string]*Room),
		log:      slog.With("component", "registry"),
	}
}

// CreateRoom opens a fresh lobby with the caller as host. Codes re-roll on
// collision; exhaustion of the 33^6 keyspace is not handled.
func (reg *Registry) CreateRoom(p *Player, profile profilePayload) string {
	p.setProfile(profile)

	reg.locker.Lock()
	code := newRoomCode()
	for _, taken := reg.rooms[code]; taken; _, taken = reg.rooms[code] {
		code = newRoomCode()
	}
	room := newRoom(code, p)
	reg.rooms[code] = room
	reg.byPlayer[p.id] = room
	reg.locker.Unlock()

	reg.log.Info("room created", "room", code, "host", p.id)

	room.locker.Lock()
	room.broadcastRoster()
	room.notifyHostCanStart()
	room.locker.Unlock()
	return code
}

func (reg *Registry) JoinRoom(code string, p *Player, profile profilePayload) (int, error) {
	reg.locker.RLock()
	room := reg.rooms[code]
	reg.locker.RUnlock()
	if room == nil {
		return 0, ErrRoomNotFound
	}

	p.setProfile(profile)
	colorIndex, err := room.addPlayer(p)
	if err != nil {
		return 0, err
	}

	reg.locker.Lock()
	reg.byPlayer[p.id] = room
	reg.locker.Unlock()
	return colorIndex, nil
}

// LeaveRoom removes the player from whatever room they occupy, promoting a
// new host if needed and deleting the room the moment it empties. Safe to
// call for players not in any room.
func (reg *Registry) LeaveRoom(playerID string) {
	reg.locker.Lock()
	room := reg.byPlayer[playerID]
	delete(reg.byPlayer, playerID)
	reg.locker.Unlock()
	if room == nil {
		return
	}

	if room.removePlayer(playerID) {
		reg.locker.Lock()
		delete(reg.rooms, room.code)
		reg.locker.Unlock()
		reg.log.Info("room deleted", "room", room.code)
	}
}

func (reg *Registry) RoomFor(playerID string) *Room {
	reg.locker.RLock()
	defer reg.locker.RUnlock()
	return reg.byPlayer[playerID]
}

// Run drives every live room's timers from a single ticker until the
// context is cancelled. Deleted rooms simply stop being ticked, which is
// all the timer cancellation the design needs.
func (reg *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			reg.locker.RLock()
			rooms := make([]*Room, 0, len(reg.rooms))
			for _, room := range reg.rooms {
				rooms = append(rooms, room)
			}
			reg.locker.RUnlock()

			for _, room := range rooms {
				room.Tick(now)
			}
		}
	}
}
