package game

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Gateway is the boundary between websocket sessions and the coordinator.
// It decodes the closed envelope set, rejects unknown shapes before they
// reach handler logic, and routes actions to the caller's room.
type Gateway struct {
	registry *Registry
	log      *slog.Logger
}

func NewGateway(registry *Registry) *Gateway {
	return &Gateway{registry: registry, log: slog.With("component", "gateway")}
}

// ServeSession owns one connection from upgrade to disconnect. When the
// read loop ends the player is removed from their room exactly as if they
// had sent leave-room; there is no grace period or resumption.
func (g *Gateway) ServeSession(session NetworkSession) {
	player := NewPlayer(uuid.NewString(), session)
	g.log.Debug("session opened", "player", player.id)
	go player.WritePump()
	g.readLoop(player)
	g.registry.LeaveRoom(player.id)
	player.CloseSession("")
	g.log.Debug("session closed", "player", player.id)
}

func (g *Gateway) readLoop(p *Player) {
	for {
		data, err := p.session.Read()
		if err != nil {
			return
		}
		if !p.limiter.Allow() {
			continue
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			g.sendError(p, "malformed-event")
			continue
		}
		g.dispatch(p, env)
	}
}

func (g *Gateway) dispatch(p *Player, env envelope) {
	now := time.Now()

	switch env.Event {
	case EventCreateRoom:
		var profile profilePayload
		if !g.decode(p, env, &profile) {
			return
		}
		// A connection occupies at most one room.
		g.registry.LeaveRoom(p.id)
		code := g.registry.CreateRoom(p, profile)
		g.ack(p, env, createRoomAck{Success: true, RoomCode: code})

	case EventJoinRoom:
		var payload joinRoomPayload
		if !g.decode(p, env, &payload) {
			return
		}
		g.registry.LeaveRoom(p.id)
		colorIndex, err := g.registry.JoinRoom(payload.RoomCode, p, payload.PlayerData)
		if err != nil {
			g.ack(p, env, errorAck{Error: err.Error()})
			return
		}
		g.ack(p, env, joinRoomAck{Success: true, RoomCode: payload.RoomCode, ColorIndex: colorIndex})

	case EventPlayerReady:
		var ready bool
		if !g.decode(p, env, &ready) {
			return
		}
		if room := g.registry.RoomFor(p.id); room != nil {
			room.SetReady(p.id, ready)
		}

	case EventStartGame:
		room := g.registry.RoomFor(p.id)
		if room == nil {
			return
		}
		if err := room.StartGame(p.id, now); err != nil {
			g.sendError(p, err.Error())
		}

	case EventScanCard:
		var payload scanCardPayload
		if !g.decode(p, env, &payload) {
			return
		}
		g.costedAction(p, env, func(room *Room) (int, error) {
			return room.ScanCard(p.id, payload)
		})

	case EventSendEmail:
		var payload sendEmailPayload
		if !g.decode(p, env, &payload) {
			return
		}
		g.costedAction(p, env, func(room *Room) (int, error) {
			return room.SendEmail(p.id, payload)
		})

	case EventCyberGuard:
		var payload cyberGuardPayload
		if !g.decode(p, env, &payload) {
			return
		}
		g.costedAction(p, env, func(room *Room) (int, error) {
			return room.CyberGuard(p.id, payload)
		})

	case EventUseFirewall:
		room := g.registry.RoomFor(p.id)
		if room == nil {
			g.ack(p, env, errorAck{Error: ErrRoomNotFound.Error()})
			return
		}
		balance, err := room.UseFirewall(p.id)
		if err != nil {
			g.ack(p, env, errorAck{Error: err.Error()})
			return
		}
		g.ack(p, env, firewallAck{Success: true, ActionPoints: balance, FirewallUsed: true})

	case EventPlayerEliminated:
		if room := g.registry.RoomFor(p.id); room != nil {
			room.Eliminate(p.id, now)
		}

	case EventLeaveRoom:
		g.registry.LeaveRoom(p.id)

	default:
		g.sendError(p, "unknown-event")
	}
}

func (g *Gateway) costedAction(p *Player, env envelope, run func(*Room) (int, error)) {
	room := g.registry.RoomFor(p.id)
	if room == nil {
		g.ack(p, env, errorAck{Error: ErrRoomNotFound.Error()})
		return
	}
	balance, err := run(room)
	if err != nil {
		g.ack(p, env, errorAck{Error: err.Error()})
		return
	}
	g.ack(p, env, actionAck{Success: true, ActionPoints: balance})
}

func (g *Gateway) decode(p *Player, env envelope, dst any) bool {
	if err := json.Unmarshal(env.Data, dst); err != nil {
		g.sendError(p, "malformed-payload")
		return false
	}
	return true
}

// ack answers the caller directly. Events sent without an ack id get none.
func (g *Gateway) ack(p *Player, env envelope, data any) {
	if env.Ack == nil {
		return
	}
	frame, err := json.Marshal(outEnvelope{Event: EventAck, Ack: env.Ack, Data: data})
	if err != nil {
		g.log.Error("marshal ack failed", "err", err)
		return
	}
	p.enqueue(frame)
}

func (g *Gateway) sendError(p *Player, message string) {
	frame, err := json.Marshal(outEnvelope{Event: EventErrorMessage, Data: message})
	if err != nil {
		return
	}
	p.enqueue(frame)
}
