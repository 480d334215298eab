package game

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

type RoomState int

const (
	StateLobby RoomState = iota
	StateCountdown
	StateInTurn
	StateFinished
)

func (s RoomState) String() string {
	switch s {
	case StateLobby:
		return "lobby"
	case StateCountdown:
		return "countdown"
	case StateInTurn:
		return "in-turn"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

type Phase int

const (
	PhaseNone Phase = iota
	Phase1
	Phase2
	Phase3
)

func (p Phase) String() string {
	switch p {
	case Phase1:
		return "phase1"
	case Phase2:
		return "phase2"
	case Phase3:
		return "phase3"
	}
	return ""
}

const (
	MaxPlayers           = 6
	StartingActionPoints = 3

	countdownFrom       = 3
	countdownInterval   = time.Second
	turnSplashDelay     = 3 * time.Second
	phase1Duration      = 30 * time.Second
	phase2Duration      = 20 * time.Second
	phase3Duration      = 10 * time.Second
	turnEndDelay        = 3 * time.Second
	eliminationEndDelay = 2 * time.Second
)

var phaseDurations = map[Phase]time.Duration{
	Phase1: phase1Duration,
	Phase2: phase2Duration,
	Phase3: phase3Duration,
}

// One color per seat, assigned by join order.
var colorPalette = [MaxPlayers]string{
	"#e63946", "#457b9d", "#2a9d8f", "#f4a261", "#9b5de5", "#f15bb5",
}

// pendingTimer names the single transition a room has scheduled. Replacing
// it is the cancellation mechanism: a room never has two live timers, and a
// room dropped from the registry stops being ticked altogether.
type pendingTimer int

const (
	timerNone pendingTimer = iota
	timerCountdown
	timerPhaseStart
	timerPhaseEnd
	timerTurnStart
	timerGameEnd
)

// Room is one match instance. Every mutation, whether an inbound player
// action or a tick, runs to completion under the room lock, so handlers
// never observe a half-applied transition.
type Room struct {
	code    string
	host    *Player
	players []*Player // join order, used for color and host-succession tie-breaks

	state         RoomState
	phase         Phase
	currentTurn   int
	countdownLeft int
	phaseEnd      time.Time

	pending  pendingTimer
	deadline time.Time

	// Set when the last player leaves; guards a join racing room deletion.
	closed bool

	locker sync.Mutex
	log    *slog.Logger
}

func newRoom(code string, host *Player) *Room {
	host.resetForLobby()
	host.colorIndex = 0
	return &Room{
		code:    code,
		host:    host,
		players: []*Player{host},
		state:   StateLobby,
		log:     slog.With("room", code),
	}
}

func (r *Room) Code() string { return r.code }

// Tick drives every scheduled transition. The registry calls it on live
// rooms only, so a timer can never fire against a deleted room.
func (r *Room) Tick(now time.Time) {
	r.locker.Lock()
	defer r.locker.Unlock()
	r.handleTick(now)
}

func (r *Room) handleTick(now time.Time) {
	if r.pending == timerNone || now.Before(r.deadline) {
		return
	}
	switch r.pending {
	case timerCountdown:
		if r.countdownLeft > 0 {
			r.broadcast(EventCountdownTick, r.countdownLeft)
			r.countdownLeft--
			r.deadline = r.deadline.Add(countdownInterval)
			return
		}
		r.startTurn(now)
	case timerPhaseStart:
		r.beginPhase(Phase1, now)
	case timerPhaseEnd:
		switch r.phase {
		case Phase1:
			r.beginPhase(Phase2, now)
		case Phase2:
			r.beginPhase(Phase3, now)
		case Phase3:
			r.endTurn(now)
		}
	case timerTurnStart:
		r.startTurn(now)
	case timerGameEnd:
		r.finishGame()
	}
}

// --- Roster ---

func (r *Room) addPlayer(p *Player) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	if r.closed {
		return 0, ErrRoomNotFound
	}
	if r.state != StateLobby {
		return 0, ErrGameInProgress
	}
	if len(r.players) >= MaxPlayers {
		return 0, ErrRoomFull
	}

	p.resetForLobby()
	p.colorIndex = r.nextColorIndex()
	r.players = append(r.players, p)
	r.log.Info("player joined", "player", p.id, "username", p.username, "count", len(r.players))

	r.broadcastRoster()
	r.notifyHostCanStart()
	return p.colorIndex, nil
}

// removePlayer unconditionally drops the player and reports whether the
// room is now empty. Runs for explicit leaves and disconnects alike.
func (r *Room) removePlayer(playerID string) (empty bool) {
	r.locker.Lock()
	defer r.locker.Unlock()

	idx := -1
	for i, p := range r.players {
		if p.id == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	leaver := r.players[idx]
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	r.sendTo(leaver, EventLeftRoom, nil)
	r.log.Info("player left", "player", leaver.id, "username", leaver.username, "count", len(r.players))

	if len(r.players) == 0 {
		r.closed = true
		r.pending = timerNone
		return true
	}

	if leaver == r.host {
		promoted := r.players[0]
		promoted.ready = false
		r.host = promoted
		r.sendTo(promoted, EventYouAreHost, nil)
		r.log.Info("host reassigned", "player", promoted.id, "username", promoted.username)
	}

	r.broadcastRoster()
	r.notifyHostCanStart()
	return false
}

func (r *Room) nextColorIndex() int {
	used := [MaxPlayers]bool{}
	for _, p := range r.players {
		if p.colorIndex >= 0 && p.colorIndex < MaxPlayers {
			used[p.colorIndex] = true
		}
	}
	for i, taken := range used {
		if !taken {
			return i
		}
	}
	return len(r.players)
}

func (r *Room) activeCount() int {
	n := 0
	for _, p := range r.players {
		if !p.eliminated {
			n++
		}
	}
	return n
}

func (r *Room) member(playerID string) *Player {
	for _, p := range r.players {
		if p.id == playerID {
			return p
		}
	}
	return nil
}

// --- Readiness and start gate ---

func (r *Room) SetReady(playerID string, ready bool) {
	r.locker.Lock()
	defer r.locker.Unlock()

	p := r.member(playerID)
	if p == nil {
		return
	}
	p.ready = ready
	r.broadcastRoster()
	r.notifyHostCanStart()
}

// StartGame begins the countdown. Non-host callers are ignored; an
// undersized lobby is the one start failure reported back to the caller.
func (r *Room) StartGame(playerID string, now time.Time) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	if r.member(playerID) != r.host || r.state != StateLobby {
		return nil
	}
	if len(r.players) < 2 {
		return ErrNotEnoughPlayers
	}

	r.state = StateCountdown
	r.countdownLeft = countdownFrom
	r.pending = timerCountdown
	r.deadline = now.Add(countdownInterval)
	r.broadcast(EventGameStarting, nil)
	r.log.Info("game starting", "players", len(r.players))
	return nil
}

// --- Turn loop ---

func (r *Room) startTurn(now time.Time) {
	r.state = StateInTurn
	r.phase = PhaseNone
	r.currentTurn++
	for _, p := range r.players {
		if !p.eliminated {
			p.actionPoints = StartingActionPoints
		}
	}
	r.broadcast(EventTurnStarting, turnStarting{TurnNumber: r.currentTurn})
	r.log.Debug("turn starting", "turn", r.currentTurn)
	r.pending = timerPhaseStart
	r.deadline = now.Add(turnSplashDelay)
}

func (r *Room) beginPhase(phase Phase, now time.Time) {
	duration := phaseDurations[phase]
	r.phase = phase
	r.phaseEnd = now.Add(duration)
	r.broadcast(EventPhaseStarting, phaseStarting{
		Phase:    phase.String(),
		Duration: int(duration.Seconds()),
		EndsAt:   r.phaseEnd.UnixMilli(),
	})
	r.log.Debug("phase starting", "turn", r.currentTurn, "phase", phase.String())
	r.pending = timerPhaseEnd
	r.deadline = r.phaseEnd
}

func (r *Room) endTurn(now time.Time) {
	r.phase = PhaseNone
	r.broadcast(EventTurnEnding, nil)
	r.deadline = now.Add(turnEndDelay)
	if r.activeCount() <= 1 {
		r.pending = timerGameEnd
	} else {
		r.pending = timerTurnStart
	}
}

// --- Player actions ---

// authorize is the single reader of the actionRules table: membership,
// room state, phase and cost are all checked here before any handler
// mutates anything.
func (r *Room) authorize(playerID, event string) (*Player, actionRule, error) {
	rule := actionRules[event]

	p := r.member(playerID)
	if p == nil || p.eliminated {
		return nil, rule, ErrPlayerInactive
	}

	stateOK := false
	for _, s := range rule.states {
		if r.state == s {
			stateOK = true
			break
		}
	}
	if !stateOK {
		return nil, rule, ErrWrongPhase
	}
	if rule.phase != phaseAny && r.phase != rule.phase {
		return nil, rule, ErrWrongPhase
	}
	// The one-shot check outranks the cost check: a player who already spent
	// their firewall is told so even with an empty budget.
	if rule.oneShot && p.firewallUsed {
		return p, rule, ErrFirewallAlreadyUsed
	}
	if p.actionPoints < rule.cost {
		return nil, rule, ErrInsufficientActionPoints
	}
	return p, rule, nil
}

// ScanCard reveals a card. The infection flag is client-supplied and echoed
// unverified; there is no authoritative deck on the server.
func (r *Room) ScanCard(playerID string, payload scanCardPayload) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	p, rule, err := r.authorize(playerID, EventScanCard)
	if err != nil {
		return 0, err
	}
	p.actionPoints -= rule.cost
	r.broadcast(EventCardScanned, cardScanned{
		PlayerID:   p.id,
		Username:   p.username,
		CardIndex:  payload.CardIndex,
		IsInfected: payload.IsInfected,
	})
	return p.actionPoints, nil
}

func (r *Room) SendEmail(playerID string, payload sendEmailPayload) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	p, rule, err := r.authorize(playerID, EventSendEmail)
	if err != nil {
		return 0, err
	}
	p.actionPoints -= rule.cost

	toUsername := ""
	if recipient := r.member(payload.ToPlayerID); recipient != nil {
		toUsername = recipient.username
	}
	r.broadcast(EventEmailSent, emailSent{
		FromID:     p.id,
		From:       p.username,
		ToID:       payload.ToPlayerID,
		To:         toUsername,
		CardIndex:  payload.CardIndex,
		IsInfected: payload.IsInfected,
	})
	return p.actionPoints, nil
}

func (r *Room) CyberGuard(playerID string, payload cyberGuardPayload) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	p, rule, err := r.authorize(playerID, EventCyberGuard)
	if err != nil {
		return 0, err
	}
	p.actionPoints -= rule.cost
	r.broadcast(EventCyberGuardUsed, cyberGuardUsed{
		PlayerID:         p.id,
		Username:         p.username,
		CardIndex:        payload.CardIndex,
		GuessedInfected:  payload.GuessedInfected,
		ActuallyInfected: payload.ActuallyInfected,
		Correct:          payload.GuessedInfected == payload.ActuallyInfected,
	})
	return p.actionPoints, nil
}

func (r *Room) UseFirewall(playerID string) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	p, rule, err := r.authorize(playerID, EventUseFirewall)
	if err != nil {
		if p != nil {
			// Rejected reuse costs nothing; report the untouched balance.
			return p.actionPoints, err
		}
		return 0, err
	}
	p.firewallUsed = true
	p.actionPoints -= rule.cost
	r.broadcast(EventFirewallUsed, firewallUsed{PlayerID: p.id, Username: p.username})
	return p.actionPoints, nil
}

// --- Elimination and game end ---

// Eliminate marks the player out for the rest of the match. Idempotent;
// eliminated players stay on the roster for final ranking.
func (r *Room) Eliminate(playerID string, now time.Time) {
	r.locker.Lock()
	defer r.locker.Unlock()

	p := r.member(playerID)
	if p == nil || p.eliminated {
		return
	}
	p.eliminated = true
	r.broadcast(EventPlayerEliminatedNews, playerEliminated{PlayerID: p.id, Username: p.username})
	r.log.Info("player eliminated", "player", p.id, "username", p.username, "active", r.activeCount())

	if r.activeCount() <= 1 {
		r.pending = timerGameEnd
		r.deadline = now.Add(eliminationEndDelay)
		return
	}
	r.broadcastRoster()
}

func (r *Room) finishGame() {
	r.state = StateFinished

	// Actives rank above eliminated players; roster order breaks ties
	// within each group.
	results := make([]gameResult, 0, len(r.players))
	for _, p := range r.players {
		if !p.eliminated {
			results = append(results, gameResult{PlayerID: p.id, Username: p.username})
		}
	}
	for _, p := range r.players {
		if p.eliminated {
			results = append(results, gameResult{PlayerID: p.id, Username: p.username, IsEliminated: true})
		}
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	r.broadcast(EventGameEnded, gameEnded{Results: results})
	r.log.Info("game ended", "turns", r.currentTurn)

	// Recycle the room for a rematch under the same code.
	r.state = StateLobby
	r.phase = PhaseNone
	r.currentTurn = 0
	r.countdownLeft = 0
	r.phaseEnd = time.Time{}
	r.pending = timerNone
	for _, p := range r.players {
		p.resetForLobby()
	}
	r.broadcastRoster()
	r.notifyHostCanStart()
}

// --- Broadcast helpers ---

func (r *Room) broadcast(event string, data any) {
	frame, err := json.Marshal(outEnvelope{Event: event, Data: data})
	if err != nil {
		r.log.Error("marshal broadcast failed", "event", event, "err", err)
		return
	}
	for _, p := range r.players {
		p.enqueue(frame)
	}
}

func (r *Room) sendTo(p *Player, event string, data any) {
	frame, err := json.Marshal(outEnvelope{Event: event, Data: data})
	if err != nil {
		r.log.Error("marshal event failed", "event", event, "err", err)
		return
	}
	p.enqueue(frame)
}

func (r *Room) broadcastRoster() {
	roster := playersUpdated{Players: make([]playerInfo, 0, len(r.players)), Count: len(r.players)}
	for _, p := range r.players {
		roster.Players = append(roster.Players, playerInfo{
			ID:           p.id,
			Username:     p.username,
			Avatar:       p.avatar,
			ColorIndex:   p.colorIndex,
			Color:        colorPalette[p.colorIndex%MaxPlayers],
			IsHost:       p == r.host,
			Ready:        p.ready,
			IsEliminated: p.eliminated,
			ActionPoints: p.actionPoints,
		})
	}
	r.broadcast(EventPlayersUpdated, roster)
}

// notifyHostCanStart tells the host, and only the host, whether the start
// gate is open: at least two players and every non-host player ready.
func (r *Room) notifyHostCanStart() {
	canStart := len(r.players) >= 2
	for _, p := range r.players {
		if p != r.host && !p.ready {
			canStart = false
			break
		}
	}
	r.sendTo(r.host, EventCanStartGame, canStart)
}
