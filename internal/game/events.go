package game

import "encoding/json"

// Inbound event names (client to server).
const (
	EventCreateRoom       = "create-room"
	EventJoinRoom         = "join-room"
	EventPlayerReady      = "player-ready"
	EventStartGame        = "start-game"
	EventScanCard         = "scan-card"
	EventSendEmail        = "send-email"
	EventCyberGuard       = "cyber-guard"
	EventUseFirewall      = "use-firewall"
	EventPlayerEliminated = "player-eliminated"
	EventLeaveRoom        = "leave-room"
)

// Outbound event names (server to client).
const (
	EventAck                  = "ack"
	EventPlayersUpdated       = "players-updated"
	EventCanStartGame         = "can-start-game"
	EventGameStarting         = "game-starting"
	EventCountdownTick        = "countdown-tick"
	EventTurnStarting         = "turn-starting"
	EventPhaseStarting        = "phase-starting"
	EventCardScanned          = "card-scanned"
	EventEmailSent            = "email-sent"
	EventCyberGuardUsed       = "cyber-guard-used"
	EventFirewallUsed         = "firewall-used"
	EventPlayerEliminatedNews = "player-eliminated-event"
	EventTurnEnding           = "turn-ending"
	EventGameEnded            = "game-ended"
	EventYouAreHost           = "you-are-host"
	EventLeftRoom             = "left-room"
	EventErrorMessage         = "error-message"
)

// envelope is the single wire frame. Inbound frames may carry an ack id the
// server echoes back on the direct response; frames without one get no ack.
type envelope struct {
	Event string          `json:"event"`
	Ack   *uint64         `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Ack is a pointer so that broadcasts omit the field while an echoed ack id
// of zero still reaches the wire.
type outEnvelope struct {
	Event string  `json:"event"`
	Ack   *uint64 `json:"ack,omitempty"`
	Data  any     `json:"data,omitempty"`
}

// --- Inbound payloads ---

type profilePayload struct {
	Username  string `json:"username"`
	AvatarSrc string `json:"avatarSrc"`
}

type joinRoomPayload struct {
	RoomCode   string         `json:"roomCode"`
	PlayerData profilePayload `json:"playerData"`
}

type scanCardPayload struct {
	CardIndex  int  `json:"cardIndex"`
	IsInfected bool `json:"isInfected"`
}

type sendEmailPayload struct {
	ToPlayerID string `json:"toPlayerId"`
	CardIndex  int    `json:"cardIndex"`
	IsInfected bool   `json:"isInfected"`
}

type cyberGuardPayload struct {
	CardIndex        int  `json:"cardIndex"`
	GuessedInfected  bool `json:"guessedInfected"`
	ActuallyInfected bool `json:"actuallyInfected"`
}

// --- Ack payloads ---

type errorAck struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type createRoomAck struct {
	Success  bool   `json:"success"`
	RoomCode string `json:"roomCode"`
}

type joinRoomAck struct {
	Success    bool   `json:"success"`
	RoomCode   string `json:"roomCode"`
	ColorIndex int    `json:"colorIndex"`
}

type actionAck struct {
	Success      bool `json:"success"`
	ActionPoints int  `json:"actionPoints"`
}

type firewallAck struct {
	Success      bool `json:"success"`
	ActionPoints int  `json:"actionPoints"`
	FirewallUsed bool `json:"firewallUsed"`
}

// --- Broadcast payloads ---

type playerInfo struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Avatar       string `json:"avatar"`
	ColorIndex   int    `json:"colorIndex"`
	Color        string `json:"color"`
	IsHost       bool   `json:"isHost"`
	Ready        bool   `json:"ready"`
	IsEliminated bool   `json:"isEliminated"`
	ActionPoints int    `json:"actionPoints"`
}

type playersUpdated struct {
	Players []playerInfo `json:"players"`
	Count   int          `json:"count"`
}

type turnStarting struct {
	TurnNumber int `json:"turnNumber"`
}

type phaseStarting struct {
	Phase    string `json:"phase"`
	Duration int    `json:"duration"` // seconds
	EndsAt   int64  `json:"endsAt"`   // unix milliseconds
}

type cardScanned struct {
	PlayerID   string `json:"playerId"`
	Username   string `json:"username"`
	CardIndex  int    `json:"cardIndex"`
	IsInfected bool   `json:"isInfected"`
}

type emailSent struct {
	FromID     string `json:"fromId"`
	From       string `json:"from"`
	ToID       string `json:"toId"`
	To         string `json:"to"`
	CardIndex  int    `json:"cardIndex"`
	IsInfected bool   `json:"isInfected"`
}

type cyberGuardUsed struct {
	PlayerID         string `json:"playerId"`
	Username         string `json:"username"`
	CardIndex        int    `json:"cardIndex"`
	GuessedInfected  bool   `json:"guessedInfected"`
	ActuallyInfected bool   `json:"actuallyInfected"`
	Correct          bool   `json:"correct"`
}

type firewallUsed struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

type playerEliminated struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

type gameResult struct {
	PlayerID     string `json:"playerId"`
	Username     string `json:"username"`
	Rank         int    `json:"rank"`
	IsEliminated bool   `json:"isEliminated"`
}

type gameEnded struct {
	Results []gameResult `json:"results"`
}

// actionRule gates a costed action: which room states may run it, which phase
// (phaseAny for phase-independent actions), and its action point cost. The
// table is the single source of truth; Room.authorize is the only reader.
type actionRule struct {
	cost    int
	states  []RoomState
	phase   Phase
	oneShot bool // at most once per game per player
}

const phaseAny = PhaseNone

var actionRules = map[string]actionRule{
	EventScanCard:    {cost: 1, states: []RoomState{StateCountdown, StateInTurn}, phase: phaseAny},
	EventSendEmail:   {cost: 1, states: []RoomState{StateInTurn}, phase: Phase2},
	EventCyberGuard:  {cost: 1, states: []RoomState{StateInTurn}, phase: Phase3},
	EventUseFirewall: {cost: 2, states: []RoomState{StateCountdown, StateInTurn}, phase: phaseAny, oneShot: true},
}
