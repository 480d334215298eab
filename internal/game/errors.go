package game

import "errors"

var (
	ErrRoomNotFound             = errors.New("room-not-found")
	ErrRoomFull                 = errors.New("room-full")
	ErrGameInProgress           = errors.New("game-in-progress")
	ErrNotEnoughPlayers         = errors.New("not-enough-players")
	ErrPlayerInactive           = errors.New("player-inactive")
	ErrWrongPhase               = errors.New("wrong-phase")
	ErrInsufficientActionPoints = errors.New("insufficient-action-points")
	ErrFirewallAlreadyUsed      = errors.New("firewall-already-used")
)
