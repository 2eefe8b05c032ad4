package game

import "errors"

// Typed failures reported to the command layer. None of these are fatal to
// the process; each maps to a user-facing reply.
var (
	ErrGameNotFound        = errors.New("game not found")
	ErrAlreadyBanned       = errors.New("user is already banned from this game")
	ErrNotBanned           = errors.New("user is not banned from this game")
	ErrInvalidConfig       = errors.New("invalid game configuration")
	ErrFrenzyAlreadyActive = errors.New("a frenzy is already active for this game")
)
