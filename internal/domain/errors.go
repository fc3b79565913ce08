package domain

import "errors"

var (
	// ErrInvalidItem is returned when an item has no options to choose from.
	ErrInvalidItem = errors.New("item has no options")
	// ErrLookup indicates a selection references an option or task that does not exist.
	ErrLookup = errors.New("selection not found")
	// ErrOrderingViolation is returned when an event arrives while the session cannot accept it.
	ErrOrderingViolation = errors.New("event not accepted in current state")
	// ErrTextTooShort is returned when a journal entry is below the minimum length.
	ErrTextTooShort = errors.New("journal entry too short")

	// ErrGameNotFound indicates the game definition could not be loaded.
	ErrGameNotFound = errors.New("game not found")
	// ErrInvalidGame indicates a game definition failed validation.
	ErrInvalidGame = errors.New("invalid game definition")
	// ErrSessionNotFound is returned when a play session does not exist or has ended.
	ErrSessionNotFound = errors.New("game session not found")
)

// IsIgnorable reports whether err represents an interaction event that should be
// dropped without surfacing an error state to the player.
func IsIgnorable(err error) bool {
	return errors.Is(err, ErrOrderingViolation) ||
		errors.Is(err, ErrLookup) ||
		errors.Is(err, ErrInvalidItem) ||
		errors.Is(err, ErrTextTooShort)
}
