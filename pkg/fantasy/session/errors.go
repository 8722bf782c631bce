package session

import "errors"

var (
	// ErrNotEditable is returned for any mutation attempted outside Form mode.
	ErrNotEditable = errors.New("session is not editable")

	// ErrWinnersRequired is returned when a submit is attempted without both
	// mandatory winner fields.
	ErrWinnersRequired = errors.New("toss winner and match winner are required")

	// ErrUnknownTeam is returned when a winner field names a team not playing
	// in this match.
	ErrUnknownTeam = errors.New("winner must be one of the match teams")

	// ErrIncompletePick is returned when an X-Factor pick is confirmed before
	// risk, condition, and a non-empty player name are all chosen.
	ErrIncompletePick = errors.New("risk, condition, and player are all required")

	// ErrDuplicatePick is returned when the same condition/player pair is
	// already on the draft.
	ErrDuplicatePick = errors.New("this condition and player are already picked")

	// ErrPickIndex is returned for an out-of-range pick removal.
	ErrPickIndex = errors.New("no pick at that position")

	// ErrNoMatch is returned when an operation needs a loaded match.
	ErrNoMatch = errors.New("no match loaded")
)
