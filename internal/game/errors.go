package game

import (
	"errors"
	"fmt"
)

// Kind classifies a rejected command. It goes out on the wire unchanged.
type Kind string

const (
	KindRoomNotFound       Kind = "RoomNotFound"
	KindRoomFull           Kind = "RoomFull"
	KindGameAlreadyStarted Kind = "GameAlreadyStarted"
	KindGameNotStarted     Kind = "GameNotStarted"
	KindGameFinished       Kind = "GameFinished"
	KindNotInRoom          Kind = "NotInRoom"
	KindAlreadyInRoom      Kind = "AlreadyInRoom"
	KindNotYourTurn        Kind = "NotYourTurn"
	KindTileNotInHand      Kind = "TileNotInHand"
	KindIllegalMove        Kind = "IllegalMove"
	KindBoneyardEmpty      Kind = "BoneyardEmpty"
	KindInsufficientTiles  Kind = "InsufficientTiles"
	KindInvalidCommand     Kind = "InvalidCommand"
	KindRateLimited        Kind = "RateLimited"
	KindInternal           Kind = "Internal"
)

// Error is a game rule violation. Two Errors match under errors.Is when their
// kinds are equal, so callers compare against the sentinels below.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrRoomNotFound       = &Error{Kind: KindRoomNotFound}
	ErrRoomFull           = &Error{Kind: KindRoomFull}
	ErrGameAlreadyStarted = &Error{Kind: KindGameAlreadyStarted}
	ErrGameNotStarted     = &Error{Kind: KindGameNotStarted}
	ErrGameFinished       = &Error{Kind: KindGameFinished}
	ErrNotInRoom          = &Error{Kind: KindNotInRoom}
	ErrAlreadyInRoom      = &Error{Kind: KindAlreadyInRoom}
	ErrNotYourTurn        = &Error{Kind: KindNotYourTurn}
	ErrTileNotInHand      = &Error{Kind: KindTileNotInHand}
	ErrIllegalMove        = &Error{Kind: KindIllegalMove}
	ErrBoneyardEmpty      = &Error{Kind: KindBoneyardEmpty}
	ErrInsufficientTiles  = &Error{Kind: KindInsufficientTiles}
	ErrInvalidCommand     = &Error{Kind: KindInvalidCommand}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind of err, or KindInternal for anything that is not
// a game Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
