package game

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindAuth
	KindNotFound
	KindAuthorization
	KindStateConflict
	KindValidation
	KindResourceExhaustion
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	case KindStateConflict:
		return "state_conflict"
	case KindValidation:
		return "validation"
	case KindResourceExhaustion:
		return "resource_exhaustion"
	default:
		return "internal"
	}
}

// Error is a caller-facing failure. Two errors match under errors.Is when
// their codes are equal, so a sentinel with a more specific message still
// compares equal to the bare sentinel.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) withMessage(message string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: message}
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrUnauthenticated = newError(KindAuth, "unauthenticated", "authentication required")

	ErrRoomNotFound     = newError(KindNotFound, "room_not_found", "room not found")
	ErrRoundNotFound    = newError(KindNotFound, "round_not_found", "round not found")
	ErrPromptNotFound   = newError(KindNotFound, "prompt_not_found", "prompt not found")
	ErrPlayerNotInRoom  = newError(KindNotFound, "player_not_in_room", "player not in room")
	ErrCardNotFound     = newError(KindNotFound, "card_not_found", "question card not found")
	ErrStatsNotFound    = newError(KindNotFound, "stats_not_found", "game stats not found")
	ErrNotHost          = newError(KindAuthorization, "not_host", "only the host can perform this action")
	ErrNotCardCzar      = newError(KindAuthorization, "not_card_czar", "only the card czar can vote")
	ErrNotOwner         = newError(KindAuthorization, "not_owner", "can only regenerate your own image")
	ErrNotAdmin         = newError(KindAuthorization, "not_admin", "admin access required")
	ErrInvalidState     = newError(KindStateConflict, "invalid_state", "game already started or finished")
	ErrWrongPhase       = newError(KindStateConflict, "wrong_phase", "round is not in the required phase")
	ErrDuplicate        = newError(KindStateConflict, "duplicate_submission", "prompt already submitted for this round")
	ErrRoomFull         = newError(KindStateConflict, "room_full", "room is full")
	ErrRoomNotJoinable  = newError(KindStateConflict, "room_not_joinable", "game already in progress")
	ErrCzarCannotPrompt = newError(KindStateConflict, "card_czar_cannot_prompt", "card czar cannot submit prompts")
	ErrDeadlinePassed   = newError(KindStateConflict, "deadline_passed", "prompt deadline has passed")
	ErrInvalidLength    = newError(KindValidation, "invalid_length", "prompt must be between 1 and 200 characters")
	ErrInvalidWinner    = newError(KindValidation, "invalid_winner", "invalid winner selection")
	ErrInvalidSettings  = newError(KindValidation, "invalid_settings", "invalid room settings")
	ErrInvalidCard      = newError(KindValidation, "invalid_card", "invalid question card")
	ErrRegenLimit       = newError(KindResourceExhaustion, "regeneration_limit_reached", "regeneration limit reached")
	ErrCodeExhausted    = newError(KindResourceExhaustion, "code_exhausted", "unable to generate unique room code")
	ErrNoCards          = newError(KindResourceExhaustion, "no_cards_available", "no question cards available")
	ErrNotEnoughPlayers = newError(KindResourceExhaustion, "insufficient_players", "need at least 3 connected players to start")
)

// KindOf reports the kind of a game error, or KindInternal for anything else.
func KindOf(err error) Kind {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr.Kind
	}
	return KindInternal
}
