package session

import (
	"errors"

	"est8.games/internal/protocol"
	"est8.games/internal/sim/estate"
)

var (
	ErrNotFound   = errors.New("player not at table")
	ErrTableFull  = errors.New("table is full")
	ErrWrongPhase = errors.New("act not allowed in current phase")
	ErrGameOver   = errors.New("game over")
	ErrBadRequest = errors.New("bad request")
)

// Code maps an Apply/Join error to its wire code.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var re *estate.RuleError
	if errors.As(err, &re) {
		return "E_" + string(re.Kind)
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return protocol.ErrNotFound
	case errors.Is(err, ErrTableFull):
		return protocol.ErrTableFull
	case errors.Is(err, ErrWrongPhase):
		return protocol.ErrWrongPhase
	case errors.Is(err, ErrGameOver):
		return protocol.ErrGameOver
	case errors.Is(err, ErrBadRequest):
		return protocol.ErrBadRequest
	}
	return protocol.ErrInternal
}
