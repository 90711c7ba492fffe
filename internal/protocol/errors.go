package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Table routing/state.
	ErrTableFull  = "E_TABLE_FULL"
	ErrNotFound   = "E_NOT_FOUND"
	ErrWrongPhase = "E_WRONG_PHASE"
	ErrGameOver   = "E_GAME_OVER"

	// Rule/action layer.
	ErrBadRequest          = "E_BAD_REQUEST"
	ErrHousePlacement      = "E_HOUSE_PLACEMENT"
	ErrBisPlacement        = "E_BIS_PLACEMENT"
	ErrRoundaboutPlacement = "E_ROUNDABOUT_PLACEMENT"
	ErrFencePlacement      = "E_FENCE_PLACEMENT"
	ErrInvestment          = "E_INVESTMENT"
	ErrInternal            = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:     {},
	ErrTableFull:           {},
	ErrNotFound:            {},
	ErrWrongPhase:          {},
	ErrGameOver:            {},
	ErrBadRequest:          {},
	ErrHousePlacement:      {},
	ErrBisPlacement:        {},
	ErrRoundaboutPlacement: {},
	ErrFencePlacement:      {},
	ErrInvestment:          {},
	ErrInternal:            {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
