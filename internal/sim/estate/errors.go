package estate

import "errors"

// Kind classifies a rule violation. The values double as the suffix of the wire error code.
type Kind string

const (
	KindHousePlacement      Kind = "HOUSE_PLACEMENT"
	KindBisPlacement        Kind = "BIS_PLACEMENT"
	KindRoundaboutPlacement Kind = "ROUNDABOUT_PLACEMENT"
	KindFencePlacement      Kind = "FENCE_PLACEMENT"
	KindInvestment          Kind = "INVESTMENT"
)

// Sentinels for errors.Is. Every *RuleError matches ErrRuleViolation; bis and roundabout
// errors also match ErrHousePlacement.
var (
	ErrRuleViolation       = errors.New("rule violation")
	ErrHousePlacement      = errors.New("house placement")
	ErrBisPlacement        = errors.New("bis placement")
	ErrRoundaboutPlacement = errors.New("roundabout placement")
	ErrFencePlacement      = errors.New("fence placement")
	ErrInvestment          = errors.New("investment")
)

// RuleError is returned by every mutation that the rules forbid. State is unchanged when
// one is returned.
type RuleError struct {
	Kind Kind
	Msg  string
}

func (e *RuleError) Error() string {
	return string(e.Kind) + ": " + e.Msg
}

func (e *RuleError) Is(target error) bool {
	switch target {
	case ErrRuleViolation:
		return true
	case ErrHousePlacement:
		return e.Kind == KindHousePlacement || e.Kind == KindBisPlacement || e.Kind == KindRoundaboutPlacement
	case ErrBisPlacement:
		return e.Kind == KindBisPlacement
	case ErrRoundaboutPlacement:
		return e.Kind == KindRoundaboutPlacement
	case ErrFencePlacement:
		return e.Kind == KindFencePlacement
	case ErrInvestment:
		return e.Kind == KindInvestment
	}
	return false
}

func ruleErr(kind Kind, msg string) error {
	return &RuleError{Kind: kind, Msg: msg}
}
