package models

import "time"

// ExhaustionKind discriminates the ways a prize can close for entry.
type ExhaustionKind int

const (
	ExhaustUnlimited ExhaustionKind = iota
	ExhaustByQuantity
	ExhaustByDate
	ExhaustByBoth
)

// ExhaustionRule is the tagged form of a prize's optional quantity/endDate
// pair. Modelling the pair as a variant keeps the exhaustion computation
// total instead of scattering nil checks.
type ExhaustionRule struct {
	Kind     ExhaustionKind
	Quantity int
	EndDate  time.Time
}

// Exhaustion derives the rule for this prize.
func (p Prize) Exhaustion() ExhaustionRule {
	switch {
	case p.Quantity != nil && p.EndDate != nil:
		return ExhaustionRule{Kind: ExhaustByBoth, Quantity: *p.Quantity, EndDate: *p.EndDate}
	case p.Quantity != nil:
		return ExhaustionRule{Kind: ExhaustByQuantity, Quantity: *p.Quantity}
	case p.EndDate != nil:
		return ExhaustionRule{Kind: ExhaustByDate, EndDate: *p.EndDate}
	default:
		return ExhaustionRule{Kind: ExhaustUnlimited}
	}
}

// Exhausted reports whether the rule has been met at the given instant.
// A quantity of zero or less is exhausted; an end date on or before the
// current calendar day is exhausted. Dates are compared by calendar day in
// the end date's location.
func (e ExhaustionRule) Exhausted(now time.Time) bool {
	switch e.Kind {
	case ExhaustUnlimited:
		return false
	case ExhaustByQuantity:
		return e.Quantity <= 0
	case ExhaustByDate:
		return dateReached(e.EndDate, now)
	case ExhaustByBoth:
		return e.Quantity <= 0 || dateReached(e.EndDate, now)
	default:
		return false
	}
}

// Exhausted reports whether the prize is exhausted at the given instant.
func (p Prize) Exhausted(now time.Time) bool {
	return p.Exhaustion().Exhausted(now)
}

func dateReached(end, now time.Time) bool {
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	local := now.In(end.Location())
	nowDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, end.Location())
	return !nowDay.Before(endDay)
}
