package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleStatus represents the lifecycle status of a raffle. The only
// forward transition is SCHEDULED -> COMPLETED; visibility toggles
// independently of status.
type RaffleStatus string

const (
	RaffleStatusScheduled RaffleStatus = "SCHEDULED"
	RaffleStatusCompleted RaffleStatus = "COMPLETED"
)

// Prize is a single prize line within a raffle. Quantity and EndDate are
// optional exhaustion fields, usually copied from the originating vendor
// offer.
type Prize struct {
	ID       string     `bson:"id" json:"id"`
	Name     string     `bson:"name" json:"name"`
	Quantity *int       `bson:"quantity,omitempty" json:"quantity,omitempty"`
	EndDate  *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
}

// Participant is one entrant in a raffle. Entries is the participant's
// weight in the draw pool and is always >= 1.
type Participant struct {
	UserRef     string `bson:"userRef" json:"userRef"`
	Entries     int    `bson:"entries" json:"entries"`
	ContactInfo string `bson:"contactInfo,omitempty" json:"contactInfo,omitempty"`
}

// WinnerEntry binds a participant to a prize. Entries are append-only:
// once a prize has a winner it may not be redrawn.
type WinnerEntry struct {
	UserRef  string    `bson:"userRef" json:"userRef"`
	PrizeRef string    `bson:"prizeRef" json:"prizeRef"`
	WonAt    time.Time `bson:"wonAt" json:"wonAt"`
}

// Raffle represents a scheduled prize drawing.
type Raffle struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Prizes       []Prize            `bson:"prizes" json:"prizes"`
	Participants []Participant      `bson:"participants" json:"participants"`
	Winners      []WinnerEntry      `bson:"winners" json:"winners"`
	ScheduledAt  time.Time          `bson:"scheduledAt" json:"scheduledAt"`
	Status       RaffleStatus       `bson:"status" json:"status"`
	IsVisible    bool               `bson:"isVisible" json:"isVisible"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WinnerForPrize returns the winner entry for a prize, or nil if the prize
// has not been drawn yet.
func (r *Raffle) WinnerForPrize(prizeRef string) *WinnerEntry {
	for i := range r.Winners {
		if r.Winners[i].PrizeRef == prizeRef {
			return &r.Winners[i]
		}
	}
	return nil
}

// UndrawnPrizes returns the prizes that do not have a winner yet.
func (r *Raffle) UndrawnPrizes() []Prize {
	var undrawn []Prize
	for _, p := range r.Prizes {
		if r.WinnerForPrize(p.ID) == nil {
			undrawn = append(undrawn, p)
		}
	}
	return undrawn
}

// AllPrizesDrawn reports whether every prize has a winner entry.
func (r *Raffle) AllPrizesDrawn() bool {
	return len(r.Prizes) > 0 && len(r.UndrawnPrizes()) == 0
}

// HasExhaustedPrize reports whether any prize is exhausted at the given
// instant. A raffle with an exhausted prize must never be visible.
func (r *Raffle) HasExhaustedPrize(now time.Time) bool {
	for _, p := range r.Prizes {
		if p.Exhausted(now) {
			return true
		}
	}
	return false
}

// HasOpenPrize reports whether at least one prize is not exhausted.
func (r *Raffle) HasOpenPrize(now time.Time) bool {
	for _, p := range r.Prizes {
		if !p.Exhausted(now) {
			return true
		}
	}
	return false
}
