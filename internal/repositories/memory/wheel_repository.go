package memory

import (
	"context"
	"sync"

	"github.com/meue/rewards-backend/internal/models"
	"github.com/meue/rewards-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WheelRepository implements repositories.WheelRepository over a map.
// FailWith lets tests inject a cascade failure.
type WheelRepository struct {
	mu       sync.Mutex
	wheels   map[primitive.ObjectID]*models.Wheel
	FailWith error
}

// NewWheelRepository creates an empty in-memory wheel repository
func NewWheelRepository() *WheelRepository {
	return &WheelRepository{
		wheels: make(map[primitive.ObjectID]*models.Wheel),
	}
}

// Put stores a wheel
func (r *WheelRepository) Put(wheel *models.Wheel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if wheel.ID.IsZero() {
		wheel.ID = primitive.NewObjectID()
	}
	r.wheels[wheel.ID] = wheel
}

// Get returns a stored wheel
func (r *WheelRepository) Get(id primitive.ObjectID) (*models.Wheel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wheel, ok := r.wheels[id]
	return wheel, ok
}

// RemoveRaffleRef removes the raffle id from every wheel referencing it
func (r *WheelRepository) RemoveRaffleRef(ctx context.Context, raffleID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	for _, wheel := range r.wheels {
		kept := wheel.RaffleIDs[:0]
		for _, id := range wheel.RaffleIDs {
			if id != raffleID {
				kept = append(kept, id)
			}
		}
		wheel.RaffleIDs = kept
	}
	return nil
}

var _ repositories.WheelRepository = (*WheelRepository)(nil)
