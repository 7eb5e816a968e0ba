// Package memory provides mutex-guarded in-memory implementations of the
// repository interfaces, used by tests and the Store.UseMemory dev mode.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/meue/rewards-backend/internal/models"
	"github.com/meue/rewards-backend/internal/raffleerr"
	"github.com/meue/rewards-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleRepository implements repositories.RaffleRepository over a map.
type RaffleRepository struct {
	mu      sync.RWMutex
	raffles map[primitive.ObjectID]*models.Raffle
}

// NewRaffleRepository creates an empty in-memory raffle repository
func NewRaffleRepository() *RaffleRepository {
	return &RaffleRepository{
		raffles: make(map[primitive.ObjectID]*models.Raffle),
	}
}

func cloneRaffle(r *models.Raffle) *models.Raffle {
	c := *r
	c.Prizes = append([]models.Prize(nil), r.Prizes...)
	c.Participants = append([]models.Participant(nil), r.Participants...)
	c.Winners = append([]models.WinnerEntry(nil), r.Winners...)
	return &c
}

// Create stores a new raffle and assigns it an id
func (r *RaffleRepository) Create(ctx context.Context, raffle *models.Raffle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if raffle.ID.IsZero() {
		raffle.ID = primitive.NewObjectID()
	}
	raffle.CreatedAt = time.Now()
	raffle.UpdatedAt = time.Now()
	r.raffles[raffle.ID] = cloneRaffle(raffle)
	return nil
}

// FindByID returns a copy of the raffle with the given id
func (r *RaffleRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	raffle, ok := r.raffles[id]
	if !ok {
		return nil, raffleerr.ErrNotFound
	}
	return cloneRaffle(raffle), nil
}

// FindAll returns copies of all stored raffles
func (r *RaffleRepository) FindAll(ctx context.Context) ([]*models.Raffle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	raffles := make([]*models.Raffle, 0, len(r.raffles))
	for _, raffle := range r.raffles {
		raffles = append(raffles, cloneRaffle(raffle))
	}
	return raffles, nil
}

// Update replaces a stored raffle
func (r *RaffleRepository) Update(ctx context.Context, raffle *models.Raffle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.raffles[raffle.ID]; !ok {
		return raffleerr.ErrNotFound
	}
	raffle.UpdatedAt = time.Now()
	r.raffles[raffle.ID] = cloneRaffle(raffle)
	return nil
}

// Delete removes a raffle; deleting a missing id is a no-op
func (r *RaffleRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.raffles, id)
	return nil
}

// SetVisibility sets the isVisible projection flag
func (r *RaffleRepository) SetVisibility(ctx context.Context, id primitive.ObjectID, visible bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raffle, ok := r.raffles[id]
	if !ok {
		return raffleerr.ErrNotFound
	}
	raffle.IsVisible = visible
	raffle.UpdatedAt = time.Now()
	return nil
}

// SetStatus sets the lifecycle status
func (r *RaffleRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status models.RaffleStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raffle, ok := r.raffles[id]
	if !ok {
		return raffleerr.ErrNotFound
	}
	raffle.Status = status
	raffle.UpdatedAt = time.Now()
	return nil
}

// AppendWinner appends a winner entry under the write lock so the
// check-and-set is atomic, mirroring the conditional update the Mongo
// implementation performs.
func (r *RaffleRepository) AppendWinner(ctx context.Context, id primitive.ObjectID, winner models.WinnerEntry) (*models.Raffle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raffle, ok := r.raffles[id]
	if !ok {
		return nil, raffleerr.ErrNotFound
	}
	if raffle.WinnerForPrize(winner.PrizeRef) != nil {
		return nil, raffleerr.ErrAlreadyDrawn
	}
	raffle.Winners = append(raffle.Winners, winner)
	raffle.UpdatedAt = time.Now()
	return cloneRaffle(raffle), nil
}

// AddParticipant appends a participant entry
func (r *RaffleRepository) AddParticipant(ctx context.Context, id primitive.ObjectID, participant models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raffle, ok := r.raffles[id]
	if !ok {
		return raffleerr.ErrNotFound
	}
	raffle.Participants = append(raffle.Participants, participant)
	raffle.UpdatedAt = time.Now()
	return nil
}

var _ repositories.RaffleRepository = (*RaffleRepository)(nil)
