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

// OfferRepository implements repositories.OfferRepository over a map.
type OfferRepository struct {
	mu     sync.RWMutex
	offers map[primitive.ObjectID]*models.Offer
}

// NewOfferRepository creates an empty in-memory offer repository
func NewOfferRepository() *OfferRepository {
	return &OfferRepository{
		offers: make(map[primitive.ObjectID]*models.Offer),
	}
}

// Create stores a new offer and assigns it an id
func (r *OfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if offer.ID.IsZero() {
		offer.ID = primitive.NewObjectID()
	}
	offer.CreatedAt = time.Now()
	offer.UpdatedAt = time.Now()
	copied := *offer
	r.offers[offer.ID] = &copied
	return nil
}

// FindByID returns a copy of the offer with the given id
func (r *OfferRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	offer, ok := r.offers[id]
	if !ok {
		return nil, raffleerr.ErrNotFound
	}
	copied := *offer
	return &copied, nil
}

var _ repositories.OfferRepository = (*OfferRepository)(nil)
