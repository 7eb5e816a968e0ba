package repositories

import (
	"context"

	"github.com/meue/rewards-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleRepository defines the interface for raffle data operations.
// Implementations return raffleerr.ErrNotFound for missing ids and
// raffleerr.ErrAlreadyDrawn from AppendWinner when the prize already has a
// winner. AppendWinner must be atomic at per-prize granularity; it is the
// serialization point for concurrent draws.
type RaffleRepository interface {
	Create(ctx context.Context, raffle *models.Raffle) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error)
	FindAll(ctx context.Context) ([]*models.Raffle, error)
	Update(ctx context.Context, raffle *models.Raffle) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetVisibility(ctx context.Context, id primitive.ObjectID, visible bool) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.RaffleStatus) error
	AppendWinner(ctx context.Context, id primitive.ObjectID, winner models.WinnerEntry) (*models.Raffle, error)
	AddParticipant(ctx context.Context, id primitive.ObjectID, participant models.Participant) error
}

// OfferRepository defines the interface for vendor offer operations
// consumed by create-from-offer.
type OfferRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Offer, error)
}

// WheelRepository defines the cascade surface of the wheel registry:
// deleting a raffle removes its id from every wheel referencing it.
type WheelRepository interface {
	RemoveRaffleRef(ctx context.Context, raffleID primitive.ObjectID) error
}

// AdminUserRepository defines the interface for admin account operations
type AdminUserRepository interface {
	Create(ctx context.Context, adminUser *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error)
}
