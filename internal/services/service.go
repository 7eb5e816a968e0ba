package services

import (
	"context"
	"time"

	"github.com/meue/rewards-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListFilter selects which raffles an admin listing returns.
type ListFilter string

const (
	ListAll       ListFilter = "all"
	ListScheduled ListFilter = "scheduled" // still waiting for a draw
	ListDrawn     ListFilter = "drawn"     // at least one winner recorded
	ListVisible   ListFilter = "visible"   // currently open for entry
)

// RaffleService is the single authority for reading and writing raffle
// records and validating lifecycle transitions. All mutation goes through
// this narrow API; no component mutates a raffle record directly.
type RaffleService interface {
	Create(ctx context.Context, name string, prizes []models.Prize, scheduledAt time.Time) (*models.Raffle, error)
	CreateFromOffer(ctx context.Context, offerID primitive.ObjectID) (*models.Raffle, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*DeleteResult, error)
	SetVisibility(ctx context.Context, id primitive.ObjectID, visible bool) error
	RecordWinner(ctx context.Context, id primitive.ObjectID, prizeRef, userRef string) (*models.Raffle, error)
	AddParticipant(ctx context.Context, id primitive.ObjectID, participant models.Participant) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error)
	List(ctx context.Context, filter ListFilter) ([]*models.Raffle, error)
	PublicList(ctx context.Context) ([]*models.Raffle, error)
}

// DrawService performs the random draw for a raffle and commits each
// prize's result exactly once through the RaffleService.
type DrawService interface {
	ExecuteDraw(ctx context.Context, raffleID primitive.ObjectID) (*models.Raffle, error)
}

// AuthService authenticates admin principals for the control surface.
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	EnsureSeedAdmin(ctx context.Context, email, password string) error
}
