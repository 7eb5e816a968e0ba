package services

import (
	"context"
	"fmt"
	"time"

	"github.com/meue/rewards-backend/internal/models"
	"github.com/meue/rewards-backend/internal/raffleerr"
	"github.com/meue/rewards-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure RaffleServiceImpl implements RaffleService
var _ RaffleService = (*RaffleServiceImpl)(nil)

// DeleteResult reports the outcome of a raffle deletion. CascadeWarning is
// set when the wheel-association cleanup failed; the deletion itself still
// succeeded.
type DeleteResult struct {
	Deleted        bool   `json:"deleted"`
	CascadeWarning string `json:"cascadeWarning,omitempty"`
}

// RaffleServiceImpl owns raffle records and legal transitions
type RaffleServiceImpl struct {
	raffleRepo repositories.RaffleRepository
	offerRepo  repositories.OfferRepository
	wheelRepo  repositories.WheelRepository
}

// NewRaffleService creates a new RaffleServiceImpl
func NewRaffleService(
	raffleRepo repositories.RaffleRepository,
	offerRepo repositories.OfferRepository,
	wheelRepo repositories.WheelRepository,
) *RaffleServiceImpl {
	return &RaffleServiceImpl{
		raffleRepo: raffleRepo,
		offerRepo:  offerRepo,
		wheelRepo:  wheelRepo,
	}
}

// Create validates and stores a new raffle. New raffles start SCHEDULED
// and invisible; the synchronizer opens them once they become eligible.
func (s *RaffleServiceImpl) Create(ctx context.Context, name string, prizes []models.Prize, scheduledAt time.Time) (*models.Raffle, error) {
	if name == "" {
		return nil, raffleerr.NewValidation("name", "must not be empty")
	}
	if len(prizes) == 0 {
		return nil, raffleerr.NewValidation("prizes", "must contain at least one prize")
	}
	if scheduledAt.Before(time.Now()) {
		return nil, raffleerr.NewValidation("scheduledAt", "must not be in the past")
	}
	for i := range prizes {
		if prizes[i].Name == "" {
			return nil, raffleerr.NewValidation("prizes", "every prize needs a name")
		}
		if prizes[i].ID == "" {
			prizes[i].ID = primitive.NewObjectID().Hex()
		}
	}

	raffle := &models.Raffle{
		Name:         name,
		Prizes:       prizes,
		Participants: []models.Participant{},
		Winners:      []models.WinnerEntry{},
		ScheduledAt:  scheduledAt,
		Status:       models.RaffleStatusScheduled,
		IsVisible:    false,
	}
	if err := s.raffleRepo.Create(ctx, raffle); err != nil {
		slog.Error("Failed to create raffle", "error", err, "name", name)
		return nil, fmt.Errorf("failed to save raffle: %w", err)
	}

	slog.Info("Raffle created", "raffleId", raffle.ID.Hex(), "name", name, "scheduledAt", scheduledAt)
	return raffle, nil
}

// CreateFromOffer derives a single-prize raffle from an approved vendor
// offer, copying quantity and endDate as the prize's exhaustion fields.
func (s *RaffleServiceImpl) CreateFromOffer(ctx context.Context, offerID primitive.ObjectID) (*models.Raffle, error) {
	offer, err := s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}
	if offer.Status != models.OfferStatusApproved {
		return nil, raffleerr.NewValidation("offer", "offer is not approved")
	}

	prize := models.Prize{
		ID:       primitive.NewObjectID().Hex(),
		Name:     offer.Name,
		Quantity: offer.Quantity,
		EndDate:  offer.EndDate,
	}
	raffle := &models.Raffle{
		Name:         offer.Name,
		Prizes:       []models.Prize{prize},
		Participants: []models.Participant{},
		Winners:      []models.WinnerEntry{},
		ScheduledAt:  time.Now(),
		Status:       models.RaffleStatusScheduled,
		IsVisible:    false,
	}
	if err := s.raffleRepo.Create(ctx, raffle); err != nil {
		slog.Error("Failed to create raffle from offer", "error", err, "offerId", offerID.Hex())
		return nil, fmt.Errorf("failed to save raffle: %w", err)
	}

	slog.Info("Raffle created from offer", "raffleId", raffle.ID.Hex(), "offerId", offerID.Hex())
	return raffle, nil
}

// Delete removes a raffle and requests removal of its wheel associations.
// Deleting a non-existent id is a no-op. The cascade is best-effort: its
// failure never blocks the deletion and is surfaced as a warning.
func (s *RaffleServiceImpl) Delete(ctx context.Context, id primitive.ObjectID) (*DeleteResult, error) {
	if err := s.raffleRepo.Delete(ctx, id); err != nil {
		slog.Error("Failed to delete raffle", "error", err, "raffleId", id.Hex())
		return nil, fmt.Errorf("failed to delete raffle: %w", err)
	}

	result := &DeleteResult{Deleted: true}
	if err := s.wheelRepo.RemoveRaffleRef(ctx, id); err != nil {
		// Surface as partial success, do not fail the deletion
		slog.Warn("Cascade removal of wheel association failed", "error", err, "raffleId", id.Hex())
		result.CascadeWarning = fmt.Sprintf("raffle deleted, but wheel association cleanup failed: %s", err.Error())
	}

	slog.Info("Raffle deleted", "raffleId", id.Hex(), "cascadeWarning", result.CascadeWarning != "")
	return result, nil
}

// SetVisibility is a pure mutation of the isVisible flag. Eligibility is
// owned by the callers (the synchronizer and the admin surface).
func (s *RaffleServiceImpl) SetVisibility(ctx context.Context, id primitive.ObjectID, visible bool) error {
	if err := s.raffleRepo.SetVisibility(ctx, id, visible); err != nil {
		return err
	}
	slog.Info("Raffle visibility set", "raffleId", id.Hex(), "visible", visible)
	return nil
}

// RecordWinner appends a winner entry for a prize. The repository performs
// the append as an atomic per-prize check-and-set, so a concurrent draw
// for the same prize gets raffleerr.ErrAlreadyDrawn. When the last prize
// is drawn the raffle transitions to COMPLETED and closes for entry.
func (s *RaffleServiceImpl) RecordWinner(ctx context.Context, id primitive.ObjectID, prizeRef, userRef string) (*models.Raffle, error) {
	winner := models.WinnerEntry{
		UserRef:  userRef,
		PrizeRef: prizeRef,
		WonAt:    time.Now(),
	}
	updated, err := s.raffleRepo.AppendWinner(ctx, id, winner)
	if err != nil {
		return nil, err
	}

	if updated.AllPrizesDrawn() && updated.Status != models.RaffleStatusCompleted {
		if err := s.raffleRepo.SetStatus(ctx, id, models.RaffleStatusCompleted); err != nil {
			slog.Error("Failed to mark raffle completed", "error", err, "raffleId", id.Hex())
			return nil, fmt.Errorf("failed to mark raffle completed: %w", err)
		}
		if err := s.raffleRepo.SetVisibility(ctx, id, false); err != nil {
			slog.Error("Failed to close completed raffle", "error", err, "raffleId", id.Hex())
			return nil, fmt.Errorf("failed to close completed raffle: %w", err)
		}
		updated.Status = models.RaffleStatusCompleted
		updated.IsVisible = false
		slog.Info("Raffle completed", "raffleId", id.Hex(), "winners", len(updated.Winners))
	}

	return updated, nil
}

// AddParticipant appends a participant record from the entry flow
func (s *RaffleServiceImpl) AddParticipant(ctx context.Context, id primitive.ObjectID, participant models.Participant) error {
	if participant.UserRef == "" {
		return raffleerr.NewValidation("userRef", "must not be empty")
	}
	if participant.Entries < 1 {
		return raffleerr.NewValidation("entries", "must be at least 1")
	}

	raffle, err := s.raffleRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	// Closed-for-entry truth is a function of status and prize exhaustion,
	// not of the isVisible projection: entries may accrue before the
	// synchronizer opens the raffle, but never after a draw or exhaustion.
	if raffle.Status == models.RaffleStatusCompleted {
		return raffleerr.NewValidation("raffle", "raffle is already completed")
	}
	if raffle.HasExhaustedPrize(time.Now()) {
		return raffleerr.NewValidation("raffle", "raffle is closed for entry")
	}

	if err := s.raffleRepo.AddParticipant(ctx, id, participant); err != nil {
		return err
	}
	slog.Info("Participant added", "raffleId", id.Hex(), "userRef", participant.UserRef, "entries", participant.Entries)
	return nil
}

// Get returns a raffle by id
func (s *RaffleServiceImpl) Get(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error) {
	return s.raffleRepo.FindByID(ctx, id)
}

// List returns raffles matching the admin filter
func (s *RaffleServiceImpl) List(ctx context.Context, filter ListFilter) ([]*models.Raffle, error) {
	raffles, err := s.raffleRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if filter == "" || filter == ListAll {
		return raffles, nil
	}

	filtered := make([]*models.Raffle, 0, len(raffles))
	for _, raffle := range raffles {
		switch filter {
		case ListScheduled:
			if raffle.Status == models.RaffleStatusScheduled {
				filtered = append(filtered, raffle)
			}
		case ListDrawn:
			if len(raffle.Winners) > 0 {
				filtered = append(filtered, raffle)
			}
		case ListVisible:
			if raffle.IsVisible {
				filtered = append(filtered, raffle)
			}
		}
	}
	return filtered, nil
}

// PublicList returns the read-only public view: raffles open for entry
// plus completed raffles with their winners.
func (s *RaffleServiceImpl) PublicList(ctx context.Context) ([]*models.Raffle, error) {
	raffles, err := s.raffleRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	public := make([]*models.Raffle, 0, len(raffles))
	for _, raffle := range raffles {
		if raffle.IsVisible {
			public = append(public, raffle)
			continue
		}
		if raffle.Status == models.RaffleStatusCompleted && len(raffle.Winners) > 0 {
			public = append(public, raffle)
		}
	}
	return public, nil
}
