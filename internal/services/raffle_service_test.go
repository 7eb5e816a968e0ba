package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meue/rewards-backend/internal/models"
	"github.com/meue/rewards-backend/internal/raffleerr"
	"github.com/meue/rewards-backend/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type raffleFixture struct {
	raffleRepo *memory.RaffleRepository
	offerRepo  *memory.OfferRepository
	wheelRepo  *memory.WheelRepository
	service    *RaffleServiceImpl
}

func newRaffleFixture() *raffleFixture {
	raffleRepo := memory.NewRaffleRepository()
	offerRepo := memory.NewOfferRepository()
	wheelRepo := memory.NewWheelRepository()
	return &raffleFixture{
		raffleRepo: raffleRepo,
		offerRepo:  offerRepo,
		wheelRepo:  wheelRepo,
		service:    NewRaffleService(raffleRepo, offerRepo, wheelRepo),
	}
}

func intPtr(v int) *int { return &v }

// seedRaffle inserts a raffle directly through the repository, bypassing
// the Create validation, so tests can set ScheduledAt in the past.
func seedRaffle(t *testing.T, fx *raffleFixture, raffle *models.Raffle) *models.Raffle {
	t.Helper()
	if raffle.Participants == nil {
		raffle.Participants = []models.Participant{}
	}
	if raffle.Winners == nil {
		raffle.Winners = []models.WinnerEntry{}
	}
	if raffle.Status == "" {
		raffle.Status = models.RaffleStatusScheduled
	}
	require.NoError(t, fx.raffleRepo.Create(context.Background(), raffle))
	return raffle
}

func TestRaffleServiceCreate(t *testing.T) {
	ctx := context.Background()
	fx := newRaffleFixture()
	future := time.Now().Add(time.Hour)

	t.Run("valid raffle starts scheduled and invisible", func(t *testing.T) {
		raffle, err := fx.service.Create(ctx, "Summer giveaway", []models.Prize{{Name: "Mug"}}, future)
		require.NoError(t, err)
		assert.False(t, raffle.ID.IsZero())
		assert.Equal(t, models.RaffleStatusScheduled, raffle.Status)
		assert.False(t, raffle.IsVisible)
		assert.NotEmpty(t, raffle.Prizes[0].ID, "prize should be assigned an id")
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := fx.service.Create(ctx, "", []models.Prize{{Name: "Mug"}}, future)
		assert.True(t, raffleerr.IsValidation(err))
	})

	t.Run("rejects empty prize list", func(t *testing.T) {
		_, err := fx.service.Create(ctx, "No prizes", nil, future)
		assert.True(t, raffleerr.IsValidation(err))
	})

	t.Run("rejects schedule in the past", func(t *testing.T) {
		_, err := fx.service.Create(ctx, "Too late", []models.Prize{{Name: "Mug"}}, time.Now().Add(-time.Minute))
		assert.True(t, raffleerr.IsValidation(err))
	})
}

func TestRaffleServiceCreateFromOffer(t *testing.T) {
	ctx := context.Background()
	fx := newRaffleFixture()
	end := time.Now().AddDate(0, 1, 0)

	offer := &models.Offer{
		Name:     "Concert tickets",
		Status:   models.OfferStatusApproved,
		Quantity: intPtr(2),
		EndDate:  &end,
	}
	require.NoError(t, fx.offerRepo.Create(ctx, offer))

	t.Run("approved offer becomes a single-prize raffle", func(t *testing.T) {
		raffle, err := fx.service.CreateFromOffer(ctx, offer.ID)
		require.NoError(t, err)
		require.Len(t, raffle.Prizes, 1)
		assert.Equal(t, "Concert tickets", raffle.Prizes[0].Name)
		require.NotNil(t, raffle.Prizes[0].Quantity)
		assert.Equal(t, 2, *raffle.Prizes[0].Quantity)
		assert.NotNil(t, raffle.Prizes[0].EndDate)
	})

	t.Run("pending offer is rejected", func(t *testing.T) {
		pending := &models.Offer{Name: "Unreviewed", Status: models.OfferStatusPending}
		require.NoError(t, fx.offerRepo.Create(ctx, pending))
		_, err := fx.service.CreateFromOffer(ctx, pending.ID)
		assert.True(t, raffleerr.IsValidation(err))
	})

	t.Run("unknown offer", func(t *testing.T) {
		_, err := fx.service.CreateFromOffer(ctx, primitive.NewObjectID())
		assert.True(t, errors.Is(err, raffleerr.ErrNotFound))
	})
}

func TestRaffleServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("delete is idempotent", func(t *testing.T) {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{Name: "Doomed", Prizes: []models.Prize{{ID: "p1", Name: "Mug"}}})

		result, err := fx.service.Delete(ctx, raffle.ID)
		require.NoError(t, err)
		assert.True(t, result.Deleted)
		assert.Empty(t, result.CascadeWarning)

		// Second delete of the same id succeeds identically
		result, err = fx.service.Delete(ctx, raffle.ID)
		require.NoError(t, err)
		assert.True(t, result.Deleted)

		_, err = fx.service.Get(ctx, raffle.ID)
		assert.True(t, errors.Is(err, raffleerr.ErrNotFound))
	})

	t.Run("cascade failure surfaces a warning but the delete succeeds", func(t *testing.T) {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{Name: "On a wheel", Prizes: []models.Prize{{ID: "p1", Name: "Mug"}}})
		fx.wheelRepo.FailWith = errors.New("wheel store unavailable")

		result, err := fx.service.Delete(ctx, raffle.ID)
		require.NoError(t, err)
		assert.True(t, result.Deleted)
		assert.Contains(t, result.CascadeWarning, "wheel association cleanup failed")

		_, err = fx.service.Get(ctx, raffle.ID)
		assert.True(t, errors.Is(err, raffleerr.ErrNotFound))
	})

	t.Run("cascade removes the raffle from wheels", func(t *testing.T) {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{Name: "On a wheel", Prizes: []models.Prize{{ID: "p1", Name: "Mug"}}})
		wheel := &models.Wheel{Name: "Lobby wheel", RaffleIDs: []primitive.ObjectID{raffle.ID}}
		fx.wheelRepo.Put(wheel)

		_, err := fx.service.Delete(ctx, raffle.ID)
		require.NoError(t, err)

		stored, ok := fx.wheelRepo.Get(wheel.ID)
		require.True(t, ok)
		assert.Empty(t, stored.RaffleIDs)
	})
}

func TestRaffleServiceRecordWinner(t *testing.T) {
	ctx := context.Background()

	t.Run("second record for the same prize fails", func(t *testing.T) {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{
			Name:   "Two prizes",
			Prizes: []models.Prize{{ID: "p1", Name: "First"}, {ID: "p2", Name: "Second"}},
		})

		updated, err := fx.service.RecordWinner(ctx, raffle.ID, "p1", "user-a")
		require.NoError(t, err)
		require.Len(t, updated.Winners, 1)
		assert.Equal(t, models.RaffleStatusScheduled, updated.Status, "one prize left, not completed yet")

		_, err = fx.service.RecordWinner(ctx, raffle.ID, "p1", "user-b")
		assert.True(t, errors.Is(err, raffleerr.ErrAlreadyDrawn))

		// Winner record is unchanged
		stored, err := fx.service.Get(ctx, raffle.ID)
		require.NoError(t, err)
		require.Len(t, stored.Winners, 1)
		assert.Equal(t, "user-a", stored.Winners[0].UserRef)
	})

	t.Run("last prize completes and closes the raffle", func(t *testing.T) {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{
			Name:      "One prize",
			Prizes:    []models.Prize{{ID: "p1", Name: "Only"}},
			IsVisible: true,
		})

		updated, err := fx.service.RecordWinner(ctx, raffle.ID, "p1", "user-a")
		require.NoError(t, err)
		assert.Equal(t, models.RaffleStatusCompleted, updated.Status)
		assert.False(t, updated.IsVisible)

		stored, err := fx.service.Get(ctx, raffle.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RaffleStatusCompleted, stored.Status)
		assert.False(t, stored.IsVisible)
	})
}

func TestRaffleServiceAddParticipant(t *testing.T) {
	ctx := context.Background()

	t.Run("entries accrue before the raffle opens", func(t *testing.T) {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{
			Name:      "Not yet open",
			Prizes:    []models.Prize{{ID: "p1", Name: "Mug"}},
			IsVisible: false,
		})

		err := fx.service.AddParticipant(ctx, raffle.ID, models.Participant{UserRef: "user-a", Entries: 3})
		require.NoError(t, err)

		stored, err := fx.service.Get(ctx, raffle.ID)
		require.NoError(t, err)
		require.Len(t, stored.Participants, 1)
		assert.Equal(t, 3, stored.Participants[0].Entries)
	})

	t.Run("rejects completed raffles", func(t *testing.T) {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{
			Name:   "Done",
			Prizes: []models.Prize{{ID: "p1", Name: "Mug"}},
			Status: models.RaffleStatusCompleted,
		})
		err := fx.service.AddParticipant(ctx, raffle.ID, models.Participant{UserRef: "user-a", Entries: 1})
		assert.True(t, raffleerr.IsValidation(err))
	})

	t.Run("rejects raffles with an exhausted prize", func(t *testing.T) {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{
			Name:   "Gone",
			Prizes: []models.Prize{{ID: "p1", Name: "Mug", Quantity: intPtr(0)}},
		})
		err := fx.service.AddParticipant(ctx, raffle.ID, models.Participant{UserRef: "user-a", Entries: 1})
		assert.True(t, raffleerr.IsValidation(err))
	})

	t.Run("rejects zero entries", func(t *testing.T) {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{Name: "Open", Prizes: []models.Prize{{ID: "p1", Name: "Mug"}}})
		err := fx.service.AddParticipant(ctx, raffle.ID, models.Participant{UserRef: "user-a", Entries: 0})
		assert.True(t, raffleerr.IsValidation(err))
	})
}

func TestRaffleServiceListing(t *testing.T) {
	ctx := context.Background()
	fx := newRaffleFixture()

	seedRaffle(t, fx, &models.Raffle{
		Name:      "Open for entry",
		Prizes:    []models.Prize{{ID: "p1", Name: "Mug"}},
		IsVisible: true,
	})
	seedRaffle(t, fx, &models.Raffle{
		Name:    "Finished",
		Prizes:  []models.Prize{{ID: "p1", Name: "Mug"}},
		Status:  models.RaffleStatusCompleted,
		Winners: []models.WinnerEntry{{UserRef: "user-a", PrizeRef: "p1", WonAt: time.Now()}},
	})
	seedRaffle(t, fx, &models.Raffle{
		Name:   "Hidden draft",
		Prizes: []models.Prize{{ID: "p1", Name: "Mug"}},
	})

	t.Run("admin filters", func(t *testing.T) {
		all, err := fx.service.List(ctx, ListAll)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		visible, err := fx.service.List(ctx, ListVisible)
		require.NoError(t, err)
		require.Len(t, visible, 1)
		assert.Equal(t, "Open for entry", visible[0].Name)

		drawn, err := fx.service.List(ctx, ListDrawn)
		require.NoError(t, err)
		require.Len(t, drawn, 1)
		assert.Equal(t, "Finished", drawn[0].Name)

		scheduled, err := fx.service.List(ctx, ListScheduled)
		require.NoError(t, err)
		assert.Len(t, scheduled, 2)
	})

	t.Run("public view hides drafts but shows completed results", func(t *testing.T) {
		public, err := fx.service.PublicList(ctx)
		require.NoError(t, err)
		require.Len(t, public, 2)
		names := []string{public[0].Name, public[1].Name}
		assert.Contains(t, names, "Open for entry")
		assert.Contains(t, names, "Finished")
	})
}
