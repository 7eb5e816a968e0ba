package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/meue/rewards-backend/internal/models"
	"github.com/meue/rewards-backend/internal/raffleerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEntryPool(t *testing.T) {
	participants := []models.Participant{
		{UserRef: "user-a", Entries: 1},
		{UserRef: "user-b", Entries: 3},
		{UserRef: "user-c", Entries: 2},
	}

	t.Run("each participant appears entries times", func(t *testing.T) {
		pool := BuildEntryPool(participants, nil)
		require.Len(t, pool, 6)

		counts := map[string]int{}
		for _, ref := range pool {
			counts[ref]++
		}
		assert.Equal(t, 1, counts["user-a"])
		assert.Equal(t, 3, counts["user-b"])
		assert.Equal(t, 2, counts["user-c"])
	})

	t.Run("excluded participants are left out entirely", func(t *testing.T) {
		pool := BuildEntryPool(participants, map[string]bool{"user-b": true})
		require.Len(t, pool, 3)
		for _, ref := range pool {
			assert.NotEqual(t, "user-b", ref)
		}
	})

	t.Run("entries below one are floored to one", func(t *testing.T) {
		pool := BuildEntryPool([]models.Participant{{UserRef: "user-a", Entries: 0}}, nil)
		assert.Equal(t, []string{"user-a"}, pool)
	})

	t.Run("empty participants yields an empty pool", func(t *testing.T) {
		assert.Empty(t, BuildEntryPool(nil, nil))
	})
}

func TestExecuteDraw(t *testing.T) {
	ctx := context.Background()

	t.Run("draws one winner per prize, no double win in a pass", func(t *testing.T) {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{
			Name:   "Three prizes",
			Prizes: []models.Prize{{ID: "p1", Name: "A"}, {ID: "p2", Name: "B"}, {ID: "p3", Name: "C"}},
			Participants: []models.Participant{
				{UserRef: "user-a", Entries: 5},
				{UserRef: "user-b", Entries: 1},
				{UserRef: "user-c", Entries: 1},
			},
		})
		drawService := NewDrawService(fx.service, rand.New(rand.NewSource(7)))

		updated, err := drawService.ExecuteDraw(ctx, raffle.ID)
		require.NoError(t, err)
		require.Len(t, updated.Winners, 3)

		seen := map[string]bool{}
		for _, w := range updated.Winners {
			assert.False(t, seen[w.UserRef], "participant %s won twice in one pass", w.UserRef)
			seen[w.UserRef] = true
		}
		assert.Equal(t, models.RaffleStatusCompleted, updated.Status)
		assert.False(t, updated.IsVisible)
	})

	t.Run("pool exhausted mid-pass leaves remaining prizes undrawn", func(t *testing.T) {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{
			Name:         "More prizes than people",
			Prizes:       []models.Prize{{ID: "p1", Name: "A"}, {ID: "p2", Name: "B"}},
			Participants: []models.Participant{{UserRef: "user-a", Entries: 1}},
		})
		drawService := NewDrawService(fx.service, rand.New(rand.NewSource(1)))

		updated, err := drawService.ExecuteDraw(ctx, raffle.ID)
		require.NoError(t, err)
		require.Len(t, updated.Winners, 1)
		assert.Equal(t, "user-a", updated.Winners[0].UserRef)
		assert.Equal(t, models.RaffleStatusScheduled, updated.Status, "undrawn prize keeps the raffle open")
	})

	t.Run("no participants is terminal and closes the raffle", func(t *testing.T) {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{
			Name:      "Nobody entered",
			Prizes:    []models.Prize{{ID: "p1", Name: "A"}},
			IsVisible: true,
		})
		drawService := NewDrawService(fx.service, rand.New(rand.NewSource(1)))

		_, err := drawService.ExecuteDraw(ctx, raffle.ID)
		require.True(t, errors.Is(err, raffleerr.ErrNoParticipants))

		stored, err := fx.service.Get(ctx, raffle.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsVisible)
		assert.Empty(t, stored.Winners)
	})

	t.Run("completed raffle is skipped", func(t *testing.T) {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{
			Name:         "Already done",
			Prizes:       []models.Prize{{ID: "p1", Name: "A"}},
			Participants: []models.Participant{{UserRef: "user-a", Entries: 1}},
			Winners:      []models.WinnerEntry{{UserRef: "user-b", PrizeRef: "p1"}},
			Status:       models.RaffleStatusCompleted,
		})
		drawService := NewDrawService(fx.service, rand.New(rand.NewSource(1)))

		updated, err := drawService.ExecuteDraw(ctx, raffle.ID)
		require.NoError(t, err)
		require.Len(t, updated.Winners, 1)
		assert.Equal(t, "user-b", updated.Winners[0].UserRef)
	})

	t.Run("existing winners stay excluded on a resumed pass", func(t *testing.T) {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{
			Name:   "Resumed",
			Prizes: []models.Prize{{ID: "p1", Name: "A"}, {ID: "p2", Name: "B"}},
			Participants: []models.Participant{
				{UserRef: "user-a", Entries: 100},
				{UserRef: "user-b", Entries: 1},
			},
			Winners: []models.WinnerEntry{{UserRef: "user-a", PrizeRef: "p1"}},
		})
		drawService := NewDrawService(fx.service, rand.New(rand.NewSource(1)))

		updated, err := drawService.ExecuteDraw(ctx, raffle.ID)
		require.NoError(t, err)
		require.Len(t, updated.Winners, 2)
		assert.Equal(t, "user-b", updated.WinnerForPrize("p2").UserRef,
			"the heavily weighted prior winner must not win again")
	})
}

// TestDrawWeighting draws a two-participant raffle many times with a fixed
// seed and checks the win rate tracks the entry weights.
func TestDrawWeighting(t *testing.T) {
	ctx := context.Background()
	participants := []models.Participant{
		{UserRef: "user-light", Entries: 1},
		{UserRef: "user-heavy", Entries: 9},
	}
	rng := rand.New(rand.NewSource(42))

	const rounds = 2000
	heavyWins := 0
	for i := 0; i < rounds; i++ {
		fx := newRaffleFixture()
		raffle := seedRaffle(t, fx, &models.Raffle{
			Name:         "Weighted",
			Prizes:       []models.Prize{{ID: "p1", Name: "Only"}},
			Participants: participants,
		})
		drawService := NewDrawService(fx.service, rng)

		updated, err := drawService.ExecuteDraw(ctx, raffle.ID)
		require.NoError(t, err)
		require.Len(t, updated.Winners, 1)
		if updated.Winners[0].UserRef == "user-heavy" {
			heavyWins++
		}
	}

	rate := float64(heavyWins) / rounds
	assert.InDelta(t, 0.9, rate, 0.03, "9-entry participant should win about 90%% of draws")
}
