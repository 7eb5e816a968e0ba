package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/meue/rewards-backend/internal/models"
	"github.com/meue/rewards-backend/internal/raffleerr"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure DrawServiceImpl implements DrawService
var _ DrawService = (*DrawServiceImpl)(nil)

// DrawServiceImpl performs the weighted random draw for a raffle. The
// random source is injected so draw sequences are reproducible in tests.
type DrawServiceImpl struct {
	raffleService RaffleService

	mu  sync.Mutex // rand.Rand is not safe for concurrent use
	rng *rand.Rand
}

// NewDrawService creates a new DrawServiceImpl. A nil rng falls back to a
// time-seeded source.
func NewDrawService(raffleService RaffleService, rng *rand.Rand) *DrawServiceImpl {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &DrawServiceImpl{
		raffleService: raffleService,
		rng:           rng,
	}
}

// BuildEntryPool expands participants into a flat weighted pool where each
// participant's userRef appears exactly Entries times. Participants in the
// exclude set are left out entirely.
func BuildEntryPool(participants []models.Participant, exclude map[string]bool) []string {
	var pool []string
	for _, p := range participants {
		if exclude[p.UserRef] {
			continue
		}
		weight := p.Entries
		if weight < 1 {
			weight = 1 // entries is always >= 1 per invariant
		}
		for i := 0; i < weight; i++ {
			pool = append(pool, p.UserRef)
		}
	}
	return pool
}

// ExecuteDraw runs one draw pass over the raffle: for every prize still
// lacking a winner it draws one index uniformly from the weighted pool and
// records the result through the store. A participant bound to a prize
// within this pass is excluded from the pool for the remaining prizes of
// the same pass; the exclusion set is the session's running result set,
// never re-read from the store mid-pass.
func (s *DrawServiceImpl) ExecuteDraw(ctx context.Context, raffleID primitive.ObjectID) (*models.Raffle, error) {
	raffle, err := s.raffleService.Get(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load raffle for draw: %w", err)
	}
	if raffle.Status == models.RaffleStatusCompleted {
		slog.Info("Draw skipped, raffle already completed", "raffleId", raffleID.Hex())
		return raffle, nil
	}

	undrawn := raffle.UndrawnPrizes()
	if len(undrawn) == 0 {
		return raffle, nil
	}

	if len(raffle.Participants) == 0 {
		// Terminal for this raffle: left invisible and un-drawn, requires
		// human or marketing intervention.
		if raffle.IsVisible {
			if visErr := s.raffleService.SetVisibility(ctx, raffleID, false); visErr != nil {
				slog.Error("Failed to close raffle with no participants", "error", visErr, "raffleId", raffleID.Hex())
			}
		}
		slog.Error("Draw aborted, raffle has no participants", "raffleId", raffleID.Hex(), "name", raffle.Name)
		return nil, fmt.Errorf("raffle %s: %w", raffleID.Hex(), raffleerr.ErrNoParticipants)
	}

	// Session result set: seeded from winners already on the record so a
	// resumed pass cannot hand a second prize to an earlier winner.
	sessionWinners := make(map[string]bool, len(raffle.Winners))
	for _, w := range raffle.Winners {
		sessionWinners[w.UserRef] = true
	}

	current := raffle
	for _, prize := range undrawn {
		pool := BuildEntryPool(current.Participants, sessionWinners)
		if len(pool) == 0 {
			// Every remaining participant already won this pass. The prize
			// stays undrawn until new participants arrive.
			slog.Warn("Entry pool exhausted mid-pass", "raffleId", raffleID.Hex(), "prizeRef", prize.ID)
			break
		}

		s.mu.Lock()
		index := s.rng.Intn(len(pool))
		s.mu.Unlock()
		userRef := pool[index]

		updated, err := s.raffleService.RecordWinner(ctx, raffleID, prize.ID, userRef)
		if err != nil {
			if errors.Is(err, raffleerr.ErrAlreadyDrawn) {
				// A concurrent draw already wrote this prize. Discard our
				// result silently; the store's winner stands.
				slog.Warn("Prize drawn concurrently, discarding local result", "raffleId", raffleID.Hex(), "prizeRef", prize.ID)
				continue
			}
			return nil, fmt.Errorf("failed to record winner for prize %s: %w", prize.ID, err)
		}

		sessionWinners[userRef] = true
		current = updated
		slog.Info("Winner drawn", "raffleId", raffleID.Hex(), "prizeRef", prize.ID, "userRef", userRef, "poolSize", len(pool))
	}

	return current, nil
}
