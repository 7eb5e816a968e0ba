package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/meue/rewards-backend/internal/bus"
	"github.com/meue/rewards-backend/internal/models"
	"github.com/meue/rewards-backend/internal/raffleerr"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// SyncService keeps the isVisible projection consistent with prize
// exhaustion truth and propagates changes to observers. The push path is a
// latency optimization; the poll reconciliation is the ground truth and
// always wins ties. The two paths run as independent activities sharing
// only the local projection, which reconciliation overwrites wholesale.
type SyncService struct {
	raffleService RaffleService
	drawService   DrawService
	bus           bus.Bus
	topic         string
	pollInterval  time.Duration
	recloseDelay  time.Duration

	mu         sync.RWMutex
	projection map[string]*models.Raffle

	timersMu sync.Mutex
	timers   map[string]*time.Timer

	failedMu    sync.Mutex
	failedDraws map[string]int // participant count at the time of a NoParticipants failure
}

// NewSyncService creates a new SyncService
func NewSyncService(
	raffleService RaffleService,
	drawService DrawService,
	b bus.Bus,
	topic string,
	pollInterval time.Duration,
	recloseDelay time.Duration,
) *SyncService {
	return &SyncService{
		raffleService: raffleService,
		drawService:   drawService,
		bus:           b,
		topic:         topic,
		pollInterval:  pollInterval,
		recloseDelay:  recloseDelay,
		projection:    make(map[string]*models.Raffle),
		timers:        make(map[string]*time.Timer),
		failedDraws:   make(map[string]int),
	}
}

// Start subscribes the push handler and launches the reconciliation loop.
// The loop runs until ctx is cancelled; a failed pass is retried on the
// next tick and never stops the loop.
func (s *SyncService) Start(ctx context.Context) error {
	if err := s.bus.Subscribe(s.topic, s.handlePush); err != nil {
		return fmt.Errorf("failed to subscribe to visibility topic: %w", err)
	}
	go s.loop(ctx)
	return nil
}

func (s *SyncService) loop(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.cancelAllTimers()
			return
		case <-ticker.C:
			if err := s.Reconcile(ctx); err != nil {
				slog.Error("Reconciliation pass failed, will retry on next tick", "error", err)
			}
		}
	}
}

// handlePush applies a pushed visibility event to the local projection.
// Events for the same raffle are applied in arrival order; the projection
// entry is replaced, not patched.
func (s *SyncService) handlePush(payload []byte) {
	event, err := bus.DecodeVisibilityEvent(payload)
	if err != nil {
		slog.Warn("Dropping malformed visibility event", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	raffle, ok := s.projection[event.RaffleID]
	if !ok {
		// Observer joined after the raffle was listed; the next poll pass
		// picks it up.
		return
	}
	updated := *raffle
	updated.IsVisible = event.IsVisible
	s.projection[event.RaffleID] = &updated
}

// Reconcile performs one full poll pass: fetch the authoritative raffle
// list, replace the projection wholesale, then enforce the visibility
// invariants and trigger draws for raffles that became eligible.
func (s *SyncService) Reconcile(ctx context.Context) error {
	raffles, err := s.raffleService.List(ctx, ListAll)
	if err != nil {
		return fmt.Errorf("failed to list raffles: %w", err)
	}

	fresh := make(map[string]*models.Raffle, len(raffles))
	for _, raffle := range raffles {
		fresh[raffle.ID.Hex()] = raffle
	}
	s.mu.Lock()
	s.projection = fresh
	s.mu.Unlock()

	now := time.Now()
	for _, raffle := range raffles {
		s.reconcileRaffle(ctx, raffle, now)
	}
	return nil
}

func (s *SyncService) reconcileRaffle(ctx context.Context, raffle *models.Raffle, now time.Time) {
	id := raffle.ID

	// Exhaustion-visibility invariant: a raffle with any exhausted prize
	// must never be visible.
	if raffle.IsVisible && (raffle.HasExhaustedPrize(now) || raffle.Status == models.RaffleStatusCompleted) {
		s.applyVisibility(ctx, id, false)
		return
	}

	if raffle.Status != models.RaffleStatusScheduled {
		return
	}

	if raffle.IsVisible {
		// An earlier pass opened the raffle but could not bind every
		// prize. Retry while the window is open; the armed re-close still
		// closes it if no fresh entrant ever arrives.
		if len(raffle.UndrawnPrizes()) == 0 || !s.eligible(raffle, now) {
			return
		}
		s.runDraw(ctx, raffle)
		return
	}

	if !s.eligible(raffle, now) {
		return
	}

	// Open the entry window and broadcast it.
	s.applyVisibility(ctx, id, true)

	// One-shot reveal rule: if a prize still has remaining quantity after
	// opening, schedule a delayed re-close so the raffle does not stay
	// silently open indefinitely.
	for _, p := range raffle.Prizes {
		if p.Quantity != nil && *p.Quantity > 0 {
			s.scheduleReclose(id)
			break
		}
	}

	// The open window is consumed by the winner selector.
	s.runDraw(ctx, raffle)
}

func (s *SyncService) runDraw(ctx context.Context, raffle *models.Raffle) {
	id := raffle.ID
	updated, err := s.drawService.ExecuteDraw(ctx, id)
	if err != nil {
		if errors.Is(err, raffleerr.ErrNoParticipants) {
			s.markDrawFailed(id, len(raffle.Participants))
			s.cancelReclose(id)
			s.applyVisibility(ctx, id, false)
			slog.Error("Raffle cannot be drawn, operator attention required", "raffleId", id.Hex(), "name", raffle.Name)
			return
		}
		slog.Error("Draw failed during reconciliation", "error", err, "raffleId", id.Hex())
		return
	}
	s.OnDrawCompleted(ctx, updated)
}

// eligible reports whether a scheduled raffle may make draw progress:
// schedule reached, at least one participant who has not already won, at
// least one prize still open, and no standing NoParticipants failure for
// the same participant set.
func (s *SyncService) eligible(raffle *models.Raffle, now time.Time) bool {
	if raffle.ScheduledAt.After(now) {
		return false
	}
	if len(raffle.Participants) == 0 {
		return false
	}
	if !raffle.HasOpenPrize(now) {
		return false
	}

	// A pass excludes recorded winners from the pool, so with no fresh
	// entrant another pass cannot bind anything. Waiting here keeps a
	// partially drawn raffle from pulsing open on every poll tick.
	won := make(map[string]bool, len(raffle.Winners))
	for _, w := range raffle.Winners {
		won[w.UserRef] = true
	}
	if len(BuildEntryPool(raffle.Participants, won)) == 0 {
		return false
	}

	s.failedMu.Lock()
	defer s.failedMu.Unlock()
	id := raffle.ID.Hex()
	if count, ok := s.failedDraws[id]; ok {
		if count == len(raffle.Participants) {
			return false
		}
		delete(s.failedDraws, id)
	}
	return true
}

func (s *SyncService) markDrawFailed(id primitive.ObjectID, participants int) {
	s.failedMu.Lock()
	defer s.failedMu.Unlock()
	s.failedDraws[id.Hex()] = participants
}

// applyVisibility writes the flag through the store, updates the local
// projection and broadcasts the change.
func (s *SyncService) applyVisibility(ctx context.Context, id primitive.ObjectID, visible bool) {
	if err := s.raffleService.SetVisibility(ctx, id, visible); err != nil {
		if errors.Is(err, raffleerr.ErrNotFound) {
			return // deleted between list and write
		}
		slog.Error("Failed to set raffle visibility", "error", err, "raffleId", id.Hex(), "visible", visible)
		return
	}

	key := id.Hex()
	s.mu.Lock()
	if raffle, ok := s.projection[key]; ok {
		updated := *raffle
		updated.IsVisible = visible
		s.projection[key] = &updated
	}
	s.mu.Unlock()

	s.Broadcast(ctx, key, visible)
}

// Broadcast publishes a visibility event on the shared topic. Publish
// failures are logged only: the poll backstop repairs missed pushes.
func (s *SyncService) Broadcast(ctx context.Context, raffleID string, visible bool) {
	event := bus.NewVisibilityEvent(raffleID, visible)
	payload, err := event.Encode()
	if err != nil {
		slog.Error("Failed to encode visibility event", "error", err, "raffleId", raffleID)
		return
	}
	if err := s.bus.Publish(ctx, s.topic, payload); err != nil {
		slog.Warn("Failed to publish visibility event", "error", err, "raffleId", raffleID)
	}
}

// ForceVisibility is the admin override path. Flipping a raffle visible
// re-checks the one-shot reveal rule exactly like an engine-driven flip.
func (s *SyncService) ForceVisibility(ctx context.Context, id primitive.ObjectID, visible bool) error {
	raffle, err := s.raffleService.Get(ctx, id)
	if err != nil {
		return err
	}

	s.applyVisibility(ctx, id, visible)
	if !visible {
		s.cancelReclose(id)
		return nil
	}
	for _, p := range raffle.Prizes {
		if p.Quantity != nil && *p.Quantity > 0 {
			s.scheduleReclose(id)
			break
		}
	}
	return nil
}

// OnDrawCompleted folds a finished draw pass into the projection. Only a
// completed raffle cancels the pending re-close and broadcasts its final
// closed state; a partial pass leaves the raffle open with the re-close
// timer armed so it cannot stay open indefinitely.
func (s *SyncService) OnDrawCompleted(ctx context.Context, raffle *models.Raffle) {
	if raffle == nil {
		return
	}

	key := raffle.ID.Hex()
	s.mu.Lock()
	s.projection[key] = raffle
	s.mu.Unlock()

	if raffle.Status != models.RaffleStatusCompleted {
		return
	}
	s.cancelReclose(raffle.ID)
	s.Broadcast(ctx, key, raffle.IsVisible)
}

// OnRaffleDeleted cancels any pending re-close and drops the raffle from
// the local projection.
func (s *SyncService) OnRaffleDeleted(id primitive.ObjectID) {
	s.cancelReclose(id)

	s.mu.Lock()
	delete(s.projection, id.Hex())
	s.mu.Unlock()

	s.failedMu.Lock()
	delete(s.failedDraws, id.Hex())
	s.failedMu.Unlock()
}

// scheduleReclose arms (or re-arms) the delayed re-close for a raffle. The
// timer is indexed by raffle id so deletion or a completed draw can cancel
// it; a timer that fires against a deleted raffle is a silent no-op.
func (s *SyncService) scheduleReclose(id primitive.ObjectID) {
	key := id.Hex()
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
	}
	s.timers[key] = time.AfterFunc(s.recloseDelay, func() {
		s.timersMu.Lock()
		delete(s.timers, key)
		s.timersMu.Unlock()
		s.recloseNow(id)
	})
}

func (s *SyncService) recloseNow(id primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	raffle, err := s.raffleService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, raffleerr.ErrNotFound) {
			return // raffle deleted while the timer was pending
		}
		slog.Error("Delayed re-close failed to load raffle", "error", err, "raffleId", id.Hex())
		return
	}
	if raffle.Status == models.RaffleStatusCompleted || !raffle.IsVisible {
		return
	}
	slog.Info("Delayed re-close firing", "raffleId", id.Hex())
	s.applyVisibility(ctx, id, false)
}

func (s *SyncService) cancelReclose(id primitive.ObjectID) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	key := id.Hex()
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
}

func (s *SyncService) cancelAllTimers() {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}

// Snapshot returns a copy of the local projection, as an observer sees it.
func (s *SyncService) Snapshot() map[string]*models.Raffle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]*models.Raffle, len(s.projection))
	for key, raffle := range s.projection {
		copied := *raffle
		snapshot[key] = &copied
	}
	return snapshot
}

// VisibleInProjection reports the projected visibility of a raffle and
// whether the raffle is present in the projection at all.
func (s *SyncService) VisibleInProjection(id primitive.ObjectID) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raffle, ok := s.projection[id.Hex()]
	if !ok {
		return false, false
	}
	return raffle.IsVisible, true
}
