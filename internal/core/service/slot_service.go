package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/parkspace/parking-client/internal/core/domain"
	"github.com/parkspace/parking-client/internal/core/ports"
	"github.com/parkspace/parking-client/internal/pkg/metrics"
)

const (
	refreshKey            = "slots"
	defaultRefreshTimeout = 15 * time.Second
)

// errSessionChanged is returned to every caller sharing a fetch that started
// under a different session.
var errSessionChanged = fmt.Errorf("%w: session changed during refresh", domain.ErrAuth)

// SessionEpoch reports the current session epoch (see SessionProvider.Epoch).
type SessionEpoch interface {
	Epoch() uint64
}

// Invalidation declares what a mutation made stale. The collection is always
// refetched wholesale; the declaration decides which refreshes may be shared.
type Invalidation struct {
	All     bool
	SlotIDs []string
}

type fetchResult struct {
	snapshot Snapshot
	gen      uint64
}

// SlotService is the slot view-model reducer. It holds the cached collection,
// applies invalidations from mutations and serves refreshes so that:
//   - a response older than the applied snapshot is discarded (monotonic seq),
//   - concurrent refreshes share one fetch, but never one that started before
//     the invalidation they wait for,
//   - a fetch started under another session is never applied.
type SlotService struct {
	api            ports.SlotAPI
	session        SessionEpoch
	refreshTimeout time.Duration
	log            zerolog.Logger

	group singleflight.Group
	gen   atomic.Uint64 // invalidation generation
	seq   atomic.Uint64 // fetch sequence

	mu             sync.Mutex
	current        Snapshot
	applied        uint64
	appliedGen     uint64
	invalidatedAll uint64
	invalidated    map[string]uint64
	pending        map[string]struct{}
}

// NewSlotService returns a SlotService. refreshTimeout bounds every fetch and
// is detached from the caller's cancellation; <= 0 selects the default.
func NewSlotService(api ports.SlotAPI, session SessionEpoch, refreshTimeout time.Duration, log zerolog.Logger) *SlotService {
	if refreshTimeout <= 0 {
		refreshTimeout = defaultRefreshTimeout
	}
	return &SlotService{
		api:            api,
		session:        session,
		refreshTimeout: refreshTimeout,
		log:            log,
		invalidated:    make(map[string]uint64),
		pending:        make(map[string]struct{}),
	}
}

// Snapshot returns the cached collection without touching the network.
func (s *SlotService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Refresh fetches the full collection and replaces the cache wholesale. It
// shares a fetch already in flight unless a mutation has landed since that
// fetch started.
func (s *SlotService) Refresh(ctx context.Context) (Snapshot, error) {
	return s.awaitRefresh(ctx, s.gen.Load())
}

// CreateSlot submits a new slot and refreshes on success.
func (s *SlotService) CreateSlot(ctx context.Context, in domain.NewSlot) (Snapshot, error) {
	if err := validateInput(in); err != nil {
		s.record("create", err)
		return s.Snapshot(), err
	}

	created, err := s.api.CreateSlot(ctx, in)
	s.record("create", err)
	if err != nil {
		return s.Snapshot(), err
	}

	s.log.Info().Str("slot_id", created.ID).Int("slot_number", created.Number).Msg("slot created")
	return s.settle(ctx, "create", s.invalidate(Invalidation{All: true}))
}

// Book reserves a slot with the draft details. Vehicle number and booker name
// must be present; otherwise nothing is sent. Once the server accepts the
// booking the draft is reset, even if the refresh after it fails.
func (s *SlotService) Book(ctx context.Context, slotID string, draft *domain.BookingDraft) (Snapshot, error) {
	if draft == nil {
		draft = &domain.BookingDraft{}
	}
	if err := s.checkSlotID(slotID); err != nil {
		s.record("book", err)
		return s.Snapshot(), err
	}
	if err := validateInput(draft); err != nil {
		s.record("book", err)
		return s.Snapshot(), err
	}

	release, err := s.begin(slotID)
	if err != nil {
		s.record("book", err)
		return s.Snapshot(), err
	}
	defer release()

	if _, err := s.api.BookSlot(ctx, slotID, draft.Booking()); err != nil {
		return s.reconcile(ctx, "book", slotID, err)
	}
	s.record("book", nil)
	draft.Reset()

	s.log.Info().Str("slot_id", slotID).Msg("slot booked")
	return s.settle(ctx, "book", s.invalidate(Invalidation{SlotIDs: []string{slotID}}))
}

// Cancel releases the booking on a slot and refreshes on success.
func (s *SlotService) Cancel(ctx context.Context, slotID string) (Snapshot, error) {
	if err := s.checkSlotID(slotID); err != nil {
		s.record("cancel", err)
		return s.Snapshot(), err
	}

	release, err := s.begin(slotID)
	if err != nil {
		s.record("cancel", err)
		return s.Snapshot(), err
	}
	defer release()

	if _, err := s.api.CancelBooking(ctx, slotID); err != nil {
		return s.reconcile(ctx, "cancel", slotID, err)
	}
	s.record("cancel", nil)

	s.log.Info().Str("slot_id", slotID).Msg("booking cancelled")
	return s.settle(ctx, "cancel", s.invalidate(Invalidation{SlotIDs: []string{slotID}}))
}

// DeleteSlot removes a slot. A slot the cache shows as booked is only deleted
// when force is set, since deleting it destroys the booking.
func (s *SlotService) DeleteSlot(ctx context.Context, slotID string, force bool) (Snapshot, error) {
	if err := s.checkSlotID(slotID); err != nil {
		s.record("delete", err)
		return s.Snapshot(), err
	}

	if slot, ok := s.Snapshot().Find(slotID); ok && slot.IsBooked && !force {
		err := fmt.Errorf("%w: slot %d is booked; deleting it discards the booking", domain.ErrConfirmationRequired, slot.Number)
		s.record("delete", err)
		return s.Snapshot(), err
	}

	release, err := s.begin(slotID)
	if err != nil {
		s.record("delete", err)
		return s.Snapshot(), err
	}
	defer release()

	if err := s.api.DeleteSlot(ctx, slotID); err != nil {
		return s.reconcile(ctx, "delete", slotID, err)
	}
	s.record("delete", nil)

	s.log.Info().Str("slot_id", slotID).Bool("force", force).Msg("slot deleted")
	return s.settle(ctx, "delete", s.invalidate(Invalidation{All: true}))
}

// Reset empties the cache. Fetches still in flight are discarded when they land.
func (s *SlotService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Snapshot{}
	s.applied = s.seq.Load()
	s.appliedGen = s.gen.Load()
	s.invalidatedAll = 0
	clear(s.invalidated)
}

// settle refreshes after a successful mutation. A failed refresh does not undo
// the mutation: the error wraps domain.ErrStaleView and the refresh cause.
func (s *SlotService) settle(ctx context.Context, op string, gen uint64) (Snapshot, error) {
	snap, err := s.awaitRefresh(ctx, gen)
	if err != nil {
		s.log.Warn().Err(err).Str("op", op).Msg("refresh after mutation failed")
		return snap, fmt.Errorf("%s succeeded; %w: %w", op, domain.ErrStaleView, err)
	}
	return snap, nil
}

// reconcile refetches after a failure that proves the cache was stale, then
// returns the original error.
func (s *SlotService) reconcile(ctx context.Context, op, slotID string, err error) (Snapshot, error) {
	s.record(op, err)
	s.log.Warn().Err(err).Str("op", op).Str("slot_id", slotID).Msg("slot mutation failed")

	if !errors.Is(err, domain.ErrBookingConflict) && !errors.Is(err, domain.ErrNotFound) {
		return s.Snapshot(), err
	}

	snap, refreshErr := s.awaitRefresh(ctx, s.invalidate(Invalidation{SlotIDs: []string{slotID}}))
	if refreshErr != nil {
		s.log.Warn().Err(refreshErr).Str("slot_id", slotID).Msg("reconciling refresh failed")
	}
	return snap, err
}

func (s *SlotService) invalidate(inv Invalidation) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen := s.gen.Add(1)
	if inv.All {
		s.invalidatedAll = gen
	}
	for _, id := range inv.SlotIDs {
		s.invalidated[id] = gen
	}
	return gen
}

// awaitRefresh returns a snapshot fetched no earlier than generation gen.
func (s *SlotService) awaitRefresh(ctx context.Context, gen uint64) (Snapshot, error) {
	for {
		ch := s.group.DoChan(refreshKey, func() (any, error) {
			return s.fetch(ctx)
		})

		select {
		case <-ctx.Done():
			return s.Snapshot(), fmt.Errorf("%w: %w", domain.ErrNetwork, ctx.Err())
		case res := <-ch:
			if res.Err != nil {
				return s.Snapshot(), res.Err
			}
			if res.Shared {
				metrics.RefreshCoalescedTotal.Inc()
			}
			out := res.Val.(fetchResult)
			if out.gen >= gen {
				return out.snapshot, nil
			}
		}
	}
}

func (s *SlotService) fetch(ctx context.Context) (fetchResult, error) {
	gen := s.gen.Load()
	epoch := s.session.Epoch()
	seq := s.seq.Add(1)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
	defer cancel()

	slots, err := s.api.ListSlots(ctx)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("error").Inc()
		return fetchResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Epoch() != epoch {
		metrics.RefreshTotal.WithLabelValues("session_changed").Inc()
		s.log.Debug().Uint64("seq", seq).Msg("discarding refresh from previous session")
		return fetchResult{}, errSessionChanged
	}

	if seq <= s.applied {
		metrics.RefreshTotal.WithLabelValues("stale").Inc()
		s.log.Debug().Uint64("seq", seq).Uint64("applied", s.applied).Msg("discarding stale refresh")
		return fetchResult{snapshot: s.view(), gen: gen}, nil
	}

	s.current = Snapshot{Slots: slots, Seq: seq, FetchedAt: time.Now().UTC()}
	s.applied = seq
	if gen > s.appliedGen {
		s.appliedGen = gen
	}
	for id, g := range s.invalidated {
		if g <= gen {
			delete(s.invalidated, id)
		}
	}
	metrics.RefreshTotal.WithLabelValues("applied").Inc()
	s.log.Debug().Uint64("seq", seq).Int("slots", len(slots)).Msg("slot cache refreshed")

	return fetchResult{snapshot: s.view(), gen: gen}, nil
}

// view copies the current snapshot; s.mu must be held.
func (s *SlotService) view() Snapshot {
	snap := s.current
	snap.Slots = slices.Clone(s.current.Slots)
	snap.Stale = s.invalidatedAll > s.appliedGen || len(s.invalidated) > 0
	return snap
}

// begin marks a slot as having an outstanding mutation.
func (s *SlotService) begin(slotID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.pending[slotID]; busy {
		return nil, fmt.Errorf("%w: slot %s", domain.ErrRequestInFlight, slotID)
	}
	s.pending[slotID] = struct{}{}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.pending, slotID)
	}, nil
}

func (s *SlotService) checkSlotID(slotID string) error {
	if slotID == "" {
		return domain.NewValidationError(map[string]string{"SlotID": "slot id is required"})
	}
	return nil
}

func (s *SlotService) record(op string, err error) {
	metrics.MutationsTotal.WithLabelValues(op, domain.ErrorKind(err)).Inc()
}
