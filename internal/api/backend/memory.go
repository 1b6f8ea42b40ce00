package backend

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/parkspace/parking-client/internal/core/domain"
)

// MemoryUsers is a UserRepository held in process memory.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]User)}
}

func (r *MemoryUsers) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; exists {
		return ErrUserExists
	}
	user.ID = primitive.NewObjectID().Hex()
	r.users[user.Username] = *user
	return nil
}

func (r *MemoryUsers) FindByUsername(_ context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// MemorySlots is a SlotRepository held in process memory. Listing is ordered
// by floor from the ground up, then by slot number.
type MemorySlots struct {
	mu    sync.RWMutex
	slots map[string]Slot
}

func NewMemorySlots() *MemorySlots {
	return &MemorySlots{slots: make(map[string]Slot)}
}

func (r *MemorySlots) List(_ context.Context) ([]Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Slot, 0, len(r.slots))
	for _, s := range r.slots {
		out = append(out, cloneSlot(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if fi, fj := floorRank(out[i].Floor), floorRank(out[j].Floor); fi != fj {
			return fi < fj
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

func (r *MemorySlots) Get(_ context.Context, id string) (Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[id]
	if !ok {
		return Slot{}, ErrSlotNotFound
	}
	return cloneSlot(s), nil
}

func (r *MemorySlots) Create(_ context.Context, slot *Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		if s.Number == slot.Number {
			return ErrSlotExists
		}
	}
	slot.ID = primitive.NewObjectID().Hex()
	r.slots[slot.ID] = cloneSlot(*slot)
	return nil
}

func (r *MemorySlots) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[id]; !ok {
		return ErrSlotNotFound
	}
	delete(r.slots, id)
	return nil
}

func (r *MemorySlots) Book(_ context.Context, id string, b domain.Booking, bookerID string) (Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return Slot{}, ErrSlotNotFound
	}
	if s.IsBooked {
		return Slot{}, ErrSlotBooked
	}
	s.IsBooked = true
	s.Booking = &b
	s.BookerID = bookerID
	s.UpdatedAt = time.Now().UTC()
	r.slots[id] = s
	return cloneSlot(s), nil
}

func (r *MemorySlots) Release(_ context.Context, id string) (Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return Slot{}, ErrSlotNotFound
	}
	if !s.IsBooked {
		return Slot{}, ErrSlotNotBooked
	}
	s.IsBooked = false
	s.Booking = nil
	s.BookerID = ""
	s.UpdatedAt = time.Now().UTC()
	r.slots[id] = s
	return cloneSlot(s), nil
}

func floorRank(f domain.Floor) int {
	for i, known := range domain.Floors {
		if f == known {
			return i
		}
	}
	return len(domain.Floors)
}

func cloneSlot(s Slot) Slot {
	if s.Booking != nil {
		b := *s.Booking
		s.Booking = &b
	}
	return s
}

var (
	_ UserRepository = (*MemoryUsers)(nil)
	_ SlotRepository = (*MemorySlots)(nil)
)
