package service

import (
	"time"

	"github.com/parkspace/parking-client/internal/core/domain"
)

// Snapshot is a read-only view of the slot collection as of one fetch.
type Snapshot struct {
	Slots     []domain.Slot
	Seq       uint64
	FetchedAt time.Time
	// Stale is set while a mutation has invalidated the view and the refresh
	// that reflects it has not been applied yet.
	Stale bool
}

// Find returns the slot with the given id.
func (s Snapshot) Find(id string) (domain.Slot, bool) {
	for _, slot := range s.Slots {
		if slot.ID == id {
			return slot, true
		}
	}
	return domain.Slot{}, false
}

// Available returns the slots that can be booked.
func (s Snapshot) Available() []domain.Slot {
	return s.filter(func(slot domain.Slot) bool { return !slot.IsBooked })
}

// Booked returns the slots that carry a booking.
func (s Snapshot) Booked() []domain.Slot {
	return s.filter(func(slot domain.Slot) bool { return slot.IsBooked })
}

func (s Snapshot) filter(keep func(domain.Slot) bool) []domain.Slot {
	out := make([]domain.Slot, 0, len(s.Slots))
	for _, slot := range s.Slots {
		if keep(slot) {
			out = append(out, slot)
		}
	}
	return out
}

// Counts is a total/available pair.
type Counts struct {
	Total     int
	Available int
}

// Availability summarizes a snapshot.
type Availability struct {
	Total     int
	Available int
	Booked    int
	ByFloor   map[domain.Floor]Counts
	ByType    map[domain.SlotType]Counts
}

// Summary derives the availability counters shown next to the slot list.
func (s Snapshot) Summary() Availability {
	a := Availability{
		ByFloor: make(map[domain.Floor]Counts),
		ByType:  make(map[domain.SlotType]Counts),
	}
	for _, slot := range s.Slots {
		a.Total++
		floor := a.ByFloor[slot.Floor]
		kind := a.ByType[slot.Type]
		floor.Total++
		kind.Total++
		if slot.IsBooked {
			a.Booked++
		} else {
			a.Available++
			floor.Available++
			kind.Available++
		}
		a.ByFloor[slot.Floor] = floor
		a.ByType[slot.Type] = kind
	}
	return a
}
