package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/parkspace/parking-client/internal/core/domain"
	"github.com/parkspace/parking-client/internal/core/service"
)

const timeLayout = "2006-01-02 15:04"

func printSlots(w io.Writer, snap service.Snapshot, keep func(domain.Slot) bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NO\tFLOOR\tTYPE\tSTATUS\tVEHICLE\tNAME\tBOOKED BY\tFROM\tTO\tPAYMENT\tAMOUNT\tID")
	for _, s := range snap.Slots {
		if keep != nil && !keep(s) {
			continue
		}
		row := []string{strconv.Itoa(s.Number), string(s.Floor), string(s.Type), string(s.Status())}
		if b := s.Booking; b != nil {
			row = append(row,
				dash(vehicle(b)),
				dash(b.BookerName),
				dash(b.BookedBy),
				formatTime(b.StartTime),
				formatTime(b.EndTime),
				string(b.PaymentStatus),
				strconv.FormatFloat(b.Amount, 'f', 2, 64),
			)
		} else {
			row = append(row, "-", "-", "-", "-", "-", "-", "-")
		}
		row = append(row, s.ID)
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
	printSummary(w, snap)
}

func printSummary(w io.Writer, snap service.Snapshot) {
	sum := snap.Summary()
	fmt.Fprintf(w, "%d slots, %d available, %d booked", sum.Total, sum.Available, sum.Booked)
	var floors []string
	for _, f := range domain.Floors {
		if c, ok := sum.ByFloor[f]; ok {
			floors = append(floors, fmt.Sprintf("%s %d/%d", f, c.Available, c.Total))
		}
	}
	if len(floors) > 0 {
		fmt.Fprintf(w, " (floor %s)", strings.Join(floors, ", "))
	}
	if !snap.FetchedAt.IsZero() {
		fmt.Fprintf(w, " as of %s", snap.FetchedAt.Local().Format(time.TimeOnly))
	}
	fmt.Fprintln(w)
}

// holder names who a booked slot belongs to.
func holder(s domain.Slot) string {
	b := s.Booking
	switch {
	case b.BookedBy != "" && b.BookerName != "" && b.BookedBy != b.BookerName:
		return fmt.Sprintf("%s (%s)", b.BookerName, b.BookedBy)
	case b.BookerName != "":
		return b.BookerName
	case b.BookedBy != "":
		return b.BookedBy
	default:
		return "another user"
	}
}

func vehicle(b *domain.Booking) string {
	if b.VehicleType == "" {
		return b.VehicleNumber
	}
	return b.VehicleNumber + " (" + b.VehicleType + ")"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
