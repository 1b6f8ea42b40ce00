package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/parkspace/parking-client/internal/core/domain"
	"github.com/parkspace/parking-client/internal/core/service"
)

var errUsage = errors.New("usage")

var errNotLoggedIn = errors.New("not logged in; run parkctl login")

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":       {"log in and store the session", cmdLogin},
	"register":    {"create an account", cmdRegister},
	"logout":      {"drop the stored session", cmdLogout},
	"whoami":      {"show the active session", cmdWhoami},
	"slots":       {"list parking slots", cmdSlots},
	"watch":       {"refresh the slot list periodically", cmdWatch},
	"create-slot": {"create a slot (admin)", cmdCreateSlot},
	"book":        {"book a slot", cmdBook},
	"cancel":      {"cancel the booking on a slot", cmdCancel},
	"delete-slot": {"delete a slot (admin)", cmdDeleteSlot},
}

var commandOrder = []string{
	"login", "register", "logout", "whoami",
	"slots", "watch", "create-slot", "book", "cancel", "delete-slot",
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: parkctl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-12s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "run 'parkctl <command> -h' for command flags")
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("parkctl "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parse maps -h and flag errors to errUsage; the flag package has already
// printed the details.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return errUsage
	}
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := a.flags("login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (read from stdin when empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *password == "" {
		p, err := readLine(a.stdin)
		if err != nil {
			return err
		}
		*password = p
	}

	session, snap, err := a.flow.Login(ctx, *username, *password)
	if session.IsLoggedIn() {
		fmt.Fprintf(a.stdout, "logged in as %s (%s)\n", displayName(session), session.Role())
	}
	if err != nil && !session.IsLoggedIn() {
		return err
	}
	return a.report(snap, err)
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := a.flags("register")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (read from stdin when empty)")
	roleFlag := fs.String("role", string(domain.RoleUser), "account role: user or admin")
	if err := parse(fs, args); err != nil {
		return err
	}
	role, err := domain.ParseRole(*roleFlag)
	if err != nil {
		return err
	}
	if *password == "" {
		p, err := readLine(a.stdin)
		if err != nil {
			return err
		}
		*password = p
	}

	if err := a.flow.Register(ctx, *username, *password, role); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "registered %s as %s; run parkctl login to continue\n", *username, role)
	return nil
}

func cmdLogout(ctx context.Context, a *app, args []string) error {
	if err := parse(a.flags("logout"), args); err != nil {
		return err
	}
	if err := a.flow.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "logged out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, args []string) error {
	if err := parse(a.flags("whoami"), args); err != nil {
		return err
	}
	session, err := a.flow.Sessions.Restore(ctx)
	if err != nil {
		return err
	}
	if !session.IsLoggedIn() {
		fmt.Fprintln(a.stdout, "not logged in")
		return nil
	}
	fmt.Fprintf(a.stdout, "%s (%s)\n", displayName(session), session.Role())
	if claims, err := service.DecodeTokenClaims(session.Token()); err == nil && !claims.ExpiresAt.IsZero() {
		fmt.Fprintf(a.stdout, "token expires %s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

func cmdSlots(ctx context.Context, a *app, args []string) error {
	fs := a.flags("slots")
	filter := bindFilter(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	keep, err := filter.build()
	if err != nil {
		return err
	}

	snap, err := start(ctx, a)
	if err != nil {
		return err
	}
	printSlots(a.stdout, snap, keep)
	return nil
}

func cmdWatch(ctx context.Context, a *app, args []string) error {
	fs := a.flags("watch")
	interval := fs.Duration("interval", 5*time.Second, "refresh interval")
	filter := bindFilter(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if *interval <= 0 {
		return errors.New("-interval must be positive")
	}
	keep, err := filter.build()
	if err != nil {
		return err
	}

	snap, err := start(ctx, a)
	if err != nil {
		return err
	}
	printSlots(a.stdout, snap, keep)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap, err := a.flow.Slots.Refresh(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if errors.Is(err, domain.ErrAuth) {
					return err
				}
				a.log.Warn().Err(err).Msg("refresh failed; keeping last view")
				continue
			}
			fmt.Fprintln(a.stdout)
			printSlots(a.stdout, snap, keep)
		}
	}
}

func cmdCreateSlot(ctx context.Context, a *app, args []string) error {
	fs := a.flags("create-slot")
	number := fs.Int("number", 0, "slot number")
	typeFlag := fs.String("type", string(domain.SlotTypeNormal), "slot type: normal, ev, vip or handicap")
	floorFlag := fs.String("floor", string(domain.FloorGround), "floor: G, 1 or 2")
	if err := parse(fs, args); err != nil {
		return err
	}
	slotType, err := domain.ParseSlotType(*typeFlag)
	if err != nil {
		return err
	}
	floor, err := domain.ParseFloor(*floorFlag)
	if err != nil {
		return err
	}

	if _, err := start(ctx, a); err != nil {
		return err
	}
	snap, err := a.flow.Slots.CreateSlot(ctx, domain.NewSlot{Number: *number, Type: slotType, Floor: floor})
	if err != nil && !errors.Is(err, domain.ErrStaleView) {
		return err
	}
	fmt.Fprintf(a.stdout, "created slot %d\n", *number)
	return a.report(snap, err)
}

func cmdBook(ctx context.Context, a *app, args []string) error {
	fs := a.flags("book")
	ref := fs.String("slot", "", "slot id or number")
	draft := domain.BookingDraft{PaymentStatus: domain.PaymentPending}
	fs.StringVar(&draft.VehicleNumber, "vehicle", "", "vehicle number")
	fs.StringVar(&draft.VehicleType, "vehicle-type", "", "vehicle type")
	fs.StringVar(&draft.BookerName, "name", "", "name of the person booking")
	fs.StringVar(&draft.Phone, "phone", "", "contact phone")
	startFlag := fs.String("start", "", "start time, RFC 3339")
	endFlag := fs.String("end", "", "end time, RFC 3339")
	payment := fs.String("payment", string(domain.PaymentPending), "payment status: pending or paid")
	fs.Float64Var(&draft.Amount, "amount", 0, "amount charged")
	if err := parse(fs, args); err != nil {
		return err
	}

	var err error
	if draft.StartTime, err = parseTime("start", *startFlag); err != nil {
		return err
	}
	if draft.EndTime, err = parseTime("end", *endFlag); err != nil {
		return err
	}
	if draft.PaymentStatus, err = domain.ParsePaymentStatus(*payment); err != nil {
		return err
	}

	snap, err := start(ctx, a)
	if err != nil {
		return err
	}
	slotID, err := resolveSlot(snap, *ref)
	if err != nil {
		return err
	}
	snap, err = a.flow.Slots.Book(ctx, slotID, &draft)
	if err != nil && !errors.Is(err, domain.ErrStaleView) {
		if errors.Is(err, domain.ErrBookingConflict) {
			if slot, ok := snap.Find(slotID); ok && slot.Booking != nil {
				fmt.Fprintf(a.stdout, "slot %d is held by %s\n", slot.Number, holder(slot))
			}
		}
		return err
	}
	fmt.Fprintf(a.stdout, "booked slot %s\n", *ref)
	return a.report(snap, err)
}

func cmdCancel(ctx context.Context, a *app, args []string) error {
	fs := a.flags("cancel")
	ref := fs.String("slot", "", "slot id or number")
	if err := parse(fs, args); err != nil {
		return err
	}

	snap, err := start(ctx, a)
	if err != nil {
		return err
	}
	slotID, err := resolveSlot(snap, *ref)
	if err != nil {
		return err
	}
	snap, err = a.flow.Slots.Cancel(ctx, slotID)
	if err != nil && !errors.Is(err, domain.ErrStaleView) {
		return err
	}
	fmt.Fprintf(a.stdout, "cancelled booking on slot %s\n", *ref)
	return a.report(snap, err)
}

func cmdDeleteSlot(ctx context.Context, a *app, args []string) error {
	fs := a.flags("delete-slot")
	ref := fs.String("slot", "", "slot id or number")
	force := fs.Bool("force", false, "delete even when the slot is booked")
	if err := parse(fs, args); err != nil {
		return err
	}

	snap, err := start(ctx, a)
	if err != nil {
		return err
	}
	slotID, err := resolveSlot(snap, *ref)
	if err != nil {
		return err
	}
	snap, err = a.flow.Slots.DeleteSlot(ctx, slotID, *force)
	if err != nil && !errors.Is(err, domain.ErrStaleView) {
		if errors.Is(err, domain.ErrConfirmationRequired) {
			fmt.Fprintln(a.stdout, "slot is booked; pass -force to delete it anyway")
		}
		return err
	}
	fmt.Fprintf(a.stdout, "deleted slot %s\n", *ref)
	return a.report(snap, err)
}

// report prints the view after a completed operation. When only the refresh
// after it failed, a warning replaces the summary and the command succeeds.
func (a *app) report(snap service.Snapshot, err error) error {
	if errors.Is(err, domain.ErrStaleView) {
		fmt.Fprintln(a.stderr, "warning:", describe(err))
		fmt.Fprintln(a.stderr, "warning: slot list not refreshed; run parkctl slots to update it")
		return nil
	}
	if err != nil {
		return err
	}
	printSummary(a.stdout, snap)
	return nil
}

// start restores the stored session and loads the slots.
func start(ctx context.Context, a *app) (service.Snapshot, error) {
	session, snap, err := a.flow.Start(ctx)
	if err != nil {
		return snap, err
	}
	if !session.IsLoggedIn() {
		return snap, errNotLoggedIn
	}
	return snap, nil
}

// resolveSlot accepts either a slot id or a slot number present in snap.
func resolveSlot(snap service.Snapshot, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("-slot is required")
	}
	if _, ok := snap.Find(ref); ok {
		return ref, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		for _, slot := range snap.Slots {
			if slot.Number == n {
				return slot.ID, nil
			}
		}
	}
	// Unknown ids are passed through; the server has the final word.
	return ref, nil
}

type slotFilter struct {
	available bool
	floor     string
	slotType  string
}

func bindFilter(fs *flag.FlagSet) *slotFilter {
	f := &slotFilter{}
	fs.BoolVar(&f.available, "available", false, "only show available slots")
	fs.StringVar(&f.floor, "floor", "", "only show slots on this floor")
	fs.StringVar(&f.slotType, "type", "", "only show slots of this type")
	return f
}

func (f *slotFilter) build() (func(domain.Slot) bool, error) {
	var floor domain.Floor
	var slotType domain.SlotType
	var err error
	if f.floor != "" {
		if floor, err = domain.ParseFloor(f.floor); err != nil {
			return nil, err
		}
	}
	if f.slotType != "" {
		if slotType, err = domain.ParseSlotType(f.slotType); err != nil {
			return nil, err
		}
	}
	return func(s domain.Slot) bool {
		if f.available && s.IsBooked {
			return false
		}
		if floor != "" && s.Floor != floor {
			return false
		}
		return slotType == "" || s.Type == slotType
	}, nil
}

func parseTime(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("-%s: want RFC 3339 time: %w", name, err)
	}
	return t, nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func displayName(s domain.Session) string {
	if name := s.Username(); name != "" {
		return name
	}
	return "current user"
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, domain.ErrNetwork):
		return "could not reach the parking API: " + err.Error()
	default:
		return err.Error()
	}
}
