package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parkspace/parking-client/internal/api/backend"
	"github.com/parkspace/parking-client/internal/core/domain"
	"github.com/parkspace/parking-client/internal/pkg/wire"
)

// SlotService is the slot surface the slot handler needs.
type SlotService interface {
	List(ctx context.Context) ([]backend.Slot, error)
	Create(ctx context.Context, p backend.Principal, in domain.NewSlot) (backend.Slot, error)
	Delete(ctx context.Context, p backend.Principal, id string) error
	Book(ctx context.Context, p backend.Principal, id string, b domain.Booking) (backend.Slot, error)
	Cancel(ctx context.Context, p backend.Principal, id string) (backend.Slot, error)
}

type SlotHandler struct {
	svc SlotService
}

func NewSlotHandler(svc SlotService) *SlotHandler {
	return &SlotHandler{svc: svc}
}

// List returns every slot. GET /slots
func (h *SlotHandler) List(c echo.Context) error {
	slots, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]wire.Slot, 0, len(slots))
	for _, s := range slots {
		out = append(out, toWireSlot(s))
	}
	return c.JSON(http.StatusOK, out)
}

// Create adds a slot. POST /slots (admin)
func (h *SlotHandler) Create(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req wire.CreateSlotRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	slot, err := h.svc.Create(c.Request().Context(), p, domain.NewSlot{
		Number: req.SlotNumber,
		Type:   domain.SlotType(req.SlotType),
		Floor:  domain.Floor(req.Floor),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toWireSlot(slot))
}

// Delete removes a slot. DELETE /slots/:id (admin)
func (h *SlotHandler) Delete(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), p, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wire.MessageResponse{Message: "slot deleted"})
}

// Book reserves a slot for the caller. POST /book/:id
func (h *SlotHandler) Book(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req wire.BookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	slot, err := h.svc.Book(c.Request().Context(), p, c.Param("id"), toBooking(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWireSlot(slot))
}

// Cancel releases a booking. POST /cancel/:id
func (h *SlotHandler) Cancel(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	slot, err := h.svc.Cancel(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWireSlot(slot))
}
