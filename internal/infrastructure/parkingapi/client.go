// Package parkingapi is the HTTP client for the parking reservation API. It
// implements ports.AuthAPI and ports.SlotAPI.
package parkingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/parkspace/parking-client/internal/core/domain"
	"github.com/parkspace/parking-client/internal/core/ports"
	"github.com/parkspace/parking-client/internal/pkg/metrics"
	"github.com/parkspace/parking-client/internal/pkg/wire"
)

const (
	DefaultBaseURL = "http://localhost:5000/api"
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 4 << 20
)

// Config configures the API client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Transport is the underlying round tripper; http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// Client issues authenticated requests to the parking API.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New builds a Client whose requests carry the token currently held by tokens.
func New(cfg Config, tokens TokenSource, log zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, fmt.Errorf("parking api url %q: scheme must be http or https", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	rt := metrics.InstrumentTransport(&requestIDTransport{
		next: &bearerTransport{tokens: tokens, next: base},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Transport: rt, Timeout: cfg.Timeout},
		log:     log.With().Str("component", "parkingapi").Logger(),
	}, nil
}

// Login exchanges credentials for a token and, on some deployments, a role.
func (c *Client) Login(ctx context.Context, username, password string) (ports.LoginResult, error) {
	var resp wire.LoginResponse
	err := c.do(ctx, "login", http.MethodPost, wire.PathLogin,
		wire.Credentials{Username: username, Password: password}, &resp, loginKind)
	if err != nil {
		return ports.LoginResult{}, err
	}
	if resp.Token == "" {
		return ports.LoginResult{}, &domain.APIError{
			Op: "login", Status: http.StatusOK, Message: "response carried no token", Kind: domain.ErrAuth,
		}
	}
	return ports.LoginResult{Token: resp.Token, Role: resp.Role}, nil
}

// Register creates an account. The response body is ignored.
func (c *Client) Register(ctx context.Context, username, password string, role domain.Role) error {
	return c.do(ctx, "register", http.MethodPost, wire.PathRegister,
		wire.RegisterRequest{Username: username, Password: password, Role: string(role)}, nil, registerKind)
}

// ListSlots fetches the full slot collection.
func (c *Client) ListSlots(ctx context.Context) ([]domain.Slot, error) {
	var resp []wire.Slot
	if err := c.do(ctx, "list slots", http.MethodGet, wire.PathSlots, nil, &resp, listKind); err != nil {
		return nil, err
	}
	slots := make([]domain.Slot, 0, len(resp))
	for _, s := range resp {
		slots = append(slots, toDomainSlot(s))
	}
	return slots, nil
}

// CreateSlot adds a slot. Admin only.
func (c *Client) CreateSlot(ctx context.Context, in domain.NewSlot) (domain.Slot, error) {
	var resp wire.Slot
	req := wire.CreateSlotRequest{SlotNumber: in.Number, SlotType: string(in.Type), Floor: string(in.Floor)}
	if err := c.do(ctx, "create slot", http.MethodPost, wire.PathSlots, req, &resp, createKind); err != nil {
		return domain.Slot{}, err
	}
	return toDomainSlot(resp), nil
}

// DeleteSlot removes a slot. Admin only.
func (c *Client) DeleteSlot(ctx context.Context, id string) error {
	return c.do(ctx, "delete slot", http.MethodDelete, wire.SlotPath(id), nil, nil, deleteKind)
}

// BookSlot reserves a slot for the current account.
func (c *Client) BookSlot(ctx context.Context, id string, b domain.Booking) (domain.Slot, error) {
	var resp wire.Slot
	if err := c.do(ctx, "book slot", http.MethodPost, wire.BookPath(id), toBookRequest(b), &resp, bookKind); err != nil {
		return domain.Slot{}, err
	}
	return toDomainSlot(resp), nil
}

// CancelBooking releases a booked slot.
func (c *Client) CancelBooking(ctx context.Context, id string) (domain.Slot, error) {
	var resp wire.Slot
	if err := c.do(ctx, "cancel booking", http.MethodPost, wire.CancelPath(id), nil, &resp, cancelKind); err != nil {
		return domain.Slot{}, err
	}
	return toDomainSlot(resp), nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any, kind classifier) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("op", op).Msg("request failed")
		return fmt.Errorf("%s: %w: %w", op, domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w: %w", op, domain.ErrNetwork, err)
	}

	c.log.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.APIError{
			Op:      op,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, payload),
			Kind:    kind(resp.StatusCode),
		}
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &domain.APIError{
			Op: op, Status: resp.StatusCode, Message: "malformed response: " + err.Error(), Kind: domain.ErrServer,
		}
	}
	return nil
}

var (
	_ ports.AuthAPI = (*Client)(nil)
	_ ports.SlotAPI = (*Client)(nil)
)
