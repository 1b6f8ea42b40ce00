package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/parkspace/parking-client/internal/api/backend"
	"github.com/parkspace/parking-client/internal/pkg/wire"
)

type testAPI struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	e := NewRouter(Deps{
		Auth:  backend.NewAuthService(backend.NewMemoryUsers(), "secret", time.Hour),
		Slots: backend.NewSlotService(backend.NewMemorySlots()),
		Log:   zerolog.Nop(),
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &testAPI{t: t, srv: srv}
}

func (a *testAPI) do(method, path, token, body string, out any) int {
	a.t.Helper()
	req, err := http.NewRequest(method, a.srv.URL+path, strings.NewReader(body))
	if err != nil {
		a.t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		a.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			a.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (a *testAPI) login(username, role string) string {
	a.t.Helper()
	body := `{"username":"` + username + `","password":"pw","role":"` + role + `"}`
	if code := a.do(http.MethodPost, "/api/register", "", body, nil); code != http.StatusCreated {
		a.t.Fatalf("register %s: status %d", username, code)
	}
	var resp wire.LoginResponse
	if code := a.do(http.MethodPost, "/api/login", "", `{"username":"`+username+`","password":"pw"}`, &resp); code != http.StatusOK {
		a.t.Fatalf("login %s: status %d", username, code)
	}
	if resp.Role != role {
		a.t.Fatalf("expected role %q, got %q", role, resp.Role)
	}
	return resp.Token
}

func TestRouter_SlotLifecycle(t *testing.T) {
	api := newTestAPI(t)
	adminTok := api.login("root", "admin")
	userTok := api.login("ann", "user")

	var created wire.Slot
	code := api.do(http.MethodPost, "/api/slots", adminTok, `{"slotNumber":7,"slotType":"ev","floor":"1"}`, &created)
	if code != http.StatusCreated || created.ID == "" || created.SlotNumber != 7 {
		t.Fatalf("create: status %d, slot %+v", code, created)
	}

	var errResp wire.ErrorResponse
	if code := api.do(http.MethodPost, "/api/slots", adminTok, `{"slotNumber":7,"slotType":"ev","floor":"1"}`, &errResp); code != http.StatusBadRequest || errResp.Error == "" {
		t.Fatalf("duplicate create: status %d, %+v", code, errResp)
	}
	if code := api.do(http.MethodPost, "/api/slots", userTok, `{"slotNumber":8,"slotType":"ev","floor":"1"}`, nil); code != http.StatusForbidden {
		t.Fatalf("user create: expected 403, got %d", code)
	}

	var booked wire.Slot
	code = api.do(http.MethodPost, "/api/book/"+created.ID, userTok, `{"vehicleNumber":"KA01","userName":"Ann","amount":30}`, &booked)
	if code != http.StatusOK || !booked.IsBooked || booked.BookedBy == nil || booked.BookedBy.Username != "ann" {
		t.Fatalf("book: status %d, slot %+v", code, booked)
	}
	if booked.PaymentStatus != "pending" {
		t.Fatalf("expected pending payment, got %q", booked.PaymentStatus)
	}

	if code := api.do(http.MethodPost, "/api/book/"+created.ID, adminTok, `{"vehicleNumber":"KA02","userName":"Root"}`, nil); code != http.StatusConflict {
		t.Fatalf("double book: expected 409, got %d", code)
	}

	var slots []wire.Slot
	if code := api.do(http.MethodGet, "/api/slots", userTok, "", &slots); code != http.StatusOK || len(slots) != 1 {
		t.Fatalf("list: status %d, %d slots", code, len(slots))
	}
	if slots[0].UserName != "Ann" || slots[0].VehicleNumber != "KA01" {
		t.Fatalf("unexpected listed booking %+v", slots[0])
	}

	var released wire.Slot
	if code := api.do(http.MethodPost, "/api/cancel/"+created.ID, userTok, "", &released); code != http.StatusOK || released.IsBooked {
		t.Fatalf("cancel: status %d, slot %+v", code, released)
	}
	if code := api.do(http.MethodPost, "/api/cancel/"+created.ID, userTok, "", nil); code != http.StatusBadRequest {
		t.Fatalf("cancel unbooked: expected 400, got %d", code)
	}

	if code := api.do(http.MethodDelete, "/api/slots/"+created.ID, adminTok, "", nil); code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", code)
	}
	if code := api.do(http.MethodDelete, "/api/slots/"+created.ID, adminTok, "", nil); code != http.StatusNotFound {
		t.Fatalf("delete missing: expected 404, got %d", code)
	}
}

func TestRouter_AuthErrors(t *testing.T) {
	api := newTestAPI(t)
	_ = api.login("ann", "user")

	var errResp wire.ErrorResponse
	if code := api.do(http.MethodPost, "/api/login", "", `{"username":"ann","password":"wrong"}`, &errResp); code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", code)
	}
	if errResp.Error != "invalid credentials" {
		t.Fatalf("unexpected error message %q", errResp.Error)
	}
	if code := api.do(http.MethodPost, "/api/register", "", `{"username":"ann","password":"pw"}`, nil); code != http.StatusBadRequest {
		t.Fatalf("duplicate register: expected 400, got %d", code)
	}
	if code := api.do(http.MethodGet, "/api/slots", "", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", code)
	}
	if code := api.do(http.MethodGet, "/api/slots", "garbage", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", code)
	}
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t)

	var body map[string]any
	if code := api.do(http.MethodGet, "/health", "", "", &body); code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("liveness: status %d, %v", code, body)
	}
	if code := api.do(http.MethodGet, "/health/ready", "", "", &body); code != http.StatusOK {
		t.Fatalf("readiness: status %d", code)
	}
	if code := api.do(http.MethodGet, "/metrics", "", "", nil); code != http.StatusOK {
		t.Fatalf("metrics: status %d", code)
	}
}
