package sessionstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/parkspace/parking-client/internal/core/ports"
)

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFile(path)
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, ports.ErrNoStoredSession) {
		t.Fatalf("expected ErrNoStoredSession, got %v", err)
	}

	want := ports.StoredSession{Token: "t1", Role: "admin", Username: "ann"}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Fatalf("expected mode 0600, got %o", perm)
		}
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ports.ErrNoStoredSession) {
		t.Fatalf("expected ErrNoStoredSession after Clear, got %v", err)
	}
}

func TestFileCorrupt(t *testing.T) {
	cases := map[string]string{
		"not json":      "{token",
		"role no token": `{"role":"admin"}`,
		"wrong type":    `{"token":42}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := NewFile(path).Load(context.Background()); !errors.Is(err, ports.ErrCorruptSession) {
				t.Fatalf("expected ErrCorruptSession, got %v", err)
			}
		})
	}
}

func TestFileSaveRejectsEmptyToken(t *testing.T) {
	store := NewFile(filepath.Join(t.TempDir(), "session.json"))
	if err := store.Save(context.Background(), ports.StoredSession{Role: "admin"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestMemory(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, ports.ErrNoStoredSession) {
		t.Fatalf("expected ErrNoStoredSession, got %v", err)
	}
	_ = store.Save(ctx, ports.StoredSession{Token: "t1"})
	got, err := store.Load(ctx)
	if err != nil || got.Token != "t1" {
		t.Fatalf("unexpected load %+v, %v", got, err)
	}
	_ = store.Clear(ctx)
	if _, err := store.Load(ctx); !errors.Is(err, ports.ErrNoStoredSession) {
		t.Fatalf("expected ErrNoStoredSession, got %v", err)
	}
}
