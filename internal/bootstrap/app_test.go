package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ArnavJain-cy/sih-app/internal/config"
)

func TestNew_MemoryStoreWithSeed(t *testing.T) {
	cfg := config.Default()
	cfg.Env = "test"
	cfg.Auth.BcryptCost = 4
	cfg.Seed = config.SeedConfig{Email: "demo@evolvia.com", Password: "demo-pass"}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	app, err := New(ctx, cfg, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Close(ctx)

	u, err := app.Store.FindByEmail(ctx, "demo@evolvia.com")
	if err != nil {
		t.Fatalf("seed user missing: %v", err)
	}
	if u.Username != "demo" {
		t.Fatalf("seed username = %q, want derived from email", u.Username)
	}

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz = %d body=%s", w.Code, w.Body.String())
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.StoreDriver = "sqlite"

	_, closeFn, err := OpenStore(context.Background(), cfg, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if closeFn == nil {
		t.Fatal("close func must never be nil")
	}
}
