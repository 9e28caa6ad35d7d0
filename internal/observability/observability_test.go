package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"pg unique", &pgconn.PgError{Code: "23505"}, "unique_violation"},
		{"pg other", &pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{"wrapped deadline", fmt.Errorf("find: %w", context.DeadlineExceeded), "timeout"},
		{"connection text", errors.New("connection refused"), "connection"},
		{"unknown", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyDBErr(tt.err); got != tt.want {
				t.Fatalf("classifyDBErr(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestObserveDB_CountsErrorsNotMisses(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users.find_by_id", func() error { return mongo.ErrNoDocuments })
	_ = p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })
	_ = p.ObserveDB("users.create", func() error { return nil })

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")); got != 1 {
		t.Fatalf("unique_violation count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(p.DbErrorsTotal); got != 1 {
		t.Fatalf("error series = %d, want 1 (misses must not count)", got)
	}
}

func TestPromHandler_ExposesMetrics(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())
	p.ObserveAuth("login", "ok")

	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "evolvia_auth_outcomes_total") {
		t.Fatalf("metrics output missing auth counter: %s", w.Body.String())
	}
}

func TestLogger_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer

	log := newLogger(&buf, "prod")
	log.Debug("hidden")
	log.Info("shown", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line at info level, got %d: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["msg"] != "shown" || rec["k"] != "v" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if _, ok := rec["trace_id"]; ok {
		t.Fatalf("trace_id should be absent without an active span")
	}
}

func TestInstallLogger_SetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	log := installLogger(&buf, "prod")

	slog.Info("via default", "k", "v")
	if !strings.Contains(buf.String(), `"msg":"via default"`) {
		t.Fatalf("default logger not installed, got %q", buf.String())
	}
	if slog.Default().Handler() != log.Handler() {
		t.Fatal("slog.Default should share the installed handler")
	}
}
