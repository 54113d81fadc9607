package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"bigboss/internal/cart"
	"bigboss/internal/config"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantDebug bool
		wantJSON  bool
	}{
		{"debug text", "debug", "text", true, false},
		{"info json", "info", "json", false, true},
		{"unknown level falls back to info", "verbose", "text", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := setupLogger(&buf, tt.level, tt.format, "test")

			logger.Debug("debug line")
			logger.Info("info line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug line logged = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "info line") {
				t.Errorf("info line missing:\n%s", out)
			}
			if got := strings.HasPrefix(out, "{"); got != tt.wantJSON {
				t.Errorf("json output = %v, want %v\n%s", got, tt.wantJSON, out)
			}
			if !strings.Contains(out, "test") {
				t.Errorf("component missing:\n%s", out)
			}
		})
	}
}

func TestOpenRepository(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLiteDBPath: filepath.Join(t.TempDir(), "cli.db")}
	repo, err := OpenRepository(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenRepository: %v", err)
	}
	defer repo.Close()
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}

	if _, err := OpenRepository(context.Background(), &config.Config{DBDriver: "oracle"}); err == nil {
		t.Error("unknown driver accepted")
	}
}

func TestOpenCartStore(t *testing.T) {
	ctx := context.Background()

	store, closeFn, err := OpenCartStore(ctx, &config.Config{CartBackend: "memory"})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := store.(*cart.MemoryStore); !ok {
		t.Errorf("memory backend = %T", store)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close: %v", err)
	}

	store, _, err = OpenCartStore(ctx, &config.Config{CartBackend: "file", CartDir: t.TempDir()})
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if _, ok := store.(*cart.FileStore); !ok {
		t.Errorf("file backend = %T", store)
	}

	if _, _, err := OpenCartStore(ctx, &config.Config{CartBackend: "tape"}); err == nil {
		t.Error("unknown backend accepted")
	}
}
