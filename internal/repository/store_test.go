package repository

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Shivanand-hulikatti/group-planner/internal/database"
	"github.com/google/uuid"
)

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	key := EventKey("contract-" + uuid.NewString())

	if _, ok, err := s.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, key, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	assertJSON(t, got, `{"v":1}`)

	if err := s.Set(ctx, key, []byte(`{"v":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _, _ = s.Get(ctx, key)
	assertJSON(t, got, `{"v":2}`)

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := s.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected deleted key, got ok=%v err=%v", ok, err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("delete missing key: %v", err)
	}
}

// assertJSON compares ignoring whitespace, since postgres JSONB normalizes
// formatting.
func assertJSON(t *testing.T, got []byte, want string) {
	t.Helper()
	compact := make([]byte, 0, len(got))
	for _, b := range got {
		if b != ' ' && b != '\n' && b != '\t' {
			compact = append(compact, b)
		}
	}
	if string(compact) != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestKeys(t *testing.T) {
	if EventKey("x") != "event:x" || AuthKey("x") != "auth:x" {
		t.Fatalf("unexpected keys %q %q", EventKey("x"), AuthKey("x"))
	}
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	v := []byte(`{"a":1}`)
	_ = s.Set(ctx, "k", v)
	v[2] = 'b'
	got, _, _ := s.Get(ctx, "k")
	if string(got) != `{"a":1}` {
		t.Fatalf("stored value aliased caller slice: %s", got)
	}
}

func TestMemoryStoreHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewMemoryStore().Get(ctx, "k"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "planner.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	runStoreContract(t, s)
}

func TestSQLiteStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "planner.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, "event:e1", []byte(`{}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, ok, err := s.Get(ctx, "event:e1"); err != nil || !ok {
		t.Fatalf("expected value after reopen, ok=%v err=%v", ok, err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := OpenSQLite(" "); err == nil {
		t.Fatal("expected sqlite path error")
	}
	if _, err := OpenBolt(""); err == nil {
		t.Fatal("expected bolt path error")
	}
}

func TestBoltStore(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "planner.bolt"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	runStoreContract(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := database.NewPool(context.Background(), dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	s := NewPostgresStore(pool)
	t.Cleanup(func() { _ = s.Close() })
	runStoreContract(t, s)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}
	client, err := database.ConnectMongo(context.Background(), uri)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	s := NewMongoStore(client, "planner_test")
	t.Cleanup(func() { _ = s.Close() })
	runStoreContract(t, s)
}
