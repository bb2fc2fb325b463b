package storage

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vovakirdan/zentiles/internal/config"
	"github.com/vovakirdan/zentiles/internal/games/zentiles"
	"github.com/vovakirdan/zentiles/internal/offline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreNestedPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestStoreBestMoves(t *testing.T) {
	store := openTestStore(t)

	if _, ok, err := store.BestMoves(config.ModeBeginner); err != nil || ok {
		t.Fatalf("BestMoves() on empty store = %v, %v", ok, err)
	}

	if err := store.SetBestMoves(config.ModeBeginner, 14); err != nil {
		t.Fatalf("SetBestMoves() failed: %v", err)
	}
	if err := store.SetBestMoves(config.ModeBeginner, 11); err != nil {
		t.Fatalf("SetBestMoves() failed: %v", err)
	}

	best, ok, err := store.BestMoves(config.ModeBeginner)
	if err != nil || !ok || best != 11 {
		t.Errorf("BestMoves(beginner) = %d, %v, %v; expected 11", best, ok, err)
	}
	if _, ok, _ := store.BestMoves(config.ModeExpert); ok {
		t.Error("expert should have no record")
	}

	// Stored under the stable per-mode key.
	if v, ok, _ := store.Record("zentiles_best_beginner"); !ok || v != 11 {
		t.Errorf("Record(zentiles_best_beginner) = %d, %v", v, ok)
	}

	if err := store.ClearRecords(); err != nil {
		t.Fatalf("ClearRecords() failed: %v", err)
	}
	if _, ok, _ := store.BestMoves(config.ModeBeginner); ok {
		t.Error("record survived ClearRecords")
	}
}

func TestStoreRecordsDriveGame(t *testing.T) {
	store := openTestStore(t)
	store.SetBestMoves(config.ModeExpert, 30)

	g, err := zentiles.New(zentiles.Options{Records: store, Seed: 1})
	if err != nil {
		t.Fatalf("zentiles.New() failed: %v", err)
	}
	g.NewGame(config.ModeExpert)

	if best, ok := g.Best(); !ok || best != 30 {
		t.Errorf("game Best() = %d, %v; expected 30 from the store", best, ok)
	}
}

func TestStoreSessions(t *testing.T) {
	store := openTestStore(t)

	wins := []zentiles.WinSummary{
		{Mode: config.ModeBeginner, Moves: 12, Elapsed: 40, NewRecord: true},
		{Mode: config.ModeExpert, Moves: 30, Elapsed: 200, NewRecord: true},
		{Mode: config.ModeBeginner, Moves: 9, Elapsed: 55, NewRecord: true},
		{Mode: config.ModeBeginner, Moves: 15, Elapsed: 31},
	}
	for _, w := range wins {
		if _, err := store.SaveSession(w); err != nil {
			t.Fatalf("SaveSession() failed: %v", err)
		}
	}

	recent, err := store.RecentSessions(config.ModeBeginner, 2)
	if err != nil {
		t.Fatalf("RecentSessions() failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d sessions, expected 2", len(recent))
	}
	if recent[0].Moves != 15 || recent[1].Moves != 9 {
		t.Errorf("sessions not newest first: %+v", recent)
	}
	if recent[0].NewRecord || !recent[1].NewRecord {
		t.Errorf("new_record flags = %v, %v", recent[0].NewRecord, recent[1].NewRecord)
	}

	all, _ := store.RecentSessions("", 10)
	if len(all) != 4 {
		t.Errorf("got %d sessions across modes, expected 4", len(all))
	}

	stats, err := store.Stats(config.ModeBeginner)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.Games != 3 || stats.FewestMoves != 9 || stats.FastestSecs != 31 || stats.AvgMoves != 12 {
		t.Errorf("stats = %+v", stats)
	}

	empty, err := store.Stats(config.Mode("unplayed"))
	if err != nil {
		t.Fatalf("Stats() on empty mode failed: %v", err)
	}
	if empty.Games != 0 || !empty.LastPlayed.IsZero() {
		t.Errorf("empty stats = %+v", empty)
	}
}

func TestCacheStorage(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	caches := store.CacheStorage()

	old, err := caches.Open(ctx, "zentiles-v0.9.0")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	cur, _ := caches.Open(ctx, "zentiles-v1.0.0")
	if _, err := caches.Open(ctx, "zentiles-v1.0.0"); err != nil {
		t.Fatalf("reopening a cache failed: %v", err)
	}

	entry := &offline.Entry{
		URL:    "http://localhost:8000/index.html",
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": {"text/html"}},
		Body:   []byte("<html>"),
	}
	if err := cur.Put(ctx, entry.URL, entry); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	old.Put(ctx, entry.URL, &offline.Entry{Status: http.StatusOK, Body: []byte("stale")})
	old.Put(ctx, "http://localhost:8000/old.css", &offline.Entry{Status: http.StatusOK, Body: []byte("x")})

	got, err := cur.Match(ctx, entry.URL)
	if err != nil {
		t.Fatalf("Match() failed: %v", err)
	}
	if got.Status != 200 || string(got.Body) != "<html>" || got.Header.Get("Content-Type") != "text/html" {
		t.Errorf("Match() = %+v", got)
	}
	if _, err := cur.Match(ctx, "http://localhost:8000/old.css"); !errors.Is(err, offline.ErrNotCached) {
		t.Errorf("Match() across caches leaked: %v", err)
	}

	names, _ := caches.Keys(ctx)
	if !reflect.DeepEqual(names, []string{"zentiles-v0.9.0", "zentiles-v1.0.0"}) {
		t.Errorf("Keys() = %v", names)
	}

	// Storage-wide match prefers the oldest generation.
	if e, _ := caches.Match(ctx, entry.URL); e == nil || string(e.Body) != "stale" {
		t.Errorf("storage Match() = %+v", e)
	}

	if ok, err := caches.Delete(ctx, "zentiles-v0.9.0"); err != nil || !ok {
		t.Fatalf("Delete() = %v, %v", ok, err)
	}
	if ok, _ := caches.Delete(ctx, "zentiles-v0.9.0"); ok {
		t.Error("second Delete() reported an existing cache")
	}
	if _, err := caches.Match(ctx, "http://localhost:8000/old.css"); !errors.Is(err, offline.ErrNotCached) {
		t.Error("entries of a deleted cache are still visible")
	}

	keys, _ := cur.Keys(ctx)
	if !reflect.DeepEqual(keys, []string{entry.URL}) {
		t.Errorf("cache Keys() = %v", keys)
	}
}

func TestCacheStorageSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	c, _ := store.CacheStorage().Open(ctx, "zentiles-v1.0.0")
	c.Put(ctx, "k", &offline.Entry{Status: http.StatusOK, Body: []byte("v")})
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()

	e, err := store.CacheStorage().Match(ctx, "k")
	if err != nil || string(e.Body) != "v" {
		t.Errorf("Match() after reopen = %v, %v", e, err)
	}
}
