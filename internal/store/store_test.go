package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/voice"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "mudra.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file should exist after creating store: %v", err)
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"aliases", "history", "settings"} {
		var name string
		err := s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}

	var idx string
	if err := s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_history_created_at'").Scan(&idx); err != nil {
		t.Errorf("history index should exist: %v", err)
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Settings().Set(SettingLastMode, "keyboard"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if got := s.Settings().GetDefault(SettingLastMode, "menu"); got != "keyboard" {
		t.Errorf("last mode = %q, want keyboard", got)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}
	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestAliasRepository_CRUD(t *testing.T) {
	repo := newTestStore(t).Aliases()

	a := &Alias{Phrase: "page down", Target: "scroll down", Enabled: true}
	if err := repo.Create(a); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if a.ID == "" {
		t.Fatal("Create() should assign an ID")
	}

	got, err := repo.GetByID(a.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Phrase != "page down" || got.Target != "scroll down" || !got.Enabled {
		t.Errorf("GetByID() = %+v", got)
	}

	got.Enabled = false
	if err := repo.Update(got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, err = repo.GetByPhrase("page down")
	if err != nil {
		t.Fatalf("GetByPhrase() error = %v", err)
	}
	if got.Enabled {
		t.Error("Update() should have disabled the alias")
	}

	if err := repo.Delete(a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete = %v, want ErrNotFound", err)
	}
}

func TestAliasRepository_Errors(t *testing.T) {
	repo := newTestStore(t).Aliases()

	if err := repo.Create(&Alias{Phrase: "look up", Target: "search for"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(&Alias{Phrase: "look up", Target: "scroll up"}); err == nil {
		t.Error("duplicate phrase should fail")
	}
	if err := repo.Create(&Alias{Phrase: "nothing"}); err == nil {
		t.Error("alias without target or plugin action should fail")
	}
	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) = %v, want ErrNotFound", err)
	}
	if err := repo.Update(&Alias{ID: "missing", Phrase: "x", Target: "mute"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByPhrase("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByPhrase(missing) = %v, want ErrNotFound", err)
	}
}

func TestAliasRepository_VoiceAliases(t *testing.T) {
	repo := newTestStore(t).Aliases()

	for _, a := range []*Alias{
		{Phrase: "page down", Target: "scroll down", Enabled: true},
		{Phrase: "next track", PluginName: "media-control", ActionName: "next", Enabled: true},
		{Phrase: "hush", Target: "mute", Enabled: false},
	} {
		if err := repo.Create(a); err != nil {
			t.Fatalf("Create(%q) error = %v", a.Phrase, err)
		}
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List() = %d aliases, want 3", len(list))
	}

	got, err := repo.VoiceAliases()
	if err != nil {
		t.Fatalf("VoiceAliases() error = %v", err)
	}
	want := map[string]voice.Alias{
		"page down":  {Phrase: "page down", Target: "scroll down"},
		"next track": {Phrase: "next track", Plugin: "media-control", Action: "next"},
	}
	if len(got) != len(want) {
		t.Fatalf("VoiceAliases() = %v, want only enabled aliases", got)
	}
	for _, a := range got {
		if want[a.Phrase] != a {
			t.Errorf("alias %q = %+v, want %+v", a.Phrase, a, want[a.Phrase])
		}
	}
}

func TestHistoryRepository(t *testing.T) {
	repo := newTestStore(t).History()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	utterances := []voice.Utterance{
		{Text: "scroll down", Kind: "command", Matched: []string{"scroll down"}, At: base},
		{Text: "hello world", Kind: "dictation", At: base.Add(time.Second)},
		{Text: "mute and scroll up", Kind: "command", Matched: []string{"scroll up", "mute"}, At: base.Add(2 * time.Second)},
	}
	for _, u := range utterances {
		if err := repo.RecordUtterance(ctx, u); err != nil {
			t.Fatalf("RecordUtterance(%q) error = %v", u.Text, err)
		}
	}

	entries, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent(2) = %d entries", len(entries))
	}
	if entries[0].Text != "mute and scroll up" || len(entries[0].Matched) != 2 {
		t.Errorf("newest entry = %+v", entries[0])
	}
	if entries[1].Kind != "dictation" || len(entries[1].Matched) != 0 {
		t.Errorf("second entry = %+v", entries[1])
	}

	removed, err := repo.Prune(ctx, 1)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune(1) removed %d, want 2", removed)
	}

	entries, err = repo.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Text != "mute and scroll up" {
		t.Errorf("after prune = %+v", entries)
	}
}

func TestHistoryRepository_RejectsUnknownKind(t *testing.T) {
	repo := newTestStore(t).History()
	if err := repo.RecordUtterance(context.Background(), voice.Utterance{Text: "x", Kind: "other"}); err == nil {
		t.Error("unknown kind should violate the check constraint")
	}
}

func TestSettingsRepository(t *testing.T) {
	repo := newTestStore(t).Settings()

	if _, err := repo.Get(SettingVoiceEnabled); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unset) = %v, want ErrNotFound", err)
	}
	if got := repo.GetDefault(SettingVoiceEnabled, "false"); got != "false" {
		t.Errorf("GetDefault() = %q", got)
	}

	if err := repo.Set(SettingVoiceEnabled, "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(SettingVoiceEnabled, "false"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if got, _ := repo.Get(SettingVoiceEnabled); got != "false" {
		t.Errorf("Get() = %q, want false", got)
	}
}
