package theme

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "themes.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndListThemes(t *testing.T) {
	s := newTestStore(t)

	first, err := s.CreateTheme("AI Agents", "d", []string{"ai", "agents"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Status != StatusDraft {
		t.Fatalf("new theme should be draft, got %q", first.Status)
	}
	if first.Schedule != "weekly" {
		t.Fatalf("expected default weekly schedule, got %q", first.Schedule)
	}

	if _, err := s.CreateTheme("Supply Chain", "d2", []string{"scm"}, "daily"); err != nil {
		t.Fatalf("create second: %v", err)
	}

	themes, err := s.Themes()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(themes) != 2 {
		t.Fatalf("expected 2 themes, got %d", len(themes))
	}
	if themes[0].Name != "AI Agents" || themes[1].Name != "Supply Chain" {
		t.Fatalf("insertion order not preserved: %#v", themes)
	}
	if len(themes[0].Keywords) != 2 || themes[0].Keywords[0] != "ai" {
		t.Fatalf("keywords not round-tripped: %#v", themes[0].Keywords)
	}
}

func TestActivationQuota(t *testing.T) {
	s := newTestStore(t)

	var ids []string
	for _, name := range []string{"a", "b", "c", "d"} {
		th, err := s.CreateTheme(name, "", nil, "")
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		ids = append(ids, th.ID)
	}

	for _, id := range ids[:3] {
		if _, err := s.SetStatus(id, StatusActive); err != nil {
			t.Fatalf("activate %s: %v", id, err)
		}
	}

	// Fourth activation must fail and leave the theme untouched.
	if _, err := s.SetStatus(ids[3], StatusActive); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	got, err := s.Theme(ids[3])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusDraft {
		t.Fatalf("failed activation must not change status, got %q", got.Status)
	}

	themes, err := s.Themes()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	active := 0
	for _, th := range themes {
		if th.Status == StatusActive {
			active++
		}
	}
	if active != 3 {
		t.Fatalf("expected exactly 3 active, got %d", active)
	}

	// Updating an already-active theme is not an activation and must not
	// trip the quota.
	name := "renamed"
	if _, err := s.UpdateTheme(ids[0], Update{Name: &name, Status: strPtr(StatusActive)}); err != nil {
		t.Fatalf("update active theme: %v", err)
	}

	// Deactivating frees a slot.
	if _, err := s.SetStatus(ids[0], StatusDraft); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := s.SetStatus(ids[3], StatusActive); err != nil {
		t.Fatalf("activate after freeing slot: %v", err)
	}
}

func TestUpdateThemePartialMerge(t *testing.T) {
	s := newTestStore(t)

	th, err := s.CreateTheme("Robotics", "old", []string{"robots"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	desc := "updated"
	got, err := s.UpdateTheme(th.ID, Update{Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Description != "updated" {
		t.Fatalf("description not updated: %q", got.Description)
	}
	if got.Name != "Robotics" || len(got.Keywords) != 1 {
		t.Fatalf("untouched fields changed: %#v", got)
	}

	if _, err := s.UpdateTheme("missing", Update{Description: &desc}); !errors.Is(err, ErrThemeNotFound) {
		t.Fatalf("expected ErrThemeNotFound, got %v", err)
	}
}

func TestDeleteTheme(t *testing.T) {
	s := newTestStore(t)

	th, err := s.CreateTheme("Doomed", "", nil, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := s.DeleteTheme(th.ID)
	if err != nil || !ok {
		t.Fatalf("delete existing: ok=%v err=%v", ok, err)
	}

	ok, err = s.DeleteTheme(th.ID)
	if err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if ok {
		t.Fatalf("deleting missing theme should report false")
	}

	themes, err := s.Themes()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(themes) != 0 {
		t.Fatalf("expected empty store, got %d", len(themes))
	}
}

func TestDeleteThemesBulk(t *testing.T) {
	s := newTestStore(t)

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		th, err := s.CreateTheme(name, "", nil, "")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, th.ID)
	}

	n, err := s.DeleteThemes([]string{ids[0], ids[2], "missing"})
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deletions, got %d", n)
	}

	themes, err := s.Themes()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(themes) != 1 || themes[0].ID != ids[1] {
		t.Fatalf("wrong survivor: %#v", themes)
	}

	n, err = s.DeleteThemes([]string{"nope"})
	if err != nil || n != 0 {
		t.Fatalf("bulk delete of missing ids: n=%d err=%v", n, err)
	}
}

func strPtr(s string) *string { return &s }
