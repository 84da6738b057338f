package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writePreset(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write preset: %v", err)
	}
}

func TestManager(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "duel", `{"name":"duel","width":480,"height":480,"baseSpeed":6,"targetFoodCount":10,"initialLength":5}`)
	writePreset(t, dir, "broken", `{"name":"broken","width":5,"height":5}`)
	writePreset(t, dir, "partial", `{"name":"partial","width":500}`)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Close()

	t.Run("loads preset", func(t *testing.T) {
		cfg, err := m.LoadPreset("duel")
		if err != nil {
			t.Fatalf("LoadPreset failed: %v", err)
		}
		if cfg.Name != "duel" || cfg.Width != 480 {
			t.Errorf("unexpected preset: %+v", cfg)
		}
	})

	t.Run("returned configs are copies", func(t *testing.T) {
		a, _ := m.LoadPreset("duel")
		a.Width = 1
		b, _ := m.LoadPreset("duel")
		if b.Width != 480 {
			t.Errorf("mutation leaked into cache: %+v", b)
		}
	})

	t.Run("missing preset", func(t *testing.T) {
		if _, err := m.LoadPreset("nope"); !errors.Is(err, ErrPresetNotFound) {
			t.Errorf("expected ErrPresetNotFound, got %v", err)
		}
	})

	t.Run("invalid preset", func(t *testing.T) {
		if _, err := m.LoadPreset("broken"); !errors.Is(err, ErrInvalidPreset) {
			t.Errorf("expected ErrInvalidPreset, got %v", err)
		}
	})

	t.Run("partial preset gets defaults", func(t *testing.T) {
		cfg, err := m.LoadPreset("partial")
		if err != nil {
			t.Fatalf("LoadPreset failed: %v", err)
		}
		if cfg.Width != 500 {
			t.Errorf("explicit field should be kept, got %g", cfg.Width)
		}
		if cfg.BaseSpeed == 0 || cfg.Height == 0 {
			t.Errorf("zero fields should default: %+v", cfg)
		}
	})

	t.Run("default without file falls back to built-in", func(t *testing.T) {
		def := m.GetDefault()
		if def == nil || def.Width == 0 {
			t.Errorf("built-in default expected, got %+v", def)
		}
	})

	t.Run("list skips invalid presets", func(t *testing.T) {
		infos, err := m.ListPresets()
		if err != nil {
			t.Fatalf("ListPresets failed: %v", err)
		}
		for _, info := range infos {
			if info.ConfigID == "broken" {
				t.Error("broken preset should be skipped")
			}
		}
		if len(infos) != 2 {
			t.Errorf("expected duel and partial, got %+v", infos)
		}
	})
}

func TestManagerMissingDir(t *testing.T) {
	if _, err := NewManager(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("missing directory should be rejected")
	}
}

func TestManagerDefaultFile(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "default", `{"name":"custom-default","width":640,"height":480,"baseSpeed":4,"targetFoodCount":15,"initialLength":5}`)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Close()

	def := m.GetDefault()
	if def.Name != "custom-default" || def.Width != 640 {
		t.Errorf("default.json should win, got %+v", def)
	}
}
