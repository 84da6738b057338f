// Package config loads arena presets from a directory of JSON files and
// keeps the cache fresh when preset files change on disk.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/wricardo/snake-arena/game/engine"
	"github.com/wricardo/snake-arena/game/service"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidPreset  = errors.New("invalid preset")
)

// Manager handles arena preset loading and caching.
type Manager struct {
	presetDir string
	defaults  *engine.Config
	presets   map[string]*engine.Config
	mu        sync.RWMutex

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewManager creates a preset manager rooted at presetDir and starts a
// filesystem watcher so edited presets are picked up without a restart.
func NewManager(presetDir string) (*Manager, error) {
	if _, err := os.Stat(presetDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("preset directory does not exist: %s", presetDir)
	}

	m := &Manager{
		presetDir: presetDir,
		presets:   make(map[string]*engine.Config),
		done:      make(chan struct{}),
	}

	if err := m.loadDefault(); err != nil {
		return nil, fmt.Errorf("failed to load default preset: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create preset watcher: %w", err)
	}
	if err := watcher.Add(presetDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch preset directory: %w", err)
	}
	m.watcher = watcher
	go m.watch()

	return m, nil
}

// LoadPreset loads a preset by name, from cache when possible.
func (m *Manager) LoadPreset(name string) (*engine.Config, error) {
	m.mu.RLock()
	if cfg, exists := m.presets[name]; exists {
		m.mu.RUnlock()
		return copyConfig(cfg), nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg, exists := m.presets[name]; exists {
		return copyConfig(cfg), nil
	}

	cfg, err := m.readPreset(name)
	if err != nil {
		return nil, err
	}
	m.presets[name] = cfg
	return copyConfig(cfg), nil
}

// ListPresets enumerates the JSON presets in the preset directory.
func (m *Manager) ListPresets() ([]*service.PresetInfo, error) {
	entries, err := os.ReadDir(m.presetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset directory: %w", err)
	}

	var infos []*service.PresetInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		cfg, err := m.LoadPreset(name)
		if err != nil {
			log.Printf("Warning: skipping invalid preset %s: %v", entry.Name(), err)
			continue
		}
		infos = append(infos, &service.PresetInfo{
			ConfigID:        name,
			Name:            cfg.Name,
			Description:     cfg.Description,
			Width:           cfg.Width,
			Height:          cfg.Height,
			TargetFoodCount: cfg.TargetFoodCount,
		})
	}
	return infos, nil
}

// GetDefault returns the default arena configuration.
func (m *Manager) GetDefault() *engine.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyConfig(m.defaults)
}

// Close stops the filesystem watcher.
func (m *Manager) Close() error {
	close(m.done)
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}

// loadDefault prefers default.json on disk and falls back to the built-in
// configuration.
func (m *Manager) loadDefault() error {
	cfg, err := m.readPreset("default")
	if errors.Is(err, ErrPresetNotFound) {
		m.defaults = engine.DefaultConfig()
		return nil
	}
	if err != nil {
		return err
	}
	m.defaults = cfg
	m.presets["default"] = cfg
	return nil
}

// readPreset reads and validates one preset file.
func (m *Manager) readPreset(name string) (*engine.Config, error) {
	filename := name
	if !strings.HasSuffix(filename, ".json") {
		filename = name + ".json"
	}

	data, err := os.ReadFile(filepath.Join(m.presetDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrPresetNotFound
		}
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var cfg engine.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse preset: %w", err)
	}
	cfg.ApplyDefaults()
	if err := engine.ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	return &cfg, nil
}

// watch evicts cached presets when their files change so the next load
// re-reads from disk.
func (m *Manager) watch() {
	for {
		select {
		case <-m.done:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(event.Name), ".json")

			m.mu.Lock()
			delete(m.presets, name)
			m.mu.Unlock()

			if name == "default" {
				if cfg, err := m.readPreset("default"); err == nil {
					m.mu.Lock()
					m.defaults = cfg
					m.presets["default"] = cfg
					m.mu.Unlock()
				}
			}
			log.Printf("Preset %s changed on disk, cache refreshed", name)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: preset watcher error: %v", err)
		}
	}
}

func copyConfig(cfg *engine.Config) *engine.Config {
	cp := *cfg
	return &cp
}
