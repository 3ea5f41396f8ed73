package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const fileName = "config.json"

// ChangeFunc receives the previous and the freshly applied configuration.
type ChangeFunc func(prev, next Config)

// Manager owns the on-disk dashboard configuration and reloads it when the
// file is edited by hand.
type Manager struct {
	path         string
	mu           sync.RWMutex
	cfg          Config
	watcher      *fsnotify.Watcher
	debounce     time.Duration
	onChange     ChangeFunc
	suppressSelf atomic.Bool
	log          logrus.FieldLogger
}

type managerOptions struct {
	configPath    string
	initialConfig *Config
	debounce      time.Duration
	logger        logrus.FieldLogger
}

type ManagerOption func(*managerOptions)

func NewManager(opts ...ManagerOption) (*Manager, error) {
	options := managerOptions{
		debounce: 300 * time.Millisecond,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	configPath := options.configPath
	if configPath == "" {
		var err error
		configPath, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	cfg, err := loadOrCreate(configPath, options.initialConfig)
	if err != nil {
		return nil, err
	}

	return &Manager{
		path:     configPath,
		cfg:      cfg,
		debounce: options.debounce,
		log:      options.logger.WithField("component", "config"),
	}, nil
}

func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) Path() string {
	return m.path
}

// UpdateFromJSON applies a JSON object over the current configuration. Fields
// it leaves out keep their values; unknown fields are rejected.
func (m *Manager) UpdateFromJSON(jsonStr string) error {
	cfg := m.Get()
	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return fmt.Errorf("parse config json: %w", err)
	}
	return m.Update(cfg)
}

// Set changes the field whose JSON name is key. value is taken as JSON when
// it parses as JSON and as a plain string otherwise.
func (m *Manager) Set(key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	raw := json.RawMessage(value)
	if !json.Valid(raw) {
		quoted, err := json.Marshal(value)
		if err != nil {
			return err
		}
		raw = quoted
	}
	patch, err := json.Marshal(map[string]json.RawMessage{key: raw})
	if err != nil {
		return err
	}
	if err := m.UpdateFromJSON(string(patch)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Update validates and persists cfg. The write is not echoed back through the
// watcher.
func (m *Manager) Update(next Config) error {
	if err := next.Validate(); err != nil {
		return err
	}

	prev := m.Get()
	if reflect.DeepEqual(prev, next) {
		return nil
	}

	m.suppressSelf.Store(true)
	defer time.AfterFunc(m.debounce, func() { m.suppressSelf.Store(false) })

	if err := writeFile(m.path, next); err != nil {
		m.suppressSelf.Store(false)
		return err
	}

	m.apply(next)
	return nil
}

// Watch starts reloading the config file on external edits until ctx is done.
// Calling Watch again only replaces the callback.
func (m *Manager) Watch(ctx context.Context, onChange ChangeFunc) error {
	m.mu.Lock()
	m.onChange = onChange
	if m.watcher != nil {
		m.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.watcher = watcher
	m.mu.Unlock()

	// Editors replace files by rename, so watch the directory, not the file.
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	go m.watchLoop(ctx, watcher)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	var timerMu sync.Mutex
	var timer *time.Timer
	schedule := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(m.debounce, m.reload)
	}

	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !m.isConfigEvent(evt) || m.suppressSelf.Load() {
				continue
			}
			schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				m.log.WithError(err).Warn("config watcher error")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) isConfigEvent(evt fsnotify.Event) bool {
	if filepath.Clean(evt.Name) != filepath.Clean(m.path) {
		return false
	}
	return evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (m *Manager) reload() {
	var cfg Config
	if err := readFile(m.path, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.log.WithError(err).Warn("config reload failed")
			return
		}
		cfg = *DefaultConfigWithRoot(filepath.Dir(m.path))
		if err := writeFile(m.path, cfg); err != nil {
			m.log.WithError(err).Warn("config recreate failed")
			return
		}
	}
	if err := cfg.Validate(); err != nil {
		m.log.WithError(err).Warn("ignoring invalid config on disk")
		return
	}

	if reflect.DeepEqual(m.Get(), cfg) {
		return
	}
	m.apply(cfg)
}

func (m *Manager) apply(next Config) {
	m.mu.Lock()
	prev := m.cfg
	m.cfg = next
	cb := m.onChange
	m.mu.Unlock()

	if cb != nil {
		cb(prev, next)
	}
}

func loadOrCreate(path string, initial *Config) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return Config{}, err
		}
		return cfg, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("stat config: %w", err)
	}

	if initial != nil {
		cfg = *initial
	} else {
		cfg = *DefaultConfigWithRoot(filepath.Dir(path))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if err := writeFile(path, cfg); err != nil {
		return Config{}, fmt.Errorf("write initial config: %w", err)
	}
	return cfg, nil
}

// DefaultPath is CortexDash/config.json under the user config dir, falling
// back to the working directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "CortexDash", fileName), nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeFile replaces path atomically through a temp file in the same dir.
func writeFile(path string, cfg Config) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "cfg-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	cleanup := func() {
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&cfg); err != nil {
		cleanup()
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("flush config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp config: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func WithConfigDir(dir string) ManagerOption {
	return func(o *managerOptions) {
		if dir != "" {
			o.configPath = filepath.Join(dir, fileName)
		}
	}
}

func WithConfigPath(path string) ManagerOption {
	return func(o *managerOptions) {
		if path != "" {
			o.configPath = path
		}
	}
}

func WithDebounce(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

func WithInitialConfig(cfg *Config) ManagerOption {
	return func(o *managerOptions) {
		o.initialConfig = cfg
	}
}

func WithLogger(l logrus.FieldLogger) ManagerOption {
	return func(o *managerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
