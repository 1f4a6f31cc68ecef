package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dyike/DivGo/internal/logger"
)

type Manager struct {
	path         string
	mu           sync.RWMutex
	cfg          Config
	watcher      *fsnotify.Watcher
	debounce     time.Duration
	onChange     func(Config)
	suppressSelf atomic.Bool
}

type managerOptions struct {
	configPath    string
	initialConfig *Config
	debounce      time.Duration
}

type ManagerOption func(*managerOptions)

var (
	defaultManager *Manager
	managerMu      sync.Mutex
)

func NewManager(opts ...ManagerOption) (*Manager, error) {
	options := managerOptions{
		debounce: 300 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&options)
	}

	configPath := options.configPath
	if configPath == "" {
		var err error
		configPath, err = defaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	cfg, err := loadOrCreateConfig(configPath, options)
	if err != nil {
		return nil, err
	}

	return &Manager{
		path:     configPath,
		cfg:      cfg,
		debounce: options.debounce,
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

func (m *Manager) UpdateFromJSON(jsonStr string) error {
	var cfg Config
	if err := json.Unmarshal([]byte(jsonStr), &cfg); err != nil {
		return fmt.Errorf("parse config json: %w", err)
	}
	return m.Update(cfg)
}

func (m *Manager) Update(newCfg Config) error {
	if err := newCfg.Validate(); err != nil {
		return err
	}

	m.mu.RLock()
	current := m.cfg
	m.mu.RUnlock()
	if reflect.DeepEqual(current, newCfg) {
		return nil
	}

	m.suppressSelf.Store(true)
	defer time.AfterFunc(m.debounce, func() { m.suppressSelf.Store(false) })

	if err := writeConfigFile(m.path, newCfg); err != nil {
		m.suppressSelf.Store(false)
		return err
	}

	m.applyConfig(newCfg)
	return nil
}

func (m *Manager) Watch(ctx context.Context, onChange func(Config)) error {
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
	debounce := m.debounce
	configPath := m.path
	m.mu.Unlock()

	configDir := filepath.Dir(configPath)
	if err := watcher.Add(configDir); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	go m.watchLoop(ctx, watcher, configPath, debounce)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, configPath string, debounce time.Duration) {
	defer watcher.Close()

	var timerMu sync.Mutex
	var timer *time.Timer
	trigger := func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, m.reloadFromDisk)
		timerMu.Unlock()
	}

	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !m.isConfigEvent(evt, configPath) {
				continue
			}
			if m.suppressSelf.Load() {
				continue
			}
			trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				logger.Component("config").Warnf("watcher error: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) isConfigEvent(evt fsnotify.Event, configPath string) bool {
	if filepath.Clean(evt.Name) != filepath.Clean(configPath) {
		return false
	}
	return evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (m *Manager) reloadFromDisk() {
	var cfg Config
	if err := loadConfigFromFile(m.path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = *DefaultConfigWithRoot(filepath.Dir(m.path))
			if err := writeConfigFile(m.path, cfg); err != nil {
				logger.Component("config").Errorf("recreate failed: %v", err)
				return
			}
		} else {
			logger.Component("config").Errorf("reload failed: %v", err)
			return
		}
	}
	if err := cfg.Validate(); err != nil {
		logger.Component("config").WithError(err).Warn("ignoring invalid settings file, keeping current settings")
		return
	}

	m.mu.RLock()
	current := m.cfg
	m.mu.RUnlock()
	changed := ChangedKeys(current, cfg)
	if len(changed) == 0 {
		return
	}
	if restart := restartKeys(changed); len(restart) > 0 {
		logger.Component("config").WithField("keys", strings.Join(restart, ",")).
			Warn("settings changed on disk take effect after a restart")
	}
	m.applyConfig(cfg)
}

// LiveKeys are the settings a running scanner picks up without a restart.
var LiveKeys = []string{"lot_size", "scan_concurrency"}

// applyConfig stores cfg and notifies the watcher only when a live setting
// changed.
func (m *Manager) applyConfig(cfg Config) {
	m.mu.Lock()
	prev := m.cfg
	m.cfg = cfg
	cb := m.onChange
	m.mu.Unlock()

	if cb != nil && len(liveKeys(ChangedKeys(prev, cfg))) > 0 {
		cb(cfg)
	}
}

// ChangedKeys lists the JSON names of the settings that differ between a
// and b, in field order.
func ChangedKeys(a, b Config) []string {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	t := va.Type()

	var keys []string
	for i := 0; i < t.NumField(); i++ {
		if reflect.DeepEqual(va.Field(i).Interface(), vb.Field(i).Interface()) {
			continue
		}
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" {
			name = t.Field(i).Name
		}
		keys = append(keys, name)
	}
	return keys
}

func liveKeys(keys []string) []string {
	var out []string
	for _, k := range keys {
		if isLiveKey(k) {
			out = append(out, k)
		}
	}
	return out
}

func restartKeys(keys []string) []string {
	var out []string
	for _, k := range keys {
		if !isLiveKey(k) {
			out = append(out, k)
		}
	}
	return out
}

func isLiveKey(key string) bool {
	for _, k := range LiveKeys {
		if k == key {
			return true
		}
	}
	return false
}

func loadOrCreateConfig(path string, options managerOptions) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := loadConfigFromFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return Config{}, err
		}
		return cfg, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("stat config: %w", err)
	}

	switch {
	case options.initialConfig != nil:
		cfg = *options.initialConfig
	default:
		cfg = *DefaultConfigWithRoot(filepath.Dir(path))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	if err := writeConfigFile(path, cfg); err != nil {
		return Config{}, fmt.Errorf("write initial config: %w", err)
	}

	return cfg, nil
}

func loadConfigFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	dir = filepath.Join(dir, "DivGo")
	return filepath.Join(dir, "config.json"), nil
}

func writeConfigFile(path string, cfg Config) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "cfg-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	encoder := json.NewEncoder(tmpFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&cfg); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("flush config: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFile.Name())
		return fmt.Errorf("close temp config: %w", err)
	}
	return os.Rename(tmpFile.Name(), path)
}

func WithConfigDir(dir string) ManagerOption {
	return func(o *managerOptions) {
		if dir == "" {
			return
		}
		o.configPath = filepath.Join(dir, "config.json")
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

func DefaultManager() *Manager {
	managerMu.Lock()
	defer managerMu.Unlock()
	if defaultManager != nil {
		return defaultManager
	}
	mgr, err := NewManager()
	if err != nil {
		logger.Component("config").Errorf("create default manager: %v", err)
		return nil
	}
	defaultManager = mgr
	return defaultManager
}

func SetDefaultManager(mgr *Manager) {
	managerMu.Lock()
	defer managerMu.Unlock()
	defaultManager = mgr
}

// Set updates a single setting addressed by its JSON name, e.g. "lot_size".
func (m *Manager) Set(key, value string) error {
	current := m.Get()
	raw, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	old, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}

	var encoded []byte
	switch {
	case len(old) > 0 && old[0] == '"':
		encoded, err = json.Marshal(value)
	case string(old) == "true" || string(old) == "false":
		var b bool
		if b, err = strconv.ParseBool(value); err == nil {
			encoded, err = json.Marshal(b)
		}
	case strings.HasSuffix(key, "_timeout") || strings.HasSuffix(key, "_ttl"):
		var d time.Duration
		if d, err = time.ParseDuration(value); err == nil {
			encoded, err = json.Marshal(d)
		}
	default:
		n := json.Number(value)
		if _, ferr := n.Float64(); ferr != nil {
			err = ferr
		} else {
			encoded = []byte(n)
		}
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	fields[key] = encoded

	merged, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	var next Config
	if err := json.Unmarshal(merged, &next); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return m.Update(next)
}

// Load returns the persisted settings with .env and environment overrides
// applied on top. API keys are never written to the settings file by Load.
// When the file cannot be opened the environment defaults are returned with
// a nil Manager and the error.
func Load(opts ...ManagerOption) (*Config, *Manager, error) {
	base := DefaultConfig()

	initial := *base
	initial.DeepSeekAPIKey = ""
	initial.OpenAIAPIKey = ""

	mgr, err := NewManager(append([]ManagerOption{WithInitialConfig(&initial)}, opts...)...)
	if err != nil {
		return base, nil, err
	}

	cfg := mgr.Get()
	cfg.loadFromEnv()
	return &cfg, mgr, nil
}
