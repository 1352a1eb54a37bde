package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LoadDotEnv loads .env and .env.local (if present) into the process
// environment before YAML config files are expanded. A missing file is
// not an error; a malformed one is.
func LoadDotEnv() error {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads a YAML config file, expands ${VAR}/${VAR:-default}/$VAR
// references against the environment, and decodes the result into a
// Config seeded with Defaults().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML %q: %w", path, err)
	}
	expanded := expandTree(raw)

	cfg := Defaults()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := decoder.Decode(expanded); err != nil {
		return nil, fmt.Errorf("failed to decode config %q: %w", path, err)
	}
	return &cfg, nil
}

// Watcher hot-reloads a Config from disk on every write to path,
// invoking onChange with the newly decoded value. Decode errors during a
// reload are logged and the previous Config remains in effect — a typo
// mid-edit must never crash a running simulation.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	logger  *slog.Logger
	done    chan struct{}
}

// Watch starts watching path for writes. Call Close to stop.
func Watch(path string, logger *slog.Logger, onChange func(*Config)) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start config watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch config file %q: %w", path, err)
	}

	w := &Watcher{watcher: fsw, path: path, logger: logger, done: make(chan struct{})}
	go func() {
		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					logger.Warn("config reload failed, keeping previous configuration", "path", path, "error", err)
					continue
				}
				onChange(cfg)
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "error", err)
			case <-w.done:
				return
			}
		}
	}()
	return w, nil
}

// Close stops the watcher goroutine and releases its fsnotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
