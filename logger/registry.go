package logger

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// registry hands out per-component loggers. Components are the packages
// that call Get with a fixed name: process, worker, kvstore, runtime.
var registry = &loggerRegistry{
	loggers: make(map[string]*Logger),
	levels:  make(map[string]zerolog.Level),
}

type loggerRegistry struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
	levels  map[string]zerolog.Level
}

// Register pins the logger returned by Get(name). Tests use it to capture
// a component's output.
func Register(name string, l *Logger) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.loggers[name] = l
}

// Unregister removes a logger pinned with Register.
func Unregister(name string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	delete(registry.loggers, name)
}

// Get returns the logger for a component. Unless one was registered, it is
// the global logger tagged with the component name, raised to the level
// configured under logging.components.
func Get(name string) *Logger {
	registry.mu.RLock()
	l, ok := registry.loggers[name]
	lvl, hasLevel := registry.levels[name]
	registry.mu.RUnlock()
	if ok {
		return l
	}
	l = GetGlobalLogger().WithComponent(name)
	if hasLevel {
		l = &Logger{logger: l.logger.Level(lvl), service: l.service}
	}
	return l
}

// setComponentLevels replaces the per-component level table. The global
// zerolog level still applies, so an entry can only make a component
// quieter than logging.level.
func setComponentLevels(levels map[string]string) error {
	parsed, err := parseComponentLevels(levels)
	if err != nil {
		return err
	}
	registry.mu.Lock()
	registry.levels = parsed
	registry.mu.Unlock()
	return nil
}

func parseComponentLevels(levels map[string]string) (map[string]zerolog.Level, error) {
	parsed := make(map[string]zerolog.Level, len(levels))
	for name, s := range levels {
		lvl, err := zerolog.ParseLevel(s)
		if err != nil || s == "" {
			return nil, fmt.Errorf("logging.components.%s: invalid level %q", name, s)
		}
		parsed[name] = lvl
	}
	return parsed, nil
}
