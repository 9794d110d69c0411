package logger

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var components = struct {
	mu     sync.RWMutex
	levels map[string]zerolog.Level
	pinned map[string]*Logger
}{
	levels: map[string]zerolog.Level{},
	pinned: map[string]*Logger{},
}

// SetComponentLevels replaces the per-component level overrides, e.g.
// {"orchestrator": "debug"}. Unparseable levels are ignored.
func SetComponentLevels(levels map[string]string) {
	parsed := make(map[string]zerolog.Level, len(levels))
	for name, lvl := range levels {
		if l, err := zerolog.ParseLevel(strings.ToLower(lvl)); err == nil && lvl != "" {
			parsed[name] = l
		}
	}
	components.mu.Lock()
	components.levels = parsed
	components.mu.Unlock()
}

// Pin makes Get(name) return l until restore is called.
func Pin(name string, l *Logger) (restore func()) {
	components.mu.Lock()
	prev, had := components.pinned[name]
	components.pinned[name] = l
	components.mu.Unlock()

	return func() {
		components.mu.Lock()
		defer components.mu.Unlock()
		if had {
			components.pinned[name] = prev
		} else {
			delete(components.pinned, name)
		}
	}
}

// Get returns the logger for a component: the pinned logger if any,
// otherwise the global logger tagged with name at the component's
// configured level.
func Get(name string) *Logger {
	components.mu.RLock()
	l, pinned := components.pinned[name]
	level, override := components.levels[name]
	components.mu.RUnlock()
	if pinned {
		return l
	}

	l = GetGlobalLogger().WithComponent(name)
	if override {
		l = &Logger{logger: l.logger.Level(level), service: l.service}
	}
	return l
}
