package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"quorum/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// defaultSystem is the built-in analyst prompt. A file-backed template, if
// configured, overrides it and hot-reloads on edit.
const defaultSystem = `You are an expert crypto trading analyst specializing in multi-factor analysis.

Your analysis should:
1. Weight technical, macro, and sentiment factors appropriately
2. Identify the most critical risks (e.g., carry trade unwinding, regulatory, technical breakdowns)
3. Provide actionable insight

Respond in JSON:
{
  "sentiment": <0-100, bearish to bullish>,
  "confidence": <0-100, your conviction level>,
  "reasoning": "<clear explanation with specific data citations>"
}

Be rigorous. Consider risk-reward. Output ONLY valid JSON.`

// Manager serves the analyst system prompt.
type Manager struct {
	mu      sync.RWMutex
	system  string
	watcher *fsnotify.Watcher
}

// NewManager loads the template at path (empty path means built-in only)
// and watches the file for changes.
func NewManager(path string) (*Manager, error) {
	m := &Manager{system: defaultSystem}
	path = strings.TrimSpace(path)
	if path == "" {
		return m, nil
	}
	if err := m.loadFile(path); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors replace files on save, which drops
	// per-file watches.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	m.watcher = w
	go m.watch(path)
	return m, nil
}

func (m *Manager) System() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.system
}

func (m *Manager) Close() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Close()
}

func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		logger.Warnf("prompt template %s is empty, keeping previous", path)
		return nil
	}
	m.mu.Lock()
	m.system = text
	m.mu.Unlock()
	return nil
}

func (m *Manager) watch(path string) {
	target := filepath.Clean(path)
	for {
		select {
		case evt, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := m.loadFile(path); err != nil {
				logger.Warnf("prompt template reload failed: %v", err)
				continue
			}
			logger.Infof("prompt template reloaded from %s", path)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("prompt watcher: %v", err)
		}
	}
}
