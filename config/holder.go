package config

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reoring/confdoc"
)

// Holder provides thread-safe access to the current configuration document
// with hot reload support.
type Holder struct {
	mu         sync.RWMutex
	doc        *confdoc.Document
	generation uuid.UUID
	loader     Loader
	path       string
	logger     zerolog.Logger
	watcher    *fsnotify.Watcher
	onChange   []func(*confdoc.Document)
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewHolder loads the initial configuration from path. An empty path holds
// the defaults and cannot be watched.
func NewHolder(ctx context.Context, loader Loader, path string, logger zerolog.Logger) (*Holder, error) {
	doc, err := loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if path != "" {
		path, err = filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("absolute path: %w", err)
		}
	}

	h := &Holder{
		doc:        doc,
		generation: uuid.New(),
		loader:     loader,
		path:       path,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
	return h, nil
}

// Get returns the current configuration (thread-safe).
func (h *Holder) Get() *confdoc.Document {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.doc
}

// Generation identifies the current document. It changes on every
// successful reload.
func (h *Holder) Generation() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.generation.String()
}

// SetLogger replaces the logger. Call it before WatchFile or WatchSignals.
func (h *Holder) SetLogger(logger zerolog.Logger) { h.logger = logger }

// Path returns the absolute path of the configuration file, or "".
func (h *Holder) Path() string { return h.path }

// Reload reloads the configuration from disk.
// Returns error if loading fails (keeps old config).
func (h *Holder) Reload(ctx context.Context) error {
	h.logger.Info().Str("path", h.path).Msg("reloading configuration")

	newDoc, err := h.loader.Load(ctx, h.path)
	if h.loader.Recorder != nil {
		h.loader.Recorder.ObserveReload(err)
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping old config")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	oldDoc := h.doc
	h.doc = newDoc
	h.generation = uuid.New()
	gen := h.generation.String()
	listeners := append([]func(*confdoc.Document){}, h.onChange...)
	h.mu.Unlock()

	h.logChanges(oldDoc, newDoc)

	for _, fn := range listeners {
		fn(newDoc)
	}

	h.logger.Info().Str("generation", gen).Msg("configuration reloaded successfully")
	return nil
}

// OnChange registers a callback to be called when config changes.
func (h *Holder) OnChange(fn func(*confdoc.Document)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// WatchFile starts watching the config file for changes.
// Changes trigger automatic reload.
func (h *Holder) WatchFile() error {
	if h.path == "" {
		return fmt.Errorf("watch config: no file to watch")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	// Watch the directory so atomic saves (rename over the file) are seen.
	dir := filepath.Dir(h.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go h.watchLoop()

	h.logger.Info().Str("path", h.path).Msg("watching config file for changes")
	return nil
}

// WatchSignals starts listening for SIGHUP to trigger reload.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading config")
				if err := h.Reload(context.Background()); err != nil {
					h.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-h.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()

	h.logger.Info().Msg("listening for SIGHUP to reload config")
}

// Stop stops watching for file changes and signals. It is safe to call more
// than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) watchLoop() {
	filename := filepath.Base(h.path)

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filename {
				continue
			}

			// atomic save = create
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				h.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("config file changed")

				if err := h.Reload(context.Background()); err != nil {
					h.logger.Error().Err(err).Msg("file watch reload failed")
				}
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}

// logChanges logs every top-level field whose value changed.
func (h *Holder) logChanges(old, new *confdoc.Document) {
	if oldLevel, newLevel := levelOf(old), levelOf(new); oldLevel != newLevel {
		h.logger.Info().
			Str("old", oldLevel).
			Str("new", newLevel).
			Msg("log level changed")
	}
	for _, name := range new.Fields() {
		ov, _ := old.Value(name)
		nv, _ := new.Value(name)
		if !ov.Equal(nv) {
			h.logger.Info().Str("field", name).Msg("configuration field changed")
		}
	}
	if nonReloadableChanged(old, new) {
		h.logger.Warn().Strs("fields", NonReloadableFields()).Msg("listener settings changed; restart to apply")
	}
}

func levelOf(doc *confdoc.Document) string {
	s, _ := doc.String("logging.level")
	return s
}

func nonReloadableChanged(old, new *confdoc.Document) bool {
	for _, p := range NonReloadableFields() {
		ov, _ := old.Get(p)
		nv, _ := new.Get(p)
		if !ov.Equal(nv) {
			return true
		}
	}
	return false
}

// NonReloadableFields returns which fields require a restart.
func NonReloadableFields() []string {
	return []string{
		"http.host",
		"http.port",
		"http.adminPort",
	}
}
