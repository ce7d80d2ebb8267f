package dom

import (
	"log/slog"
	"sync"
	"time"
)

// Watcher collapses two redundant discovery triggers into one scan
// source: mutation notifications coalesced under a trailing debounce,
// and a low-frequency interval kept as a safety net.
type Watcher struct {
	doc      *Document
	scan     func()
	interval time.Duration
	debounce time.Duration
	logger   *slog.Logger

	dirty     chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
	unobserve func()
}

func NewWatcher(doc *Document, scan func(), interval, debounce time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		doc:      doc,
		scan:     scan,
		interval: interval,
		debounce: debounce,
		logger:   logger.With(slog.String("component", "watcher")),
		dirty:    make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Start observes the document and begins the scan loop.
func (w *Watcher) Start() {
	w.unobserve = w.doc.Observe(func() {
		select {
		case w.dirty <- struct{}{}:
		default:
		}
	})
	go w.run()
	w.logger.Debug("Watcher started",
		slog.Duration("interval", w.interval),
		slog.Duration("debounce", w.debounce),
	)
}

func (w *Watcher) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var pending *time.Timer
	var pendingC <-chan time.Time
	for {
		select {
		case <-w.stop:
			if pending != nil {
				pending.Stop()
			}
			return
		case <-w.dirty:
			// Trailing debounce: only the last request in a burst runs.
			if pending != nil {
				pending.Stop()
			}
			pending = time.NewTimer(w.debounce)
			pendingC = pending.C
		case <-pendingC:
			pending = nil
			pendingC = nil
			w.scan()
		case <-ticker.C:
			w.scan()
		}
	}
}

// Stop halts observation and the scan loop. Safe to call twice.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		if w.unobserve != nil {
			w.unobserve()
		}
		close(w.stop)
		w.logger.Debug("Watcher stopped")
	})
}
