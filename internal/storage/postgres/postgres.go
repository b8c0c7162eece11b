// Package postgres implements the storage.Backend interface using GORM/PostgreSQL
// with an internal queue and a background DB writer goroutine.
package postgres

import (
	"fmt"
	"sync"
	"time"

	"github.com/OCAP2/extractor/internal/database"
	"github.com/OCAP2/extractor/internal/queue"
	gormstorage "github.com/OCAP2/extractor/internal/storage/gorm"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	defaultFlushInterval = 2 * time.Second
	defaultMaxAttempts   = 3
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	// DB is used as is when set; otherwise Init connects with DSN.
	DB            *gorm.DB
	DSN           string
	Logger        zerolog.Logger
	FlushInterval time.Duration
	MaxAttempts   int
}

// Backend implements storage.Backend with queued writes. Store returns as
// soon as the extraction is queued; Close waits for the queue to drain.
type Backend struct {
	deps    Dependencies
	manager *database.Manager // set when the backend owns the connection
	store   *gormstorage.Backend
	queue   *queue.Queue[*core.Extraction]

	mu       sync.Mutex
	attempts int
	dropped  int
	closed   bool

	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new Postgres storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	if deps.MaxAttempts <= 0 {
		deps.MaxAttempts = defaultMaxAttempts
	}
	return &Backend{deps: deps}
}

// Init connects if needed, runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		m := database.NewManager(b.deps.Logger)
		if err := m.ConnectPostgres(b.deps.DSN); err != nil {
			return err
		}
		b.manager = m
		b.deps.DB = m.DB
	}

	b.store = gormstorage.New(b.deps.DB, b.deps.Logger)
	if err := b.store.Init(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.queue = queue.New[*core.Extraction]()
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.startDBWriter()
	return nil
}

// Store queues the extraction for the writer.
func (b *Backend) Store(e *core.Extraction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.queue == nil {
		return fmt.Errorf("postgres backend not initialized")
	}
	if b.closed {
		return fmt.Errorf("postgres backend closed")
	}
	b.queue.Push(e)
	return nil
}

// Pending returns how many extractions wait for the writer.
func (b *Backend) Pending() int {
	if b.queue == nil {
		return 0
	}
	return b.queue.Len()
}

// Close stops the writer, writes whatever is still queued and releases
// the connection if Init opened it.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed || b.queue == nil {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.stopChan)
	<-b.done

	// each failed round counts towards a drop, so this ends
	for !b.queue.Empty() {
		b.flush()
	}

	var err error
	if n := b.queue.Len(); n > 0 {
		err = fmt.Errorf("%d extractions not written", n)
	}
	b.mu.Lock()
	if b.dropped > 0 && err == nil {
		err = fmt.Errorf("%d extractions dropped after failed writes", b.dropped)
	}
	b.mu.Unlock()

	if b.manager != nil {
		if cerr := b.manager.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// flush writes queued extractions in order. A failed write puts the rest
// back and reports false; an extraction failing MaxAttempts times in a row
// is dropped.
func (b *Backend) flush() bool {
	items := b.queue.GetAndEmpty()
	for i, e := range items {
		if err := b.store.Store(e); err != nil {
			b.mu.Lock()
			b.attempts++
			give := b.attempts >= b.deps.MaxAttempts
			if give {
				b.attempts = 0
				b.dropped++
			}
			b.mu.Unlock()

			if give {
				b.deps.Logger.Error().Err(err).Str("source", e.Source).Msg("Dropping extraction after repeated write failures")
				b.queue.Requeue(items[i+1:]...)
			} else {
				b.deps.Logger.Warn().Err(err).Str("source", e.Source).Msg("Write failed, requeued")
				b.queue.Requeue(items[i:]...)
			}
			return false
		}
		b.mu.Lock()
		b.attempts = 0
		b.mu.Unlock()
	}
	if len(items) > 0 {
		b.deps.Logger.Debug().Int("count", len(items)).Msg("Flushed extractions")
	}
	return true
}

// startDBWriter drains the queue on every push and on each tick. After a
// failed write only the ticker triggers the next attempt, so retries are
// spaced FlushInterval apart.
func (b *Backend) startDBWriter() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	backoff := false
	for {
		select {
		case <-b.stopChan:
			return
		case <-b.queue.Ready():
			if backoff {
				continue
			}
		case <-ticker.C:
		}
		if b.queue.Empty() {
			backoff = false
			continue
		}
		backoff = !b.flush()
	}
}
