package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/onhs/olms/internal/api/metrics"
	"github.com/onhs/olms/internal/core/domain"
	"github.com/onhs/olms/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Dispatcher persists audit events on a fixed set of workers. Events are
// sharded by actor so one user's events are written in submission order.
type Dispatcher struct {
	workers []chan *domain.AuditEvent
	repo    ports.AuditRepository
	log     zerolog.Logger

	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
	overflow sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan *domain.AuditEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan *domain.AuditEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit once Close has been
// called and their channel is drained.
func (d *Dispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Submit hands event to its worker without blocking. When the worker
// channel is full the event is written on its own goroutine instead. After
// Close the event is written synchronously on the caller's goroutine.
func (d *Dispatcher) Submit(event *domain.AuditEvent) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		d.persist(event, -1)
		return
	}
	defer d.mu.RUnlock()

	idx := d.shardIndex(event)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.AuditEventsTotal.WithLabelValues("overflow").Inc()
		d.overflow.Add(1)
		go d.persistDetached(event)
	}
}

// Close stops accepting queued events and waits until every pending event
// has been written or ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		d.overflow.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps the event actor deterministically to a worker index.
func (d *Dispatcher) shardIndex(event *domain.AuditEvent) int {
	key := "anonymous"
	if event.User != nil && event.User.ID != "" {
		key = event.User.ID
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch <-chan *domain.AuditEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for event := range ch {
		metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
		d.persist(event, id)
	}
}

func (d *Dispatcher) persistDetached(event *domain.AuditEvent) {
	defer d.overflow.Done()
	d.persist(event, -1)
}

func (d *Dispatcher) persist(event *domain.AuditEvent, workerID int) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	start := time.Now()
	err := d.repo.Record(ctx, event)
	metrics.AuditPersistDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AuditEventsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("action", event.Action).
			Int("status_code", event.StatusCode).
			Int("worker_id", workerID).
			Msg("audit event persistence failed")
		return
	}
	metrics.AuditEventsTotal.WithLabelValues("persisted").Inc()
}
