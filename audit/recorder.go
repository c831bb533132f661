package audit

import (
	"context"
	"time"

	"weft/logging"
	"weft/metrics"

	"github.com/google/uuid"
)

// Config configures the async Recorder.
type Config struct {
	// Enabled controls whether records are written at all.
	Enabled bool

	// AsyncBuffer is the size of the channel buffering records between
	// the caller and the background writer goroutine.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds a single record's write to storage.
	// Default: 5s
	WriteTimeout time.Duration

	// RedactAPIKeys replaces a record's APIKey with its redacted form
	// before it is enqueued.
	// Default: true
	RedactAPIKeys bool
}

// DefaultConfig returns the default Recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		AsyncBuffer:   1000,
		WriteTimeout:  5 * time.Second,
		RedactAPIKeys: true,
	}
}

// Recorder asynchronously persists Records to a Storage backend. A
// single background goroutine drains the channel so callers on the
// dispatch hot path never block on a disk write.
type Recorder struct {
	storage Storage
	config  *Config
	metrics *metrics.Collector

	recordChan chan *Record
	done       chan struct{}
	drained    chan struct{}
}

// NewRecorder starts a Recorder backed by storage. collector may be
// nil; when set, write latency and outcome are reported through it.
func NewRecorder(storage Storage, cfg *Config, collector *metrics.Collector) *Recorder {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	r := &Recorder{
		storage:    storage,
		config:     cfg,
		metrics:    collector,
		recordChan: make(chan *Record, cfg.AsyncBuffer),
		done:       make(chan struct{}),
		drained:    make(chan struct{}),
	}

	go r.worker()
	return r
}

// NewRecord builds a Record with a generated ID and RecordedTime set
// to now. API key redaction per Config.RedactAPIKeys is applied by
// Record, not here.
func (r *Recorder) NewRecord() *Record {
	return &Record{
		ID:           uuid.New().String(),
		RecordedTime: time.Now(),
	}
}

// Record enqueues rec for asynchronous writing. It never blocks: if
// the channel is full the record is dropped and reported via the
// metrics collector (if any).
func (r *Recorder) Record(rec *Record) error {
	if !r.config.Enabled {
		return nil
	}

	if r.config.RedactAPIKeys && rec.APIKey != "" {
		rec.APIKey = logging.RedactAPIKey(rec.APIKey)
	}

	select {
	case r.recordChan <- rec:
		return nil
	default:
		if r.metrics != nil {
			r.metrics.RecordAuditWrite(0, true)
		}
		return recorderErr(rec.ID, context.DeadlineExceeded)
	}
}

func (r *Recorder) worker() {
	defer close(r.drained)
	for {
		select {
		case rec := <-r.recordChan:
			r.writeRecord(rec)
		case <-r.done:
			for {
				select {
				case rec := <-r.recordChan:
					r.writeRecord(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := r.storage.Store(ctx, rec)
	duration := time.Since(start)

	if r.metrics != nil {
		r.metrics.RecordAuditWrite(duration, err != nil)
	}
}

// Close signals the background worker to drain the channel and
// stop, blocking until it has.
func (r *Recorder) Close() error {
	close(r.done)
	<-r.drained
	return r.storage.Close()
}
