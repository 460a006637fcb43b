// Package service provides the score service behind the HTTP API.
//
// The service owns the availability latch. It starts uninitialized, becomes
// available once a storage backend opens, and drops to degraded on the first
// storage failure. Degraded is permanent for the life of the process: every
// later submission gets an offline result and every leaderboard read is empty.
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/hiscore/internal/adapters/repository"
	"github.com/okian/hiscore/internal/domain/dedupe"
	"github.com/okian/hiscore/internal/domain/model"
	"github.com/okian/hiscore/internal/domain/ranking"
	"github.com/okian/hiscore/pkg/logger"
	"github.com/okian/hiscore/pkg/metrics"
)

// ErrDuplicateSubmission rejects a submission that repeats a recent one. It is
// the only error Submit returns.
var ErrDuplicateSubmission = errors.New("duplicate score submission")

// Offline messages returned instead of errors.
const (
	MessageOffline    = "Game in offline mode. Scores not saved."
	MessageSaveFailed = "Failed to save score. Game now in offline mode."
)

const (
	defaultStorageTimeout = 5 * time.Second
	noBackend             = "none"
)

// State is the availability latch.
type State int32

const (
	StateUninitialized State = iota
	StateAvailable
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateAvailable:
		return "available"
	case StateDegraded:
		return "degraded"
	default:
		return "uninitialized"
	}
}

// Opener establishes the storage backend during Initialize.
type Opener func(ctx context.Context) (repository.Backend, error)

// RepositoryOpener opens the backend described by settings.
func RepositoryOpener(settings repository.Settings, opts ...repository.Option) Opener {
	return func(ctx context.Context) (repository.Backend, error) {
		return repository.Open(ctx, settings, opts...)
	}
}

// Service implements the API dependencies for the high-score board.
type Service struct {
	state atomic.Int32

	// Set by Initialize, read-only afterwards.
	backend repository.Backend
	deduper dedupe.Deduper

	opener         Opener
	window         time.Duration
	storageTimeout time.Duration
	now            func() time.Time

	mu            sync.Mutex
	initialized   bool
	stopped       bool
	degradedAt    time.Time
	degradedCause string

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOpener sets how Initialize obtains the backend.
func WithOpener(o Opener) Option {
	return func(s *Service) {
		if o != nil {
			s.opener = o
		}
	}
}

// WithBackend uses an already opened backend.
func WithBackend(b repository.Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.opener = func(context.Context) (repository.Backend, error) { return b, nil }
		}
	}
}

// WithDuplicateWindow sets the duplicate lookback.
func WithDuplicateWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithStorageTimeout bounds every storage call.
func WithStorageTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storageTimeout = d
		}
	}
}

// WithClock replaces time.Now for the duplicate window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service. It stays uninitialized, and therefore offline,
// until Initialize is called.
func New(opts ...Option) *Service {
	s := &Service{
		window:         dedupe.DefaultWindow,
		storageTimeout: defaultStorageTimeout,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		s.logger = logger.Named("score_service")
	}
	return s.logger
}

// Initialize opens the storage backend. Failure is logged and leaves the
// service degraded; it is never returned. Calling it again is a no-op.
func (s *Service) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return
	}
	s.initialized = true
	log := s.log()

	if s.opener == nil {
		s.degradeLocked(ctx, repository.OpOpen, noBackend, repository.ErrNotConfigured)
		return
	}

	openCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	start := time.Now()
	backend, err := s.opener(openCtx)
	if err != nil {
		s.degradeLocked(ctx, repository.OpOpen, backendOf(err), err)
		return
	}
	metrics.RecordStorageLatency(backend.Name(), repository.OpOpen, msSince(start))

	s.backend = backend
	s.deduper = dedupe.NewWindowDeduper(backend,
		dedupe.WithWindow(s.window),
		dedupe.WithClock(s.now),
	)
	s.state.Store(int32(StateAvailable))
	metrics.SetStorageAvailable(true)

	log.Info(ctx, "score storage available",
		logger.String("backend", backend.Name()),
		logger.Duration("duplicateWindow", s.window),
		logger.Duration("storageTimeout", s.storageTimeout),
	)
}

// State reports the current availability.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Available reports whether storage is in use.
func (s *Service) Available() bool {
	return s.State() == StateAvailable
}

// Backend names the active backend, or "none" before a backend opened.
func (s *Service) Backend() string {
	if s.backend == nil {
		return noBackend
	}
	return s.backend.Name()
}

// Submit normalizes and stores one score.
//
// While degraded it returns an offline result with MessageOffline. A storage
// failure during the call degrades the service and returns an offline result
// with MessageSaveFailed. A repeat of a recent submission returns
// ErrDuplicateSubmission and writes nothing.
func (s *Service) Submit(ctx context.Context, sub model.Submission) (model.Result, error) {
	if !s.Available() {
		metrics.RecordSubmission(metrics.OutcomeOffline)
		return offline(MessageOffline), nil
	}

	score := sub.Normalize()

	var dup bool
	err := s.call(ctx, repository.OpQueryRecent, func(ctx context.Context) error {
		var err error
		dup, err = s.deduper.Duplicate(ctx, score)
		return err
	})
	if err != nil {
		metrics.RecordSubmission(metrics.OutcomeOffline)
		return offline(MessageSaveFailed), nil
	}
	if dup {
		metrics.RecordSubmission(metrics.OutcomeDuplicate)
		s.log().Debug(ctx, "duplicate submission rejected",
			logger.String("player", score.PlayerName),
			logger.Int64("score", score.Score),
		)
		return model.Result{}, ErrDuplicateSubmission
	}

	var rec model.ScoreRecord
	err = s.call(ctx, repository.OpAppend, func(ctx context.Context) error {
		var err error
		rec, err = s.backend.Append(ctx, score)
		return err
	})
	if err != nil {
		metrics.RecordSubmission(metrics.OutcomeOffline)
		return offline(MessageSaveFailed), nil
	}

	metrics.RecordSubmission(metrics.OutcomeCreated)
	return model.Result{Record: &rec}, nil
}

// TopN returns the n highest scores, ties in creation order. It never fails:
// while degraded, for n <= 0, or when the read fails it returns an empty slice.
func (s *Service) TopN(ctx context.Context, n int) []model.ScoreRecord {
	if n <= 0 {
		return []model.ScoreRecord{}
	}
	if !s.Available() {
		metrics.RecordLeaderboardRead(false)
		return []model.ScoreRecord{}
	}

	var records []model.ScoreRecord
	err := s.call(ctx, repository.OpListAll, func(ctx context.Context) error {
		var err error
		records, err = s.backend.ListAll(ctx)
		return err
	})
	if err != nil {
		metrics.RecordLeaderboardRead(false)
		return []model.ScoreRecord{}
	}

	metrics.RecordLeaderboardRead(true)
	metrics.UpdateRecordsTotal(len(records))
	return ranking.TopN(records, n)
}

// call runs one storage operation under the storage timeout. Any error,
// cancellation included, degrades the service.
func (s *Service) call(ctx context.Context, op string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	metrics.RecordStorageLatency(s.Backend(), op, msSince(start))

	if err != nil {
		s.degrade(ctx, op, err)
	}
	return err
}

func (s *Service) degrade(ctx context.Context, op string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degradeLocked(ctx, op, s.Backend(), cause)
}

// degradeLocked flips the latch. Only the first transition is logged.
func (s *Service) degradeLocked(ctx context.Context, op, backend string, cause error) {
	metrics.RecordStorageFailure(backend, op)

	prev := State(s.state.Swap(int32(StateDegraded)))
	if prev == StateDegraded {
		s.log().Debug(ctx, "storage failure while degraded",
			logger.String("op", op),
			logger.String("backend", backend),
			logger.Error(cause),
		)
		return
	}

	s.degradedAt = s.now()
	s.degradedCause = cause.Error()
	metrics.SetStorageAvailable(false)
	metrics.RecordDegradedTransition()

	s.log().Error(ctx, "score storage unavailable, switching to offline mode",
		logger.String("op", op),
		logger.String("backend", backend),
		logger.String("previousState", prev.String()),
		logger.Error(cause),
	)
}

// Stop closes the backend. The service reports degraded afterwards.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	s.state.Store(int32(StateDegraded))
	metrics.SetStorageAvailable(false)

	ctx := context.Background()
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.log().Warn(ctx, "closing score storage", logger.Error(err))
		}
	}
	s.log().Info(ctx, "score service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]any{
		"state":           s.State().String(),
		"available":       s.Available(),
		"backend":         s.Backend(),
		"duplicateWindow": s.window.String(),
		"storageTimeout":  s.storageTimeout.String(),
		"stopped":         s.stopped,
	}
	if !s.degradedAt.IsZero() {
		stats["degradedAt"] = model.NewTimestamp(s.degradedAt).String()
		stats["degradedCause"] = s.degradedCause
	}
	return stats
}

func offline(msg string) model.Result {
	return model.Result{Offline: true, Message: msg}
}

func backendOf(err error) string {
	var se *repository.StorageError
	if errors.As(err, &se) && se.Backend != "" {
		return se.Backend
	}
	return noBackend
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
