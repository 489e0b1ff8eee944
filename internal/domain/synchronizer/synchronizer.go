package synchronizer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/rpchub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/types"
)

// MessageType is the WSMessage/SyncMessage type for snapshot pushes
const MessageType = "sync"

// Source supplies the records to publish
type Source interface {
	Records() []*types.ServiceRecord
}

// Sink receives registry snapshots. Push must not block for long.
type Sink interface {
	Push(msg types.SyncMessage) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(msg types.SyncMessage) error

// Push calls f(msg)
func (f SinkFunc) Push(msg types.SyncMessage) error { return f(msg) }

// subscriber pairs a sink with the breaker that stops pushes to it after
// repeated failures
type subscriber struct {
	sink    Sink
	breaker *resilience.Breaker
}

// Synchronizer publishes registry snapshots after mutations. It implements
// the registry's parent hook: SynchronizationStart only raises a flag, the
// snapshot is built and pushed by Run.
type Synchronizer struct {
	source  Source
	limiter *rate.Limiter
	signal  chan struct{}
	seq     atomic.Uint64

	breaker resilience.Settings

	mu    sync.RWMutex
	sinks map[id.SubscriptionID]*subscriber // Protected by mu

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// New creates a synchronizer pushing at most pushesPerSecond snapshots.
// A non-positive rate disables throttling.
func New(source Source, pushesPerSecond float64, burst int, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Limit(pushesPerSecond)
	if pushesPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Synchronizer{
		source:  source,
		limiter: rate.NewLimiter(limit, burst),
		signal:  make(chan struct{}, 1),
		breaker: resilience.DefaultSettings(),
		sinks:   make(map[id.SubscriptionID]*subscriber),
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking to the synchronizer
func (s *Synchronizer) WithMetrics(metrics *monitoring.Metrics) *Synchronizer {
	s.metrics = metrics
	return s
}

// WithBreaker sets the circuit breaker settings for sinks subscribed later
func (s *Synchronizer) WithBreaker(settings resilience.Settings) *Synchronizer {
	s.breaker = settings
	return s
}

// SynchronizationStart schedules a snapshot push. It never blocks; requests
// arriving while one is pending are merged into it.
func (s *Synchronizer) SynchronizationStart() {
	select {
	case s.signal <- struct{}{}:
	default:
		if s.metrics != nil {
			s.metrics.IncSyncCoalesced()
		}
	}
}

// Subscribe registers sink and sends it the current snapshot
func (s *Synchronizer) Subscribe(sink Sink) id.SubscriptionID {
	subID := id.NewSubscriptionID()

	settings := s.breaker
	settings.OnStateChange = func(name string, from, to resilience.State) {
		s.logger.Warn("Sync sink circuit changed",
			zap.String("subscription", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	sub := &subscriber{sink: sink, breaker: resilience.New(subID.String(), settings)}

	s.mu.Lock()
	s.sinks[subID] = sub
	count := len(s.sinks)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetSyncSinks(count)
	}
	s.logger.Debug("Sync sink subscribed", zap.String("subscription", subID.String()))

	s.push(subID, sub, s.Snapshot())
	return subID
}

// Unsubscribe removes a sink; unknown ids are ignored
func (s *Synchronizer) Unsubscribe(subID id.SubscriptionID) {
	s.mu.Lock()
	delete(s.sinks, subID)
	count := len(s.sinks)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetSyncSinks(count)
	}
}

// Snapshot builds a message from the current registry contents
func (s *Synchronizer) Snapshot() types.SyncMessage {
	records := s.source.Records()
	summaries := make([]types.ServiceSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, rec.Summary())
	}
	return types.SyncMessage{
		Type:     MessageType,
		Sequence: s.seq.Load(),
		Services: summaries,
	}
}

// Flush pushes a fresh snapshot to every sink immediately
func (s *Synchronizer) Flush() {
	msg := s.Snapshot()
	msg.Sequence = s.seq.Add(1)
	if s.metrics != nil {
		s.metrics.SetSyncSequence(msg.Sequence)
	}

	s.mu.RLock()
	subs := make(map[id.SubscriptionID]*subscriber, len(s.sinks))
	for subID, sub := range s.sinks {
		subs[subID] = sub
	}
	s.mu.RUnlock()

	for subID, sub := range subs {
		s.push(subID, sub, msg)
	}
}

func (s *Synchronizer) push(subID id.SubscriptionID, sub *subscriber, msg types.SyncMessage) {
	outcome := "ok"
	defer func() {
		if p := recover(); p != nil {
			outcome = "error"
			s.logger.Error("Sync sink panicked",
				zap.String("subscription", subID.String()),
				zap.Any("panic", p),
			)
		}
		if s.metrics != nil {
			s.metrics.RecordSyncPush(outcome)
		}
	}()

	err := sub.breaker.Do(func() error { return sub.sink.Push(msg) })
	if errors.Is(err, resilience.ErrCircuitOpen) {
		outcome = "skipped"
		return
	}
	if err != nil {
		outcome = "error"
		s.logger.Warn("Sync push failed",
			zap.String("subscription", subID.String()),
			zap.Uint64("sequence", msg.Sequence),
			zap.Error(err),
		)
	}
}

// Run pushes a snapshot for each pending synchronization request until ctx
// is done. It returns nil on cancellation.
func (s *Synchronizer) Run(ctx context.Context) error {
	s.logger.Info("Registry synchronizer started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Registry synchronizer stopped")
			return nil
		case <-s.signal:
			if err := s.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					s.logger.Info("Registry synchronizer stopped")
					return nil
				}
				return err
			}
			s.Flush()
		}
	}
}
