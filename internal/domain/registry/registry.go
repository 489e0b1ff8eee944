package registry

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/rpchub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/utils"
)

var (
	// ErrDuplicateRegistration is returned when the bucket already holds a record with the same id
	ErrDuplicateRegistration = errors.New("cannot register, already got object with same id")
	// ErrInvalidRecord is returned for records without an api
	ErrInvalidRecord = errors.New("invalid service record")
)

// Singleton-like service types resolve to the first record of their bucket
// when no record carries the requested id.
var fallbackTypes = regexp.MustCompile(`ServiceDiscovery|ServiceConfiguration|Dashboard`)

// Parent is notified after every mutation. It must not block.
type Parent interface {
	SynchronizationStart()
}

// Registry maps service types to the records registered under them
type Registry struct {
	mu      sync.RWMutex
	objects map[string][]*types.ServiceRecord // Protected by mu
	order   []string                          // Bucket creation order, protected by mu
	total   int                               // Protected by mu
	parent  Parent                            // Protected by mu

	hasher  *utils.Hasher
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// New creates an empty registry. Nil arguments fall back to a no-op logger
// and the default (MD5) hasher.
func New(logger *zap.Logger, hasher *utils.Hasher) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = utils.DefaultHasher()
	}
	return &Registry{
		objects: make(map[string][]*types.ServiceRecord),
		hasher:  hasher,
		logger:  logger,
	}
}

// WithParent sets the context notified after mutations
func (r *Registry) WithParent(parent Parent) *Registry {
	r.mu.Lock()
	r.parent = parent
	r.mu.Unlock()
	return r
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// Fingerprint computes the id of a record from its identifying fields
func (r *Registry) Fingerprint(api, displayName, description string) string {
	return r.hasher.HashConcat(api, displayName, description)
}

// RegisterObject adds rec to the bucket for rec.API and returns its id.
// A nil record is ignored. rec.ID is overwritten only when registration succeeds.
func (r *Registry) RegisterObject(rec *types.ServiceRecord) (string, error) {
	if rec == nil {
		return "", nil
	}
	// '@' is reserved by the RPC method syntax, so such an api would be unreachable
	if err := utils.ValidateAPI(rec.API); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	id := r.Fingerprint(rec.API, rec.DisplayName, rec.Description)

	r.mu.Lock()
	bucket := r.objects[rec.API]
	for _, existing := range bucket {
		if existing.ID == id {
			r.mu.Unlock()
			r.logger.Warn("Duplicate registration rejected",
				zap.String("api", rec.API),
				zap.String("id", id),
			)
			if r.metrics != nil {
				r.metrics.RecordRegistration("duplicate")
			}
			return "", fmt.Errorf("%w: api=%s id=%s", ErrDuplicateRegistration, rec.API, id)
		}
	}

	rec.ID = id
	if len(bucket) == 0 {
		r.order = append(r.order, rec.API)
	}
	r.objects[rec.API] = append(bucket, rec)
	r.total++
	total := r.total
	parent := r.parent
	r.mu.Unlock()

	r.logger.Debug("Adding service", zap.String("api", rec.API), zap.String("id", id))
	if r.metrics != nil {
		r.metrics.RecordRegistration("ok")
		r.metrics.SetRegistryRecords(total)
	}

	r.notify(parent)
	return id, nil
}

// UnregisterObject removes every record in rec.API's bucket whose id equals rec.ID.
// Unknown records are not an error. The parent is notified for any non-nil input.
func (r *Registry) UnregisterObject(rec *types.ServiceRecord) {
	if rec == nil {
		return
	}

	r.mu.Lock()
	bucket := r.objects[rec.API]
	kept := make([]*types.ServiceRecord, 0, len(bucket))
	for _, existing := range bucket {
		if existing.ID != rec.ID {
			kept = append(kept, existing)
		}
	}

	if len(kept) > 0 {
		r.objects[rec.API] = kept
	} else if _, ok := r.objects[rec.API]; ok {
		delete(r.objects, rec.API)
		r.removeOrder(rec.API)
	}
	removed := len(bucket) - len(kept)
	r.total -= removed
	total := r.total
	parent := r.parent
	r.mu.Unlock()

	r.logger.Debug("Removing service", zap.String("api", rec.API), zap.String("id", rec.ID))
	if r.metrics != nil && removed > 0 {
		r.metrics.RecordUnregistration()
		r.metrics.SetRegistryRecords(total)
	}

	r.notify(parent)
}

// removeOrder drops api from the bucket order (must hold lock)
func (r *Registry) removeOrder(api string) {
	for i, name := range r.order {
		if name == api {
			r.order = slices.Delete(r.order, i, i+1)
			return
		}
	}
}

// RegisteredObjectsMap returns a shallow copy of the api -> records mapping.
// Slices are fresh, so later registrations never show up in a returned
// snapshot; the records themselves are shared.
func (r *Registry) RegisteredObjectsMap() map[string][]*types.ServiceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string][]*types.ServiceRecord, len(r.objects))
	for api, bucket := range r.objects {
		snapshot[api] = append([]*types.ServiceRecord(nil), bucket...)
	}
	return snapshot
}

// Records returns every record in bucket order, then insertion order
func (r *Registry) Records() []*types.ServiceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*types.ServiceRecord, 0, r.total)
	for _, api := range r.order {
		records = append(records, r.objects[api]...)
	}
	return records
}

// APIs returns the service types with at least one record, in creation order
func (r *Registry) APIs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered records
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// ServiceWithTypeAndID resolves a record by service type and id.
// ServiceDiscovery, ServiceConfiguration and Dashboard types fall back to the
// first record of their bucket when the id is unknown.
func (r *Registry) ServiceWithTypeAndID(serviceType, serviceID string) (*types.ServiceRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.objects[serviceType]
	for _, rec := range bucket {
		if rec.ID == serviceID {
			return rec, true
		}
	}

	if len(bucket) > 0 && fallbackTypes.MatchString(serviceType) {
		return bucket[0], true
	}
	return nil, false
}

type boundListener struct {
	api      string
	id       string
	listener types.Listener
}

// On attaches a listener to rec under the registry lock. Use it instead of
// rec.On once rec has been registered.
func (r *Registry) On(rec *types.ServiceRecord, name string, l types.Listener) {
	if rec == nil || l == nil {
		return
	}
	r.mu.Lock()
	rec.On(name, l)
	r.mu.Unlock()
}

// EmitEvent delivers event to every listener registered for event.Name,
// bucket by bucket in insertion order. Listeners run outside the lock; a
// listener that fails or panics is logged and skipped.
func (r *Registry) EmitEvent(event types.Event) {
	r.mu.RLock()
	var pending []boundListener
	for _, api := range r.order {
		for _, rec := range r.objects[api] {
			for _, l := range rec.Listeners[event.Name] {
				pending = append(pending, boundListener{api: api, id: rec.ID, listener: l})
			}
		}
	}
	r.mu.RUnlock()

	if r.metrics != nil {
		r.metrics.RecordEvent(event.Name)
	}

	for _, b := range pending {
		r.invoke(event, b)
	}
}

func (r *Registry) invoke(event types.Event, b boundListener) {
	outcome := "ok"
	defer func() {
		if p := recover(); p != nil {
			outcome = "panic"
			r.logger.Error("Service event listener panicked",
				zap.String("event", event.Name),
				zap.String("api", b.api),
				zap.String("id", b.id),
				zap.Any("panic", p),
			)
		}
		if r.metrics != nil {
			r.metrics.RecordListener(event.Name, outcome)
		}
	}()

	if err := b.listener(event); err != nil {
		outcome = "error"
		r.logger.Error("Service event listener error",
			zap.String("event", event.Name),
			zap.String("api", b.api),
			zap.String("id", b.id),
			zap.Error(err),
		)
	}
}

// notify fires the parent hook without waiting for it
func (r *Registry) notify(parent Parent) {
	if parent == nil {
		return
	}
	go func() {
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("Parent synchronization panicked", zap.Any("panic", p))
			}
		}()
		parent.SynchronizationStart()
	}()
}
