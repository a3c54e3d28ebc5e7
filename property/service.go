package property

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jathurchan/guestprop/clock"
	"github.com/jathurchan/guestprop/logger"
	"github.com/jathurchan/guestprop/types"
)

// service provides a concrete implementation of the Service interface.
// A single lock guards the store, the notification log, the waiter registry
// and the policy state so every mutation observes one timestamp order.
type service struct {
	mu sync.RWMutex

	store    *propertyStore
	log      *notificationLog
	waiters  *waiterRegistry
	stamps   *timestampGenerator
	policy   *policyEvaluator
	relay    *hostRelay
	callback HostCallback // Receives every mutation through the relay; nil if none.
	closed   bool

	config  ServiceConfig
	clock   clock.Clock
	logger  logger.Logger
	metrics Metrics
}

// completion is a PendingCall outcome delivered after the lock is released.
type completion struct {
	call PendingCall
	n    *Notification
	err  error
}

func runCompletions(completions []completion) {
	for _, c := range completions {
		c.call.Complete(c.n, c.err)
	}
}

// NewService creates a new property service with the provided options.
func NewService(opts ...ServiceOption) Service {
	config := DefaultServiceConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if config.Clock == nil {
		config.Clock = clock.NewStandardClock()
	}
	if config.Logger == nil {
		config.Logger = logger.NewNoOpLogger()
	}
	if config.Metrics == nil {
		config.Metrics = NewNoOpMetrics()
	}

	svcLogger := config.Logger.WithComponent("property")
	return &service{
		store:    newPropertyStore(config.MaxProperties),
		log:      newNotificationLog(config.MaxNotifications),
		waiters:  newWaiterRegistry(),
		stamps:   newTimestampGenerator(config.Clock),
		policy:   newPolicyEvaluator(config.ReservedPrefixes),
		relay:    newHostRelay(config.MaxRelayBacklog, config.Logger, config.Metrics),
		callback: config.HostCallback,
		config:   config,
		clock:    config.Clock,
		logger:   svcLogger,
		metrics:  config.Metrics,
	}
}

// GetProperty returns a copy of the named property.
func (s *service) GetProperty(ctx context.Context, name string) (Property, error) {
	if err := ctx.Err(); err != nil {
		return Property{}, err
	}
	if err := validateName(name); err != nil {
		s.metrics.IncrOperation(OperationGet, false)
		return Property{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Property{}, ErrServiceClosed
	}
	p, ok := s.store.get(name)
	s.metrics.IncrOperation(OperationGet, ok)
	if !ok {
		return Property{}, ErrNotFound
	}
	return *p, nil
}

// SetProperty creates or updates a property on behalf of origin.
func (s *service) SetProperty(ctx context.Context, origin types.Origin, name, value string, flags Flags) (types.Timestamp, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := validateProperty(name, value, flags); err != nil {
		s.metrics.IncrOperation(OperationSet, false)
		return 0, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrServiceClosed
	}
	ts, completions, err := s.setLocked(origin, name, value, flags)
	s.mu.Unlock()

	runCompletions(completions)
	s.metrics.IncrOperation(OperationSet, err == nil)
	return ts, err
}

func validateProperty(name, value string, flags Flags) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateValue(value); err != nil {
		return err
	}
	return validateFlags(flags)
}

// setLocked applies a write and runs the notification step.
// Caller must hold the write lock.
func (s *service) setLocked(origin types.Origin, name, value string, flags Flags) (types.Timestamp, []completion, error) {
	isGuest := origin.IsGuest()

	current := NilFlag
	if existing, ok := s.store.get(name); ok {
		current = existing.Flags
	}
	if err := s.policy.authorize(name, current, isGuest); err != nil {
		s.recordDenial(err, origin, name)
		return 0, nil, err
	}

	flags = s.policy.effectiveFlags(name, flags, isGuest)
	ts := s.nextTimestampLocked()
	if err := s.store.put(name, value, ts, flags); err != nil {
		s.logger.Debugw("Property store full", "name", name, "max", s.config.MaxProperties)
		return 0, nil, err
	}
	s.metrics.SetPropertyCount(s.store.len())

	ts, completions := s.notifyLocked(name, ts)
	s.logger.Debugw("Property set", "name", name, "origin", origin, "flags", flags, "timestamp", ts)
	return ts, completions, nil
}

// DeleteProperty removes a property on behalf of origin.
func (s *service) DeleteProperty(ctx context.Context, origin types.Origin, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		s.metrics.IncrOperation(OperationDelete, false)
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServiceClosed
	}
	completions, err := s.deleteLocked(origin, name)
	s.mu.Unlock()

	runCompletions(completions)
	s.metrics.IncrOperation(OperationDelete, err == nil)
	return err
}

// deleteLocked removes name if present. Caller must hold the write lock.
func (s *service) deleteLocked(origin types.Origin, name string) ([]completion, error) {
	existing, ok := s.store.get(name)
	if !ok {
		return nil, nil
	}
	if err := s.policy.authorize(name, existing.Flags, origin.IsGuest()); err != nil {
		s.recordDenial(err, origin, name)
		return nil, err
	}
	return s.removeLocked(name), nil
}

// removeLocked deletes name without a permission check and notifies.
// Caller must hold the write lock.
func (s *service) removeLocked(name string) []completion {
	if !s.store.remove(name) {
		return nil
	}
	s.metrics.SetPropertyCount(s.store.len())

	ts, completions := s.notifyLocked(name, s.nextTimestampLocked())
	s.logger.Debugw("Property deleted", "name", name, "timestamp", ts)
	return completions
}

// EnumerateProperties serializes the properties matching patterns.
func (s *service) EnumerateProperties(ctx context.Context, patterns string, bufferSize int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePatterns(patterns); err != nil {
		s.metrics.IncrOperation(OperationEnumerate, false)
		return nil, err
	}
	if bufferSize < 0 {
		s.metrics.IncrOperation(OperationEnumerate, false)
		return nil, invalidParameter("negative buffer size %d", bufferSize)
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrServiceClosed
	}
	var props []Property
	for p := range s.store.matching(patterns) {
		props = append(props, *p)
	}
	s.mu.RUnlock()

	data, err := EncodeEnumeration(props, bufferSize)
	s.metrics.IncrOperation(OperationEnumerate, err == nil)
	return data, err
}

// GetNotification returns a past event or parks the wait.
func (s *service) GetNotification(ctx context.Context, req WaitRequest, call PendingCall) (*Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validateWaitRequest(req, call); err != nil {
		s.metrics.IncrOperation(OperationGetNotification, false)
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrServiceClosed
	}
	n, completions, err := s.getNotificationLocked(req, call)
	s.mu.Unlock()

	runCompletions(completions)
	s.metrics.IncrOperation(OperationGetNotification, err == nil || errors.Is(err, ErrAsyncPending))
	return n, err
}

func (s *service) validateWaitRequest(req WaitRequest, call PendingCall) error {
	if call == nil {
		return invalidParameter("missing completion handle")
	}
	if req.BufferSize < 0 {
		return invalidParameter("negative buffer size %d", req.BufferSize)
	}
	return validatePatterns(req.Patterns)
}

// getNotificationLocked serves a wait from the log or parks it.
// Caller must hold the write lock.
func (s *service) getNotificationLocked(req WaitRequest, call PendingCall) (*Notification, []completion, error) {
	if req.Since != 0 {
		ev, found, anchorLost := s.log.findAfter(req.Since, req.Patterns)
		if found {
			n, err := s.deliverLocked(ev, anchorLost, req.BufferSize)
			return n, nil, err
		}
	}

	now := s.clock.Now()
	var completions []completion
	s.waiters.removeIf(func(w *waiter) bool {
		if w.call.Cancelled() {
			s.recordRelease(w, ReleaseCancelled, now)
			return true
		}
		if w.clientID == req.ClientID && w.patterns == req.Patterns {
			completions = append(completions, completion{call: w.call, err: ErrInterrupted})
			s.recordRelease(w, ReleaseSuperseded, now)
			return true
		}
		return false
	})

	if s.waiters.countFor(req.ClientID) >= s.config.MaxWaitersPerClient {
		s.metrics.SetPendingWaiters(s.waiters.len())
		s.logger.WithClientID(req.ClientID).Warnw("Too many pending waits", "max", s.config.MaxWaitersPerClient)
		return nil, completions, ErrTooManyWaiters
	}

	w := &waiter{
		id:         types.NewCallID(),
		clientID:   req.ClientID,
		patterns:   req.Patterns,
		bufferSize: req.BufferSize,
		call:       call,
		enqueued:   now,
	}
	s.waiters.add(w)
	s.metrics.SetPendingWaiters(s.waiters.len())
	s.logger.WithClientID(w.clientID).Debugw("Notification wait parked", "call", w.id, "patterns", w.patterns)
	return nil, completions, ErrAsyncPending
}

// deliverLocked builds the notification for ev as seen now.
// Caller must hold the lock.
func (s *service) deliverLocked(ev Event, anchorLost bool, bufferSize int) (*Notification, error) {
	_, exists := s.store.get(ev.Name)
	n := &Notification{Event: ev, WasDeleted: !exists, AnchorLost: anchorLost}
	data, err := encodeNotification(ev, n.WasDeleted, bufferSize)
	n.Data = data
	return n, err
}

// notifyLocked records a mutation of name: it releases matching waiters,
// appends the event to the log and relays it to the host. It returns the
// timestamp actually recorded and the completions to run once unlocked.
// Caller must hold the write lock.
func (s *service) notifyLocked(name string, ts types.Timestamp) (types.Timestamp, []completion) {
	ts = s.log.nextTimestamp(ts)
	evicted := s.log.makeRoom()

	ev := Event{Name: name, Timestamp: ts}
	prop, exists := s.store.get(name)
	if exists {
		prop.Timestamp = ts // keep the stored tick equal to the logged one
		ev.Value = prop.Value
		ev.Flags = prop.Flags
	}

	now := s.clock.Now()
	var completions []completion
	s.waiters.removeIf(func(w *waiter) bool {
		if w.call.Cancelled() {
			s.recordRelease(w, ReleaseCancelled, now)
			return true
		}
		// Waits are validated on registration; this catches any that were not.
		if err := validatePatterns(w.patterns); err != nil {
			completions = append(completions, completion{call: w.call, err: err})
			s.recordRelease(w, ReleaseBadPattern, now)
			return true
		}
		if !matchPatterns(w.patterns, name) {
			return false
		}
		n, err := s.deliverLocked(ev, false, w.bufferSize)
		completions = append(completions, completion{call: w.call, n: n, err: err})
		s.recordRelease(w, ReleaseMatched, now)
		return true
	})
	s.metrics.SetPendingWaiters(s.waiters.len())

	s.log.append(ev)
	s.metrics.IncrNotification(evicted)

	if s.callback != nil {
		hn := HostNotification{Name: name, Timestamp: ts, Flags: ev.Flags.String()}
		if exists {
			value := ev.Value
			hn.Value = &value
		}
		if err := s.relay.enqueue(relayTask{callback: s.callback, notification: hn}); err != nil {
			s.metrics.IncrRelayDropped()
			s.logger.Warnw("Host notification dropped", "name", name, "timestamp", ts, "error", err)
		}
	}
	return ts, completions
}

func (s *service) nextTimestampLocked() types.Timestamp {
	ts := s.stamps.now()
	if streak := s.stamps.adjustmentStreak(); streak > 0 {
		s.metrics.ObserveTimestampAdjustment(streak)
	}
	return ts
}

func (s *service) recordRelease(w *waiter, reason ReleaseReason, now time.Time) {
	s.metrics.IncrWaiterReleased(reason, now.Sub(w.enqueued))
	s.logger.WithClientID(w.clientID).Debugw("Notification wait released", "call", w.id, "reason", reason)
}

func (s *service) recordDenial(err error, origin types.Origin, name string) {
	soft := IsWarning(err)
	s.metrics.IncrPermissionDenied(origin.IsGuest(), soft)
	log := s.logger.WithOrigin(origin)
	if soft {
		log.Warnw("Guest write ignored, guest properties are read-only", "name", name)
		return
	}
	log.Debugw("Write denied", "name", name)
}

// DisconnectClient interrupts every parked wait of clientID.
func (s *service) DisconnectClient(clientID types.ClientID) int {
	s.mu.Lock()
	now := s.clock.Now()
	removed := s.waiters.removeIf(func(w *waiter) bool {
		if w.clientID != clientID {
			return false
		}
		s.recordRelease(w, ReleaseDisconnect, now)
		return true
	})
	s.metrics.SetPendingWaiters(s.waiters.len())
	s.mu.Unlock()

	interrupt(removed)
	if len(removed) > 0 {
		s.logger.WithClientID(clientID).Debugw("Client disconnected", "interruptedWaits", len(removed))
	}
	return len(removed)
}

// interrupt completes waiters the transport still cares about with ErrInterrupted.
func interrupt(waiters []*waiter) {
	for _, w := range waiters {
		if !w.call.Cancelled() {
			w.call.Complete(nil, ErrInterrupted)
		}
	}
}

// SetProperties loads a batch of properties on behalf of the host.
func (s *service) SetProperties(ctx context.Context, props []Property) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, p := range props {
		if err := validateProperty(p.Name, p.Value, p.Flags); err != nil {
			s.metrics.IncrOperation(OperationBulkSet, false)
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServiceClosed
	}

	added := make(map[string]struct{})
	for _, p := range props {
		if _, ok := s.store.get(p.Name); !ok {
			added[p.Name] = struct{}{}
		}
	}
	if s.store.len()+len(added) > s.config.MaxProperties {
		s.metrics.IncrOperation(OperationBulkSet, false)
		return ErrTooMuchData
	}

	for _, p := range props {
		ts := p.Timestamp
		if ts == 0 {
			ts = s.nextTimestampLocked()
		}
		flags := s.policy.effectiveFlags(p.Name, p.Flags, false)
		// Capacity was checked for the whole batch above.
		_ = s.store.put(p.Name, p.Value, ts, flags)
	}
	s.metrics.SetPropertyCount(s.store.len())
	s.metrics.IncrOperation(OperationBulkSet, true)
	s.logger.Infow("Properties loaded", "count", len(props), "total", s.store.len())
	return nil
}

// SetGlobalFlags replaces the global flags.
func (s *service) SetGlobalFlags(flags Flags) error {
	if err := validateFlags(flags); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServiceClosed
	}
	s.policy.globalFlags = flags
	s.logger.Infow("Global flags changed", "flags", flags)
	return nil
}

// GlobalFlags returns the current global flags.
func (s *service) GlobalFlags() Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy.globalFlags
}

// RegisterHostCallback installs cb as the host callback.
func (s *service) RegisterHostCallback(cb HostCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callback = cb
	s.logger.Infow("Host callback registered", "enabled", cb != nil)
}

// Close stops the relay and interrupts every parked wait.
func (s *service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	now := s.clock.Now()
	removed := s.waiters.removeIf(func(w *waiter) bool {
		s.recordRelease(w, ReleaseShutdown, now)
		return true
	})
	s.metrics.SetPendingWaiters(0)
	s.mu.Unlock()

	interrupt(removed)
	s.relay.close()
	s.logger.Infow("Property service closed", "interruptedWaits", len(removed))
	return nil
}
