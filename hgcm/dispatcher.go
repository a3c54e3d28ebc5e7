package hgcm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jathurchan/guestprop/clock"
	"github.com/jathurchan/guestprop/logger"
	"github.com/jathurchan/guestprop/property"
	"github.com/jathurchan/guestprop/types"
)

// Dispatcher decodes calls from guest clients and the host, routes them to a
// property.Service and completes them with a status.
type Dispatcher interface {
	// Connect registers a guest client.
	Connect(clientID types.ClientID) error

	// Disconnect unregisters a guest client and interrupts its parked waits.
	Disconnect(clientID types.ClientID)

	// GuestCall handles a guest call. The call is always completed, either
	// before GuestCall returns or later for a parked notification wait.
	GuestCall(ctx context.Context, call Call)

	// HostCall handles a host call synchronously.
	HostCall(ctx context.Context, fn HostFunction, params []Param) error

	// Notify forwards a VM lifecycle event.
	Notify(ctx context.Context, event LifecycleEvent) error

	// RegisterExtension installs the host notification callback.
	RegisterExtension(cb property.HostCallback)

	// Clients exposes the connected-client bookkeeping.
	Clients() ClientManager

	// Close rejects further calls and disconnects every client.
	Close() error
}

type dispatcher struct {
	service   property.Service
	clients   ClientManager
	limiter   RateLimiter
	validator CallValidator
	closed    atomic.Bool

	config  DispatcherConfig
	clock   clock.Clock
	logger  logger.Logger
	metrics DispatcherMetrics
}

func newDispatcher(service property.Service, config DispatcherConfig) *dispatcher {
	log := config.Logger.WithComponent("hgcm")

	var limiter RateLimiter = unlimited{}
	if config.EnableRateLimit {
		limiter = NewTokenBucketRateLimiter(config.RateLimit, config.RateLimitBurst, config.RateLimitWindow, log)
	}

	return &dispatcher{
		service:   service,
		clients:   NewClientManager(config.MaxClients, config.Metrics, config.Logger, config.Clock),
		limiter:   limiter,
		validator: NewCallValidator(log),
		config:    config,
		clock:     config.Clock,
		logger:    log,
		metrics:   config.Metrics,
	}
}

// Connect implements Dispatcher.
func (d *dispatcher) Connect(clientID types.ClientID) error {
	if d.closed.Load() {
		return ErrDispatcherClosed
	}
	if clientID == types.HostClientID {
		return NewValidationError("clientID", clientID, "reserved for the host")
	}
	return d.clients.OnConnect(clientID)
}

// Disconnect implements Dispatcher.
func (d *dispatcher) Disconnect(clientID types.ClientID) {
	known := d.clients.OnDisconnect(clientID)
	interrupted := d.service.DisconnectClient(clientID)
	if known || interrupted > 0 {
		d.logger.WithClientID(clientID).Infow("Guest client disconnected", "interruptedWaits", interrupted)
	}
}

// GuestCall implements Dispatcher.
func (d *dispatcher) GuestCall(ctx context.Context, call Call) {
	start := d.clock.Now()
	fn := call.Function()
	clientID := call.ClientID()
	log := d.logger.WithClientID(clientID).WithOrigin(types.OriginGuest)

	if d.closed.Load() {
		d.finish(log, call, ToStatus(ErrDispatcherClosed), start)
		return
	}
	session, ok := d.clients.OnCall(clientID)
	if !ok {
		d.finish(log, call, ToStatus(ErrUnknownClient), start)
		return
	}
	if ok, retryAfter := d.limiter.Reserve(); !ok {
		d.metrics.IncrRateLimited(clientID)
		log.Debugw("Guest call rate limited", "function", fn, "retryAfter", retryAfter)
		d.finish(log, call, ToStatus(&RateLimitError{RetryAfter: retryAfter}), start)
		return
	}

	params := call.Params()
	if err := d.validator.ValidateGuestCall(fn, params); err != nil {
		d.recordValidationError(fn.String(), err)
		d.finish(log, call, ToStatus(err), start)
		return
	}

	var err error
	switch fn {
	case GuestGetProp:
		err = d.getProp(ctx, params)
	case GuestSetProp:
		err = d.setProp(ctx, types.OriginGuest, params, true)
	case GuestSetPropValue:
		err = d.setProp(ctx, types.OriginGuest, params, false)
	case GuestDelProp:
		err = d.delProp(ctx, types.OriginGuest, params)
	case GuestEnumProps:
		err = d.enumProps(ctx, params)
	case GuestGetNotification:
		if st, pending := d.getNotification(ctx, log, call, session, params); !pending {
			d.finish(log, call, st, start)
		}
		return
	}
	d.finish(log, call, ToStatus(err), start)
}

func (d *dispatcher) finish(log logger.Logger, call Call, st *status.Status, start time.Time) {
	fn := call.Function()
	d.metrics.IncrGuestCall(fn, st.Code().String())
	d.metrics.ObserveCallLatency(fn.String(), d.clock.Since(start))
	if st.Code() != codes.OK {
		log.Debugw("Guest call failed", "function", fn, "code", st.Code(), "message", st.Message())
	}
	call.Complete(st)
}

func (d *dispatcher) recordValidationError(function string, err error) {
	field := "function"
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		field = validationErr.Field
	}
	d.metrics.IncrValidationError(function, field)
}

// HostCall implements Dispatcher.
func (d *dispatcher) HostCall(ctx context.Context, fn HostFunction, params []Param) error {
	if d.closed.Load() {
		return ErrDispatcherClosed
	}
	start := d.clock.Now()
	err := d.hostCall(ctx, fn, params)
	d.metrics.IncrHostCall(fn, err == nil)
	d.metrics.ObserveCallLatency(fn.String(), d.clock.Since(start))
	if err != nil {
		d.logger.WithOrigin(types.OriginHost).Debugw("Host call failed", "function", fn, "error", err)
	}
	return err
}

func (d *dispatcher) hostCall(ctx context.Context, fn HostFunction, params []Param) error {
	if err := d.validator.ValidateHostCall(fn, params); err != nil {
		d.recordValidationError(fn.String(), err)
		return err
	}

	switch fn {
	case HostSetProps:
		raw, _ := params[0].Buffer()
		props, err := property.DecodeEnumeration(raw)
		if err != nil {
			return err
		}
		return d.service.SetProperties(ctx, props)
	case HostGetProp:
		return d.getProp(ctx, params)
	case HostSetProp:
		return d.setProp(ctx, types.OriginHost, params, true)
	case HostSetPropValue:
		return d.setProp(ctx, types.OriginHost, params, false)
	case HostDelProp:
		return d.delProp(ctx, types.OriginHost, params)
	case HostEnumProps:
		return d.enumProps(ctx, params)
	case HostSetGlobalFlags:
		flags, _ := params[0].Uint32()
		return d.service.SetGlobalFlags(property.Flags(flags))
	case HostGetDebugInfo:
		var buf bytes.Buffer
		if err := d.service.Dump(&buf); err != nil {
			return err
		}
		return writeResult(&params[0], &params[1], buf.Bytes())
	}
	return fmt.Errorf("%w: host function %d", ErrUnknownFunction, uint32(fn))
}

// Notify implements Dispatcher.
func (d *dispatcher) Notify(ctx context.Context, event LifecycleEvent) error {
	if d.closed.Load() {
		return ErrDispatcherClosed
	}

	var err error
	switch event {
	case EventPowerOn:
		err = d.service.PowerOn(ctx)
	case EventResume:
		err = d.service.Resume(ctx)
	case EventReset:
		err = d.service.Reset(ctx)
	default:
		return fmt.Errorf("%w: lifecycle event %d", ErrUnknownFunction, int(event))
	}
	if err != nil {
		d.logger.Warnw("Lifecycle event failed", "event", event, "error", err)
		return err
	}
	d.logger.Infow("Lifecycle event handled", "event", event)
	return nil
}

// RegisterExtension implements Dispatcher.
func (d *dispatcher) RegisterExtension(cb property.HostCallback) {
	d.service.RegisterHostCallback(cb)
}

// Clients implements Dispatcher.
func (d *dispatcher) Clients() ClientManager {
	return d.clients
}

// Close implements Dispatcher.
func (d *dispatcher) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	for clientID := range d.clients.AllClientInfo() {
		d.Disconnect(clientID)
	}
	d.logger.Infow("Dispatcher closed")
	return nil
}

func (d *dispatcher) getProp(ctx context.Context, params []Param) error {
	name, _ := params[0].CString()
	p, err := d.service.GetProperty(ctx, name)
	if err != nil {
		return err
	}
	size, _ := params[1].Size()
	data, err := property.EncodeValue(p, size)
	if required, ok := property.RequiredSize(err); ok {
		_ = params[3].SetUint32(uint32(required))
		return err
	}
	if err != nil {
		return err
	}
	_ = params[2].SetUint64(uint64(p.Timestamp))
	return writeResult(&params[1], &params[3], data)
}

func (d *dispatcher) setProp(ctx context.Context, origin types.Origin, params []Param, withFlags bool) error {
	name, _ := params[0].CString()
	value, _ := params[1].CString()

	flags := property.NilFlag
	if withFlags {
		text, _ := params[2].CString()
		parsed, err := property.ParseFlags(text)
		if err != nil {
			return err
		}
		flags = parsed
	}
	_, err := d.service.SetProperty(ctx, origin, name, value, flags)
	return err
}

func (d *dispatcher) delProp(ctx context.Context, origin types.Origin, params []Param) error {
	name, _ := params[0].CString()
	return d.service.DeleteProperty(ctx, origin, name)
}

func (d *dispatcher) enumProps(ctx context.Context, params []Param) error {
	raw, _ := params[0].Buffer()
	size, _ := params[1].Size()
	data, err := d.service.EnumerateProperties(ctx, property.JoinPatterns(string(raw)), size)
	if required, ok := property.RequiredSize(err); ok {
		_ = params[2].SetUint32(uint32(required))
		return err
	}
	if err != nil {
		return err
	}
	return writeResult(&params[1], &params[2], data)
}

// getNotification starts a wait. It returns the status to complete with, or
// pending when the wait was parked and will be completed later.
func (d *dispatcher) getNotification(ctx context.Context, log logger.Logger, call Call, session uint64, params []Param) (*status.Status, bool) {
	raw, _ := params[0].Buffer()
	since, _ := params[1].Uint64()
	size, _ := params[2].Size()

	clientID := call.ClientID()
	req := property.WaitRequest{
		ClientID:   clientID,
		Patterns:   property.JoinPatterns(string(raw)),
		Since:      types.Timestamp(since),
		BufferSize: size,
	}
	deferred := &deferredCall{call: call, metrics: d.metrics, logger: log}
	n, err := d.service.GetNotification(ctx, req, deferred)
	if !errors.Is(err, property.ErrAsyncPending) {
		return notificationStatus(params, n, err), false
	}

	d.metrics.IncrGuestCall(GuestGetNotification, "PENDING")
	// A disconnect that ran between admission and parking found nothing to
	// interrupt. The wait belongs to the old session and is released here.
	if !d.clients.Connected(clientID, session) {
		deferred.interrupt()
		if _, reconnected := d.clients.AllClientInfo()[clientID]; !reconnected {
			d.service.DisconnectClient(clientID)
		}
		log.Debugw("Wait parked after disconnect, interrupted")
	}
	return nil, true
}

// notificationStatus writes the out-parameters of a satisfied wait and builds
// its completion status. On overflow only the required size is written so a
// retry with the same timestamp finds the event again.
func notificationStatus(params []Param, n *property.Notification, err error) *status.Status {
	if required, ok := property.RequiredSize(err); ok {
		_ = params[3].SetUint32(uint32(required))
		return ToStatus(err)
	}
	if err != nil {
		return ToStatus(err)
	}
	if werr := writeResult(&params[2], &params[3], n.Data); werr != nil {
		return ToStatus(werr)
	}
	_ = params[1].SetUint64(uint64(n.Timestamp))
	if n.AnchorLost {
		return status.New(codes.OK, AnchorLostMessage)
	}
	return ToStatus(nil)
}

// writeResult copies data into out and records its length in size, or records
// the required length and fails when it does not fit.
func writeResult(out, size *Param, data []byte) error {
	capacity, _ := out.Size()
	if len(data) > capacity {
		_ = size.SetUint32(uint32(len(data)))
		return &property.BufferOverflowError{Required: len(data)}
	}
	if err := out.Write(data); err != nil {
		return err
	}
	return size.SetUint32(uint32(len(data)))
}

// deferredCall completes a parked notification wait on the transport's call.
type deferredCall struct {
	call    Call
	metrics DispatcherMetrics
	logger  logger.Logger

	once        sync.Once
	interrupted atomic.Bool
}

func (c *deferredCall) Cancelled() bool {
	return c.interrupted.Load() || c.call.Cancelled()
}

func (c *deferredCall) Complete(n *property.Notification, err error) {
	c.once.Do(func() {
		st := notificationStatus(c.call.Params(), n, err)
		c.metrics.IncrDeferredCompletion(st.Code().String())
		c.logger.Debugw("Parked wait completed", "code", st.Code())
		c.call.Complete(st)
	})
}

// interrupt completes the call with ErrInterrupted. The service drops the
// waiter as cancelled on its next pass.
func (c *deferredCall) interrupt() {
	c.interrupted.Store(true)
	c.Complete(nil, property.ErrInterrupted)
}
