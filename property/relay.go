package property

import (
	"sync"

	"github.com/jathurchan/guestprop/logger"
)

// relayTask is one self-contained host notification.
type relayTask struct {
	callback     HostCallback
	notification HostNotification
}

// hostRelay delivers host notifications on a single dedicated goroutine so the
// mutation path never waits on the host consumer. Enqueue never blocks.
type hostRelay struct {
	mu         sync.Mutex
	queue      []relayTask
	signal     chan struct{} // wakes the worker; closed on shutdown
	closed     bool
	maxBacklog int // zero means unbounded

	done chan struct{}

	logger  logger.Logger
	metrics Metrics
}

func newHostRelay(maxBacklog int, log logger.Logger, metrics Metrics) *hostRelay {
	r := &hostRelay{
		signal:     make(chan struct{}, 1),
		maxBacklog: maxBacklog,
		done:       make(chan struct{}),
		logger:     log.WithComponent("relay"),
		metrics:    metrics,
	}
	go r.run()
	return r
}

// enqueue hands a task to the worker. It is safe to call while holding the
// service lock.
func (r *hostRelay) enqueue(task relayTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRelayClosed
	}
	if r.maxBacklog > 0 && len(r.queue) >= r.maxBacklog {
		return ErrOutOfMemory
	}
	r.queue = append(r.queue, task)
	r.metrics.ObserveRelayBacklog(len(r.queue))

	select {
	case r.signal <- struct{}{}:
	default:
	}
	return nil
}

func (r *hostRelay) run() {
	defer close(r.done)

	for {
		r.mu.Lock()
		tasks := r.queue
		r.queue = nil
		closed := r.closed
		r.mu.Unlock()

		for _, task := range tasks {
			r.deliver(task)
		}

		if len(tasks) > 0 {
			continue
		}
		if closed {
			return
		}
		<-r.signal
	}
}

func (r *hostRelay) deliver(task relayTask) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorw("Host callback panicked", "name", task.notification.Name, "panic", rec)
		}
	}()
	task.callback.NotifyHost(task.notification)
}

// close stops accepting tasks, lets the worker drain what is queued, and waits
// for it to exit.
func (r *hostRelay) close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.signal)
	}
	r.mu.Unlock()

	<-r.done
}
