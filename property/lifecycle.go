package property

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jathurchan/guestprop/types"
)

// lifecycleFlags marks properties the platform maintains for the guest to read.
const lifecycleFlags = Transient | ReadOnlyGuest

// PowerOn publishes the host product information.
func (s *service) PowerOn(ctx context.Context) error {
	product := s.config.Product
	for _, kv := range []struct{ name, value string }{
		{PropHostVersion, product.Version},
		{PropHostVersionExt, product.VersionExt},
		{PropHostRevision, product.Revision},
	} {
		if _, err := s.SetProperty(ctx, types.OriginHost, kv.name, kv.value, lifecycleFlags); err != nil {
			return fmt.Errorf("property: publishing %s: %w", kv.name, err)
		}
	}
	s.logger.Infow("Host information published", "version", product.Version, "revision", product.Revision)
	return nil
}

// Resume increments the resume counter.
func (s *service) Resume(ctx context.Context) error {
	return s.incrementCounter(ctx, PropResumeCounter)
}

// Reset increments the reset counter and drops every TransReset property.
func (s *service) Reset(ctx context.Context) error {
	if err := s.incrementCounter(ctx, PropResetCounter); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServiceClosed
	}
	var names []string
	for p := range s.store.matching("") {
		if p.Flags&TransReset != 0 {
			names = append(names, p.Name)
		}
	}
	var completions []completion
	for _, name := range names {
		completions = append(completions, s.removeLocked(name)...)
	}
	s.mu.Unlock()

	runCompletions(completions)
	s.logger.Infow("Guest reset handled", "removedTransient", len(names))
	return nil
}

// incrementCounter reads, increments and writes a counter property in one
// critical section. A missing or unparsable counter restarts at one.
func (s *service) incrementCounter(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServiceClosed
	}
	var count uint64
	if p, ok := s.store.get(name); ok {
		if v, err := strconv.ParseUint(p.Value, 10, 64); err == nil {
			count = v
		}
	}
	_, completions, err := s.setLocked(types.OriginHost, name, strconv.FormatUint(count+1, 10), lifecycleFlags)
	s.mu.Unlock()

	runCompletions(completions)
	if err != nil {
		return fmt.Errorf("property: incrementing %s: %w", name, err)
	}
	return nil
}
