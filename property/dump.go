package property

import (
	"fmt"
	"io"
)

// Dump writes one line per property in name order, followed by the global
// flags when any are set. The format is for humans, not for parsing.
func (s *service) Dump(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for p := range s.store.matching("") {
		if _, err := fmt.Fprintf(w, "%s=%s, ts=%d, flags=%s\n", p.Name, p.Value, uint64(p.Timestamp), p.Flags); err != nil {
			return err
		}
	}
	if s.policy.globalFlags != NilFlag {
		if _, err := fmt.Fprintf(w, "global flags: %s\n", s.policy.globalFlags); err != nil {
			return err
		}
	}
	return nil
}
