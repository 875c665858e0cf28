package services

import (
	"fmt"

	"github.com/Acterion/forum-helper/internal/study"
)

// Sequencer walks one submission's counterbalanced case order: the
// fixed permutation row for its sequence index, validated against the
// live case catalog.
type Sequencer struct {
	caseIDs []string
	pos     int
}

// NewSequencer resolves a sequence index against the static sequence
// table and the case catalog. The permutation must cover the whole
// catalog and reference only known case ids; anything else is a
// configuration error, never a silently truncated case list.
func NewSequencer(sequenceIndex int, catalog []string) (*Sequencer, error) {
	row, ok := study.SequenceRow(sequenceIndex)
	if !ok {
		return nil, fmt.Errorf("%w: sequence index %d outside table (0-%d)", ErrConfig, sequenceIndex, study.SequenceCount-1)
	}
	if len(row) != len(catalog) {
		return nil, fmt.Errorf("%w: sequence row has %d cases, catalog has %d", ErrConfig, len(row), len(catalog))
	}
	known := make(map[string]bool, len(catalog))
	for _, id := range catalog {
		known[id] = true
	}
	for _, id := range row {
		if !known[id] {
			return nil, fmt.Errorf("%w: sequence references unknown case %q", ErrConfig, id)
		}
	}
	return &Sequencer{caseIDs: row}, nil
}

// Current returns the case id at the cursor, or false once the
// sequencer is exhausted.
func (s *Sequencer) Current() (string, bool) {
	if s.pos >= len(s.caseIDs) {
		return "", false
	}
	return s.caseIDs[s.pos], true
}

// Advance moves to the next case. Saturates one past the last case;
// further calls are no-ops.
func (s *Sequencer) Advance() {
	if s.pos < len(s.caseIDs) {
		s.pos++
	}
}

// Progress is the display fraction (position+1)/total, clamped to 1
// once complete. Not load-bearing for control flow.
func (s *Sequencer) Progress() float64 {
	if s.Done() {
		return 1
	}
	return float64(s.pos+1) / float64(len(s.caseIDs))
}

// IsLast reports whether the cursor sits on the final case.
func (s *Sequencer) IsLast() bool {
	return s.pos == len(s.caseIDs)-1
}

// Done reports whether every case has been advanced past.
func (s *Sequencer) Done() bool {
	return s.pos >= len(s.caseIDs)
}

// Position returns the zero-based cursor and the total case count.
func (s *Sequencer) Position() (int, int) {
	return s.pos, len(s.caseIDs)
}

// Order returns the full resolved case order.
func (s *Sequencer) Order() []string {
	out := make([]string, len(s.caseIDs))
	copy(out, s.caseIDs)
	return out
}
