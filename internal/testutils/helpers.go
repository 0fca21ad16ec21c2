// Package testutils holds helpers shared by tests across packages.
package testutils

import (
	"time"

	"github.com/aretw0/qx32/pkg/sequencer"
	"github.com/aretw0/qx32/pkg/session"
)

// FastSessionOptions compresses a session for tests: the run lasts d, nothing
// glitches, the answer is revealed at once and runs never fault.
func FastSessionOptions(d time.Duration) []session.Option {
	return []session.Option{
		session.WithSequencer(
			sequencer.WithDuration(d),
			sequencer.WithGlitch(sequencer.GlitchConfig{}),
		),
		session.WithRevealDelay(0),
		session.WithFailureRate(0),
		session.WithIdleTTL(0),
	}
}
