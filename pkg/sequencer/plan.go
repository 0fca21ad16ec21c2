package sequencer

import (
	"math/rand/v2"
	"sort"

	"github.com/aretw0/qx32/pkg/domain"
)

// Plan is the immutable description of one run.
type Plan struct {
	Lines   []string
	failing map[int]bool
}

// Status returns the status line i will be committed with.
func (p Plan) Status(i int) domain.StepStatus {
	if p.failing[i] {
		return domain.StepFail
	}
	return domain.StepOK
}

// Failing returns the indices that will report FAIL, in ascending order.
func (p Plan) Failing() []int {
	out := make([]int, 0, len(p.failing))
	for i := range p.failing {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// PickFailures chooses which of n steps report FAIL in a failing run.
// Only interior steps are eligible. The subset size is uniform in [2, max(2, n/3)],
// capped by the number of interior steps.
func PickFailures(rng *rand.Rand, n int) map[int]bool {
	failing := make(map[int]bool)
	interior := n - 2
	if interior <= 0 {
		return failing
	}

	hi := max(2, n/3)
	k := min(2+rng.IntN(hi-1), interior)

	for _, idx := range rng.Perm(interior)[:k] {
		failing[idx+1] = true
	}
	return failing
}
