package oracle

import (
	"math/rand/v2"

	"github.com/aretw0/qx32/pkg/domain"
)

// Fault is a flavor error reported instead of a verdict.
type Fault struct {
	Code    string `yaml:"code" json:"code"`
	Message string `yaml:"message" json:"message"`
}

// Catalog is the list of faults a failing session picks from.
type Catalog []Fault

// DefaultCatalog is the built-in fault list.
var DefaultCatalog = Catalog{
	{Code: "QX-0042", Message: "Qubit lattice decoherence exceeded tolerance"},
	{Code: "QX-0404", Message: "Answer collapsed before observation"},
	{Code: "QX-0451", Message: "Thermal core above 2.4K, computation melted"},
	{Code: "QX-0503", Message: "Deep space relay unreachable: solar flare interference"},
	{Code: "QX-0666", Message: "Alien neural mesh declined to negotiate"},
	{Code: "QX-1337", Message: "NASA firewall flagged the query as suspicious"},
	{Code: "QX-9000", Message: "Simulation integrity fault: reality buffer overflow"},
}

// Pick selects one fault uniformly at random and wraps it as an ERROR result.
// An empty catalog falls back to DefaultCatalog.
func (c Catalog) Pick(rng *rand.Rand) domain.Result {
	faults := c
	if len(faults) == 0 {
		faults = DefaultCatalog
	}
	f := faults[rng.IntN(len(faults))]
	return domain.Result{
		Kind:    domain.ResultError,
		Code:    f.Code,
		Message: f.Message,
	}
}
