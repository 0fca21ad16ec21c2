// Package script holds the status lines the cluster types out while "computing".
package script

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/aretw0/qx32/pkg/oracle"
	"gopkg.in/yaml.v3"
)

// DefaultTrigger is the substring that unlocks the easter-egg script.
const DefaultTrigger = "antigravity"

// Default is the standard boot sequence.
var Default = []string{
	"Initializing qx32 orbit cluster",
	"Calibrating qubit lattice",
	"Aligning orbital compute channels",
	"Spinning up thermal core",
	"Routing proton stream",
	"Synchronizing anomaly buffer",
	"Contacting deep space relay",
	"Parsing classified data archive",
	"Borrowing power from nearby star",
	"Negotiating with alien neural mesh",
	"Checking NASA firewall integrity",
	"Expanding quantum probability field",
	"Compressing uncertainty states",
	"Finalizing decision protocol",
}

// Antigravity replaces the middle of the default sequence with anomaly lines.
var Antigravity = slices.Concat(
	Default[:8],
	[]string{
		"DETECTED ANTIGRAVITY SIGNATURE",
		"Engaging dark matter propulsion",
		"Bypassing physics constraints",
		"Consulting the void",
	},
	Default[10:],
)

// Set is the collection of scripts and faults a cluster draws from.
type Set struct {
	Trigger   string         `yaml:"trigger" json:"trigger"`
	Default   []string       `yaml:"default" json:"default"`
	EasterEgg []string       `yaml:"easter_egg" json:"easter_egg"`
	Faults    oracle.Catalog `yaml:"errors" json:"errors"`
}

// DefaultSet returns the built-in scripts and fault catalog.
func DefaultSet() Set {
	return Set{
		Trigger:   DefaultTrigger,
		Default:   slices.Clone(Default),
		EasterEgg: slices.Clone(Antigravity),
		Faults:    slices.Clone(oracle.DefaultCatalog),
	}
}

// Select returns the easter-egg script when normalized contains the trigger,
// the default script otherwise. The returned slice is a copy.
func (s Set) Select(normalized string) []string {
	if s.Trigger != "" && strings.Contains(normalized, s.Trigger) {
		return slices.Clone(s.EasterEgg)
	}
	return slices.Clone(s.Default)
}

// LoadFile reads a YAML override. Missing sections keep the built-in values.
func LoadFile(path string) (Set, error) {
	set := DefaultSet()

	data, err := os.ReadFile(path)
	if err != nil {
		return set, fmt.Errorf("failed to read script file: %w", err)
	}

	var override Set
	if err := yaml.Unmarshal(data, &override); err != nil {
		return set, fmt.Errorf("failed to parse script file %s: %w", path, err)
	}

	if override.Trigger != "" {
		set.Trigger = strings.ToLower(override.Trigger)
	}
	if len(override.Default) > 0 {
		set.Default = override.Default
	}
	if len(override.EasterEgg) > 0 {
		set.EasterEgg = override.EasterEgg
	}
	if len(override.Faults) > 0 {
		set.Faults = override.Faults
	}
	return set, nil
}
