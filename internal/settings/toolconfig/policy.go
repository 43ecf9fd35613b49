// Package toolconfig holds the live, typed settings of developer tool
// instances.
//
// A Configuration belongs to one tool instance. Tools register their
// properties lazily while their UI is built; values loaded from disk wait in
// the configuration as unclaimed persistent properties until a property with
// the same key is registered.
package toolconfig

import (
	"fmt"
	"strings"
)

// SavePolicy decides under which user preference a property is persisted.
type SavePolicy uint8

const (
	// PolicyConfiguration marks tool options, persisted when configurations are saved.
	PolicyConfiguration SavePolicy = iota
	// PolicyInput marks user input, persisted when inputs are saved.
	PolicyInput
	// PolicySensitive marks secrets, persisted only when sensitive inputs are saved.
	PolicySensitive
)

// String returns the persisted name of the policy.
func (p SavePolicy) String() string {
	switch p {
	case PolicyConfiguration:
		return "CONFIGURATION"
	case PolicyInput:
		return "INPUT"
	case PolicySensitive:
		return "SENSITIVE"
	default:
		return "UNKNOWN"
	}
}

// ParseSavePolicy parses a persisted policy name.
func ParseSavePolicy(s string) (SavePolicy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CONFIGURATION":
		return PolicyConfiguration, nil
	case "INPUT":
		return PolicyInput, nil
	case "SENSITIVE":
		return PolicySensitive, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Flags exposes the user preferences consulted when properties are registered,
// saved and loaded. Implementations are read on every call, so a toggled flag
// takes effect on the next save or load.
type Flags interface {
	SaveConfigurations() bool
	SaveInputs() bool
	SaveSensitiveInputs() bool
	LoadExamples() bool
}

// Allowed reports whether properties with policy p are currently persisted.
func Allowed(f Flags, p SavePolicy) bool {
	switch p {
	case PolicyConfiguration:
		return f.SaveConfigurations()
	case PolicyInput:
		return f.SaveInputs()
	case PolicySensitive:
		return f.SaveSensitiveInputs()
	default:
		return false
	}
}

// StaticFlags is a fixed Flags value.
type StaticFlags struct {
	Configurations  bool
	Inputs          bool
	SensitiveInputs bool
	Examples        bool
}

// DefaultFlags returns the flags of a fresh installation: configurations and
// inputs are saved, sensitive inputs are not, examples are loaded.
func DefaultFlags() StaticFlags {
	return StaticFlags{Configurations: true, Inputs: true, Examples: true}
}

func (f StaticFlags) SaveConfigurations() bool  { return f.Configurations }
func (f StaticFlags) SaveInputs() bool          { return f.Inputs }
func (f StaticFlags) SaveSensitiveInputs() bool { return f.SensitiveInputs }
func (f StaticFlags) LoadExamples() bool        { return f.Examples }
