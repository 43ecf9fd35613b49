package propertytype

import (
	"fmt"
	"strings"
)

// PrefixRewrite maps a legacy package prefix to its current equivalent.
type PrefixRewrite struct {
	Old string
	New string
}

// Package prefixes used for enum type names before and after the package
// layout change in plugin version 2.0.
const (
	LegacyPackagePrefix  = "io.devtools.plugin.developertools."
	CurrentPackagePrefix = "devtools."
)

// legacyAliases maps type names written by the 1.x plugins to canonical names.
var legacyAliases = map[string]string{
	"java.lang.Boolean":       BoolType,
	"kotlin.Boolean":          BoolType,
	"java.lang.Integer":       IntType,
	"kotlin.Int":              IntType,
	"java.lang.Long":          LongType,
	"kotlin.Long":             LongType,
	"java.lang.Float":         FloatType,
	"kotlin.Float":            FloatType,
	"java.lang.Double":        DoubleType,
	"kotlin.Double":           DoubleType,
	"java.lang.String":        StringType,
	"kotlin.String":           StringType,
	"java.awt.Color":          ColorType,
	"com.intellij.ui.JBColor": ColorType,
	"java.util.Locale":        LocaleType,
	"java.math.BigDecimal":    DecimalType,
}

// RegisterLegacyAliases registers the built-in legacy aliases and the
// package prefix rewrite.
func (r *Registry) RegisterLegacyAliases() {
	for legacy, canonical := range legacyAliases {
		if err := r.RegisterAlias(legacy, canonical); err != nil {
			panic(err)
		}
	}
	r.RegisterPrefixRewrite(LegacyPackagePrefix, CurrentPackagePrefix)
}

// RegisterAlias makes a legacy type name resolve to a canonical name. The
// canonical type does not need to be registered yet.
func (r *Registry) RegisterAlias(legacy, canonical string) error {
	if err := validateName(legacy); err != nil {
		return err
	}
	if err := validateName(canonical); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[legacy]; exists {
		return fmt.Errorf("%w: alias %s shadows a canonical name", ErrDuplicateType, legacy)
	}
	if existing, exists := r.aliases[legacy]; exists && existing != canonical {
		return fmt.Errorf("%w: alias %s already maps to %s", ErrDuplicateType, legacy, existing)
	}
	r.aliases[legacy] = canonical
	return nil
}

// RegisterPrefixRewrite adds a legacy package prefix rewrite. Rewrites are
// tried in registration order; the first matching prefix wins.
func (r *Registry) RegisterPrefixRewrite(oldPrefix, newPrefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rewrites = append(r.rewrites, PrefixRewrite{Old: oldPrefix, New: newPrefix})
}

// RewriteLegacyName applies the prefix rewrite table to name. A matching name
// gets its prefix replaced and nested type separators ('$') turned into '.';
// other names are returned unchanged.
func (r *Registry) RewriteLegacyName(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return rewriteName(r.rewrites, name)
}

func rewriteName(rewrites []PrefixRewrite, name string) string {
	for _, rw := range rewrites {
		if rest, ok := strings.CutPrefix(name, rw.Old); ok {
			return rw.New + strings.ReplaceAll(rest, "$", ".")
		}
	}
	return name
}
