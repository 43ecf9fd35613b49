package loader

import (
	"os"
	"strings"
)

// DefaultEnvPrefix is the prefix of environment overrides.
const DefaultEnvPrefix = "DEVSETTINGS_"

// EnvLoader reads setting overrides from environment variables.
// DEVSETTINGS_SAVE_SENSITIVE_INPUTS overrides "saveSensitiveInputs". Values
// are returned as strings; the caller converts them to the setting's type.
type EnvLoader struct {
	prefix  string
	environ func() []string
}

// NewEnvLoader creates a loader for variables starting with prefix.
// The prefix should include the trailing underscore.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		environ: os.Environ,
	}
}

// NewEnvLoaderWithEnviron creates a loader reading a fixed environment, in
// the KEY=value form of os.Environ.
func NewEnvLoaderWithEnviron(prefix string, environ []string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		environ: func() []string { return environ },
	}
}

// Load returns the overrides keyed by setting key. Empty values count as set.
func (l *EnvLoader) Load() (map[string]any, error) {
	values := make(map[string]any)

	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		key := EnvToKey(strings.TrimPrefix(name, l.prefix))
		if key == "" {
			continue
		}
		values[key] = value
	}

	return values, nil
}

// EnvToKey converts SAVE_SENSITIVE_INPUTS to saveSensitiveInputs.
func EnvToKey(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		part = strings.ToLower(part)
		if b.Len() > 0 {
			part = strings.ToUpper(part[:1]) + part[1:]
		}
		b.WriteString(part)
	}
	return b.String()
}

// KeyToEnv converts saveSensitiveInputs to SAVE_SENSITIVE_INPUTS.
func KeyToEnv(key string) string {
	var b strings.Builder
	for i, r := range key {
		if r >= 'A' && r <= 'Z' && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}
