package legacy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// VersionField is the document field holding the format version.
const VersionField = "version"

var (
	// ErrMalformedDocument is returned for input that is not a JSON object.
	ErrMalformedDocument = errors.New("malformed legacy document")

	// ErrInvalidVersion is returned when the version field is not a version.
	ErrInvalidVersion = errors.New("invalid legacy document version")
)

// Step rewrites a legacy document from one format version to the next.
type Step struct {
	// From is the version the step expects.
	From *semver.Version

	// To is the version the document has after the step.
	To *semver.Version

	// Description describes what the step does.
	Description string

	// Apply rewrites the raw document.
	Apply func(doc []byte) ([]byte, error)
}

// Result records one applied step.
type Result struct {
	From        *semver.Version
	To          *semver.Version
	Description string
	Err         error
}

// Migrator brings legacy documents up to the newest format version.
type Migrator struct {
	current *semver.Version
	steps   []Step
}

// NewMigrator creates a migrator targeting current.
func NewMigrator(current *semver.Version) *Migrator {
	return &Migrator{current: current}
}

// Current returns the target version.
func (m *Migrator) Current() *semver.Version {
	return m.current
}

// Register adds a step. Steps run in order of their target version.
func (m *Migrator) Register(step Step) {
	m.steps = append(m.steps, step)
	sort.SliceStable(m.steps, func(i, j int) bool {
		return m.steps[i].To.LessThan(m.steps[j].To)
	})
}

// Version returns the format version of doc. A document without a version
// field predates versioning and is reported as 0.0.0.
func (m *Migrator) Version(doc []byte) (*semver.Version, error) {
	if !gjson.ValidBytes(doc) || !gjson.ParseBytes(doc).IsObject() {
		return nil, ErrMalformedDocument
	}

	field := gjson.GetBytes(doc, VersionField)
	if !field.Exists() {
		return semver.New(0, 0, 0, "", ""), nil
	}

	v, err := semver.NewVersion(field.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, field.String(), err)
	}
	return v, nil
}

// NeedsMigration reports whether doc is older than the target version.
func (m *Migrator) NeedsMigration(doc []byte) (bool, error) {
	v, err := m.Version(doc)
	if err != nil {
		return false, err
	}
	return v.LessThan(m.current), nil
}

// Migrate applies every step the document has not seen yet and stamps it
// with the target version. A current or newer document is returned as is,
// so migrating twice changes nothing.
func (m *Migrator) Migrate(doc []byte) ([]byte, []Result, error) {
	version, err := m.Version(doc)
	if err != nil {
		return nil, nil, err
	}
	if !version.LessThan(m.current) {
		return doc, nil, nil
	}

	var results []Result
	for _, step := range m.steps {
		if !version.LessThan(step.To) || step.To.GreaterThan(m.current) {
			continue
		}

		migrated, err := step.Apply(doc)
		result := Result{From: step.From, To: step.To, Description: step.Description, Err: err}
		results = append(results, result)
		if err != nil {
			return nil, results, fmt.Errorf("migration from %s to %s failed: %w", step.From, step.To, err)
		}

		doc = migrated
		version = step.To
	}

	doc, err = sjson.SetBytes(doc, VersionField, m.current.String())
	if err != nil {
		return nil, results, fmt.Errorf("stamping version: %w", err)
	}
	return doc, results, nil
}

// DefaultMigrator returns a migrator with the known format changes.
func DefaultMigrator() *Migrator {
	m := NewMigrator(semver.MustParse("2.0.0"))

	m.Register(RenameField(
		semver.MustParse("0.0.0"), semver.MustParse("1.0.0"),
		"selectedContentNodeId", "lastSelectedContentNodeId",
		"Rename selected content node field"))

	m.Register(RewritePropertyField(
		semver.MustParse("1.0.0"), semver.MustParse("2.0.0"),
		"kind", "Rename INPUT_SENSITIVE save policy to SENSITIVE",
		func(kind gjson.Result) (any, bool) {
			if kind.String() == "INPUT_SENSITIVE" {
				return "SENSITIVE", true
			}
			return nil, false
		}))

	return m
}

// RenameField creates a step that moves a top-level field.
func RenameField(from, to *semver.Version, oldPath, newPath, description string) Step {
	return Step{
		From:        from,
		To:          to,
		Description: description,
		Apply: func(doc []byte) ([]byte, error) {
			value := gjson.GetBytes(doc, oldPath)
			if !value.Exists() {
				return doc, nil
			}

			doc, err := sjson.SetRawBytes(doc, newPath, []byte(value.Raw))
			if err != nil {
				return nil, fmt.Errorf("setting %s: %w", newPath, err)
			}
			return sjson.DeleteBytes(doc, oldPath)
		},
	}
}

// DeleteField creates a step that removes a field.
func DeleteField(from, to *semver.Version, path, description string) Step {
	return Step{
		From:        from,
		To:          to,
		Description: description,
		Apply: func(doc []byte) ([]byte, error) {
			if !gjson.GetBytes(doc, path).Exists() {
				return doc, nil
			}
			return sjson.DeleteBytes(doc, path)
		},
	}
}

// RewritePropertyField creates a step that rewrites one field of every
// persisted property. rewrite returns the new value and whether to replace.
func RewritePropertyField(from, to *semver.Version, field, description string, rewrite func(gjson.Result) (any, bool)) Step {
	return Step{
		From:        from,
		To:          to,
		Description: description,
		Apply: func(doc []byte) ([]byte, error) {
			configurations := gjson.GetBytes(doc, "configurations").Array()
			for i, configuration := range configurations {
				properties := configuration.Get("properties").Array()
				for j, property := range properties {
					value, ok := rewrite(property.Get(field))
					if !ok {
						continue
					}
					path := fmt.Sprintf("configurations.%d.properties.%d.%s", i, j, field)
					var err error
					if doc, err = sjson.SetBytes(doc, path, value); err != nil {
						return nil, fmt.Errorf("setting %s: %w", path, err)
					}
				}
			}
			return doc, nil
		},
	}
}
