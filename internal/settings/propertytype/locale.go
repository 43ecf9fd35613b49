package propertytype

import (
	"fmt"

	"golang.org/x/text/language"
)

// Locale is a BCP 47 language tag. The zero value is the undetermined
// locale.
type Locale struct {
	tag string
}

// ParseLocale parses and canonicalizes a language tag such as "de-DE".
func ParseLocale(s string) (Locale, error) {
	t, err := language.Parse(s)
	if err != nil {
		return Locale{}, fmt.Errorf("%w: locale %q: %v", ErrMalformedValue, s, err)
	}
	return LocaleOf(t), nil
}

// LocaleOf wraps a language tag.
func LocaleOf(t language.Tag) Locale {
	if t == language.Und {
		return Locale{}
	}
	return Locale{tag: t.String()}
}

// Tag returns the language tag.
func (l Locale) Tag() language.Tag {
	if l.tag == "" {
		return language.Und
	}
	return language.Make(l.tag)
}

// String returns the language tag string.
func (l Locale) String() string {
	if l.tag == "" {
		return language.Und.String()
	}
	return l.tag
}
