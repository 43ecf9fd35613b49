package config

import (
	"github.com/dshills/devtoolsettings/internal/config/loader"
	"github.com/dshills/devtoolsettings/internal/config/registry"
)

// Errors returned by configuration operations.
var (
	// ErrSettingNotFound indicates the key is not a registered setting.
	ErrSettingNotFound = registry.ErrSettingNotFound

	// ErrInvalidValue indicates the value fails validation for its setting.
	ErrInvalidValue = registry.ErrInvalidValue
)

// ParseError is returned by Load for a settings file that is not valid TOML.
type ParseError = loader.ParseError

// ValidationError describes a value rejected by a setting.
type ValidationError = registry.ValidationError
