package config

import (
	"github.com/dshills/devtoolsettings/internal/config/registry"
	"github.com/dshills/devtoolsettings/internal/settings/toolconfig"
)

// Section accessor methods return snapshot structs. Mutating the returned
// struct does not modify the underlying configuration. Use Config.Set()
// to update configuration values.

// PresentationConfig provides type-safe access to how tools are shown.
type PresentationConfig struct {
	// DialogIsModal opens the developer tools dialog as a modal window.
	DialogIsModal bool

	// ShowInternalTools lists tools meant for plugin developers.
	ShowInternalTools bool

	// AutoDetectActionHandling preselects a tool matching the current
	// editor selection.
	AutoDetectActionHandling bool
}

// SavePolicies returns a frozen copy of the save policy flags. Stores should
// be given the Config itself so later changes apply; the snapshot is for
// reporting.
func (c *Config) SavePolicies() toolconfig.StaticFlags {
	return toolconfig.StaticFlags{
		Configurations:  c.flag(registry.KeySaveConfigurations),
		Inputs:          c.flag(registry.KeySaveInputs),
		SensitiveInputs: c.flag(registry.KeySaveSensitiveInputs),
		Examples:        c.flag(registry.KeyLoadExamples),
	}
}

// Presentation returns type-safe access to presentation settings.
func (c *Config) Presentation() PresentationConfig {
	return PresentationConfig{
		DialogIsModal:            c.flag(registry.KeyDialogIsModal),
		ShowInternalTools:        c.flag(registry.KeyShowInternalTools),
		AutoDetectActionHandling: c.flag(registry.KeyAutoDetectActionHandling),
	}
}
