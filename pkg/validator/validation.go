// Package validator checks plugin settings before a datasource
// instance is built, so misconfiguration fails at construction instead
// of at first query.
package validator

import (
	"fmt"
	"net/url"

	"metricore-grafana-plugin/pkg/models"
)

// ValidatePluginSettings validates the plugin settings.
func ValidatePluginSettings(settings *models.PluginSettings) error {
	if settings == nil {
		return &models.PluginSettingsError{Msg: "plugin settings cannot be nil"}
	}

	if settings.URL == "" {
		return &models.PluginSettingsError{Msg: "Metricore URL cannot be empty"}
	}

	if parsed, err := url.Parse(settings.URL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return &models.PluginSettingsError{Msg: fmt.Sprintf("Metricore URL %q is not a valid URL", settings.URL)}
	}

	if settings.Secrets == nil {
		return &models.PluginSettingsError{Msg: "plugin secrets cannot be nil"}
	}

	if settings.Secrets.APIToken == "" {
		return &models.PluginSettingsError{Msg: "API token cannot be empty"}
	}

	return nil
}
