package models

import (
	"encoding/json"
	"fmt"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
)

// PluginSettingsError represents an error specifically related to plugin settings.
type PluginSettingsError struct {
	Msg string
	Err error // Wrapped error
}

func (e *PluginSettingsError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plugin settings error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("plugin settings error: %s", e.Msg)
}

func (e *PluginSettingsError) Unwrap() error {
	return e.Err
}

// PluginSettings holds the configuration settings for the Metricore data source.
// It is loaded once at datasource construction and never mutated afterwards.
type PluginSettings struct {
	URL     string                `json:"url"`
	Secrets *SecretPluginSettings `json:"-"`
}

// SecretPluginSettings holds sensitive data, currently the API token used as
// the bearer credential on every Metricore request.
type SecretPluginSettings struct {
	APIToken string `json:"apiToken"`
}

// LoadPluginSettings unmarshals the JSON data and decrypted secure JSON data
// from Grafana's DataSourceInstanceSettings into a PluginSettings struct.
func LoadPluginSettings(source backend.DataSourceInstanceSettings) (*PluginSettings, error) {
	settings := PluginSettings{}
	if err := json.Unmarshal(source.JSONData, &settings); err != nil {
		return nil, &PluginSettingsError{Msg: "could not unmarshal PluginSettings JSON", Err: err}
	}

	secretSettings, err := loadSecretPluginSettings(source.DecryptedSecureJSONData)
	if err != nil {
		return nil, err
	}

	settings.Secrets = secretSettings

	return &settings, nil
}

// loadSecretPluginSettings extracts secure data from the decrypted map.
func loadSecretPluginSettings(source map[string]string) (*SecretPluginSettings, error) {
	apiToken := source["apiToken"]
	if apiToken == "" {
		return nil, &PluginSettingsError{Msg: "API token is missing in secure settings"}
	}

	return &SecretPluginSettings{
		APIToken: apiToken,
	}, nil
}
