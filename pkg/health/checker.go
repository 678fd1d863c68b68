// Package health implements the connectivity check behind the
// datasource settings "Save & test" button.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"

	"metricore-grafana-plugin/pkg/client"
)

// Prober is the slice of the Metricore client the health check needs.
type Prober interface {
	Login(ctx context.Context) error
}

// Check probes the Metricore API with the instance credentials and maps
// the outcome to the status and message Grafana renders. Failures come
// back as error-status results, never as Go errors to the host.
func Check(ctx context.Context, prober Prober) *backend.CheckHealthResult {
	log.DefaultLogger.Debug("Running health check")

	if err := prober.Login(ctx); err != nil {
		log.DefaultLogger.Error("Health check failed", "error", err)

		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return &backend.CheckHealthResult{
					Status:  backend.HealthStatusError,
					Message: "Authentication failed: check the API token",
				}
			}
			return &backend.CheckHealthResult{
				Status:  backend.HealthStatusError,
				Message: fmt.Sprintf("Metricore API returned status %d", apiErr.StatusCode),
			}
		}

		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Metricore API is unreachable: %s", err.Error()),
		}
	}

	return &backend.CheckHealthResult{
		Status:  backend.HealthStatusOk,
		Message: "Data source is working",
	}
}
