package health

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"metricore-grafana-plugin/pkg/client"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProber struct {
	err error
}

func (m *mockProber) Login(ctx context.Context) error {
	return m.err
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		loginErr    error
		wantStatus  backend.HealthStatus
		wantMessage string
	}{
		{
			name:        "healthy",
			wantStatus:  backend.HealthStatusOk,
			wantMessage: "Data source is working",
		},
		{
			name:        "bad token",
			loginErr:    &client.APIError{StatusCode: http.StatusUnauthorized, Body: "bad token"},
			wantStatus:  backend.HealthStatusError,
			wantMessage: "Authentication failed: check the API token",
		},
		{
			name:        "forbidden token",
			loginErr:    &client.APIError{StatusCode: http.StatusForbidden},
			wantStatus:  backend.HealthStatusError,
			wantMessage: "Authentication failed: check the API token",
		},
		{
			name:        "server error",
			loginErr:    &client.APIError{StatusCode: http.StatusBadGateway},
			wantStatus:  backend.HealthStatusError,
			wantMessage: "Metricore API returned status 502",
		},
		{
			name:        "network failure",
			loginErr:    &client.ClientError{Msg: "GET api/login failed", Err: errors.New("connection refused")},
			wantStatus:  backend.HealthStatusError,
			wantMessage: "Metricore API is unreachable: metricore client error: GET api/login failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Check(context.Background(), &mockProber{err: tt.loginErr})
			require.NotNil(t, result)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantMessage, result.Message)
		})
	}
}
