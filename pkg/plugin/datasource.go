package plugin

import (
	"context"
	"fmt"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/instancemgmt"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/grafana/grafana-plugin-sdk-go/backend/resource/httpadapter"

	"metricore-grafana-plugin/pkg/catalog"
	"metricore-grafana-plugin/pkg/client"
	"metricore-grafana-plugin/pkg/handler"
	"metricore-grafana-plugin/pkg/health"
	"metricore-grafana-plugin/pkg/models"
	"metricore-grafana-plugin/pkg/validator"
)

// Make sure Datasource implements required interfaces. This is important to do
// since otherwise we will only get a not implemented error response from plugin in
// runtime. Plugin should not implement all these interfaces - only those which are
// required for a particular task.
var (
	_ backend.QueryDataHandler      = (*Datasource)(nil)
	_ backend.CheckHealthHandler    = (*Datasource)(nil)
	_ backend.CallResourceHandler   = (*Datasource)(nil)
	_ instancemgmt.InstanceDisposer = (*Datasource)(nil)
)

// Datasource is a backend datasource instance bound to a single Metricore
// account. Everything it needs is assembled once in NewDatasource; the
// instance manager creates a fresh one whenever the settings change.
type Datasource struct {
	settings        *models.PluginSettings
	client          *client.Client
	catalog         *catalog.Service
	resourceHandler backend.CallResourceHandler
}

// NewDatasource creates a new datasource instance.
func NewDatasource(_ context.Context, source backend.DataSourceInstanceSettings) (instancemgmt.Instance, error) {
	settings, err := models.LoadPluginSettings(source)
	if err != nil {
		return nil, fmt.Errorf("error loading plugin settings: %w", err)
	}

	if err := validator.ValidatePluginSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating plugin settings: %w", err)
	}

	cfg := client.DefaultConfig()
	cfg.URL = settings.URL
	cfg.APIToken = settings.Secrets.APIToken

	apiClient, err := client.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Metricore client: %w", err)
	}

	ds := &Datasource{
		settings: settings,
		client:   apiClient,
		catalog:  catalog.New(apiClient),
	}
	ds.resourceHandler = httpadapter.New(ds.resourceMux())

	return ds, nil
}

// Dispose here tells plugin SDK that plugin wants to clean up resources when a new instance
// created. As soon as datasource settings change detected by SDK old datasource instance will
// be disposed and a new one will be created using NewDatasource factory function.
func (d *Datasource) Dispose() {
	d.catalog.Close()
	log.DefaultLogger.Debug("Disposing of datasource instance")
}

// QueryData handles multiple queries and returns multiple responses.
func (d *Datasource) QueryData(ctx context.Context, req *backend.QueryDataRequest) (*backend.QueryDataResponse, error) {
	log.DefaultLogger.Debug("QueryData called", "queries", len(req.Queries))
	return handler.HandleQueryData(ctx, d.client, req), nil
}

// CheckHealth handles health checks sent from Grafana to the plugin.
// It probes the Metricore login endpoint with the configured token.
func (d *Datasource) CheckHealth(ctx context.Context, _ *backend.CheckHealthRequest) (*backend.CheckHealthResult, error) {
	log.DefaultLogger.Debug("CheckHealth called")
	return health.Check(ctx, d.client), nil
}

// CallResource routes frontend resource calls (metric and label discovery,
// segmentations, annotations) to the handlers registered in resourceMux.
func (d *Datasource) CallResource(ctx context.Context, req *backend.CallResourceRequest, sender backend.CallResourceResponseSender) error {
	return d.resourceHandler.CallResource(ctx, req, sender)
}
