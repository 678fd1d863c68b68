// Package catalog provides cached access to the Metricore metric
// catalog: the metric list, segmentation dimensions, and label values.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"metricore-grafana-plugin/pkg/client"
	"metricore-grafana-plugin/pkg/utils"
)

// API is the slice of the Metricore client the catalog needs.
type API interface {
	FetchMetrics(ctx context.Context) ([]client.MetricDescriptor, error)
	FetchLabelValues(ctx context.Context, req client.LabelValuesRequest) ([]*string, error)
	FetchSegmentations(ctx context.Context, metric string) ([]string, error)
}

// Catalog shapes change rarely; a short TTL keeps the variable editor
// from hammering the API without serving stale options for long.
const cacheTTL = 60 * time.Second

type metricsCacheValue struct {
	metrics []client.MetricDescriptor
	err     error
}

type segmentationsCacheValue struct {
	segmentations []string
	err           error
}

// Service answers metric and label discovery requests.
type Service struct {
	api           API
	metricsCache  *ttlcache.Cache[string, metricsCacheValue]
	segmentsCache *ttlcache.Cache[string, segmentationsCacheValue]
}

// New creates a Service around api.
func New(api API) *Service {
	metricsCache := ttlcache.New(
		ttlcache.WithTTL[string, metricsCacheValue](cacheTTL),
	)
	segmentsCache := ttlcache.New(
		ttlcache.WithTTL[string, segmentationsCacheValue](cacheTTL),
	)
	go metricsCache.Start()
	go segmentsCache.Start()
	return &Service{
		api:           api,
		metricsCache:  metricsCache,
		segmentsCache: segmentsCache,
	}
}

// Close stops the cache background goroutines.
func (s *Service) Close() {
	s.metricsCache.Stop()
	s.segmentsCache.Stop()
}

// QueryLabelValues returns the values label takes over the supplied
// window, nulls included. Reads are time-scoped so they bypass the
// cache.
func (s *Service) QueryLabelValues(ctx context.Context, label string, window *utils.UserTime) ([]*string, error) {
	return s.api.FetchLabelValues(ctx, client.LabelValuesRequest{Label: label, Time: window})
}

// FindMetrics returns the metric catalog. Unless includeNonNumeric is
// set, label-valued entries are filtered out.
func (s *Service) FindMetrics(ctx context.Context, includeNonNumeric bool) ([]client.MetricDescriptor, error) {
	loader := ttlcache.LoaderFunc[string, metricsCacheValue](
		func(cache *ttlcache.Cache[string, metricsCacheValue], key string) *ttlcache.Item[string, metricsCacheValue] {
			metrics, err := s.api.FetchMetrics(ctx)
			return cache.Set(key, metricsCacheValue{metrics: metrics, err: err}, ttlcache.DefaultTTL)
		},
	)
	item := s.metricsCache.Get("catalog", ttlcache.WithLoader(loader))
	if item == nil {
		return nil, errors.New("metric catalog unavailable")
	}
	value := item.Value()
	if value.err != nil {
		// Do not hold a failed fetch for the full TTL.
		s.metricsCache.Delete("catalog")
		return nil, value.err
	}
	if includeNonNumeric {
		return value.metrics, nil
	}
	numeric := make([]client.MetricDescriptor, 0, len(value.metrics))
	for _, m := range value.metrics {
		if m.IsNumeric {
			numeric = append(numeric, m)
		}
	}
	return numeric, nil
}

// FindSegmentations returns the dimensions metric can segment by. An
// empty metric asks for the globally available dimensions.
func (s *Service) FindSegmentations(ctx context.Context, metric string) ([]string, error) {
	loader := ttlcache.LoaderFunc[string, segmentationsCacheValue](
		func(cache *ttlcache.Cache[string, segmentationsCacheValue], key string) *ttlcache.Item[string, segmentationsCacheValue] {
			segmentations, err := s.api.FetchSegmentations(ctx, key)
			return cache.Set(key, segmentationsCacheValue{segmentations: segmentations, err: err}, ttlcache.DefaultTTL)
		},
	)
	item := s.segmentsCache.Get(metric, ttlcache.WithLoader(loader))
	if item == nil {
		return nil, errors.New("segmentation catalog unavailable")
	}
	value := item.Value()
	if value.err != nil {
		s.segmentsCache.Delete(metric)
		return nil, value.err
	}
	return value.segmentations, nil
}
