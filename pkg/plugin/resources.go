package plugin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"

	"metricore-grafana-plugin/pkg/handler"
	"metricore-grafana-plugin/pkg/utils"
)

// resourceMux routes the frontend's discovery calls. The query and
// variable editors use these to populate metric, dimension and template
// variable pickers.
func (d *Datasource) resourceMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/metric-find", d.handleMetricFind)
	mux.HandleFunc("/segments", d.handleSegments)
	mux.HandleFunc("/annotations", d.handleAnnotations)
	return mux
}

func (d *Datasource) handleMetricFind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params := r.URL.Query()
	req := handler.MetricFindRequest{
		Query:             params.Get("query"),
		IncludeNonNumeric: params.Get("includeNonNumeric") == "true",
	}

	if raw := params.Get("mode"); raw != "" {
		mode, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid mode parameter: %q", raw), http.StatusBadRequest)
			return
		}
		req.SortMode = mode
	}

	window, err := windowFromParams(params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.Window = window

	values, err := handler.HandleMetricFind(r.Context(), d.catalog, req)
	if err != nil {
		log.DefaultLogger.Error("Metric find failed", "query", req.Query, "error", err)
		http.Error(w, "metric lookup failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, values)
}

func (d *Datasource) handleSegments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metric := r.URL.Query().Get("metric")
	segmentations, err := d.catalog.FindSegmentations(r.Context(), metric)
	if err != nil {
		log.DefaultLogger.Error("Segmentation lookup failed", "metric", metric, "error", err)
		http.Error(w, "segmentation lookup failed", http.StatusBadGateway)
		return
	}
	if segmentations == nil {
		segmentations = []string{}
	}
	writeJSON(w, segmentations)
}

// handleAnnotations answers every request with an empty set. Metricore
// keeps no event history, so dashboards with annotation queries against
// this datasource degrade quietly instead of erroring.
func (d *Datasource) handleAnnotations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, []struct{}{})
}

// windowFromParams converts optional from/to/intervalMs millisecond
// parameters into a Metricore time constraint. Both bounds must be
// present for the lookup to be time-scoped.
func windowFromParams(params url.Values) (*utils.UserTime, error) {
	rawFrom, rawTo := params.Get("from"), params.Get("to")
	if rawFrom == "" || rawTo == "" {
		return nil, nil
	}

	from, err := strconv.ParseInt(rawFrom, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid from parameter: %q", rawFrom)
	}
	to, err := strconv.ParseInt(rawTo, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid to parameter: %q", rawTo)
	}

	var intervalMs int64
	if raw := params.Get("intervalMs"); raw != "" {
		intervalMs, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid intervalMs parameter: %q", raw)
		}
	}

	timeRange := &backend.TimeRange{From: time.UnixMilli(from), To: time.UnixMilli(to)}
	return utils.DeriveUserTime(timeRange, intervalMs), nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.DefaultLogger.Error("Failed to encode resource response", "error", err)
	}
}
