// Package queryset merges, defaults, and interpolates a panel's query targets
// before they are dispatched to the Metricore data API. A fresh QuerySet is
// built for every query invocation from the host request, normalized, and
// consumed immediately; nothing here persists across invocations.
package queryset

import (
	"encoding/json"
	"strconv"
	"strings"

	"metricore-grafana-plugin/pkg/models"
	"metricore-grafana-plugin/pkg/templating"
	"metricore-grafana-plugin/pkg/utils"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
)

// Replacer is the template substitution contract normalization depends on.
type Replacer interface {
	// Replace substitutes tokens and allows multi-value expansion.
	Replace(raw string, vars templating.ScopedVars) string
	// ReplaceSingleMatch substitutes tokens that must resolve to one value.
	ReplaceSingleMatch(raw string, vars templating.ScopedVars) (string, error)
}

// Target is one panel query row together with the host refID it answers to.
type Target struct {
	models.QueryModel
	RefID string
}

// PageLimitValue returns the target's page limit as an integer. Raw editor
// input may be a JSON number or string; anything unparseable or zero falls
// back to the default of 10. Negative values pass through untouched.
func (t Target) PageLimitValue() int {
	return coercePageLimit(t.PageLimit)
}

// QuerySet is the ordered collection of a panel's targets plus the shared
// time range, sampling hint, and variable bindings.
type QuerySet struct {
	Targets    []Target
	TimeRange  *backend.TimeRange
	IntervalMS int64
	ScopedVars templating.ScopedVars
}

// Build assembles a QuerySet from the host request, preserving panel order.
// Queries whose JSON cannot be parsed are reported in the returned map, keyed
// by refID, and excluded from the set. The shared time range and interval are
// taken from the first query that carries them.
func Build(req *backend.QueryDataRequest) (QuerySet, map[string]error) {
	set := QuerySet{}
	parseErrs := map[string]error{}

	for _, q := range req.Queries {
		var qm models.QueryModel
		if err := json.Unmarshal(q.JSON, &qm); err != nil {
			parseErrs[q.RefID] = err
			continue
		}

		if set.TimeRange == nil && (!q.TimeRange.From.IsZero() || !q.TimeRange.To.IsZero()) {
			tr := q.TimeRange
			set.TimeRange = &tr
		}
		if set.IntervalMS == 0 {
			set.IntervalMS = q.Interval.Milliseconds()
		}
		for name, binding := range qm.ScopedVars {
			if set.ScopedVars == nil {
				set.ScopedVars = templating.ScopedVars{}
			}
			if _, ok := set.ScopedVars[name]; !ok {
				set.ScopedVars[name] = binding
			}
		}

		set.Targets = append(set.Targets, Target{QueryModel: qm, RefID: q.RefID})
	}

	return set, parseErrs
}

// Normalize produces the executable form of a query set: placeholder rows are
// removed, blank rows are replaced with defaults, per-row options are resolved
// against the panel's first target, template variables are substituted, and
// hidden rows are dropped. The input set is not mutated. The returned UserTime
// is nil when the set carries no time range.
//
// Pagination (pageLimit, sortDirection) is always taken from the first target:
// it is set once for the whole panel and cannot vary per row. Segmentation and
// filter are likewise inherited from the first target unless that target is
// explicitly marked non-tabular, in which case each row keeps its own values.
// This first-row-wins rule holds even when later rows set their own values.
func Normalize(set QuerySet, replacer Replacer) (QuerySet, *utils.UserTime, error) {
	kept := make([]Target, 0, len(set.Targets))
	for _, t := range set.Targets {
		if t.Target == utils.PlaceholderTarget {
			continue
		}
		kept = append(kept, t)
	}

	// Later rows resolve against a captured copy of the first remaining row
	// as it arrived, before any defaulting or substitution touches it.
	var first Target
	if len(kept) > 0 {
		first = kept[0]
	}
	firstPageLimit := coercePageLimit(first.PageLimit)

	normalized := make([]Target, 0, len(kept))
	for _, t := range kept {
		if t.Target == "" {
			// A brand-new row the user has not configured yet: replace it
			// wholesale with defaults. No substitution, no inheritance.
			normalized = append(normalized, defaultTarget(t.RefID))
			continue
		}

		eff := t
		if !first.TabularExplicitlyFalse() {
			eff.SegmentBy = first.SegmentBy
			eff.Filter = first.Filter
		}
		eff.PageLimit = firstPageLimit
		eff.SortDirection = first.SortDirection
		eff.IsSingleDataPoint = first.Tabular() || first.IsSingleDataPoint

		target, err := replacer.ReplaceSingleMatch(eff.Target, set.ScopedVars)
		if err != nil {
			return QuerySet{}, nil, err
		}
		eff.Target = target

		if eff.SegmentBy != "" {
			segmentBy, err := replacer.ReplaceSingleMatch(eff.SegmentBy, set.ScopedVars)
			if err != nil {
				return QuerySet{}, nil, err
			}
			eff.SegmentBy = segmentBy
		}
		if eff.Filter != "" {
			eff.Filter = replacer.Replace(eff.Filter, set.ScopedVars)
		}

		normalized = append(normalized, eff)
	}

	visible := make([]Target, 0, len(normalized))
	for _, t := range normalized {
		if !t.Hide {
			visible = append(visible, t)
		}
	}

	out := set
	out.Targets = visible
	return out, utils.DeriveUserTime(set.TimeRange, set.IntervalMS), nil
}

// defaultTarget is the explicit replacement for a blank row. Every field the
// user could have half-filled is discarded, including the hide flag.
func defaultTarget(refID string) Target {
	return Target{
		RefID: refID,
		QueryModel: models.QueryModel{
			Target:           utils.DefaultMetricID,
			TimeAggregation:  utils.DefaultTimeAggregation,
			GroupAggregation: utils.DefaultGroupAggregation,
			PageLimit:        utils.DefaultPageLimit,
		},
	}
}

// coercePageLimit converts raw page-limit input to an integer. Unparseable
// input and zero fall back to the default; fractional values truncate.
func coercePageLimit(v any) int {
	switch n := v.(type) {
	case nil:
		return utils.DefaultPageLimit
	case int:
		if n == 0 {
			return utils.DefaultPageLimit
		}
		return n
	case float64:
		if int(n) == 0 {
			return utils.DefaultPageLimit
		}
		return int(n)
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			if i == 0 {
				return utils.DefaultPageLimit
			}
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if int(f) == 0 {
				return utils.DefaultPageLimit
			}
			return int(f)
		}
		return utils.DefaultPageLimit
	default:
		return utils.DefaultPageLimit
	}
}
