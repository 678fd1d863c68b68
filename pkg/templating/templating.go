// Package templating resolves $var and ${var} template tokens in query fields
// using the variable bindings Grafana resolved for the panel. Only the
// substitution contract lives here; variable definition and resolution belong
// to the host.
package templating

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// varPattern matches ${var} and $var token forms.
var varPattern = regexp.MustCompile(`\$\{(\w+)\}|\$(\w+)`)

// ScopedVar is one host-resolved variable binding. Value holds either a
// single scalar or a list of scalars for multi-value variables.
type ScopedVar struct {
	Text  any `json:"text"`
	Value any `json:"value"`
}

// ScopedVars maps variable names to their resolved bindings.
type ScopedVars map[string]ScopedVar

// Values renders the binding as a list of strings, one entry per resolved
// value. Single-valued bindings yield exactly one entry.
func (v ScopedVar) Values() []string {
	switch val := v.Value.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, stringify(item))
		}
		return out
	case []string:
		return val
	default:
		return []string{stringify(val)}
	}
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		// JSON numbers decode as float64; keep integers free of decimals.
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// MultiValueError reports a multi-valued variable used in a field that
// requires exactly one value.
type MultiValueError struct {
	Variable string
}

func (e *MultiValueError) Error() string {
	return fmt.Sprintf("template variable %q resolves to multiple values and cannot be used here", e.Variable)
}

// Service performs template substitution against scoped variables.
type Service struct{}

// Replace substitutes every known variable token in raw. Multi-value bindings
// expand to a comma-separated list, suitable for filter expressions. Tokens
// with no binding are left untouched.
func (Service) Replace(raw string, vars ScopedVars) string {
	if raw == "" || len(vars) == 0 {
		return raw
	}
	return varPattern.ReplaceAllStringFunc(raw, func(token string) string {
		binding, ok := lookup(token, vars)
		if !ok {
			return token
		}
		values := binding.Values()
		if len(values) == 0 {
			return token
		}
		return strings.Join(values, ",")
	})
}

// ReplaceSingleMatch substitutes variable tokens that must resolve to exactly
// one value, as required for metric names and segmentation dimensions. A
// multi-value binding is an error. Tokens with no binding are left untouched.
func (Service) ReplaceSingleMatch(raw string, vars ScopedVars) (string, error) {
	if raw == "" || len(vars) == 0 {
		return raw, nil
	}
	var substErr error
	out := varPattern.ReplaceAllStringFunc(raw, func(token string) string {
		binding, ok := lookup(token, vars)
		if !ok {
			return token
		}
		values := binding.Values()
		switch len(values) {
		case 0:
			return token
		case 1:
			return values[0]
		default:
			if substErr == nil {
				substErr = &MultiValueError{Variable: varName(token)}
			}
			return token
		}
	})
	if substErr != nil {
		return "", substErr
	}
	return out, nil
}

func lookup(token string, vars ScopedVars) (ScopedVar, bool) {
	binding, ok := vars[varName(token)]
	return binding, ok
}

func varName(token string) string {
	name := strings.TrimPrefix(token, "$")
	name = strings.TrimPrefix(name, "{")
	return strings.TrimSuffix(name, "}")
}
