package queries

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseOverrides converts "name=value" pairs into typed overrides for a template.
//
// Values are converted by the declared parameter type: int parameters are parsed as
// integers, str parameters are kept verbatim and datetime parameters are passed through as
// strings (timestamps or relative offsets such as "-7" or "-12h"). Names the template does
// not declare are kept as strings.
func ParseOverrides(tmpl *Template, pairs []string) (map[string]any, error) {
	overrides := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected name=value)", pair)
		}
		if !isIdentifier(key) {
			return nil, fmt.Errorf("invalid parameter name %q", key)
		}

		param, declared := Parameter{}, false
		if tmpl != nil {
			param, declared = tmpl.Parameter(key)
		}
		if !declared || param.Type != ParamTypeInt {
			overrides[key] = value
			continue
		}

		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, &TypeMismatchError{
				Template:  tmpl.Name,
				Parameter: key,
				Type:      param.Type,
				Value:     value,
				Reason:    "value is not an integer",
			}
		}
		overrides[key] = n
	}
	return overrides, nil
}
