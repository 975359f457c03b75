package common

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// QueryList returns the values of a query parameter given either repeated
// (?tag=a&tag=b) or comma separated (?tags=a,b). Blank entries are dropped.
func QueryList(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, value := range strings.Split(raw, ",") {
			if value = strings.TrimSpace(value); value != "" {
				out = append(out, value)
			}
		}
	}
	return out
}

// QueryBool parses a boolean query parameter. A missing parameter is false.
func QueryBool(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", name)
	}
	return value, nil
}
