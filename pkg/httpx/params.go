package httpx

import (
	"net/http"
	"strconv"
)

// QueryInt parses an integer query parameter, returning def when the
// parameter is missing or malformed.
func QueryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
