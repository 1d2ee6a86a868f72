package essentials

import (
	"net/http"
	"strings"
)

// addServerTiming appends Server-Timing entries, e.g. {"dbread", "12.3"}.
func addServerTiming(w http.ResponseWriter, kv ...[2]string) {
	if len(kv) == 0 {
		return
	}
	parts := make([]string, 0, len(kv))
	for _, p := range kv {
		parts = append(parts, p[0]+";dur="+p[1])
	}
	w.Header().Add("Server-Timing", strings.Join(parts, ", "))
}
