package handlers

import (
	"context"
	"net/http"
	"time"

	"ledenbeheer/internal/sqlinline"
)

// Health reports liveness plus a database round trip.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	db := "ok"
	if a.SQL != nil {
		var one int
		if err := a.SQL.QueryRow(ctx, sqlinline.QPing).Scan(&one); err != nil {
			status = http.StatusServiceUnavailable
			db = "unreachable"
		}
	}
	a.json(w, status, map[string]any{
		"status":   statusWord(status),
		"database": db,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

func statusWord(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
