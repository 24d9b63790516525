package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/mlctf/internal/middleware"
)

// Recovery creates panic recovery middleware for the web interface
// Returns an HTML error page on panic
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, webPanicHandler)
}

func webPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Signal lost</title><link rel="stylesheet" href="/static/css/style.css"></head>
<body>
<main class="container">
<h1>Signal lost</h1>
<p>The protocol hit an unexpected fault. Your progress is saved.</p>
<p><a href="/mission">Return to the mission</a></p>
</main>
</body>
</html>`))
}
