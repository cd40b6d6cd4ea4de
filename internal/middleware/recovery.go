package middleware

import (
	"net/http"
	"runtime/debug"

	"webm2mp4/internal/logging"
)

// Recoverer turns a panicking handler into a 500 response instead of a dropped
// connection. Deferred cleanups in the handler have already run by the time
// the panic reaches here.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logging.Error("panic serving %s %s (request %s): %v\n%s",
				sanitizeLogField(r.Method), sanitizeLogField(r.URL.Path),
				RequestIDFromContext(r.Context()), rec, debug.Stack())

			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
