package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// LogRequest traces every request once it has been served.
func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			if !log.IsLevelEnabled(log.TraceLevel) {
				return
			}
			log.WithFields(log.Fields{
				"method":   r.Method,
				"route":    routeName(r),
				"remote":   r.RemoteAddr,
				"ua":       r.Header.Get("User-Agent"),
				"duration": time.Since(start).String(),
			}).Tracef(" ====> request [%s] path: [%s]", r.Method, r.URL.Path)
		})
	}
}
