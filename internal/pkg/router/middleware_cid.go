package router

import (
	"net/http"
	"strings"

	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/radityaferdi/otpgate/internal/pkg/uid"
)

const (
	// HeaderCorrelationID tracks a request across this service, the
	// issuance event, and the notifier.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is accepted as a fallback from proxies that use it.
	HeaderRequestID = "X-Request-ID"
)

// middlewareCorrelationID adopts the caller's correlation id or mints one,
// echoes it on the response, and stores it on the request context for
// logging and event headers.
func middlewareCorrelationID(uid uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := sanitizeCID(r.Header.Get(HeaderCorrelationID))
			if cid == "" {
				cid = sanitizeCID(r.Header.Get(HeaderRequestID))
			}
			if cid == "" && uid != nil {
				cid = uid.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// sanitizeCID rejects values with CR/LF (header injection) and caps the
// length so a hostile caller cannot bloat every log line.
func sanitizeCID(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		return ""
	}
	v = strings.TrimSpace(v)
	const maxLen = 128
	if len(v) > maxLen {
		v = v[:maxLen]
	}
	return v
}
