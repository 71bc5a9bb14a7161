package router

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/radityaferdi/otpgate/internal/pkg/goerror"
)

// Request wraps http.Request with the helpers inbound handlers need.
type Request struct {
	*http.Request
}

// GetParam reads an httprouter path parameter.
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// GetQuery reads a trimmed query string value.
func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// ClientIP returns the caller address resolved by the real-ip middleware;
// OTP send records it as audit metadata.
func (r *Request) ClientIP() string {
	return r.RemoteAddr
}

// DecodeBody strictly decodes the JSON body into dst. Unknown fields and
// trailing garbage are rejected so typos in request payloads fail loudly
// instead of being silently ignored.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return goerror.NewInvalidFormat()
	}
	return nil
}
