package pkg

import (
	"net/http"
	"strings"
)

// TokenFromRequest - returns the bearer token of the request, falling back to the token query parameter.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}

	return r.URL.Query().Get("token")
}
