package main

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// tokenAuth guards the API with a single shared bearer token. An empty token
// disables the check.
type tokenAuth struct {
	digest  [sha256.Size]byte
	enabled bool
}

func newTokenAuth(token string) *tokenAuth {
	if token == "" {
		return &tokenAuth{}
	}
	return &tokenAuth{digest: sha256.Sum256([]byte(token)), enabled: true}
}

// valid compares digests so the comparison time does not depend on the
// length of the provided token.
func (a *tokenAuth) valid(provided string) bool {
	sum := sha256.Sum256([]byte(provided))
	return subtle.ConstantTimeCompare(sum[:], a.digest[:]) == 1
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

func (a *tokenAuth) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.enabled {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok || !a.valid(token) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="packout"`)
			errorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
