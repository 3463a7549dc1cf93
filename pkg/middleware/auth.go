package middleware

import (
	"context"
	"net/http"

	"github.com/sudotouchwoman/wappsto-bridge/pkg/common"
)

const (
	AccessToken = "AccessToken"
	// browsers cannot set headers on websocket requests
	TokenQuery = "token"
)

type Authorizer interface {
	Verify(token string) (string, error)
}

func Middleware(a Authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// check if credentials were passed
		token := r.Header.Get(AccessToken)
		if token == "" {
			token = r.URL.Query().Get(TokenQuery)
		}
		if idKey, err := a.Verify(token); err == nil {
			// add id key to context as to be accessible
			// by underlying handlers
			ctx := r.Context()
			next.ServeHTTP(w, r.WithContext(context.WithValue(
				ctx, common.ClientIDKey, idKey,
			)))
			return
		}
		http.Error(w, "Access token missing", http.StatusForbidden)
	})
}

// ClientID returns the id the middleware put into ctx.
func ClientID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(common.ClientIDKey).(string)
	return id, ok
}
