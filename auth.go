package tether

import (
	"context"
	"encoding/base64"
	"net/http"
)

// Authenticator is the caller-supplied hook invoked before dispatch. It may
// inspect the request (e.g. via IsFor) and issue nested requests of its own,
// such as calling a login route to refresh a token. Returned headers are
// merged into the outgoing request, overriding per-call headers.
//
// The context handed to Authenticate carries a guard: any request dispatched
// with it skips the authenticator, so a login call made from inside the hook
// cannot recurse into it.
type Authenticator interface {
	Authenticate(ctx context.Context, req *Request) (http.Header, error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context, req *Request) (http.Header, error)

// Authenticate implements Authenticator.
func (f AuthenticatorFunc) Authenticate(ctx context.Context, req *Request) (http.Header, error) {
	return f(ctx, req)
}

type authGuardKey struct{}

func withAuthInProgress(ctx context.Context) context.Context {
	return context.WithValue(ctx, authGuardKey{}, true)
}

func authInProgress(ctx context.Context) bool {
	v, _ := ctx.Value(authGuardKey{}).(bool)
	return v
}

// APIKey returns an Authenticator that sets a static header on every request.
func APIKey(header, key string) Authenticator {
	return AuthenticatorFunc(func(context.Context, *Request) (http.Header, error) {
		h := make(http.Header)
		h.Set(header, key)
		return h, nil
	})
}

// BasicAuth returns an Authenticator that sets an HTTP basic Authorization
// header from static credentials.
func BasicAuth(username, password string) Authenticator {
	credential := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return AuthenticatorFunc(func(context.Context, *Request) (http.Header, error) {
		h := make(http.Header)
		h.Set("Authorization", "Basic "+credential)
		return h, nil
	})
}
