package client

import "net/http"

// Authenticator applies credentials to outgoing requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth sends requests without credentials.
type NoAuth struct{}

// Apply implements Authenticator.
func (a *NoAuth) Apply(_ *http.Request) {}

// BasicAuth implements HTTP basic authentication, the scheme the BI server
// expects on every endpoint.
type BasicAuth struct {
	Username string
	Password string
}

// Apply implements Authenticator.
func (a *BasicAuth) Apply(req *http.Request) {
	if a.Username == "" && a.Password == "" {
		return
	}
	req.SetBasicAuth(a.Username, a.Password)
}
