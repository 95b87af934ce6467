package publish

import (
	"time"

	"github.com/kamusis/modelpub/internal/client"
)

// ServerEndpoint identifies the server a publish targets. It cannot be
// changed after construction.
type ServerEndpoint struct {
	name     string
	url      string
	username string
	password string
}

func NewServerEndpoint(name, url, username, password string) ServerEndpoint {
	if name == "" {
		name = url
	}
	return ServerEndpoint{name: name, url: url, username: username, password: password}
}

func (s ServerEndpoint) Name() string     { return s.name }
func (s ServerEndpoint) URL() string      { return s.url }
func (s ServerEndpoint) Username() string { return s.username }
func (s ServerEndpoint) Password() string { return s.password }

// String omits the password.
func (s ServerEndpoint) String() string {
	if s.username == "" {
		return s.name + " (" + s.url + ")"
	}
	return s.name + " (" + s.username + "@" + s.url + ")"
}

// Client returns an HTTP client authenticated as the endpoint's user.
func (s ServerEndpoint) Client(timeout time.Duration, opts ...client.Option) *client.Client {
	opts = append([]client.Option{client.WithBasicAuth(s.username, s.password)}, opts...)
	return client.NewClient(s.url, timeout, opts...)
}
