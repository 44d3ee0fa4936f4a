package jenkinshttp

import (
	"errors"
	"net/http"
)

// basicAuthTransport adds HTTP basic credentials to every request. Jenkins
// accepts either the user's password or an API token as the password half.
type basicAuthTransport struct {
	Username string
	Password string

	// Delegate is the underlying HTTP transport
	Delegate http.RoundTripper
}

// RoundTrip invoked each time a request is made.
func (t basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Per net/http#RoundTripper:
	//
	// "RoundTrip must always close the body, including on errors, ..."
	reqBodyClosed := false
	if req.Body != nil {
		defer func() {
			if !reqBodyClosed {
				req.Body.Close() //nolint:errcheck // req.Body is only used in a read-only manner.
			}
		}()
	}

	if t.Username == "" {
		return nil, errors.New("invalid credentials, empty username supplied")
	}

	// RoundTrip should not modify the request, so the header is set on a
	// clone that is passed to the delegate instead.
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.Username, t.Password)

	// req.Body is assumed to be closed by the delegate.
	reqBodyClosed = true
	return t.Delegate.RoundTrip(req)
}

// CloseIdleConnections forwards the call to t.Delegate, if it implements
// CloseIdleConnections itself.
func (t *basicAuthTransport) CloseIdleConnections() {
	closer, ok := t.Delegate.(interface{ CloseIdleConnections() })
	if !ok {
		return
	}
	closer.CloseIdleConnections()
}
