// Package api is a small client for the Jenkins remote access API.
package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/google/go-querystring/query"
	"github.com/pipelinekit/jenkins-provisioner/internal/jenkinshttp"
	"github.com/pipelinekit/jenkins-provisioner/logger"
	"github.com/pipelinekit/jenkins-provisioner/version"
)

const (
	ContentTypeXML  = "application/xml"
	ContentTypeForm = "application/x-www-form-urlencoded"

	// maxErrorBodySize bounds how much of an error response body is kept for
	// reporting. Jenkins error pages can be large HTML documents.
	maxErrorBodySize = 64 * 1024
)

// Config is configuration for the API Client
type Config struct {
	// Endpoint is the root URL of the Jenkins controller, for example
	// https://jenkins.example.com:8080. A trailing slash is removed.
	Endpoint string

	// Username and Password (or API token) for HTTP basic authentication.
	Username string
	Password string

	// User agent used when communicating with Jenkins.
	UserAgent string

	// If true, HTTP2 is disabled
	DisableHTTP2 bool

	// If true, requests and responses will be dumped and set to the logger
	DebugHTTP bool

	// If true timings for each request will be logged
	TraceHTTP bool

	// The http client used, leave nil for the default
	HTTPClient *http.Client

	// optional TLS configuration primarily used for testing
	TLSConfig *tls.Config
}

// A Client manages communication with a Jenkins controller.
type Client struct {
	conf   Config
	client *http.Client
	logger logger.Logger

	// CSRF crumb state. crumbResolved is set once the crumb issuer has
	// answered, including when it reported that crumbs are disabled.
	crumb         *Crumb
	crumbResolved bool
}

// NewClient returns a new Jenkins API Client.
func NewClient(l logger.Logger, conf Config) *Client {
	conf.Endpoint = strings.TrimRight(conf.Endpoint, "/")

	if conf.UserAgent == "" {
		conf.UserAgent = version.UserAgent()
	}

	if conf.HTTPClient != nil {
		return &Client{
			logger: l,
			client: conf.HTTPClient,
			conf:   conf,
		}
	}

	return &Client{
		logger: l,
		client: jenkinshttp.NewClient(
			jenkinshttp.WithBasicAuth(conf.Username, conf.Password),
			jenkinshttp.WithAllowHTTP2(!conf.DisableHTTP2),
			jenkinshttp.WithTLSConfig(conf.TLSConfig),
			jenkinshttp.WithCookieJar,
			// Every call is bounded by its caller's context instead.
			jenkinshttp.WithNoTimeout,
		),
		conf: conf,
	}
}

// Config returns the internal configuration for the Client
func (c *Client) Config() Config {
	return c.conf
}

// Endpoint returns the Jenkins root URL without a trailing slash.
func (c *Client) Endpoint() string {
	return c.conf.Endpoint
}

type Header struct {
	Name  string
	Value string
}

// newRequest creates an API request. urlStr is resolved relative to the
// Endpoint. Requests that change state carry the CSRF crumb, when Jenkins
// issues one.
func (c *Client) newRequest(
	ctx context.Context,
	method, urlStr string,
	body io.Reader,
	headers ...Header,
) (*http.Request, error) {
	u := joinURLPath(c.conf.Endpoint, urlStr)

	if body == nil {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}

	req.Header.Add("User-Agent", c.conf.UserAgent)

	if method != http.MethodGet && method != http.MethodHead {
		crumb := c.resolveCrumb(ctx)
		if crumb != nil {
			req.Header.Set(crumb.RequestField, crumb.Value)
		}
	}

	for _, header := range headers {
		req.Header.Add(header.Name, header.Value)
	}

	return req, nil
}

// Response is a Jenkins API response. This wraps the standard http.Response.
type Response struct {
	*http.Response
}

func newResponse(r *http.Response) *Response {
	return &Response{Response: r}
}

// doRequest sends an API request and returns the API response. The response
// body is JSON decoded into v, unless v is an io.Writer, in which case the raw
// body is copied to it. A non-2xx status is returned as an *ErrorResponse.
func (c *Client) doRequest(req *http.Request, v any) (*Response, error) {
	resp, err := jenkinshttp.Do(c.logger, c.client, req,
		jenkinshttp.WithDebugHTTP(c.conf.DebugHTTP),
		jenkinshttp.WithTraceHTTP(c.conf.TraceHTTP),
		jenkinshttp.WithSecrets(c.secrets()...),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining for connection reuse

	response := newResponse(resp)

	if err := checkResponse(resp); err != nil {
		// even though there was an error, we still return the response
		// in case the caller wants to inspect it further
		return response, err
	}

	if v != nil {
		if w, ok := v.(io.Writer); ok {
			if _, err := io.Copy(w, resp.Body); err != nil {
				return response, fmt.Errorf("reading response body: %w", err)
			}
		} else if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return response, fmt.Errorf("failed to decode JSON response: %w", err)
		}
	}

	return response, nil
}

// secrets are values that must never appear in HTTP dumps.
func (c *Client) secrets() []string {
	s := []string{c.conf.Password}
	if c.crumb != nil {
		s = append(s, c.crumb.Value)
	}
	return s
}

// ErrorResponse is returned for any response with a non-2xx status.
type ErrorResponse struct {
	Response *http.Response // HTTP response that caused this error

	// Message is Jenkins' own explanation, taken from the X-Error header.
	Message string

	// Body holds (a prefix of) the response body, if there was one.
	Body string
}

func (r *ErrorResponse) Error() string {
	s := fmt.Sprintf("%v %v: %s",
		r.Response.Request.Method, r.Response.Request.URL,
		r.Response.Status)

	if r.Message != "" {
		s = fmt.Sprintf("%s: %v", s, r.Message)
	}

	return s
}

// IsErrHavingStatus reports whether err is an *ErrorResponse with the given
// HTTP status code.
func IsErrHavingStatus(err error, code int) bool {
	var apierr *ErrorResponse
	return errors.As(err, &apierr) && apierr.Response.StatusCode == code
}

func checkResponse(r *http.Response) error {
	if c := r.StatusCode; 200 <= c && c <= 299 {
		return nil
	}

	errorResponse := &ErrorResponse{
		Response: r,
		Message:  r.Header.Get("X-Error"),
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxErrorBodySize))
	if err == nil {
		errorResponse.Body = strings.TrimSpace(string(data))
	}

	return errorResponse
}

// addOptions adds the parameters in opt as URL query parameters to s. opt must
// be a struct whose fields may contain "url" tags.
func addOptions(s string, opt any) (string, error) {
	v := reflect.ValueOf(opt)
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return s, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return s, err
	}

	qs, err := query.Values(opt)
	if err != nil {
		return s, err
	}

	u.RawQuery = qs.Encode()
	return u.String(), nil
}

func joinURLPath(endpoint string, path string) string {
	return strings.TrimRight(endpoint, "/") + "/" + strings.TrimLeft(path, "/")
}
