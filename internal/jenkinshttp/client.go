// Package jenkinshttp creates standard Go [net/http.Client]s configured for
// talking to a Jenkins controller.
package jenkinshttp

import (
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"golang.org/x/net/http2"
)

// NewClient creates a HTTP client. The default timeout is 60 seconds; callers
// that bound each request with a context deadline should use [WithNoTimeout].
func NewClient(opts ...ClientOption) *http.Client {
	conf := clientConfig{
		// This spells out the defaults, even if some of them are zero values.
		Username:   "",
		Password:   "",
		AllowHTTP2: true,
		Timeout:    60 * time.Second,
		TLSConfig:  nil,
		Cookies:    false,
	}
	for _, opt := range opts {
		opt(&conf)
	}

	cacheKey := transportCacheKey{
		AllowHTTP2: conf.AllowHTTP2,
		TLSConfig:  conf.TLSConfig,
	}

	transportCacheMu.Lock()
	transport := transportCache[cacheKey]
	if transport == nil {
		transport = newTransport(&conf)
		transportCache[cacheKey] = transport
	}
	transportCacheMu.Unlock()

	client := &http.Client{
		Timeout:   conf.Timeout,
		Transport: transport,
	}

	if conf.Cookies {
		// cookiejar.New only fails when given a PublicSuffixList that errors.
		jar, _ := cookiejar.New(nil)
		client.Jar = jar
	}

	if conf.Username == "" {
		// No credentials, no basicAuthTransport wrapper.
		return client
	}

	client.Transport = &basicAuthTransport{
		Username: conf.Username,
		Password: conf.Password,
		Delegate: transport,
	}
	return client
}

// Various NewClient options.
func WithBasicAuth(user, pass string) ClientOption {
	return func(c *clientConfig) { c.Username, c.Password = user, pass }
}
func WithAllowHTTP2(a bool) ClientOption       { return func(c *clientConfig) { c.AllowHTTP2 = a } }
func WithTimeout(d time.Duration) ClientOption { return func(c *clientConfig) { c.Timeout = d } }
func WithNoTimeout(c *clientConfig)            { c.Timeout = 0 }
func WithTLSConfig(t *tls.Config) ClientOption { return func(c *clientConfig) { c.TLSConfig = t } }

// WithCookieJar keeps session cookies between requests. Jenkins binds CSRF
// crumbs to the session they were issued in.
func WithCookieJar(c *clientConfig) { c.Cookies = true }

type ClientOption = func(*clientConfig)

func newTransport(conf *clientConfig) *http.Transport {
	// Base any modifications on the default transport.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Allow override of TLSConfig. This must be set prior to calling
	// http2.ConfigureTransports.
	if conf.TLSConfig != nil {
		transport.TLSClientConfig = conf.TLSConfig
	}

	if conf.AllowHTTP2 {
		// There is a bug in http2 on Linux regarding using dead connections.
		// This is a workaround. See https://github.com/golang/go/issues/59690
		tr2, err := http2.ConfigureTransports(transport)
		if err != nil {
			// ConfigureTransports only errors if the transport was already
			// HTTP2-enabled, which a fresh clone is not.
			panic("http2.ConfigureTransports: " + err.Error())
		}
		if tr2 != nil {
			tr2.ReadIdleTimeout = 30 * time.Second
		}
	} else {
		transport.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
		// The default TLSClientConfig has h2 in NextProtos, so the
		// negotiated TLS connection will assume h2 support.
		// see https://github.com/golang/go/issues/50571
		tlsConfig := &tls.Config{}
		if transport.TLSClientConfig != nil {
			tlsConfig = transport.TLSClientConfig.Clone()
		}
		tlsConfig.NextProtos = []string{"http/1.1"}
		transport.TLSClientConfig = tlsConfig
	}

	return transport
}

type clientConfig struct {
	// Jenkins user and password or API token
	Username string
	Password string

	// If false, HTTP2 is disabled
	AllowHTTP2 bool

	// Timeout used as the client timeout.
	Timeout time.Duration

	// optional TLS configuration primarily used for testing
	TLSConfig *tls.Config

	// If true, the client gets a cookie jar
	Cookies bool
}

// The underlying http.Transport is cached, mainly so that multiple clients with
// the same options can reuse connections.
type transportCacheKey struct {
	AllowHTTP2 bool
	TLSConfig  *tls.Config
}

var (
	transportCacheMu sync.Mutex
	transportCache   = make(map[transportCacheKey]*http.Transport)
)
