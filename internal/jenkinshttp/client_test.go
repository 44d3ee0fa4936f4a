package jenkinshttp

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pipelinekit/jenkins-provisioner/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientSendsBasicAuth(t *testing.T) {
	t.Parallel()

	var gotUser, gotPass string
	var gotOK bool
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		gotUser, gotPass, gotOK = req.BasicAuth()
		rw.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	client := NewClient(WithBasicAuth("admin", "s3cret"), WithAllowHTTP2(false))

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.True(t, gotOK)
	assert.Equal(t, "admin", gotUser)
	assert.Equal(t, "s3cret", gotPass)
	assert.Empty(t, req.Header.Get("Authorization"), "original request must not be mutated")
}

func TestNewClientWithoutCredentials(t *testing.T) {
	t.Parallel()

	client := NewClient()
	_, wrapped := client.Transport.(*basicAuthTransport)
	assert.False(t, wrapped)
	assert.Nil(t, client.Jar)
}

func TestNewClientCookieJar(t *testing.T) {
	t.Parallel()

	var sawCookie bool
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		if _, err := req.Cookie("JSESSIONID"); err == nil {
			sawCookie = true
		}
		http.SetCookie(rw, &http.Cookie{Name: "JSESSIONID", Value: "abc", Path: "/"})
	}))
	t.Cleanup(server.Close)

	client := NewClient(WithBasicAuth("admin", "pw"), WithCookieJar, WithNoTimeout)
	assert.Zero(t, client.Timeout)

	for range 2 {
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.True(t, sawCookie)
}

func TestDoLogsRequest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rw.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(server.Close)

	l := logger.NewBuffer()
	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/json", nil)
	require.NoError(t, err)

	resp, err := Do(l, NewClient(), req, WithDebugHTTP(true), WithTraceHTTP(true))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	var sawLine bool
	for _, msg := range l.Messages {
		if strings.HasPrefix(msg, "[debug] GET "+server.URL+"/api/json") {
			sawLine = true
		}
	}
	assert.True(t, sawLine, "messages: %v", l.Messages)
	assert.Contains(t, l.Messages, "[debug] HTTP Timing Trace")
}

func TestDoRedactsDumps(t *testing.T) {
	t.Parallel()

	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		gotBody = string(b)
		http.SetCookie(rw, &http.Cookie{Name: "JSESSIONID", Value: "node0abc", Path: "/"})
		fmt.Fprint(rw, `{"crumb":"c0ffee-crumb-value"}`)
	}))
	t.Cleanup(server.Close)

	l := logger.NewBuffer()
	req, err := http.NewRequest(http.MethodPost, server.URL+"/job/deploy/config.xml", strings.NewReader("<flow-definition/>"))
	require.NoError(t, err)
	req.Header.Set("Jenkins-Crumb", "c0ffee-crumb-value")

	resp, err := Do(l, NewClient(), req, WithDebugHTTP(true), WithSecrets("c0ffee-crumb-value"))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "<flow-definition/>", gotBody, "the request body must still be sent after dumping")
	assert.JSONEq(t, `{"crumb":"c0ffee-crumb-value"}`, string(body), "the response body must still be readable after dumping")

	all := strings.Join(l.Messages, "\n")
	assert.NotContains(t, all, "c0ffee-crumb-value")
	assert.NotContains(t, all, "node0abc")
	assert.Contains(t, all, "Jenkins-Crumb: [REDACTED]")
	assert.Contains(t, all, "<flow-definition/>")
}
