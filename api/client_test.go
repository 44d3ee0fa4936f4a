package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/pipelinekit/jenkins-provisioner/api"
	"github.com/pipelinekit/jenkins-provisioner/internal/jenkinstest"
	"github.com/pipelinekit/jenkins-provisioner/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, server *jenkinstest.Server) *api.Client {
	t.Helper()
	return api.NewClient(logger.Discard, api.Config{
		Endpoint:     server.URL + "/",
		Username:     "admin",
		Password:     "token",
		DisableHTTP2: true,
	})
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	t.Parallel()

	c := api.NewClient(logger.Discard, api.Config{Endpoint: "https://jenkins.example.com:8080///"})
	assert.Equal(t, "https://jenkins.example.com:8080", c.Endpoint())
	assert.Equal(t, "https://jenkins.example.com:8080/job/deploy", c.JobURL("deploy"))
}

func TestStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		server := jenkinstest.NewServer(jenkinstest.WithCredentials("admin", "token"))
		t.Cleanup(server.Close)

		status, resp, err := newClient(t, server).Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "NORMAL", status.Mode)
		assert.Equal(t, "2.440.3", status.Version)
		assert.True(t, status.UseSecurity)

		reqs := server.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "/api/json", reqs[0].Path)
		assert.Contains(t, reqs[0].RawQuery, "tree=")
		assert.True(t, strings.HasPrefix(reqs[0].Header.Get("User-Agent"), "jenkins-provisioner/"))
	})

	t.Run("success without json body", func(t *testing.T) {
		t.Parallel()
		for name, body := range map[string]string{
			"empty": "",
			"html":  "<html><body>Welcome to Jenkins!</body></html>",
		} {
			server := jenkinstest.NewServer(
				jenkinstest.WithResponse(http.MethodGet, "/api/json", http.StatusOK, body),
			)
			t.Cleanup(server.Close)

			status, resp, err := newClient(t, server).Status(ctx)
			require.NoError(t, err, name)
			assert.Equal(t, http.StatusOK, resp.StatusCode, name)
			assert.Empty(t, status.Mode, name)
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		t.Parallel()
		server := jenkinstest.NewServer(jenkinstest.WithCredentials("admin", "other"))
		t.Cleanup(server.Close)

		_, _, err := newClient(t, server).Status(ctx)
		require.Error(t, err)
		assert.True(t, api.IsErrHavingStatus(err, http.StatusUnauthorized))
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()
		server := jenkinstest.NewServer(
			jenkinstest.WithResponse(http.MethodGet, "/api/json", http.StatusServiceUnavailable, "Jenkins is restarting"),
		)
		t.Cleanup(server.Close)

		_, _, err := newClient(t, server).Status(ctx)
		var apierr *api.ErrorResponse
		require.True(t, errors.As(err, &apierr))
		assert.Equal(t, "Jenkins is restarting", apierr.Body)
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		server := jenkinstest.NewServer()
		endpoint := server.URL
		server.Close()

		c := api.NewClient(logger.Discard, api.Config{Endpoint: endpoint, Username: "admin"})
		_, resp, err := c.Status(ctx)
		require.Error(t, err)
		assert.Nil(t, resp)

		var urlErr *url.Error
		assert.True(t, errors.As(err, &urlErr))
	})
}

func TestErrorResponseMessage(t *testing.T) {
	t.Parallel()

	server := jenkinstest.NewServer(jenkinstest.WithJob("deploy", []byte("<x/>")))
	t.Cleanup(server.Close)

	_, err := newClient(t, server).CreateJob(context.Background(), "deploy", []byte("<y/>"))
	require.Error(t, err)
	assert.True(t, api.IsErrHavingStatus(err, http.StatusBadRequest))
	assert.Contains(t, err.Error(), "POST "+server.URL+"/createItem?name=deploy: 400 Bad Request")
	assert.Contains(t, err.Error(), "A job already exists with the name 'deploy'")
}

func TestCrumbIsSentOnPosts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	server := jenkinstest.NewServer(jenkinstest.WithCrumb("Jenkins-Crumb", "abc123"))
	t.Cleanup(server.Close)

	c := newClient(t, server)
	_, err := c.CreateJob(ctx, "deploy", []byte("<flow-definition/>"))
	require.NoError(t, err)
	_, _, err = c.TriggerBuild(ctx, "deploy", nil)
	require.NoError(t, err)

	// The crumb is fetched once and reused.
	assert.Equal(t, 1, server.Count(http.MethodGet, "/crumbIssuer/api/json"))
	for _, r := range server.Requests() {
		if r.Method == http.MethodPost {
			assert.Equal(t, "abc123", r.Header.Get("Jenkins-Crumb"), "POST %s", r.Path)
		}
	}
}

func TestCrumbIssuerDisabled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	server := jenkinstest.NewServer()
	t.Cleanup(server.Close)

	c := newClient(t, server)
	_, err := c.CreateJob(ctx, "a", []byte("<a/>"))
	require.NoError(t, err)
	_, err = c.CreateJob(ctx, "b", []byte("<b/>"))
	require.NoError(t, err)

	assert.Equal(t, 1, server.Count(http.MethodGet, "/crumbIssuer/api/json"))
	for _, r := range server.Requests() {
		assert.Empty(t, r.Header.Get("Jenkins-Crumb"))
	}
}
