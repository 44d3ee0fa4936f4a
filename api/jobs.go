package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Job is the subset of job/<name>/api/json the provisioner cares about.
type Job struct {
	Class           string `json:"_class"`
	Name            string `json:"name"`
	FullName        string `json:"fullName"`
	URL             string `json:"url"`
	Description     string `json:"description"`
	Buildable       bool   `json:"buildable"`
	Color           string `json:"color"`
	InQueue         bool   `json:"inQueue"`
	NextBuildNumber int    `json:"nextBuildNumber"`
}

type jobOptions struct {
	Tree string `url:"tree,omitempty"`
}

// CreateItemOptions are the query parameters of the createItem endpoint.
type CreateItemOptions struct {
	Name string `url:"name"`
}

// JobPath returns the URL path of a job relative to the controller root.
// Slashes in name separate folders, so "team/deploy" becomes
// "job/team/job/deploy".
func JobPath(name string) string {
	segments := strings.Split(strings.Trim(name, "/"), "/")
	var b strings.Builder
	for i, s := range segments {
		if i > 0 {
			b.WriteString("/")
		}
		b.WriteString("job/")
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// splitJobName splits a job name into its parent folder path ("" for the
// root) and its leaf name.
func splitJobName(name string) (parent, leaf string) {
	name = strings.Trim(name, "/")
	i := strings.LastIndex(name, "/")
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

// JobURL returns the browser URL of a job.
func (c *Client) JobURL(name string) string {
	return joinURLPath(c.conf.Endpoint, JobPath(name))
}

// GetJob returns the job with the given name.
func (c *Client) GetJob(ctx context.Context, name string) (*Job, *Response, error) {
	u, err := addOptions(JobPath(name)+"/api/json", jobOptions{
		Tree: "name,fullName,url,description,buildable,color,inQueue,nextBuildNumber",
	})
	if err != nil {
		return nil, nil, err
	}

	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}

	job := new(Job)
	resp, err := c.doRequest(req, job)
	if err != nil {
		return nil, resp, err
	}

	return job, resp, nil
}

// JobExists reports whether the job exists. Only a 200 response counts as
// existing. Every other outcome reports false; the error is non-nil when the
// answer was not a clean 404, so callers can tell an outage from an absent
// job if they want to.
func (c *Client) JobExists(ctx context.Context, name string) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, JobPath(name)+"/api/json", nil)
	if err != nil {
		return false, err
	}

	resp, err := c.doRequest(req, nil)
	switch {
	case err == nil:
		return resp.StatusCode == http.StatusOK, nil
	case IsErrHavingStatus(err, http.StatusNotFound):
		return false, nil
	default:
		return false, err
	}
}

// UpdateJob replaces the configuration of an existing job.
func (c *Client) UpdateJob(ctx context.Context, name string, config []byte) (*Response, error) {
	req, err := c.newRequest(ctx, http.MethodPost, JobPath(name)+"/config.xml",
		bytes.NewReader(config),
		Header{Name: "Content-Type", Value: ContentTypeXML},
	)
	if err != nil {
		return nil, err
	}

	return c.doRequest(req, nil)
}

// CreateJob creates a new job from config. When name contains folders, the
// job is created inside the innermost one, which must already exist.
func (c *Client) CreateJob(ctx context.Context, name string, config []byte) (*Response, error) {
	parent, leaf := splitJobName(name)
	if leaf == "" {
		return nil, fmt.Errorf("invalid job name %q", name)
	}

	u := "createItem"
	if parent != "" {
		u = JobPath(parent) + "/createItem"
	}

	u, err := addOptions(u, CreateItemOptions{Name: leaf})
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, u,
		bytes.NewReader(config),
		Header{Name: "Content-Type", Value: ContentTypeXML},
	)
	if err != nil {
		return nil, err
	}

	return c.doRequest(req, nil)
}
