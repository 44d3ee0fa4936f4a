package api

import (
	"context"
	"net/http"
)

// Crumb is a CSRF protection token issued by Jenkins. It has to be sent in
// the RequestField header of every state-changing request.
type Crumb struct {
	RequestField string `json:"crumbRequestField"`
	Value        string `json:"crumb"`
}

// Crumb fetches a crumb from the crumb issuer. Controllers with CSRF
// protection disabled answer 404.
func (c *Client) Crumb(ctx context.Context) (*Crumb, *Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "crumbIssuer/api/json", nil)
	if err != nil {
		return nil, nil, err
	}

	crumb := new(Crumb)
	resp, err := c.doRequest(req, crumb)
	if err != nil {
		return nil, resp, err
	}

	return crumb, resp, nil
}

// resolveCrumb returns the crumb to attach to a POST, fetching it on first
// use. Failures other than a 404 are logged and not cached, so the next POST
// tries again; the POST itself will then report a 403 if the crumb mattered.
func (c *Client) resolveCrumb(ctx context.Context) *Crumb {
	if c.crumbResolved {
		return c.crumb
	}

	crumb, _, err := c.Crumb(ctx)
	switch {
	case IsErrHavingStatus(err, http.StatusNotFound):
		c.logger.Debug("Crumb issuer not available, sending requests without a crumb")
		c.crumbResolved = true
		return nil

	case err != nil:
		c.logger.Warn("Failed to fetch CSRF crumb: %v", err)
		return nil

	case crumb.RequestField == "" || crumb.Value == "":
		c.logger.Warn("Crumb issuer returned an empty crumb, ignoring it")
		c.crumbResolved = true
		return nil
	}

	c.crumb = crumb
	c.crumbResolved = true
	return crumb
}
