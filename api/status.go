package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// Status is the subset of the controller's root api/json document that the
// provisioner reports on.
type Status struct {
	Mode            string `json:"mode"`
	NodeDescription string `json:"nodeDescription"`
	UseCrumbs       bool   `json:"useCrumbs"`
	UseSecurity     bool   `json:"useSecurity"`

	// Version comes from the X-Jenkins response header.
	Version string `json:"-"`
}

type statusOptions struct {
	Tree string `url:"tree,omitempty"`
}

// Status queries the root of the remote API. Any non-2xx response, including
// authentication failures, is returned as an error. A 2xx response is a
// success even when its body isn't the expected JSON (a reverse proxy's
// landing page, say); the fields of Status are then left empty.
func (c *Client) Status(ctx context.Context) (*Status, *Response, error) {
	u, err := addOptions("api/json", statusOptions{
		Tree: "mode,nodeDescription,useCrumbs,useSecurity",
	})
	if err != nil {
		return nil, nil, err
	}

	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}

	var body bytes.Buffer
	resp, err := c.doRequest(req, &body)
	if err != nil {
		return nil, resp, err
	}

	status := new(Status)
	if err := json.Unmarshal(body.Bytes(), status); err != nil {
		c.logger.Debug("Ignoring unreadable api/json response: %v", err)
		status = new(Status)
	}

	status.Version = resp.Header.Get("X-Jenkins")

	return status, resp, nil
}
