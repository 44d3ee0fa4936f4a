package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// QueueItem describes where Jenkins queued a triggered build.
type QueueItem struct {
	// Location is the queue item URL from the Location response header. It
	// may be empty on older controllers.
	Location string
}

// TriggerBuild schedules a build of the job. With params it uses the
// buildWithParameters endpoint and sends them form encoded.
func (c *Client) TriggerBuild(ctx context.Context, name string, params map[string]string) (*QueueItem, *Response, error) {
	u := JobPath(name) + "/build"

	var (
		body    io.Reader
		headers []Header
	)
	if len(params) > 0 {
		u = JobPath(name) + "/buildWithParameters"

		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		body = strings.NewReader(values.Encode())
		headers = append(headers, Header{Name: "Content-Type", Value: ContentTypeForm})
	}

	req, err := c.newRequest(ctx, http.MethodPost, u, body, headers...)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.doRequest(req, nil)
	if err != nil {
		return nil, resp, err
	}

	return &QueueItem{Location: resp.Header.Get("Location")}, resp, nil
}
