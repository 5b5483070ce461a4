package api

import (
	"context"
	"net/http"
	"time"
)

// probeTimeout bounds the liveness check so an unreachable backend
// fails fast instead of hanging a login attempt.
const probeTimeout = 4500 * time.Millisecond

// Probe reports whether the backend is reachable. It never returns an
// error: timeouts, transport failures, and non-2xx statuses all read
// as unreachable.
func (c *Client) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
