package topics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/saturn-sh/saturn/pkg/types"
)

const (
	httpDefaultTimeout    = 2 * time.Second
	httpDefaultBackoffMin = 100 * time.Millisecond
	httpDefaultBackoffMax = 5 * time.Second
)

// HTTP posts each published message as JSON to a configured URL.
// Publish(wait=false) uses a short client timeout and treats any
// non-2xx response, timeout, or connection error as "declined" rather
// than an error. Publish(wait=true) retries with exponential backoff
// until accepted or ctx is cancelled.
type HTTP struct {
	url    string
	client *http.Client
}

// NewHTTP returns an HTTP topic posting to url with a short
// declining-client timeout.
func NewHTTP(url string) *HTTP {
	return &HTTP{
		url:    url,
		client: &http.Client{Timeout: httpDefaultTimeout},
	}
}

// Publish implements topic.Topic.
func (h *HTTP) Publish(ctx context.Context, message types.Message, wait bool) (bool, error) {
	if !wait {
		return h.attempt(ctx, message)
	}

	backoff := httpDefaultBackoffMin
	for {
		ok, err := h.attempt(ctx, message)
		if ok || err != nil {
			return ok, err
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > httpDefaultBackoffMax {
			backoff = httpDefaultBackoffMax
		}
	}
}

// attempt makes one POST and reports whether the message was accepted.
// A connection error or non-2xx status is reported as a decline (ok =
// false, err = nil); only request construction or encoding failures
// are returned as errors.
func (h *HTTP) attempt(ctx context.Context, message types.Message) (bool, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}
