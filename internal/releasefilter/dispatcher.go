package releasefilter

import (
	"context"
	"strings"
)

// Result describes what Dispatch did.
type Result struct {
	Sent     bool
	Skipped  bool
	Endpoint string
	Body     string
}

// Dispatcher posts payloads and debounces unchanged ones. The cache lives for
// the lifetime of the Dispatcher and is only updated after a successful post.
type Dispatcher struct {
	poster Poster
	last   string
}

// NewDispatcher wraps poster with a debounce cache.
func NewDispatcher(poster Poster) *Dispatcher {
	return &Dispatcher{poster: poster}
}

// Dispatch posts payload to baseURL unless it matches the last delivered
// payload and force is false. A blank baseURL is skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, baseURL string, payload Payload, force bool) (Result, error) {
	body, err := payload.Canonical()
	if err != nil {
		return Result{}, err
	}
	result := Result{Body: body}
	if strings.TrimSpace(baseURL) == "" {
		result.Skipped = true
		return result, nil
	}
	result.Endpoint = Endpoint(baseURL)
	if !force && body == d.last {
		result.Skipped = true
		return result, nil
	}
	if err := d.poster.Post(ctx, result.Endpoint, []byte(body), ContentType); err != nil {
		return result, err
	}
	d.last = body
	result.Sent = true
	return result, nil
}

// Last returns the most recently delivered serialization.
func (d *Dispatcher) Last() string {
	return d.last
}
