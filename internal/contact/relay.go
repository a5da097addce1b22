// Package contact handles the "Send a Message" form: relaying a submission to
// its destination and the transient confirmation state shown afterwards.
package contact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Submission is one filled-in contact form.
type Submission struct {
	ID      string `form:"-"`
	Name    string `form:"name"`
	Email   string `form:"email"`
	Message string `form:"message"`
}

// Relay delivers a submission. Delivery is a single attempt.
type Relay interface {
	Deliver(ctx context.Context, sub Submission) error
}

// ErrRejected is returned when the endpoint answers with a non-2xx status.
var ErrRejected = errors.New("contact: submission rejected")

// HTTPRelay posts submissions to a hosted form endpoint.
type HTTPRelay struct {
	endpoint string
	client   *http.Client
}

func NewHTTPRelay(endpoint string, timeout time.Duration) *HTTPRelay {
	return &HTTPRelay{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (r *HTTPRelay) Deliver(ctx context.Context, sub Submission) error {
	form := url.Values{}
	form.Set("name", sub.Name)
	form.Set("email", sub.Email)
	form.Set("message", sub.Message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("contact: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("contact: post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	return nil
}
