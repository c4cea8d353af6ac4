// Package engagement books callbacks through the vendor engagement API.
package engagement

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/acme/contact-center-samples/internal/vendorhttp"
)

// Client submits callback bookings.
type Client struct {
	basePath string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client rooted at basePath (for example https://host/engagement/v3).
func NewClient(basePath string, opts ...Option) *Client {
	c := &Client{
		basePath: strings.TrimRight(basePath, "/"),
		http:     vendorhttp.NewClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type callOptions struct {
	progress ProgressObserver
}

// CallOption customizes a single booking.
type CallOption func(*callOptions)

// WithProgress attaches a progress observer to one booking.
func WithProgress(o ProgressObserver) CallOption {
	return func(co *callOptions) { co.progress = o }
}

// BookCallback submits params and returns the outcome. Every failure, including
// transport errors, is reported through Result.Err; nothing is retried.
func (c *Client) BookCallback(ctx context.Context, params CreateCallbackParms, apiKey string, opts ...CallOption) Result {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return failure(0, nil, 0, "marshal request: "+err.Error())
	}

	var body io.Reader = bytes.NewReader(payload)
	if co.progress != nil {
		body = newProgressReader(body, int64(len(payload)), co.progress.OnUploadProgress)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.basePath+"/callbacks", body)
	if err != nil {
		return failure(0, nil, 0, "build request: "+err.Error())
	}
	req.ContentLength = int64(len(payload))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return failure(0, nil, 0, err.Error())
	}
	defer resp.Body.Close()

	var respBody io.ReadCloser = resp.Body
	if co.progress != nil {
		respBody = progressReadCloser{
			progressReader: newProgressReader(resp.Body, resp.ContentLength, co.progress.OnDownloadProgress),
			c:              resp.Body,
		}
	}

	raw, err := io.ReadAll(respBody)
	if err != nil {
		return failure(resp.StatusCode, resp.Header, 0, "read response: "+err.Error())
	}

	var decoded CreateCallbackResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := decoded.Status.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return failure(resp.StatusCode, resp.Header, decoded.Status.Code, msg)
	}
	if decodeErr != nil {
		return failure(resp.StatusCode, resp.Header, 0, "decode response: "+decodeErr.Error())
	}
	if decoded.Status.Code != 0 {
		return failure(resp.StatusCode, resp.Header, decoded.Status.Code, decoded.Status.Message)
	}

	return Result{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		CallbackID: decoded.Data.ID,
	}
}

// Submission is a booking in flight.
type Submission struct {
	done   chan struct{}
	result Result
}

// Done is closed after the continuation has run.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the booking has finished and its continuation has run.
func (s *Submission) Wait(ctx context.Context) (Result, error) {
	select {
	case <-s.done:
		return s.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// BookCallbackAsync submits params on a separate goroutine and invokes done
// exactly once with the outcome. Callers wait on the returned Submission.
func (c *Client) BookCallbackAsync(ctx context.Context, params CreateCallbackParms, apiKey string, done func(Result), opts ...CallOption) *Submission {
	sub := &Submission{done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		sub.result = c.BookCallback(ctx, params, apiKey, opts...)
		if done != nil {
			done(sub.result)
		}
	}()
	return sub
}
