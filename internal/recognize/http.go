package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Client talks to a recognizer service over HTTP. The service owns the
// camera and the trained model; this client opens streams on it and pulls
// one observation per request (the service long-polls until a frame has
// been processed).
type Client struct {
	parsedURL *url.URL
}

// NewClient creates a recognizer client for the given base URL.
func NewClient(rawURL string) (*Client, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("recognizer URL is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid recognizer URL: %w", err)
	}
	return &Client{parsedURL: parsed}, nil
}

// resolveURL builds a full URL from the base URL and the given path segments.
func (c *Client) resolveURL(pathSegments ...string) string {
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// Ready probes the recognizer before a stream is opened. A recognizer
// without a trained model responds 503, which surfaces as ErrModelNotReady.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL("v1", "ready"), nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: %s", ErrModelNotReady, readErrorBody(resp.Body))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("readiness check failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}
	return nil
}

// Open starts a capture stream for the given camera source. A recognizer
// that cannot reach the camera responds 503, which surfaces as
// ErrCameraUnavailable.
func (c *Client) Open(ctx context.Context, source string) (Source, error) {
	inputBody, err := json.Marshal(map[string]string{"source": source})
	if err != nil {
		return nil, fmt.Errorf("could not marshal input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL("v1", "streams"), bytes.NewReader(inputBody))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, fmt.Errorf("%w: %s", ErrCameraUnavailable, readErrorBody(resp.Body))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("open stream failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}
	if result.ID == "" {
		return nil, fmt.Errorf("recognizer returned an empty stream id")
	}

	return &httpStream{client: c, id: result.ID}, nil
}

// httpStream is one open capture stream on the recognizer service.
type httpStream struct {
	client *Client
	id     string
}

// Next pulls the next observation. The recognizer holds the request until a
// frame has been processed, so this blocks for about one frame interval.
func (s *httpStream) Next(ctx context.Context) (Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.client.resolveURL("v1", "streams", s.id, "next"), nil)
	if err != nil {
		return Observation{}, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Observation{}, ctx.Err()
		}
		return Observation{}, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	// 410 means the stream is gone: camera unplugged or the recognizer
	// closed it. That ends the session loop, it is not a failure.
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		return Observation{}, ErrFeedEnded
	}
	if resp.StatusCode != http.StatusOK {
		return Observation{}, fmt.Errorf("next observation failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var wire observationJSON
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return Observation{}, fmt.Errorf("could not unmarshal observation: %w", err)
	}
	return wire.observation(), nil
}

// Close releases the stream on the recognizer.
func (s *httpStream) Close() error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, s.client.resolveURL("v1", "streams", s.id), nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	// A stream that already ended is fine to close again.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusGone && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("close stream failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}
	return nil
}

// readErrorBody reads the response body for error messages.
// Returns empty string if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}
