package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/handiism/gadget-browser/internal/taskqueue"
	"github.com/juju/ratelimit"
	"golang.org/x/sync/errgroup"
)

// StatusError is returned when the server answers with anything but 200 OK.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
}

// Client wraps HTTP operations for the gadget catalog servers.
//
// Client provides:
//   - Configured User-Agent header
//   - Timeout handling
//   - Optional bandwidth limit shared by all transfers
//   - File download with progress tracking
//   - Asynchronous fetches for taskqueue (Issue/Cancel)
//
// Example usage:
//
//	client := NewClient()
//	client.SetRateLimit(256 * 1024)
//
//	// Fetch a small document
//	data, err := client.Get(ctx, "https://example.com/plugins.xml")
//
//	// Drive a bounded queue
//	q := taskqueue.New(client, 6)
//	defer client.Wait()
type Client struct {
	httpClient *http.Client
	userAgent  string
	bucket     *ratelimit.Bucket

	requests errgroup.Group
}

// NewClient creates a new HTTP client.
//
// The client is configured with:
//   - 60 second timeout
//   - "GadgetBrowser" User-Agent header
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		userAgent: "GadgetBrowser",
	}
}

// SetRateLimit caps the combined read rate of response bodies.
// Zero or a negative value removes the limit.
func (c *Client) SetRateLimit(bytesPerSecond int64) {
	if bytesPerSecond <= 0 {
		c.bucket = nil
		return
	}
	c.bucket = ratelimit.NewBucketWithRate(float64(bytesPerSecond), bytesPerSecond)
}

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor large downloads by providing an OnUpdate callback
// that receives the current bytes written and total expected bytes.
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// open performs a GET request and returns the response when the status is
// 200 OK. The caller closes the body.
func (c *Client) open(ctx context.Context, url string) (*http.Response, io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var body io.Reader = resp.Body
	if c.bucket != nil {
		body = ratelimit.Reader(resp.Body, c.bucket)
	}
	return resp, body, nil
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns a *StatusError if the response status is not 200 OK.
//
// Example:
//
//	data, err := client.Get(ctx, "https://example.com/thumb.png")
//	var se *StatusError
//	if errors.As(err, &se) && se.Code == 404 { ... }
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, body, err := c.open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(body)
}

// DownloadFile downloads a file to the specified path with optional progress callback.
//
// The content is streamed to a temporary file next to destPath which is
// renamed into place once complete, so an interrupted download never
// leaves a truncated destPath behind.
//
// Parameters:
//   - ctx: Context for cancellation
//   - url: URL to download from
//   - destPath: Local file path to save to
//   - onProgress: Optional callback called with (bytesWritten, totalBytes)
//     Pass nil to disable progress tracking
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, onProgress func(written, total int64)) error {
	resp, body, err := c.open(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmpPath := destPath + ".part"
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	var writer io.Writer = file
	if onProgress != nil {
		writer = &ProgressWriter{
			Writer:   file,
			Total:    resp.ContentLength,
			OnUpdate: onProgress,
		}
	}

	_, err = io.Copy(writer, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, destPath)
}

// request is the taskqueue.Handle returned by Issue.
type request struct {
	cancel context.CancelFunc
}

// Issue starts an asynchronous GET for taskqueue. settle receives 200 and
// the body on success, the HTTP status on failure, or 0 when the request
// could not be completed. settle is not called once the request has been
// cancelled.
func (c *Client) Issue(url string, settle func(status int, payload []byte)) taskqueue.Handle {
	ctx, cancel := context.WithCancel(context.Background())
	r := &request{cancel: cancel}

	c.requests.Go(func() error {
		defer cancel()

		status, payload := c.fetch(ctx, url)
		if ctx.Err() != nil {
			return nil
		}
		settle(status, payload)
		return nil
	})

	return r
}

// Cancel aborts a request started by Issue.
func (c *Client) Cancel(h taskqueue.Handle) {
	if r, ok := h.(*request); ok {
		r.cancel()
	}
}

// Wait blocks until every request started by Issue has finished or been
// cancelled.
func (c *Client) Wait() {
	_ = c.requests.Wait()
}

func (c *Client) fetch(ctx context.Context, url string) (int, []byte) {
	payload, err := c.Get(ctx, url)
	if err == nil {
		return http.StatusOK, payload
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code, nil
	}
	return 0, nil
}
