// Package progress is the client side of the streaming download protocol.
// It reads the announced Content-Length and reports transferred bytes,
// throughput and ETA while the body arrives.
package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/ytget/yt-splitter/internal/model"
)

// Reporter receives a sample after every chunk and once at the end
type Reporter func(model.ProgressSample)

// Client talks to a yt-splitter server
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient returns a client for the server at base
func NewClient(base string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", base)
	}
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{base: u, http: hc}, nil
}

// Metadata calls POST /fetch
func (c *Client) Metadata(ctx context.Context, videoURL string) (*model.VideoMetadata, error) {
	body, err := json.Marshal(map[string]string{"url": videoURL})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/fetch", nil), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var meta model.VideoMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &meta, nil
}

// Split calls GET /split and returns the segment list
func (c *Client) Split(ctx context.Context, videoURL, quality string, o model.Orientation) ([]model.SplitItem, error) {
	q := url.Values{"url": {videoURL}, "resolution": {quality}, "orientation": {string(o)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/split", q), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var items []model.SplitItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode split response: %w", err)
	}
	return items, nil
}

// Download streams GET /download into outDir
func (c *Client) Download(ctx context.Context, videoURL, quality, outDir string, report Reporter) (string, model.ProgressSample, error) {
	q := url.Values{"url": {videoURL}, "resolution": {quality}}
	return c.Fetch(ctx, c.endpoint("/download", q), outDir, report)
}

// Fetch streams any file endpoint, such as a segment link, into outDir.
// Relative links resolve against the server base.
func (c *Client) Fetch(ctx context.Context, link, outDir string, report Reporter) (string, model.ProgressSample, error) {
	var sample model.ProgressSample

	ref, err := url.Parse(link)
	if err != nil {
		return "", sample, fmt.Errorf("invalid link %q: %w", link, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.ResolveReference(ref).String(), nil)
	if err != nil {
		return "", sample, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", sample, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", sample, err
	}

	name := filenameFrom(resp.Header.Get("Content-Disposition"), "video.mp4")
	dst := filepath.Join(outDir, name)
	f, err := os.Create(dst)
	if err != nil {
		return "", sample, fmt.Errorf("create %s: %w", dst, err)
	}

	sample, err = Copy(f, resp.Body, resp.ContentLength, report)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
		return "", sample, err
	}
	if sample.Total > 0 && !sample.Done() {
		os.Remove(dst)
		return "", sample, fmt.Errorf("short body: got %d of %d bytes", sample.Transferred, sample.Total)
	}
	return dst, sample, nil
}

// Copy moves src into dst and reports progress against total (-1 or 0 when
// unknown). It returns the final sample.
func Copy(dst io.Writer, src io.Reader, total int64, report Reporter) (model.ProgressSample, error) {
	if total < 0 {
		total = 0
	}
	cw := &countingWriter{
		dst:     dst,
		started: time.Now(),
		sample:  model.ProgressSample{Total: total},
		report:  report,
	}
	_, err := io.Copy(cw, src)
	cw.emit()
	if err != nil {
		return cw.sample, fmt.Errorf("stream body: %w", err)
	}
	return cw.sample, nil
}

// countingWriter updates the running sample on every write
type countingWriter struct {
	dst     io.Writer
	started time.Time
	sample  model.ProgressSample
	report  Reporter
}

func (w *countingWriter) Write(b []byte) (int, error) {
	n, err := w.dst.Write(b)
	w.sample.Transferred += int64(n)
	w.emit()
	return n, err
}

func (w *countingWriter) emit() {
	w.sample.Elapsed = time.Since(w.started)
	if w.report != nil {
		w.report(w.sample)
	}
}

// Bar returns a Reporter that drives a terminal progress bar
func Bar(description string) Reporter {
	var bar *progressbar.ProgressBar
	return func(s model.ProgressSample) {
		if bar == nil {
			limit := s.Total
			if limit == 0 {
				limit = -1
			}
			bar = progressbar.DefaultBytes(limit, description)
		}
		bar.Set64(s.Transferred)
	}
}

// Text returns a Reporter that writes one line per interval with percent,
// size, speed and ETA. A sample that completes the announced total is
// always written.
func Text(w io.Writer, description string, interval time.Duration) Reporter {
	var last time.Time
	return func(s model.ProgressSample) {
		now := time.Now()
		if !s.Done() && now.Sub(last) < interval {
			return
		}
		last = now
		fmt.Fprintln(w, Line(description, s))
	}
}

// Line formats a running sample for plain output
func Line(description string, s model.ProgressSample) string {
	if s.Total == 0 {
		return fmt.Sprintf("%s: %s, %s/s", description,
			humanize.Bytes(uint64(s.Transferred)),
			humanize.Bytes(uint64(s.BytesPerSecond())))
	}
	return fmt.Sprintf("%s: %.1f%% %s of %s, %s/s, ETA %s", description,
		s.Percent(),
		humanize.Bytes(uint64(s.Transferred)),
		humanize.Bytes(uint64(s.Total)),
		humanize.Bytes(uint64(s.BytesPerSecond())),
		s.ETAString())
}

// Summary formats a finished sample as size, speed and elapsed time
func Summary(s model.ProgressSample) string {
	return fmt.Sprintf("%s in %s (%s/s)",
		humanize.Bytes(uint64(s.Transferred)),
		s.Elapsed.Round(time.Millisecond),
		humanize.Bytes(uint64(s.BytesPerSecond())))
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// checkStatus turns a non-2xx response into an error carrying the server's
// message
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var body struct {
		Error string `json:"error"`
	}
	msg := resp.Status
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
}

// filenameFrom reads the attachment name from a Content-Disposition header
func filenameFrom(disposition, fallback string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return fallback
	}
	name := filepath.Base(params["filename"])
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fallback
	}
	return name
}
