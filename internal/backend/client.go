// Package backend is the HTTP client for the clinote typing-engine API.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBaseURL is where the typing-engine backend listens in a local install.
const DefaultBaseURL = "http://localhost:8000"

// Creation statuses returned by POST /create-doctor.
const (
	StatusCreated = "created"
	StatusExists  = "exists"
)

// Client talks to the typing-engine backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets a per-request timeout. Zero means requests wait until the
// caller's context is cancelled.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a Client for the given base URL. An empty URL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the origin all requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// File is one file part of a multipart upload.
type File struct {
	Name string
	Body io.Reader
}

// StatusError is returned by the binary endpoints when the backend answers
// with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// IsStatusError reports whether err is (or wraps) a *StatusError.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// CreateResult is the body of POST /create-doctor.
type CreateResult struct {
	Status   string `json:"status"`
	DoctorID string `json:"doctor_id"`
}

// Accepted reports whether the backend created or already had the profile.
func (r CreateResult) Accepted() bool {
	return r.Status == StatusCreated || r.Status == StatusExists
}

// UploadResult is the body of POST /upload-style-sample.
type UploadResult struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Download is a binary document returned by the backend.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ListDoctors returns the doctor codes known to the backend, in backend order.
func (c *Client) ListDoctors(ctx context.Context) ([]string, error) {
	var out struct {
		Doctors []string `json:"doctors"`
	}
	if err := c.getJSON(ctx, "/list-doctors", nil, &out); err != nil {
		return nil, err
	}
	return out.Doctors, nil
}

// SampleCount returns how many style samples are stored for a doctor.
func (c *Client) SampleCount(ctx context.Context, doctorID string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	q := url.Values{"doctor_id": {doctorID}}
	if err := c.getJSON(ctx, "/style-sample-count", q, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// HasSamples reports whether a doctor has at least one stored sample.
func (c *Client) HasSamples(ctx context.Context, doctorID string) (bool, error) {
	var out struct {
		HasSamples bool `json:"has_samples"`
	}
	q := url.Values{"doctor_id": {doctorID}}
	if err := c.getJSON(ctx, "/has-samples", q, &out); err != nil {
		return false, err
	}
	return out.HasSamples, nil
}

// Health checks that the backend is reachable and answering.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// CreateDoctor registers a doctor code. The returned DoctorID is canonical.
func (c *Client) CreateDoctor(ctx context.Context, doctorID string) (CreateResult, error) {
	var out CreateResult
	fields := map[string]string{"doctor_id": doctorID}
	if err := c.postMultipartJSON(ctx, "/create-doctor", fields, "", nil, &out); err != nil {
		return CreateResult{}, err
	}
	return out, nil
}

// UploadSample stores one corrected report as a style sample for a doctor.
// A rejection by the backend is reported in UploadResult.Error, not as err.
func (c *Client) UploadSample(ctx context.Context, doctorID string, f File) (UploadResult, error) {
	var out UploadResult
	fields := map[string]string{"doctor_id": doctorID}
	if err := c.postMultipartJSON(ctx, "/upload-style-sample", fields, "file", &f, &out); err != nil {
		return UploadResult{}, err
	}
	return out, nil
}

// Transcribe sends a dictation and returns the generated draft document.
func (c *Client) Transcribe(ctx context.Context, doctorID string, f File) (*Download, error) {
	fields := map[string]string{"doctor_id": doctorID}
	return c.postMultipartBinary(ctx, "/transcribe-docx", fields, "file", &f)
}

// Restyle rewrites a raw draft in the doctor's learned style.
func (c *Client) Restyle(ctx context.Context, doctorID, rawDraft string) (*Download, error) {
	fields := map[string]string{"raw_draft": rawDraft}
	path := "/style/doctor/" + url.PathEscape(doctorID) + "/generate"
	return c.postMultipartBinary(ctx, path, fields, "", nil)
}

// RunAudit uploads a zipped feedback folder and returns the audit spreadsheet.
func (c *Client) RunAudit(ctx context.Context, f File) (*Download, error) {
	return c.postMultipartBinary(ctx, "/run-audit", nil, "feedback_zip", &f)
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, q, nil, "")
	if err != nil {
		return err
	}
	return decodeJSON(resp, v)
}

func (c *Client) postMultipartJSON(ctx context.Context, path string, fields map[string]string, fileField string, f *File, v any) error {
	body, contentType := multipartBody(fields, fileField, f)
	resp, err := c.do(ctx, http.MethodPost, path, nil, body, contentType)
	if err != nil {
		body.CloseWithError(err)
		return err
	}
	return decodeJSON(resp, v)
}

func (c *Client) postMultipartBinary(ctx context.Context, path string, fields map[string]string, fileField string, f *File) (*Download, error) {
	body, contentType := multipartBody(fields, fileField, f)
	resp, err := c.do(ctx, http.MethodPost, path, nil, body, contentType)
	if err != nil {
		body.CloseWithError(err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &Download{
		Filename:    attachmentName(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body io.Reader, contentType string) (*http.Response, error) {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.log.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// decodeJSON decodes the body regardless of status code: the backend reports
// rejections such as upload errors inside a JSON body.
func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

// multipartBody streams the form through a pipe so large dictations are not
// buffered in memory. The caller must close the reader if the request is
// never sent, or the writer goroutine blocks forever.
func multipartBody(fields map[string]string, fileField string, f *File) (*io.PipeReader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(mw, fields, fileField, f)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeMultipart(mw *multipart.Writer, fields map[string]string, fileField string, f *File) error {
	if f != nil && fileField != "" {
		part, err := mw.CreateFormFile(fileField, f.Name)
		if err != nil {
			return fmt.Errorf("creating file part: %w", err)
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return fmt.Errorf("writing file part: %w", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("writing field %s: %w", k, err)
		}
	}
	return nil
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
