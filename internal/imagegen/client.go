// Package imagegen generates chapter illustrations with the Volcengine
// visual API. Tasks are submitted asynchronously and polled until done.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultEndpoint     = "https://visual.volcengineapi.com"
	DefaultReqKey       = "jimeng_t2i_v40"
	DefaultTimeout      = 120 * time.Second
	DefaultPollInterval = 3 * time.Second

	apiVersion   = "2022-08-31"
	actionSubmit = "CVSync2AsyncSubmitTask"
	actionResult = "CVSync2AsyncGetResult"
	codeOK       = 10000
)

// ErrNoImage is returned when a finished task carries no image payload.
var ErrNoImage = errors.New("no image data in result")

// APIError is a non-success code in an otherwise well-formed response.
type APIError struct {
	Code      int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("volcengine error %d: %s (request %s)", e.Code, e.Message, e.RequestID)
}

// StatusError is a task that ended in a status other than done.
type StatusError struct {
	TaskID string
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("task %s ended with status %q", e.TaskID, e.Status)
}

// Options configures a Client.
type Options struct {
	AccessKey    string
	SecretKey    string
	Endpoint     string
	ReqKey       string
	PollInterval time.Duration
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client calls the asynchronous text-to-image API.
type Client struct {
	endpoint     string
	reqKey       string
	pollInterval time.Duration
	signer       Signer
	httpClient   *http.Client
	log          *slog.Logger

	now     func() time.Time
	backoff func(attempt int) time.Duration
}

func NewClient(opts Options) (*Client, error) {
	if opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, errors.New("volcengine access key and secret key are required")
	}
	c := &Client{
		endpoint:     opts.Endpoint,
		reqKey:       opts.ReqKey,
		pollInterval: opts.PollInterval,
		signer:       Signer{AccessKey: opts.AccessKey, SecretKey: opts.SecretKey},
		httpClient:   opts.HTTPClient,
		log:          opts.Logger,
		now:          time.Now,
		backoff:      Backoff,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(c.endpoint); err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if c.reqKey == "" {
		c.reqKey = DefaultReqKey
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c, nil
}

type apiResponse struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// Result is the payload of a finished task.
type Result struct {
	Status       string   `json:"status"`
	ImageURLs    []string `json:"image_urls"`
	BinaryBase64 []string `json:"binary_data_base64"`
}

// Submit creates a generation task and returns its ID.
func (c *Client) Submit(ctx context.Context, r Request) (string, error) {
	if err := r.Validate(); err != nil {
		return "", fmt.Errorf("invalid request: %w", err)
	}
	form := map[string]any{
		"req_key":      c.reqKey,
		"prompt":       r.Prompt,
		"scale":        r.Scale,
		"force_single": r.ForceSingle,
	}
	if r.Width > 0 && r.Height > 0 {
		form["width"] = r.Width
		form["height"] = r.Height
	}

	var data struct {
		TaskID string `json:"task_id"`
	}
	if err := c.call(ctx, actionSubmit, form, &data); err != nil {
		return "", fmt.Errorf("submit task: %w", err)
	}
	if data.TaskID == "" {
		return "", errors.New("submit task: empty task id")
	}
	c.log.Info("image task submitted", "task_id", data.TaskID, "width", r.Width, "height", r.Height)
	return data.TaskID, nil
}

// Wait polls a task until it is done, fails or ctx ends.
func (c *Client) Wait(ctx context.Context, taskID string) (*Result, error) {
	form := map[string]any{
		"req_key": c.reqKey,
		"task_id": taskID,
	}
	for {
		var res Result
		if err := c.call(ctx, actionResult, form, &res); err != nil {
			return nil, fmt.Errorf("get result: %w", err)
		}
		switch res.Status {
		case "done":
			return &res, nil
		case "in_queue", "generating":
			c.log.Debug("image task pending", "task_id", taskID, "status", res.Status)
		default:
			return nil, &StatusError{TaskID: taskID, Status: res.Status}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for task %s: %w", taskID, ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}

// Generate submits r and waits up to timeout for the result.
func (c *Client) Generate(ctx context.Context, r Request, timeout time.Duration) (*Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	taskID, err := c.Submit(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.Wait(ctx, taskID)
}

// Save writes the first image of res to path. A download failure falls
// back to the inline base64 payload.
func (c *Client) Save(ctx context.Context, res *Result, path string) error {
	var img []byte
	if len(res.ImageURLs) > 0 {
		data, err := c.download(ctx, res.ImageURLs[0])
		if err == nil {
			img = data
		} else {
			c.log.Warn("image download failed", "url", res.ImageURLs[0], "error", err)
		}
	}
	if img == nil && len(res.BinaryBase64) > 0 {
		data, err := base64.StdEncoding.DecodeString(res.BinaryBase64[0])
		if err != nil {
			return fmt.Errorf("decode image: %w", err)
		}
		img = data
	}
	if img == nil {
		return ErrNoImage
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	c.log.Info("image saved", "path", path, "bytes", len(img))
	return nil
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) call(ctx context.Context, action string, form map[string]any, out any) error {
	body, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	u.RawQuery = url.Values{"Action": {action}, "Version": {apiVersion}}.Encode()

	var apiResp apiResponse
	err = c.withRetry(ctx, action, func() error {
		apiResp = apiResponse{}
		return c.post(ctx, action, u.String(), body, &apiResp)
	})
	if err != nil {
		return err
	}
	if apiResp.Code != codeOK {
		return &APIError{Code: apiResp.Code, Message: apiResp.Message, RequestID: apiResp.RequestID}
	}
	if len(apiResp.Data) == 0 {
		return errors.New("response has no data")
	}
	if err := json.Unmarshal(apiResp.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, action, target string, body []byte, out *apiResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.signer.Sign(req, body, c.now())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("volcengine api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.log.Debug("volcengine call",
		"action", action,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("volcengine api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) download(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 64<<20))
}
