package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/USA-RedDragon/germ-rpctest/internal/utils"
	"github.com/go-errors/errors"
)

const DefaultURL = "http://localhost:55000"

var (
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	ErrInvalidResponse  = errors.New("response is not a JSON object")
)

// Params are the request fields sent next to the action.
type Params map[string]any

// Error is a failure reported by the node in the "error" field of its answer.
type Error struct {
	Action  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: node error: %s", e.Action, e.Message)
}

// Recorder observes every call made by a Client.
type Recorder interface {
	ObserveCall(action string, duration time.Duration, err error)
}

type Option func(*Client)

// WithTimeout bounds each call. Zero keeps calls unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

type Client struct {
	url      string
	http     *http.Client
	timeout  time.Duration
	recorder Recorder
}

func NewClient(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:  url,
		http: utils.DefaultHTTPClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) URL() string {
	return c.url
}

// Call posts action with params and decodes the answer into out, which may be nil.
func (c *Client) Call(ctx context.Context, action string, params Params, out any) (err error) {
	if c.recorder != nil {
		start := time.Now()
		defer func() {
			c.recorder.ObserveCall(action, time.Since(start), err)
		}()
	}

	data, err := c.post(ctx, action, params)
	if err != nil {
		return err
	}

	var probe struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("%s: %w: %w", action, ErrInvalidResponse, err)
	}
	if len(probe.Error) > 0 && string(probe.Error) != "null" {
		var msg string
		if err := json.Unmarshal(probe.Error, &msg); err != nil {
			msg = string(probe.Error)
		}
		return &Error{Action: action, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", action, err)
	}
	return nil
}

// Raw performs a call and returns the undecoded JSON object.
func (c *Client) Raw(ctx context.Context, action string, params Params) (map[string]any, error) {
	out := map[string]any{}
	if err := c.Call(ctx, action, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, action string, params Params) ([]byte, error) {
	payload := make(map[string]any, len(params)+1)
	for k, v := range params {
		payload[k] = v
	}
	payload["action"] = action

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", action, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := utils.HTTPRequest(ctx, c.http, http.MethodPost, c.url, bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", action, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s: %w: %d", action, ErrUnexpectedStatus, resp.StatusCode)
	}
	return data, nil
}
