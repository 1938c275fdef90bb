package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/pillowbout/internal/domain/bout"
	"github.com/okian/pillowbout/internal/domain/model"
)

// StatusError is a non-2xx reply from the service.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// ScoreReply mirrors the POST /bout/score response.
type ScoreReply struct {
	Status    string              `json:"status"`
	Duplicate bool                `json:"duplicate"`
	Event     *model.ScoringEvent `json:"event"`
	View      bout.View           `json:"view"`
}

// UndoReply mirrors the POST /bout/undo response.
type UndoReply struct {
	Removed bool                `json:"removed"`
	Event   *model.ScoringEvent `json:"event"`
	View    bout.View           `json:"view"`
}

type roundReply struct {
	Step string    `json:"step"`
	View bout.View `json:"view"`
}

// Client drives the judging console API.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{base: base, client: &http.Client{Timeout: timeout}}
}

// do sends body as JSON and decodes a 2xx reply into out when out is not nil.
func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	switch v := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*v = data
		return nil
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
		}
		return nil
	}
}

// Health checks that the service answers on /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

// View fetches the console view.
func (c *Client) View(ctx context.Context) (bout.View, error) {
	var v bout.View
	err := c.do(ctx, http.MethodGet, "/bout", nil, nil, &v)
	return v, err
}

// NewBout clears the session.
func (c *Client) NewBout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/bout/new", nil, nil, nil)
}

// SetMetadata replaces the bout header.
func (c *Client) SetMetadata(ctx context.Context, m Metadata) error {
	return c.do(ctx, http.MethodPut, "/bout/metadata", m, nil, nil)
}

// Score submits one tap with its idempotency key.
func (c *Client) Score(ctx context.Context, t Tap) (ScoreReply, error) {
	var r ScoreReply
	h := http.Header{}
	h.Set("Idempotency-Key", t.Key)
	err := c.do(ctx, http.MethodPost, "/bout/score",
		map[string]string{"fighter": string(t.Fighter), "kind": string(t.Kind)}, h, &r)
	return r, err
}

// Undo removes the latest event.
func (c *Client) Undo(ctx context.Context) (UndoReply, error) {
	var r UndoReply
	err := c.do(ctx, http.MethodPost, "/bout/undo", nil, nil, &r)
	return r, err
}

// NextRound advances and reports the step taken.
func (c *Client) NextRound(ctx context.Context) (string, error) {
	var r roundReply
	err := c.do(ctx, http.MethodPost, "/round/next", nil, nil, &r)
	return r.Step, err
}

// EnterTiebreaker moves into the tiebreaker.
func (c *Client) EnterTiebreaker(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/round/tiebreaker", nil, nil, nil)
}

// StartClock starts the round clock.
func (c *Client) StartClock(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/clock/start", nil, nil, nil)
}

// PauseClock pauses the round clock.
func (c *Client) PauseClock(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/clock/pause", nil, nil, nil)
}

// Save stores the bout and returns its file name.
func (c *Client) Save(ctx context.Context) (string, error) {
	var r struct {
		Name string `json:"name"`
	}
	err := c.do(ctx, http.MethodPost, "/bout/save", nil, nil, &r)
	return r.Name, err
}

// Export downloads the persisted JSON record.
func (c *Client) Export(ctx context.Context) ([]byte, error) {
	var data []byte
	err := c.do(ctx, http.MethodGet, "/bout/export", nil, nil, &data)
	return data, err
}

// Sheet downloads the score sheet workbook.
func (c *Client) Sheet(ctx context.Context) ([]byte, error) {
	var data []byte
	err := c.do(ctx, http.MethodGet, "/bout/sheet.xlsx", nil, nil, &data)
	return data, err
}
