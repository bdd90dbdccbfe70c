package aiwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const chatPath = "/api/openrouter"

// Client talks to the chat relay. It never holds the upstream credential.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient returns a client for the relay at baseURL. The http.Client must
// not set a Timeout, since responses stream for as long as the model writes.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    httpClient,
		logger:  logger,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Stream posts the request and returns the delta reader. Canceling ctx aborts
// the underlying connection.
func (c *Client) Stream(ctx context.Context, req openai.ChatCompletionRequest) (*StreamReader, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error encoding chat request: %w", err)
	}

	// The timestamp defeats intermediary caches.
	url := c.baseURL + chatPath + "?t=" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error building chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-store")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Category: CategoryTransport, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		detail := errorDetail(resp.Body)
		c.logger.Warn("Chat relay rejected request",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail))
		return nil, statusError(resp.StatusCode, detail)
	}

	return NewStreamReader(resp.Body, c.logger), nil
}

// errorDetail extracts {"error": "..."} from a relay error body, if present.
func errorDetail(body io.Reader) string {
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || json.Unmarshal(data, &payload) != nil || len(payload.Error) == 0 {
		return ""
	}
	var text string
	if json.Unmarshal(payload.Error, &text) == nil {
		return text
	}
	return string(payload.Error)
}
