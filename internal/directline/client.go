package directline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reecen30/BotConnectorAPI/internal/logging"
)

// Client wraps the three Direct Line conversation operations: start a
// conversation, post an activity, and fetch the activity log.
type Client struct {
	baseURL string
	client  *http.Client
	log     *logging.Logger
}

// NewClient creates a Direct Line client against the given base URL
// (e.g. https://europe.directline.botframework.com/v3/directline).
func NewClient(baseURL string, log *logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.Sub("directline"),
	}
}

// StartConversation opens a new conversation with the bot token and
// returns the conversation handle with its scoped token.
func (c *Client) StartConversation(ctx context.Context, botToken string) (*Conversation, error) {
	var conv Conversation
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/conversations", botToken, nil, &conv, "start"); err != nil {
		return nil, err
	}
	if conv.ConversationID == "" || conv.Token == "" {
		return nil, &TransportError{Op: "start", Err: fmt.Errorf("response missing conversation id or token")}
	}
	c.log.Debug().Str("conversation", conv.ConversationID).Msg("conversation started")
	return &conv, nil
}

// PostActivity sends an activity into the conversation and returns the
// assigned activity ID.
func (c *Client) PostActivity(ctx context.Context, conversationID, conversationToken string, activity Activity) (string, error) {
	var ack struct {
		ID string `json:"id"`
	}
	url := fmt.Sprintf("%s/conversations/%s/activities", c.baseURL, conversationID)
	if err := c.do(ctx, http.MethodPost, url, conversationToken, activity, &ack, "post"); err != nil {
		return "", err
	}
	return ack.ID, nil
}

// Activities fetches the conversation's activity log. An empty
// watermark fetches from the beginning.
func (c *Client) Activities(ctx context.Context, conversationID, conversationToken, watermark string) (*ActivitySet, error) {
	url := fmt.Sprintf("%s/conversations/%s/activities", c.baseURL, conversationID)
	if watermark != "" {
		url += "?watermark=" + watermark
	}
	var set ActivitySet
	if err := c.do(ctx, http.MethodGet, url, conversationToken, nil, &set, "fetch"); err != nil {
		return nil, err
	}
	return &set, nil
}

// do performs a bearer-authed JSON round trip. Non-2xx responses become
// a TransportError carrying the upstream status and body.
func (c *Client) do(ctx context.Context, method, url, token string, in, out any, op string) error {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("marshaling request: %w", err)}
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn().Str("op", op).Int("status", resp.StatusCode).Msg("direct line request rejected")
		return &TransportError{Op: op, Status: resp.StatusCode, Body: string(body)}
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return &TransportError{Op: op, Status: resp.StatusCode, Body: string(body), Err: fmt.Errorf("parsing response: %w", err)}
		}
	}
	return nil
}
