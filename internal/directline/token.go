package directline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/reecen30/BotConnectorAPI/internal/logging"
)

// TokenProvider acquires short-lived Direct Line tokens for the bot
// identity. Tokens are not cached: every relay run fetches a fresh one,
// trading a round trip for not having to track expiry.
type TokenProvider struct {
	identity Identity
	client   *http.Client
	log      *logging.Logger
}

// NewTokenProvider creates a provider for the given bot identity.
func NewTokenProvider(identity Identity, log *logging.Logger) *TokenProvider {
	return &TokenProvider{
		identity: identity,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log.Sub("token"),
	}
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Acquire fetches a bearer token from the configured token endpoint.
func (p *TokenProvider) Acquire(ctx context.Context) (string, error) {
	endpoint, err := url.Parse(p.identity.TokenEndpoint)
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("invalid token endpoint: %w", err)}
	}
	q := endpoint.Query()
	q.Set("botId", p.identity.ID)
	q.Set("tenantId", p.identity.TenantID)
	endpoint.RawQuery = q.Encode()

	p.log.Debug().Str("endpoint", p.identity.TokenEndpoint).Msg("requesting token")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthError{Status: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		p.log.Error().Int("status", resp.StatusCode).Msg("token endpoint rejected request")
		return "", &AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", &AuthError{Status: resp.StatusCode, Body: string(body), Err: fmt.Errorf("parsing response: %w", err)}
	}
	if tr.Token == "" {
		return "", &AuthError{Status: resp.StatusCode, Body: string(body), Err: fmt.Errorf("empty token in response")}
	}

	return tr.Token, nil
}
