package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrProviderRejected is returned when the identity provider refuses an
// authorization code (non-2xx response).
var ErrProviderRejected = errors.New("identity provider rejected the authorization code")

// Provider exchanges login authorization codes for identities against the
// hosted identity service. The exchange happens exactly once per login, at
// the callback endpoint.
type Provider struct {
	// TokenURL is the provider endpoint that accepts the code exchange.
	TokenURL string
	// ClientID and ClientSecret authenticate this backend to the provider.
	ClientID     string
	ClientSecret string
	// HTTPClient defaults to a client with a 10s timeout when nil.
	HTTPClient *http.Client
}

// providerTokenResponse is the subset of the provider payload we consume.
type providerTokenResponse struct {
	User struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user"`
}

// ExchangeCode trades an authorization code for the identity it represents.
// The provider's own error payloads are not interpreted; any non-2xx status
// maps to ErrProviderRejected with the status attached.
func (p Provider) ExchangeCode(ctx context.Context, code string) (Identity, error) {
	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", p.ClientID)
	form.Set("client_secret", p.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return Identity{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return Identity{}, fmt.Errorf("%w: status %d", ErrProviderRejected, resp.StatusCode)
	}

	var body providerTokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return Identity{}, fmt.Errorf("decode provider response: %w", err)
	}
	if body.User.ID == "" {
		return Identity{}, fmt.Errorf("%w: empty subject", ErrProviderRejected)
	}
	return Identity{
		ID:        body.User.ID,
		Email:     body.User.Email,
		Name:      body.User.Name,
		AvatarURL: body.User.AvatarURL,
	}, nil
}
