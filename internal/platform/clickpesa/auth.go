package clickpesa

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// authStrategy attaches per-request credentials. The variant is chosen once
// at client construction from config, never inferred from response codes.
type authStrategy interface {
	apply(ctx context.Context, c *Client, req *http.Request) error
}

// staticKeyAuth sends the client id and API key on every request.
type staticKeyAuth struct{}

func (staticKeyAuth) apply(_ context.Context, c *Client, req *http.Request) error {
	req.Header.Set("X-Client-Id", c.cfg.ClientID)
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	return nil
}

// tokenBearerAuth exchanges the client id/API key for a short-lived bearer
// token on every call. Tokens are deliberately not cached: correctness must
// not depend on expiry bookkeeping, and payment operations are infrequent
// enough that the extra round trip does not matter.
type tokenBearerAuth struct{}

func (tokenBearerAuth) apply(ctx context.Context, c *Client, req *http.Request) error {
	token, err := c.GenerateToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to issue bearer token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

type tokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// GenerateToken calls the token-issuance endpoint with the static credentials
// and returns the raw bearer token.
func (c *Client) GenerateToken(ctx context.Context) (string, error) {
	var res tokenResponse
	if _, err := c.doJSON(ctx, "generate_token", http.MethodPost, "/generate-token", nil, &res, staticKeyAuth{}); err != nil {
		return "", err
	}
	token := strings.TrimPrefix(strings.TrimSpace(res.Token), "Bearer ")
	if token == "" {
		return "", fmt.Errorf("%w: token endpoint returned an empty token", ErrUnexpectedResponse)
	}
	c.logTokenExpiry(token)
	return token, nil
}

// logTokenExpiry reads the exp claim without verifying the signature (the
// gateway signed it for itself, we only want the expiry for diagnostics).
func (c *Client) logTokenExpiry(token string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return
	}
	expiresAt := time.Unix(int64(exp), 0)
	c.log.Debugw("clickpesa_token_issued", "expires_at", expiresAt.UTC(), "ttl_s", time.Until(expiresAt).Seconds())
}

// authDiagnostic turns a 401 body into an operator-facing hint. The gateway
// uses the same status for bad credentials and for callers whose domain/IP is
// not allowlisted; the body text is the only way to tell them apart.
func authDiagnostic(body string) string {
	lower := strings.ToLower(body)
	if strings.Contains(lower, "whitelist") || strings.Contains(lower, "allowlist") ||
		strings.Contains(lower, "domain") || strings.Contains(lower, "ip address") {
		return "caller domain/IP is not allowlisted for these credentials; update the allowlist in the gateway dashboard"
	}
	return "credentials rejected by the gateway; verify client_id and api_key against the gateway dashboard"
}
