package threads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dropDatabas3/crossposter/internal/metrics"
	"github.com/dropDatabas3/crossposter/internal/observability/logger"
)

// Token es el resultado de un intercambio de authorization code.
type Token struct {
	AccessToken string
	UserID      string
	// APIVersion es el candidato que ganó el fallback ("" = sin versión).
	APIVersion string
	// IsLongLived indica si el upgrade best-effort a token de larga
	// duración funcionó.
	IsLongLived bool
	// ExpiresIn en segundos; nil cuando el proveedor no lo informa.
	ExpiresIn *int64
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	UserID      json.Number `json:"user_id"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   *int64      `json:"expires_in"`
}

// ExchangeCode cambia un authorization code por un access token, probando los
// candidatos de versión en orden. Sobre el primer candidato exitoso intenta
// exactamente un upgrade a token de larga duración; si ese segundo paso falla
// se queda con el token corto en silencio.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	var attempts []string

	for _, version := range c.Versions {
		tok, err := c.exchangeAt(ctx, version, code, redirectURI)
		if err != nil {
			metrics.OAuthExchangesTotal.WithLabelValues(RenderVersion(version), "error").Inc()
			attempts = append(attempts, tagAttempt(version, err))
			continue
		}
		metrics.OAuthExchangesTotal.WithLabelValues(RenderVersion(version), "ok").Inc()

		if long, err := c.upgradeToLongLived(ctx, version, tok.AccessToken); err != nil {
			// upgrade best-effort: el token corto sigue siendo válido
			logger.From(ctx).Debug("long-lived exchange failed, keeping short-lived token",
				logger.APIVersion(RenderVersion(version)),
				logger.Err(err),
			)
		} else {
			tok.AccessToken = long.AccessToken
			tok.ExpiresIn = long.ExpiresIn
			tok.IsLongLived = true
		}
		return tok, nil
	}

	return nil, aggregateCandidates("code exchange", attempts)
}

// exchangeAt hace el POST de intercambio contra un candidato de versión.
func (c *Client) exchangeAt(ctx context.Context, version, code, redirectURI string) (*Token, error) {
	form := url.Values{}
	form.Set("client_id", c.AppID)
	form.Set("client_secret", c.AppSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", redirectURI)
	form.Set("code", code)

	endpoint := c.endpoint(version, "/oauth/access_token")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, failureFromResponse(resp, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, failureFromResponse(resp, body)
	}

	return &Token{
		AccessToken: tr.AccessToken,
		UserID:      tr.UserID.String(),
		APIVersion:  version,
		ExpiresIn:   tr.ExpiresIn,
	}, nil
}

// upgradeToLongLived intercambia un token corto por uno de larga duración en
// la misma versión de API que ganó el intercambio inicial.
func (c *Client) upgradeToLongLived(ctx context.Context, version, accessToken string) (*tokenResponse, error) {
	q := url.Values{}
	q.Set("grant_type", "th_exchange_token")
	q.Set("client_secret", c.AppSecret)
	q.Set("access_token", accessToken)

	endpoint := c.endpoint(version, "/access_token") + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, failureFromResponse(resp, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decode long-lived response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("no access_token in long-lived response")
	}
	return &tr, nil
}
