package threads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// User identifica a un usuario de Threads por id estable y handle.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ResolveUser resuelve un access token a su usuario, con la misma política de
// fallback de versiones que el resto del cliente. Una respuesta sin id o sin
// username cuenta como fallo del candidato, no como éxito parcial.
func (c *Client) ResolveUser(ctx context.Context, accessToken string) (*User, error) {
	var attempts []string

	for _, version := range c.Versions {
		user, err := c.resolveAt(ctx, version, accessToken)
		if err != nil {
			attempts = append(attempts, tagAttempt(version, err))
			continue
		}
		return user, nil
	}
	return nil, aggregateCandidates("identity lookup", attempts)
}

func (c *Client) resolveAt(ctx context.Context, version, accessToken string) (*User, error) {
	q := url.Values{}
	q.Set("fields", "id,username")
	q.Set("access_token", accessToken)

	endpoint := c.endpoint(version, "/me") + "?" + q.Encode()
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

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	if user.ID == "" || user.Username == "" {
		return nil, fmt.Errorf("identity response missing id or username")
	}
	return &user, nil
}
