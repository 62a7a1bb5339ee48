// Package bluesky implements a minimal ATProto XRPC client: session login
// with identifier + app password, followed by a feed-post record creation.
package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// TextLimit es el máximo de code points que acepta Bluesky por post.
const TextLimit = 300

const defaultServiceURL = "https://bsky.social"

// Client es el cliente XRPC contra un PDS de Bluesky.
type Client struct {
	// ServiceURL permite apuntar a otro PDS o a un servidor fake en tests.
	ServiceURL string

	http *http.Client
}

// New crea un cliente de Bluesky. serviceURL vacío usa bsky.social.
func New(serviceURL string) *Client {
	if strings.TrimSpace(serviceURL) == "" {
		serviceURL = defaultServiceURL
	}
	return &Client{
		ServiceURL: strings.TrimRight(serviceURL, "/"),
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

// PostResult identifica el post creado en el repo del usuario.
type PostResult struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type session struct {
	AccessJWT string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

type xrpcError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Post inicia sesión con las credenciales dadas y crea un registro
// app.bsky.feed.post con el texto.
func (c *Client) Post(ctx context.Context, text, identifier, appPassword string) (*PostResult, error) {
	if n := utf8.RuneCountInString(text); n > TextLimit {
		return nil, fmt.Errorf("bluesky: text is %d characters, limit is %d", n, TextLimit)
	}

	sess, err := c.createSession(ctx, identifier, appPassword)
	if err != nil {
		return nil, err
	}

	record := map[string]any{
		"$type":     "app.bsky.feed.post",
		"text":      text,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	body := map[string]any{
		"repo":       sess.DID,
		"collection": "app.bsky.feed.post",
		"record":     record,
	}

	var result PostResult
	if err := c.call(ctx, "com.atproto.repo.createRecord", sess.AccessJWT, body, &result); err != nil {
		return nil, err
	}
	if result.URI == "" {
		return nil, errors.New("bluesky: createRecord response missing uri")
	}
	return &result, nil
}

func (c *Client) createSession(ctx context.Context, identifier, appPassword string) (*session, error) {
	body := map[string]any{
		"identifier": identifier,
		"password":   appPassword,
	}
	var sess session
	if err := c.call(ctx, "com.atproto.server.createSession", "", body, &sess); err != nil {
		return nil, err
	}
	if sess.AccessJWT == "" || sess.DID == "" {
		return nil, errors.New("bluesky: session response missing accessJwt or did")
	}
	return &sess, nil
}

// call hace un POST XRPC con body JSON y decodifica la respuesta en out.
func (c *Client) call(ctx context.Context, method, bearer string, in any, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ServiceURL+"/xrpc/"+method, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var xe xrpcError
		if err := json.Unmarshal(raw, &xe); err == nil && xe.Message != "" {
			return fmt.Errorf("bluesky: %s: %s", method, xe.Message)
		}
		return fmt.Errorf("bluesky: %s: HTTP %d", method, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("bluesky: decode %s response: %w", method, err)
		}
	}
	return nil
}
