package threads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

// PostResult es el resultado de una publicación en dos fases.
type PostResult struct {
	CreationID string
	PostID     string
	// APIVersion es el candidato que ganó el fallback ("" = sin versión).
	APIVersion string
}

type createResponse struct {
	ID string `json:"id"`
}

// Publish publica texto con el protocolo de dos fases de Threads: primero se
// crea un contenedor, después se publica. Ambas llamadas deben funcionar para
// que un candidato de versión cuente como exitoso; los candidatos se prueban
// estrictamente en orden porque la creación del contenedor tiene efectos.
func (c *Client) Publish(ctx context.Context, text, accessToken, userID string) (*PostResult, error) {
	if n := utf8.RuneCountInString(text); n > TextLimit {
		return nil, fmt.Errorf("threads: text is %d characters, limit is %d", n, TextLimit)
	}

	actor := strings.TrimSpace(userID)
	if actor == "" {
		actor = "me"
	}

	var attempts []string
	for _, version := range c.Versions {
		result, err := c.publishAt(ctx, version, text, accessToken, actor)
		if err != nil {
			attempts = append(attempts, tagAttempt(version, err))
			continue
		}
		return result, nil
	}
	return nil, aggregateCandidates("publish", attempts)
}

// publishAt corre las dos fases contra un candidato de versión.
func (c *Client) publishAt(ctx context.Context, version, text, accessToken, actor string) (*PostResult, error) {
	createForm := url.Values{}
	createForm.Set("media_type", "TEXT")
	createForm.Set("text", text)
	createForm.Set("access_token", accessToken)

	creationID, err := c.postForID(ctx, c.endpoint(version, "/"+actor+"/threads"), createForm)
	if err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}

	publishForm := url.Values{}
	publishForm.Set("creation_id", creationID)
	publishForm.Set("access_token", accessToken)

	postID, err := c.postForID(ctx, c.endpoint(version, "/"+actor+"/threads_publish"), publishForm)
	if err != nil {
		return nil, fmt.Errorf("publish container: %w", err)
	}

	return &PostResult{CreationID: creationID, PostID: postID, APIVersion: version}, nil
}

// postForID hace un POST de formulario y espera un body {"id": "..."}.
func (c *Client) postForID(ctx context.Context, endpoint string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", failureFromResponse(resp, body)
	}

	var cr createResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if cr.ID == "" {
		return "", failureFromResponse(resp, body)
	}
	return cr.ID, nil
}
