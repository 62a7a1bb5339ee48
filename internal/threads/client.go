// Package threads implements the Meta Graph client for the Threads API:
// authorization-code exchange, two-phase publishing and identity lookup.
// Every operation walks an ordered list of API version candidates because the
// upstream endpoints are inconsistently versioned across app configurations.
package threads

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	graphBaseURL     = "https://graph.threads.net"
	authorizeBaseURL = "https://threads.net/oauth/authorize"

	// TextLimit es el máximo de code points que acepta Threads por post.
	TextLimit = 500

	// VersionAppDefault es cómo se muestra el candidato vacío (endpoint sin
	// versionar) en campos visibles al usuario.
	VersionAppDefault = "app-default"
)

// DefaultVersionCandidates es la lista ordenada default: primero la versión
// fijada, después el endpoint sin versionar.
var DefaultVersionCandidates = []string{"v1.0", ""}

// ErrInvalidToken marca fallos de autenticación reconocidos vía el hint del
// header WWW-Authenticate. Los callers lo detectan con errors.Is para
// enriquecer el mensaje con guía accionable.
var ErrInvalidToken = errors.New("threads: token invalid or expired")

// Client es el cliente HTTP contra la Graph API de Threads.
type Client struct {
	AppID     string
	AppSecret string

	// BaseURL permite apuntar a un servidor fake en tests.
	BaseURL string
	// Versions es la lista ordenada de candidatos de versión.
	Versions []string

	http *http.Client
}

// New crea un cliente de Threads. Con versions vacío usa la lista default.
func New(appID, appSecret string, versions []string) *Client {
	if len(versions) == 0 {
		versions = DefaultVersionCandidates
	}
	return &Client{
		AppID:     appID,
		AppSecret: appSecret,
		BaseURL:   graphBaseURL,
		Versions:  versions,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// RenderVersion muestra un tag de versión para el usuario.
func RenderVersion(v string) string {
	if v == "" {
		return VersionAppDefault
	}
	return v
}

// endpoint arma la URL para un candidato de versión dado.
func (c *Client) endpoint(version, path string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if version == "" {
		return base + path
	}
	return base + "/" + version + path
}

// apiError es el envelope de error de la Graph API.
type apiError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	ErrorUser string `json:"error_user_msg"`
}

type apiEnvelope struct {
	Error *apiError `json:"error"`
}

// failureFromResponse traduce una respuesta no exitosa a un error descriptivo.
// Orden de preferencia: hint de token inválido en WWW-Authenticate, mensaje de
// error del proveedor, fragmento del body crudo, status HTTP genérico.
func failureFromResponse(resp *http.Response, body []byte) error {
	if hint := resp.Header.Get("WWW-Authenticate"); hint != "" {
		lower := strings.ToLower(hint)
		if strings.Contains(lower, "invalid_token") || strings.Contains(lower, "oauth") {
			return fmt.Errorf("%w (HTTP %d)", ErrInvalidToken, resp.StatusCode)
		}
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		if msg := strings.TrimSpace(env.Error.Message); msg != "" {
			return errors.New(msg)
		}
	}

	if snippet := strings.TrimSpace(string(body)); snippet != "" {
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return errors.New(snippet)
	}

	return fmt.Errorf("HTTP %d", resp.StatusCode)
}

// aggregateCandidates junta los fallos de todos los candidatos en un solo
// error; los fallos individuales nunca se exponen por separado.
func aggregateCandidates(op string, attempts []string) error {
	return fmt.Errorf("threads: %s failed for all API versions: %s", op, strings.Join(attempts, "; "))
}

// tagAttempt etiqueta el fallo de un candidato con su versión.
func tagAttempt(version string, err error) string {
	return RenderVersion(version) + ": " + err.Error()
}
