package oauth

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/crossposter/internal/config"
	"github.com/dropDatabas3/crossposter/internal/http/helpers"
	"github.com/dropDatabas3/crossposter/internal/observability/logger"
	"github.com/dropDatabas3/crossposter/internal/threads"
)

// DataDeletionController atiende el callback de borrado de datos de Meta.
// No hay datos de usuario del lado del servidor; el endpoint existe para
// cumplir el contrato: verifica la firma y emite un código de confirmación
// consultable mientras viva en el cache TTL.
type DataDeletionController struct {
	cfg   *config.Config
	codes *gocache.Cache
}

type dataDeletionResponse struct {
	URL              string `json:"url"`
	ConfirmationCode string `json:"confirmation_code"`
}

// Create maneja POST /api/threads/oauth/data-deletion (form signed_request).
func (c *DataDeletionController) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("oauth.DataDeletion"))

	appSecret := strings.TrimSpace(c.cfg.Threads.AppSecret)
	if appSecret == "" {
		helpers.WriteError(w, helpers.ErrInternalServerError.WithDetail("THREADS_APP_SECRET is not configured"))
		return
	}

	if err := r.ParseForm(); err != nil {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("invalid form body"))
		return
	}
	signedRequest := strings.TrimSpace(r.PostForm.Get("signed_request"))
	if signedRequest == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("signed_request missing"))
		return
	}

	payload, err := threads.VerifySignedRequest(signedRequest, appSecret)
	if err != nil {
		// genérico a propósito: nunca se distingue qué sub-chequeo falló
		log.Warn("signed_request rejected")
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("signed_request invalid"))
		return
	}

	code := newConfirmationCode()
	if c.codes != nil {
		c.codes.Set(code, payload.UserID, gocache.DefaultExpiration)
	}

	statusURL := c.statusURL()
	q := statusURL.Query()
	q.Set("code", code)
	if payload.UserID != "" {
		q.Set("user_id", payload.UserID)
	}
	statusURL.RawQuery = q.Encode()

	helpers.WriteJSON(w, http.StatusOK, dataDeletionResponse{
		URL:              statusURL.String(),
		ConfirmationCode: code,
	})
}

// Describe maneja GET /api/threads/oauth/data-deletion
func (c *DataDeletionController) Describe(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"status_url": c.statusURL().String(),
	})
}

// Status maneja GET /api/threads/oauth/data-deletion/status?code=...
func (c *DataDeletionController) Status(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("code required"))
		return
	}

	confirmed := false
	if c.codes != nil {
		_, confirmed = c.codes.Get(code)
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"code":      code,
		"confirmed": confirmed,
	})
}

func (c *DataDeletionController) statusURL() *url.URL {
	u, _ := url.Parse(strings.TrimRight(c.cfg.Server.BaseURL, "/") + "/threads/data-deletion")
	return u
}

func newConfirmationCode() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
