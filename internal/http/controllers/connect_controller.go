package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/crossposter/internal/http/helpers"
	"github.com/dropDatabas3/crossposter/internal/observability/logger"
	"github.com/dropDatabas3/crossposter/internal/threads"
)

// tokenGuidance se agrega cuando el fallo es reconociblemente un token
// inválido, para que el mensaje sea accionable.
const tokenGuidance = " Generate a new user token in the Threads API product and confirm the threads_basic and threads_content_publish permissions."

// IdentityResolver resuelve un access token a un usuario de Threads.
type IdentityResolver interface {
	ResolveUser(ctx context.Context, accessToken string) (*threads.User, error)
}

// ConnectController valida un access token de Threads resolviéndolo a su
// usuario.
type ConnectController struct {
	resolver IdentityResolver
}

// NewConnectController creates a new ConnectController.
func NewConnectController(resolver IdentityResolver) *ConnectController {
	return &ConnectController{resolver: resolver}
}

type connectRequest struct {
	AccessToken string `json:"accessToken"`
}

type connectResponse struct {
	OK      bool          `json:"ok"`
	User    *threads.User `json:"user,omitempty"`
	Message string        `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Connect maneja POST /api/threads/connect
func (c *ConnectController) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ConnectController.Connect"))

	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}

	accessToken := strings.TrimSpace(req.AccessToken)
	if accessToken == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("accessToken required"))
		return
	}

	user, err := c.resolver.ResolveUser(ctx, accessToken)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, threads.ErrInvalidToken) || strings.Contains(msg, threads.ErrInvalidToken.Error()) {
			msg += tokenGuidance
		}
		log.Warn("token validation failed", logger.Err(err))
		helpers.WriteJSON(w, http.StatusBadRequest, connectResponse{OK: false, Error: msg})
		return
	}

	log.Info("token validated", logger.Username(user.Username))
	helpers.WriteJSON(w, http.StatusOK, connectResponse{
		OK:      true,
		User:    user,
		Message: "Connected as @" + user.Username + ".",
	})
}
