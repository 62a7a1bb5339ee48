// Package controllers implements the relay's client-facing endpoints.
package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropDatabas3/crossposter/internal/dispatch"
	"github.com/dropDatabas3/crossposter/internal/http/helpers"
	"github.com/dropDatabas3/crossposter/internal/observability/logger"
)

// PostController recibe una publicación y la despacha a los canales
// seleccionados.
type PostController struct {
	dispatcher *dispatch.Dispatcher
}

// NewPostController creates a new PostController.
func NewPostController(d *dispatch.Dispatcher) *PostController {
	return &PostController{dispatcher: d}
}

type postResponse struct {
	Results *dispatch.Results `json:"results"`
}

// Create maneja POST /api/post
func (c *PostController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PostController.Create"))

	var req dispatch.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}

	results, status, err := c.dispatcher.Dispatch(ctx, req)
	if err != nil {
		// solo errores de validación llegan hasta acá; nada tocó la red
		switch {
		case errors.Is(err, dispatch.ErrEmptyText):
			helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("post text is required"))
		case errors.Is(err, dispatch.ErrNoChannels):
			helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("select at least one channel"))
		default:
			helpers.WriteError(w, helpers.ErrBadRequest.WithDetail(err.Error()))
		}
		return
	}

	log.Debug("dispatch completed", logger.Status(status))
	helpers.WriteJSON(w, status, postResponse{Results: results})
}
