package oauth

import (
	"net/http"

	"github.com/dropDatabas3/crossposter/internal/config"
	"github.com/dropDatabas3/crossposter/internal/http/helpers"
	"github.com/dropDatabas3/crossposter/internal/observability/logger"
)

// SessionController entrega el resultado del OAuth exactamente una vez:
// leer la cookie la consume, pase lo que pase.
type SessionController struct {
	cfg   *config.Config
	codec *ResultCodec
}

// emptyResponse distingue "todavía no pasó nada" de un fallo real:
// ok=false sin texto de error.
type emptyResponse struct {
	OK    bool `json:"ok"`
	Empty bool `json:"empty"`
}

type decodeFailureResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Get maneja GET /api/threads/oauth/session
func (c *SessionController) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("oauth.Session"))
	secure := cookieSecure(c.cfg, r)

	// consumo único: la cookie se borra en cualquier desenlace
	http.SetCookie(w, helpers.BuildDeletionCookie(ResultCookie, secure))

	ck, err := r.Cookie(ResultCookie)
	if err != nil || ck.Value == "" {
		helpers.WriteJSON(w, http.StatusOK, emptyResponse{OK: false, Empty: true})
		return
	}

	res, err := c.codec.Decode(ck.Value)
	if err != nil {
		log.Warn("undecodable result cookie", logger.Err(err))
		helpers.WriteJSON(w, http.StatusBadRequest, decodeFailureResponse{
			OK:    false,
			Error: "Could not read the Threads OAuth result.",
		})
		return
	}

	status := http.StatusOK
	if !res.OK {
		status = http.StatusBadRequest
	}
	helpers.WriteJSON(w, status, res)
}
