package oauth

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/crossposter/internal/config"
	"github.com/dropDatabas3/crossposter/internal/http/helpers"
	"github.com/dropDatabas3/crossposter/internal/observability/logger"
)

// StartController emite el state anti-forgery y redirige a la página de
// autorización de Threads.
type StartController struct {
	cfg    *config.Config
	client Client
	codec  *ResultCodec
}

// Start maneja GET /api/threads/oauth/start
func (c *StartController) Start(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("oauth.Start"))
	secure := cookieSecure(c.cfg, r)

	if strings.TrimSpace(c.cfg.Threads.AppID) == "" || strings.TrimSpace(c.cfg.Threads.AppSecret) == "" {
		log.Warn("threads app credentials not configured")
		setResultCookie(w, c.codec, secure, Result{
			OK:    false,
			Error: "THREADS_APP_ID and THREADS_APP_SECRET are not configured on the server.",
		})
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	state := newState()
	http.SetCookie(w, helpers.BuildCookie(StateCookie, state, secure, StateTTL))

	authorizeURL := c.client.BuildAuthorizeURL(state, c.cfg.ThreadsRedirectURI())
	log.Debug("redirecting to authorize page")
	http.Redirect(w, r, authorizeURL, http.StatusFound)
}
