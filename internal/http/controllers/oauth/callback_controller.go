package oauth

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/crossposter/internal/config"
	"github.com/dropDatabas3/crossposter/internal/http/helpers"
	"github.com/dropDatabas3/crossposter/internal/observability/logger"
	"github.com/dropDatabas3/crossposter/internal/threads"
)

// CallbackController completa el handshake: valida el state, intercambia el
// code y resuelve la identidad. Pase lo que pase, el state cookie se limpia,
// el resultado queda en la cookie de transporte y el browser vuelve a "/".
type CallbackController struct {
	cfg    *config.Config
	client Client
	codec  *ResultCodec
}

// Callback maneja GET /api/threads/oauth/callback
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.Callback"))

	res := c.resolve(r)
	if !res.OK {
		log.Warn("oauth callback failed", logger.String("reason", res.Error))
	} else if res.User != nil {
		log.Info("oauth callback completed", logger.Username(res.User.Username))
	}

	c.finalize(w, r, res)
}

// resolve aplica el orden de precedencia de fallos: error del proveedor,
// state inválido, code ausente, app sin configurar, fallo de intercambio.
func (c *CallbackController) resolve(r *http.Request) Result {
	q := r.URL.Query()

	oauthError := strings.TrimSpace(q.Get("error_description"))
	if oauthError == "" {
		oauthError = strings.TrimSpace(q.Get("error"))
	}
	if oauthError != "" {
		return Result{OK: false, Error: "Threads OAuth returned an error: " + oauthError}
	}

	expectedState := ""
	if ck, err := r.Cookie(StateCookie); err == nil {
		expectedState = ck.Value
	}
	returnedState := q.Get("state")
	if expectedState == "" || returnedState == "" || expectedState != returnedState {
		return Result{OK: false, Error: "Threads OAuth security check failed (invalid state)."}
	}

	code := q.Get("code")
	if code == "" {
		return Result{OK: false, Error: "Threads OAuth did not return a code."}
	}

	if strings.TrimSpace(c.cfg.Threads.AppID) == "" || strings.TrimSpace(c.cfg.Threads.AppSecret) == "" {
		return Result{OK: false, Error: "THREADS_APP_ID and THREADS_APP_SECRET are not configured on the server."}
	}

	tok, err := c.client.ExchangeCode(r.Context(), code, c.cfg.ThreadsRedirectURI())
	if err != nil {
		return Result{OK: false, Error: err.Error()}
	}
	user, err := c.client.ResolveUser(r.Context(), tok.AccessToken)
	if err != nil {
		return Result{OK: false, Error: err.Error()}
	}

	return Result{
		OK:          true,
		Message:     "Connected with Threads OAuth as @" + user.Username + ".",
		AccessToken: tok.AccessToken,
		User:        user,
		TokenMeta: &TokenMeta{
			APIVersion:  threads.RenderVersion(tok.APIVersion),
			IsLongLived: tok.IsLongLived,
			ExpiresIn:   tok.ExpiresIn,
		},
	}
}

// finalize limpia el state cookie, setea la cookie de resultado y redirige.
func (c *CallbackController) finalize(w http.ResponseWriter, r *http.Request, res Result) {
	secure := cookieSecure(c.cfg, r)
	setResultCookie(w, c.codec, secure, res)
	http.SetCookie(w, helpers.BuildDeletionCookie(StateCookie, secure))
	http.Redirect(w, r, "/", http.StatusFound)
}
