// Package http wires the relay's routes, middlewares and controllers.
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/crossposter/internal/config"
	"github.com/dropDatabas3/crossposter/internal/dispatch"
	"github.com/dropDatabas3/crossposter/internal/http/controllers"
	oauthctrl "github.com/dropDatabas3/crossposter/internal/http/controllers/oauth"
	"github.com/dropDatabas3/crossposter/internal/http/helpers"
	mw "github.com/dropDatabas3/crossposter/internal/http/middlewares"
)

// RouterDeps contiene las dependencias del router.
type RouterDeps struct {
	Cfg        *config.Config
	Dispatcher *dispatch.Dispatcher
	Threads    oauthctrl.Client
	Resolver   controllers.IdentityResolver
	Codec      *oauthctrl.ResultCodec
	// Codes guarda los códigos de confirmación de data-deletion.
	Codes *gocache.Cache
}

// NewRouter arma el router chi con la cadena de middlewares estándar.
func NewRouter(deps RouterDeps) stdhttp.Handler {
	postCtrl := controllers.NewPostController(deps.Dispatcher)
	connectCtrl := controllers.NewConnectController(deps.Resolver)
	oauth := oauthctrl.NewControllers(deps.Cfg, deps.Threads, deps.Codec, deps.Codes)

	r := chi.NewRouter()
	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(mw.WithSecurityHeaders())
	if len(deps.Cfg.Server.CORSAllowedOrigins) > 0 {
		r.Use(mw.WithCORS(deps.Cfg.Server.CORSAllowedOrigins))
	}
	r.Use(mw.WithLogging())

	r.Get("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		helpers.WriteJSON(w, stdhttp.StatusOK, map[string]bool{"ok": true})
	})
	r.Method(stdhttp.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.WithNoStore())

		r.Post("/post", postCtrl.Create)

		r.Route("/threads", func(r chi.Router) {
			r.Post("/connect", connectCtrl.Connect)

			r.Route("/oauth", func(r chi.Router) {
				r.Get("/start", oauth.Start.Start)
				r.Get("/callback", oauth.Callback.Callback)
				r.Get("/session", oauth.Session.Get)
				r.Get("/data-deletion", oauth.DataDeletion.Describe)
				r.Post("/data-deletion", oauth.DataDeletion.Create)
				r.Get("/data-deletion/status", oauth.DataDeletion.Status)
				r.Get("/deauthorize", oauth.Deauthorize.Handle)
				r.Post("/deauthorize", oauth.Deauthorize.Handle)
			})
		})
	})

	return r
}
