// Package dispatch abanica una publicación hacia los canales seleccionados y
// junta los resultados por canal en una sola respuesta.
package dispatch

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/crossposter/internal/bluesky"
	"github.com/dropDatabas3/crossposter/internal/config"
	"github.com/dropDatabas3/crossposter/internal/metrics"
	"github.com/dropDatabas3/crossposter/internal/observability/logger"
	"github.com/dropDatabas3/crossposter/internal/threads"
)

// Errores de validación: fallan antes de cualquier I/O de red.
var (
	ErrEmptyText  = errors.New("post text is required")
	ErrNoChannels = errors.New("select at least one channel")
)

// Channels marca qué canales fueron seleccionados.
type Channels struct {
	Bluesky bool `json:"bluesky"`
	Threads bool `json:"threads"`
}

// Credentials son overrides por-request; cualquier campo vacío cae al
// default de configuración del proceso.
type Credentials struct {
	BlueskyIdentifier  string `json:"blueskyIdentifier"`
	BlueskyAppPassword string `json:"blueskyAppPassword"`
	ThreadsUserID      string `json:"threadsUserId"`
	ThreadsAccessToken string `json:"threadsAccessToken"`
}

// Request es una publicación entrante.
type Request struct {
	Text        string      `json:"text"`
	Channels    Channels    `json:"channels"`
	Credentials Credentials `json:"credentials"`
}

// ChannelResult es el resultado de un canal intentado.
type ChannelResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	URI     string `json:"uri,omitempty"`
}

// Results junta los resultados por canal. Los canales no seleccionados
// quedan ausentes, nunca presentes-en-null.
type Results struct {
	Bluesky *ChannelResult `json:"bluesky,omitempty"`
	Threads *ChannelResult `json:"threads,omitempty"`
}

// BlueskyPoster publica en Bluesky.
type BlueskyPoster interface {
	Post(ctx context.Context, text, identifier, appPassword string) (*bluesky.PostResult, error)
}

// ThreadsPublisher publica en Threads.
type ThreadsPublisher interface {
	Publish(ctx context.Context, text, accessToken, userID string) (*threads.PostResult, error)
}

// Dispatcher abanica hacia los clientes de canal.
type Dispatcher struct {
	cfg     *config.Config
	bluesky BlueskyPoster
	threads ThreadsPublisher
}

// New crea un Dispatcher.
func New(cfg *config.Config, bs BlueskyPoster, th ThreadsPublisher) *Dispatcher {
	return &Dispatcher{cfg: cfg, bluesky: bs, threads: th}
}

// Dispatch valida el request y publica en cada canal seleccionado de forma
// independiente: un canal que falla nunca impide ni altera el intento del
// otro. Devuelve los resultados y el status HTTP agregado.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Results, int, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, http.StatusBadRequest, ErrEmptyText
	}
	if !req.Channels.Bluesky && !req.Channels.Threads {
		return nil, http.StatusBadRequest, ErrNoChannels
	}

	var results Results
	g, gctx := errgroup.WithContext(ctx)

	if req.Channels.Bluesky {
		g.Go(func() error {
			results.Bluesky = d.postBluesky(gctx, text, req.Credentials)
			return nil
		})
	}
	if req.Channels.Threads {
		g.Go(func() error {
			results.Threads = d.postThreads(gctx, text, req.Credentials)
			return nil
		})
	}
	_ = g.Wait() // los fallos quedan contenidos en los resultados

	return &results, statusFor(&results), nil
}

func (d *Dispatcher) postBluesky(ctx context.Context, text string, creds Credentials) *ChannelResult {
	identifier := ResolveCredential(creds.BlueskyIdentifier, d.cfg.Bluesky.Identifier)
	appPassword := ResolveCredential(creds.BlueskyAppPassword, d.cfg.Bluesky.AppPassword)
	if identifier == "" || appPassword == "" {
		metrics.PostsTotal.WithLabelValues("bluesky", "missing_credentials").Inc()
		return &ChannelResult{
			OK:      false,
			Message: "Bluesky credentials missing. Configure the server environment or send them with the request.",
		}
	}

	out, err := d.bluesky.Post(ctx, text, identifier, appPassword)
	if err != nil {
		metrics.PostsTotal.WithLabelValues("bluesky", "error").Inc()
		logger.From(ctx).Warn("bluesky publish failed", logger.Channel("bluesky"), logger.Err(err))
		return &ChannelResult{OK: false, Message: err.Error()}
	}

	metrics.PostsTotal.WithLabelValues("bluesky", "ok").Inc()
	logger.From(ctx).Info("published", logger.Channel("bluesky"), logger.PostID(out.URI))
	return &ChannelResult{OK: true, Message: "Published to Bluesky.", URI: out.URI}
}

func (d *Dispatcher) postThreads(ctx context.Context, text string, creds Credentials) *ChannelResult {
	userID := ResolveCredential(creds.ThreadsUserID, d.cfg.Threads.UserID)
	accessToken := ResolveCredential(creds.ThreadsAccessToken, d.cfg.Threads.AccessToken)
	if userID == "" || accessToken == "" {
		metrics.PostsTotal.WithLabelValues("threads", "missing_credentials").Inc()
		return &ChannelResult{
			OK:      false,
			Message: "Threads credentials missing. Configure the server environment or send them with the request.",
		}
	}

	out, err := d.threads.Publish(ctx, text, accessToken, userID)
	if err != nil {
		metrics.PostsTotal.WithLabelValues("threads", "error").Inc()
		logger.From(ctx).Warn("threads publish failed", logger.Channel("threads"), logger.Err(err))
		return &ChannelResult{OK: false, Message: err.Error()}
	}

	metrics.PostsTotal.WithLabelValues("threads", "ok").Inc()
	logger.From(ctx).Info("published",
		logger.Channel("threads"),
		logger.PostID(out.PostID),
		logger.APIVersion(threads.RenderVersion(out.APIVersion)),
	)
	return &ChannelResult{OK: true, Message: "Published to Threads.", ID: out.PostID}
}

// statusFor mapea los resultados al status agregado: todos fallan -> 400,
// mezcla -> 207, si nada falló -> 200.
func statusFor(r *Results) int {
	var ok, failed int
	for _, cr := range []*ChannelResult{r.Bluesky, r.Threads} {
		if cr == nil {
			continue
		}
		if cr.OK {
			ok++
		} else {
			failed++
		}
	}
	switch {
	case ok > 0 && failed > 0:
		return http.StatusMultiStatus
	case ok == 0 && failed > 0:
		return http.StatusBadRequest
	default:
		return http.StatusOK
	}
}
