package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/crossposter/internal/config"
	"github.com/dropDatabas3/crossposter/internal/http/helpers"
	"github.com/dropDatabas3/crossposter/internal/threads"
)

// Client es la porción del cliente de Threads que usa el flujo OAuth.
type Client interface {
	BuildAuthorizeURL(state, redirectURI string) string
	ExchangeCode(ctx context.Context, code, redirectURI string) (*threads.Token, error)
	ResolveUser(ctx context.Context, accessToken string) (*threads.User, error)
}

// Controllers agrupa los controllers del flujo OAuth de Threads.
type Controllers struct {
	Start        *StartController
	Callback     *CallbackController
	Session      *SessionController
	DataDeletion *DataDeletionController
	Deauthorize  *DeauthorizeController
}

// NewControllers arma los controllers con sus dependencias compartidas.
func NewControllers(cfg *config.Config, client Client, codec *ResultCodec, codes *gocache.Cache) *Controllers {
	return &Controllers{
		Start:        &StartController{cfg: cfg, client: client, codec: codec},
		Callback:     &CallbackController{cfg: cfg, client: client, codec: codec},
		Session:      &SessionController{cfg: cfg, codec: codec},
		DataDeletion: &DataDeletionController{cfg: cfg, codes: codes},
		Deauthorize:  &DeauthorizeController{},
	}
}

// cookieSecure decide el flag Secure de las cookies del flujo.
func cookieSecure(cfg *config.Config, r *http.Request) bool {
	return cfg.Cookies.Secure || helpers.IsHTTPS(r)
}

// newState genera el valor de state: UUID más 24 hex chars de crypto/rand.
func newState() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return uuid.NewString() + hex.EncodeToString(b[:])
}

// setResultCookie serializa el resultado en la cookie de transporte. Si la
// serialización falla deja una cookie de fallo genérico para no colgar el
// polling del cliente.
func setResultCookie(w http.ResponseWriter, codec *ResultCodec, secure bool, res Result) {
	value, err := codec.Encode(res)
	if err != nil {
		value, _ = codec.Encode(Result{OK: false, Error: "Failed to encode the OAuth result."})
	}
	http.SetCookie(w, helpers.BuildCookie(ResultCookie, value, secure, ResultTTL))
}
