// Package oauth implements the Threads OAuth handshake endpoints: start,
// callback, session polling and Meta compliance callbacks. The handshake
// ferries its outcome back to the browser with two short-lived cookies:
// un state anti-forgery de un solo uso y una cookie opaca de resultado.
package oauth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/dropDatabas3/crossposter/internal/security/secretbox"
	"github.com/dropDatabas3/crossposter/internal/threads"
)

const (
	// StateCookie guarda el state anti-forgery durante el flujo.
	StateCookie = "threads_oauth_state"
	// ResultCookie transporta el resultado final hasta que el cliente lo pollea.
	ResultCookie = "threads_oauth_result"

	StateTTL  = 10 * time.Minute
	ResultTTL = 2 * time.Minute
)

// TokenMeta describe el token obtenido en el intercambio.
type TokenMeta struct {
	APIVersion  string `json:"apiVersion"`
	IsLongLived bool   `json:"isLongLived"`
	ExpiresIn   *int64 `json:"expiresIn"`
}

// Result es la unión etiquetada del desenlace del OAuth: éxito con token y
// usuario, o fallo con mensaje.
type Result struct {
	OK          bool          `json:"ok"`
	Message     string        `json:"message,omitempty"`
	Error       string        `json:"error,omitempty"`
	AccessToken string        `json:"accessToken,omitempty"`
	User        *threads.User `json:"user,omitempty"`
	TokenMeta   *TokenMeta    `json:"tokenMeta,omitempty"`
}

// ErrResultDecode indica que la cookie de resultado no se pudo decodificar.
var ErrResultDecode = errors.New("oauth: cannot decode result cookie")

// ResultCodec serializa un Result hacia/desde el valor de la cookie:
// base64url(JSON) por defecto, o base64url(sellado AES-GCM) cuando hay una
// clave configurada.
type ResultCodec struct {
	box *secretbox.Box
}

// NewResultCodec crea el codec. keyB64 vacío deja la cookie sin sellar.
func NewResultCodec(keyB64 string) (*ResultCodec, error) {
	if strings.TrimSpace(keyB64) == "" {
		return &ResultCodec{}, nil
	}
	box, err := secretbox.New(keyB64)
	if err != nil {
		return nil, err
	}
	return &ResultCodec{box: box}, nil
}

// Encode serializa un Result al valor de cookie.
func (c *ResultCodec) Encode(res Result) (string, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return "", err
	}
	if c.box != nil {
		sealed, err := c.box.Seal(raw)
		if err != nil {
			return "", err
		}
		raw = []byte(sealed)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode deserializa el valor de cookie. Cualquier fallo devuelve
// ErrResultDecode.
func (c *ResultCodec) Decode(value string) (*Result, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(value, "="))
	if err != nil {
		return nil, ErrResultDecode
	}
	if c.box != nil {
		raw, err = c.box.Open(string(raw))
		if err != nil {
			return nil, ErrResultDecode
		}
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, ErrResultDecode
	}
	return &res, nil
}
