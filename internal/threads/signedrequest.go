package threads

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidSignedRequest es el único error que devuelve la verificación de
// signed_request. Todos los sub-chequeos fallan con el mismo error para no
// filtrar cuál fue el que no pasó.
var ErrInvalidSignedRequest = errors.New("threads: invalid signed_request")

// SignedRequestPayload es el payload de un signed_request de Meta.
type SignedRequestPayload struct {
	Algorithm  string `json:"algorithm,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	OAuthToken string `json:"oauth_token,omitempty"`
	IssuedAt   int64  `json:"issued_at,omitempty"`
}

// VerifySignedRequest valida un payload firmado con formato
// base64url(sig).base64url(payload) contra el app secret compartido.
// La comparación de firmas es de tiempo constante (hmac.Equal).
func VerifySignedRequest(signedRequest, appSecret string) (*SignedRequestPayload, error) {
	parts := strings.Split(strings.TrimSpace(signedRequest), ".")
	if len(parts) != 2 {
		return nil, ErrInvalidSignedRequest
	}
	encodedSig, encodedPayload := parts[0], parts[1]

	rawPayload, err := decodeBase64URL(encodedPayload)
	if err != nil {
		return nil, ErrInvalidSignedRequest
	}
	var payload SignedRequestPayload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return nil, ErrInvalidSignedRequest
	}
	if payload.Algorithm != "" && !strings.EqualFold(payload.Algorithm, "HMAC-SHA256") {
		return nil, ErrInvalidSignedRequest
	}

	// El HMAC se calcula sobre el segmento codificado crudo, no sobre el JSON.
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write([]byte(encodedPayload))
	expected := mac.Sum(nil)

	actual, err := decodeBase64URL(encodedSig)
	if err != nil {
		return nil, ErrInvalidSignedRequest
	}
	if len(actual) != len(expected) || !hmac.Equal(actual, expected) {
		return nil, ErrInvalidSignedRequest
	}

	return &payload, nil
}

// decodeBase64URL acepta base64url con o sin padding.
func decodeBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
