package threads

import (
	"net/url"
)

// Scopes pedidos en el flujo de autorización. threads_basic habilita la
// lectura de identidad, threads_content_publish la publicación.
const authorizeScopes = "threads_basic,threads_content_publish"

// BuildAuthorizeURL arma la URL de la página de autorización de Threads.
func (c *Client) BuildAuthorizeURL(state, redirectURI string) string {
	u, _ := url.Parse(authorizeBaseURL)
	q := u.Query()
	q.Set("client_id", c.AppID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", authorizeScopes)
	q.Set("response_type", "code")
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}
