package oauth

import (
	"net/http"

	"github.com/dropDatabas3/crossposter/internal/http/helpers"
)

// DeauthorizeController responde al aviso de desconexión de Meta. No hay
// credenciales persistidas del lado del servidor, así que es un no-op.
type DeauthorizeController struct{}

// Handle maneja GET|POST /api/threads/oauth/deauthorize
func (c *DeauthorizeController) Handle(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
