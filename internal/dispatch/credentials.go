package dispatch

import "strings"

// ResolveCredential resuelve una credencial prefiriendo el override del
// request sobre el default del proceso. Ambos valores se recortan; vacío
// después del trim significa "ausente".
func ResolveCredential(override, fallback string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	return strings.TrimSpace(fallback)
}
