package http

import (
	stdhttp "net/http"
	"time"
)

// Start levanta el servidor HTTP con timeouts de lectura/escritura.
func Start(addr string, handler stdhttp.Handler) error {
	srv := &stdhttp.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return srv.ListenAndServe()
}
