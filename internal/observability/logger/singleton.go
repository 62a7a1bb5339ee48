package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init construye el logger singleton. Idempotente: llamadas posteriores no
// tienen efecto. main la invoca apenas carga la configuración.
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L devuelve el singleton, inicializándolo con defaults de desarrollo si
// nadie llamó Init todavía (útil en tests).
func L() *zap.Logger {
	if instance == nil {
		Init(Config{Env: "dev", Level: "info"})
	}
	return instance
}

// Sync descarga los buffers pendientes; va en un defer de main.
func Sync() error {
	if instance == nil {
		return nil
	}
	return instance.Sync()
}
