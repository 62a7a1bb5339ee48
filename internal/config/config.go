package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del servicio, construida una sola vez
// en el arranque y pasada por referencia a cada componente. La lógica de
// negocio nunca lee os.Getenv directamente.
type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		// BaseURL pública del servicio, usada para construir la redirect URI
		// del OAuth y las URLs de data-deletion cuando no hay override.
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`

	Bluesky struct {
		Identifier  string `yaml:"identifier"`
		AppPassword string `yaml:"app_password"`
		ServiceURL  string `yaml:"service_url"`
	} `yaml:"bluesky"`

	Threads struct {
		UserID      string `yaml:"user_id"`
		AccessToken string `yaml:"access_token"`
		AppID       string `yaml:"app_id"`
		AppSecret   string `yaml:"app_secret"`
		RedirectURI string `yaml:"redirect_uri"`
		// APIVersions pisa la lista default de candidatos de versión.
		// Un elemento vacío significa el endpoint sin versionar.
		APIVersions []string `yaml:"api_versions"`
	} `yaml:"threads"`

	Cookies struct {
		Secure bool `yaml:"secure"`
		// ResultKey (base64, 32 bytes) habilita el sellado AES-GCM de la
		// cookie de resultado OAuth. Vacío = cookie en base64url plano.
		ResultKey string `yaml:"result_key"`
	} `yaml:"cookies"`
}

// Load lee la configuración desde un archivo YAML opcional y luego aplica
// overrides de variables de entorno. Si el archivo no existe se parte de
// una configuración vacía (deploy solo-env).
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// env-only
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
	if c.Bluesky.ServiceURL == "" {
		c.Bluesky.ServiceURL = "https://bsky.social"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// getEnvCSV parsea listas separadas por coma. A diferencia del resto de los
// helpers, conserva elementos vacíos: en THREADS_API_VERSIONS el elemento
// vacío es el candidato "sin versión" y es significativo.
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}

	// SERVER
	if v, ok := getEnvStr("ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("BASE_URL"); ok {
		c.Server.BaseURL = v
	}
	if v, ok := getEnvCSV("CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// BLUESKY
	if v, ok := getEnvStr("BLUESKY_IDENTIFIER"); ok {
		c.Bluesky.Identifier = v
	}
	if v, ok := getEnvStr("BLUESKY_APP_PASSWORD"); ok {
		c.Bluesky.AppPassword = v
	}
	if v, ok := getEnvStr("BLUESKY_SERVICE_URL"); ok {
		c.Bluesky.ServiceURL = v
	}

	// THREADS
	if v, ok := getEnvStr("THREADS_USER_ID"); ok {
		c.Threads.UserID = v
	}
	if v, ok := getEnvStr("THREADS_ACCESS_TOKEN"); ok {
		c.Threads.AccessToken = v
	}
	if v, ok := getEnvStr("THREADS_APP_ID"); ok {
		c.Threads.AppID = v
	}
	if v, ok := getEnvStr("THREADS_APP_SECRET"); ok {
		c.Threads.AppSecret = v
	}
	if v, ok := getEnvStr("THREADS_REDIRECT_URI"); ok {
		c.Threads.RedirectURI = v
	}
	if v, ok := getEnvCSV("THREADS_API_VERSIONS"); ok {
		c.Threads.APIVersions = v
	}

	// COOKIES
	if v, ok := getEnvBool("COOKIES_SECURE"); ok {
		c.Cookies.Secure = v
	}
	if v, ok := getEnvStr("RESULT_COOKIE_KEY"); ok {
		c.Cookies.ResultKey = v
	}
}

// Validate chequea invariantes básicos de la configuración.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		return fmt.Errorf("config: server.base_url debe ser http(s), obtuvo %q", c.Server.BaseURL)
	}
	return nil
}

// ThreadsRedirectURI resuelve la redirect URI del OAuth: override explícito
// o callback derivado de la base URL pública.
func (c *Config) ThreadsRedirectURI() string {
	if v := strings.TrimSpace(c.Threads.RedirectURI); v != "" {
		return v
	}
	return strings.TrimRight(c.Server.BaseURL, "/") + "/api/threads/oauth/callback"
}
