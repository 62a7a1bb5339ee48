package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL = envOr("CROSSPOSTER_URL", "http://localhost:8080")
		out     = envOr("CROSSPOSTER_OUT", "text")
		timeout = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "crosspostctl",
		Short: "CLI contra el relay crossposter",
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del relay (env CROSSPOSTER_URL)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{HTTP: &http.Client{Timeout: timeout}}
	// los flags recién tienen valor después del parseo
	root.PersistentPreRun = func(*cobra.Command, []string) {
		cl.BaseURL = baseURL
		cl.OutFormat = out
	}

	// ping: GET /healthz
	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Ping al relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/healthz", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("ping fallo: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				fmt.Println("ok")
				return nil
			}
			cl.print(status, body)
			return nil
		},
	}

	// post: POST /api/post
	var postText string
	var postBluesky, postThreads bool
	postCmd := &cobra.Command{
		Use:   "post",
		Short: "Publicar en los canales seleccionados",
		RunE: func(cmd *cobra.Command, args []string) error {
			if postText == "" {
				return fmt.Errorf("--text es requerido")
			}
			if !postBluesky && !postThreads {
				return fmt.Errorf("seleccione al menos un canal (--bluesky / --threads)")
			}
			payload := map[string]any{
				"text": postText,
				"channels": map[string]bool{
					"bluesky": postBluesky,
					"threads": postThreads,
				},
			}
			b, _ := json.Marshal(payload)
			status, body, err := cl.do("POST", "/api/post", b)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status != http.StatusOK && status != http.StatusMultiStatus {
				return fmt.Errorf("post fallo: status=%d", status)
			}
			return nil
		},
	}
	postCmd.Flags().StringVar(&postText, "text", "", "Texto de la publicación")
	postCmd.Flags().BoolVar(&postBluesky, "bluesky", false, "Publicar en Bluesky")
	postCmd.Flags().BoolVar(&postThreads, "threads", false, "Publicar en Threads")

	// connect: POST /api/threads/connect
	var connectToken string
	connectCmd := &cobra.Command{
		Use:   "connect",
		Short: "Validar un access token de Threads",
		RunE: func(cmd *cobra.Command, args []string) error {
			if connectToken == "" {
				return fmt.Errorf("--token es requerido")
			}
			b, _ := json.Marshal(map[string]string{"accessToken": connectToken})
			status, body, err := cl.do("POST", "/api/threads/connect", b)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("connect fallo: status=%d", status)
			}
			return nil
		},
	}
	connectCmd.Flags().StringVar(&connectToken, "token", "", "Access token de Threads")

	root.AddCommand(pingCmd)
	root.AddCommand(postCmd)
	root.AddCommand(connectCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
