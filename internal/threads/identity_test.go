package threads

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveUser_Success(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1.0/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "id,username", r.URL.Query().Get("fields"))
		require.Equal(t, "tok", r.URL.Query().Get("access_token"))
		w.Write([]byte(`{"id":"1789","username":"someone"}`))
	})

	c, _ := newTestClient(t, []string{"v1.0"}, mux)
	user, err := c.ResolveUser(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, "1789", user.ID)
	require.Equal(t, "someone", user.Username)
}

func TestResolveUser_MissingFieldIsFailure(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1.0/me", func(w http.ResponseWriter, r *http.Request) {
		// sin username: fallo, no éxito parcial
		w.Write([]byte(`{"id":"1789"}`))
	})

	c, _ := newTestClient(t, []string{"v1.0"}, mux)
	_, err := c.ResolveUser(context.Background(), "tok")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing id or username")
}

func TestBuildAuthorizeURL(t *testing.T) {
	t.Parallel()
	c := New("app-id", "secret", nil)
	u := c.BuildAuthorizeURL("the-state", "https://relay.example.com/api/threads/oauth/callback")

	require.Contains(t, u, "https://threads.net/oauth/authorize?")
	require.Contains(t, u, "client_id=app-id")
	require.Contains(t, u, "response_type=code")
	require.Contains(t, u, "state=the-state")
	require.Contains(t, u, "scope=threads_basic%2Cthreads_content_publish")
}
