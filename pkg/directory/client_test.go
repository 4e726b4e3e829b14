package directory

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/alarmchat/pkg/auth"
)

// recorder captures what the fake backend saw.
type recorder struct {
	mu      sync.Mutex
	auth    []string
	paths   []string
	methods []string
	bodies  []string
}

func (r *recorder) record(req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auth = append(r.auth, req.Header.Get("Authorization"))
	r.paths = append(r.paths, req.URL.Path)
	r.methods = append(r.methods, req.Method)
	r.bodies = append(r.bodies, string(body))
}

func (r *recorder) last() (method, path, authz, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.paths) - 1
	return r.methods[n], r.paths[n], r.auth[n], r.bodies[n]
}

func newBackend(t *testing.T, routes func(*mux.Router)) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			rec.record(req)
			next.ServeHTTP(w, req)
		})
	})
	routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, rec
}

func newTestClient(t *testing.T, baseURL string, creds auth.CredentialProvider, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: baseURL}, creds, opts...)
	require.NoError(t, err)
	return c
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "://invalid"}, nil)
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "localhost"}, nil)
	assert.Error(t, err)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://localhost:8081/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081", c.BaseURL())
}

func TestImageURL(t *testing.T) {
	c := newTestClient(t, "http://localhost:8081", nil)
	assert.Equal(t, "http://localhost:8081/images/alice.png", c.ImageURL("alice.png"))
	assert.Equal(t, "http://localhost:8081/images/a/b.png", c.ImageURL("/a/b.png"))
	assert.Empty(t, c.ImageURL(""))
}

func TestListUsers_AttachesBasicAuth(t *testing.T) {
	srv, rec := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users", reply(http.StatusOK, `[{"userId":"u1","username":"Alice","profilePicUrl":"a.png"}]`)).
			Methods(http.MethodGet)
	})
	c := newTestClient(t, srv.URL, auth.StaticProvider{UserID: "u1", Password: "secret"})

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, User{UserID: "u1", Username: "Alice", ProfilePicURL: "a.png"}, users[0])

	_, path, authz, _ := rec.last()
	assert.Equal(t, "/users", path)
	assert.Equal(t, "Basic dTE6c2VjcmV0", authz)
}

func TestListUsers_NoCredentialsNoHeader(t *testing.T) {
	srv, rec := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users", reply(http.StatusOK, `[]`))
	})

	for _, creds := range []auth.CredentialProvider{nil, auth.StaticProvider{UserID: "u1"}} {
		c := newTestClient(t, srv.URL, creds)
		_, err := c.ListUsers(context.Background())
		require.NoError(t, err)

		_, _, authz, _ := rec.last()
		assert.Empty(t, authz)
	}
}

func TestListUsers_Unauthenticated(t *testing.T) {
	srv, _ := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users", reply(http.StatusUnauthorized, ""))
	})
	c := newTestClient(t, srv.URL, nil)

	_, err := c.ListUsers(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, 401, StatusOf(err))
}

func TestListUsers_RequestFailed(t *testing.T) {
	srv, _ := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users", reply(http.StatusInternalServerError, "boom\n"))
	})
	c := newTestClient(t, srv.URL, nil)

	_, err := c.ListUsers(context.Background())
	var rf *RequestFailedError
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, 500, rf.Status)
	assert.Equal(t, "boom", rf.Body)
	assert.Equal(t, 500, StatusOf(err))
}

func TestListUsers_NonArrayPayloadIsEmpty(t *testing.T) {
	for _, body := range []string{`{"users":[]}`, `null`, `"text"`, `42`} {
		srv, _ := newBackend(t, func(r *mux.Router) {
			r.HandleFunc("/users", reply(http.StatusOK, body))
		})
		c := newTestClient(t, srv.URL, nil)

		users, err := c.ListUsers(context.Background())
		require.NoError(t, err, body)
		assert.NotNil(t, users, body)
		assert.Empty(t, users, body)
	}
}

func TestListUsers_InvalidJSON(t *testing.T) {
	srv, _ := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users", reply(http.StatusOK, `<html>`))
	})
	c := newTestClient(t, srv.URL, nil)

	_, err := c.ListUsers(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, StatusOf(err))
}

func TestSearchUsers_EncodesQuery(t *testing.T) {
	var query string
	srv, _ := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users/search", func(w http.ResponseWriter, req *http.Request) {
			query = req.URL.Query().Get("query")
			io.WriteString(w, `[{"userId":"u1","username":"Alice"}]`)
		})
	})
	c := newTestClient(t, srv.URL, nil)

	users, err := c.SearchUsers(context.Background(), "al ice&x")
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "al ice&x", query)
}

func TestListReceivedAndSentInvites(t *testing.T) {
	srv, rec := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users/invites/received/{id}", func(w http.ResponseWriter, req *http.Request) {
			io.WriteString(w, `[{"userId":"u1","username":"Alice","id":"m-1"}]`)
		}).Methods(http.MethodGet)
		r.HandleFunc("/users/invites/sent/{id}", reply(http.StatusOK, `[]`)).Methods(http.MethodGet)
	})
	c := newTestClient(t, srv.URL, nil)

	received, err := c.ListReceivedInvites(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, MatchID("m-1"), received[0].ID)
	_, path, _, _ := rec.last()
	assert.Equal(t, "/users/invites/received/u2", path)

	sent, err := c.ListSentInvites(context.Background(), "u2")
	require.NoError(t, err)
	assert.Empty(t, sent)
	_, path, _, _ = rec.last()
	assert.Equal(t, "/users/invites/sent/u2", path)
}

func TestListReceivedInvites_NumericMatchID(t *testing.T) {
	srv, _ := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users/invites/received/{id}", reply(http.StatusOK,
			`[{"id":42,"userId":"u1","username":"Alice"},{"id":null,"userId":"u2","username":"Bob"}]`)).Methods(http.MethodGet)
	})
	c := newTestClient(t, srv.URL, nil)

	received, err := c.ListReceivedInvites(context.Background(), "me")
	require.NoError(t, err)
	require.Len(t, received, 2)
	assert.Equal(t, MatchID("42"), received[0].ID)
	assert.Equal(t, "u1", received[0].UserID)
	assert.Empty(t, received[1].ID)
}

func TestDecodeUsers_MatchIDForms(t *testing.T) {
	tests := []struct {
		name string
		body string
		want MatchID
	}{
		{"number", `[{"id":42,"userId":"u1"}]`, "42"},
		{"string", `[{"id":"m1","userId":"u1"}]`, "m1"},
		{"null", `[{"id":null,"userId":"u1"}]`, ""},
		{"absent", `[{"userId":"u1"}]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := decodeUsers([]byte(tt.body))
			require.NoError(t, err)
			require.Len(t, users, 1)
			assert.Equal(t, tt.want, users[0].ID)
		})
	}

	_, err := decodeUsers([]byte(`[{"id":true,"userId":"u1"}]`))
	assert.Error(t, err)
}

func TestSendInvite(t *testing.T) {
	srv, rec := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users/invite/{id}", reply(http.StatusOK, "Invite sent")).Methods(http.MethodPost)
	})
	c := newTestClient(t, srv.URL, nil)

	require.NoError(t, c.SendInvite(context.Background(), "u1"))
	method, path, _, _ := rec.last()
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/users/invite/u1", path)
}

func TestSendInvite_Duplicate(t *testing.T) {
	srv, _ := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users/invite/{id}", reply(http.StatusBadRequest, "Invite already sent")).Methods(http.MethodPost)
	})
	c := newTestClient(t, srv.URL, nil)

	err := c.SendInvite(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrDuplicateInvite)
}

func TestSendInvite_OtherBadRequest(t *testing.T) {
	srv, _ := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users/invite/{id}", reply(http.StatusBadRequest, "Cannot invite yourself")).Methods(http.MethodPost)
	})
	c := newTestClient(t, srv.URL, nil)

	err := c.SendInvite(context.Background(), "u1")
	assert.False(t, errors.Is(err, ErrDuplicateInvite))
	var rf *RequestFailedError
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, 400, rf.Status)
	assert.Contains(t, rf.Error(), "Cannot invite yourself")
}

func TestAcceptAndRejectInvite(t *testing.T) {
	srv, rec := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users/invite/accept/{id}", reply(http.StatusOK, "ok")).Methods(http.MethodPost)
		r.HandleFunc("/users/invite/reject/{id}", reply(http.StatusOK, "ok")).Methods(http.MethodDelete)
	})
	c := newTestClient(t, srv.URL, nil)

	require.NoError(t, c.AcceptInvite(context.Background(), "u1"))
	method, path, _, _ := rec.last()
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/users/invite/accept/u1", path)

	require.NoError(t, c.RejectInvite(context.Background(), "u3"))
	method, path, _, _ = rec.last()
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/users/invite/reject/u3", path)
}

func TestAcceptInvite_Failure(t *testing.T) {
	srv, _ := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users/invite/accept/{id}", reply(http.StatusNotFound, "no such invite"))
	})
	c := newTestClient(t, srv.URL, nil)

	err := c.AcceptInvite(context.Background(), "u1")
	assert.Equal(t, 404, StatusOf(err))
}

func TestLogin(t *testing.T) {
	srv, rec := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users/login", reply(http.StatusOK, `{"userId":"u1"}`)).Methods(http.MethodPost)
	})
	c := newTestClient(t, srv.URL, nil)

	require.NoError(t, c.Login(context.Background(), auth.Credentials{UserID: "u1", Password: "pw"}))
	_, _, _, body := rec.last()
	assert.JSONEq(t, `{"userId":"u1","password":"pw"}`, body)
}

func TestCheckMessageAndReset(t *testing.T) {
	srv, rec := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users/chat/reset/{id}", reply(http.StatusOK, "Counts reset\n")).Methods(http.MethodPost)
		r.HandleFunc("/users/chat/{id}", reply(http.StatusOK, `["Warning 1 of 3"]`)).Methods(http.MethodPost)
	})
	c := newTestClient(t, srv.URL, nil)

	alerts, err := c.CheckMessage(context.Background(), "u1", "hello there")
	require.NoError(t, err)
	assert.Equal(t, []string{"Warning 1 of 3"}, alerts)
	_, path, _, body := rec.last()
	assert.Equal(t, "/users/chat/u1", path)
	assert.Equal(t, "hello there", body)

	msg, err := c.ResetChatStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Counts reset", msg)
}

func TestEndpointEscapesIDs(t *testing.T) {
	srv, rec := newBackend(t, func(r *mux.Router) {
		r.UseEncodedPath()
		r.HandleFunc("/users/invite/{id}", reply(http.StatusOK, ""))
	})
	c := newTestClient(t, srv.URL, nil)

	require.NoError(t, c.SendInvite(context.Background(), "a b"))
	_, path, _, _ := rec.last()
	assert.Equal(t, "/users/invite/a b", path)
}

func TestWithRateLimit(t *testing.T) {
	srv, _ := newBackend(t, func(r *mux.Router) {
		r.HandleFunc("/users", reply(http.StatusOK, `[]`))
	})
	c := newTestClient(t, srv.URL, nil, WithRateLimit(20, 1))
	require.NotNil(t, c.limiter)

	start := time.Now()
	for range 3 {
		_, err := c.ListUsers(context.Background())
		require.NoError(t, err)
	}
	// burst 1 at 20 rps: the 2nd and 3rd requests wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestWithRateLimit_CanceledContext(t *testing.T) {
	c := newTestClient(t, "http://localhost:1", nil, WithRateLimit(0.001, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListUsers(ctx)
	assert.Error(t, err)
}

func TestWithRateLimit_Disabled(t *testing.T) {
	c := newTestClient(t, "http://localhost:1", nil, WithRateLimit(0, 5))
	assert.Nil(t, c.limiter)
}

type failingProvider struct{}

func (failingProvider) Credentials() (auth.Credentials, error) {
	return auth.Credentials{}, errors.New("keychain locked")
}

func TestCredentialProviderError(t *testing.T) {
	c := newTestClient(t, "http://localhost:1", failingProvider{})
	_, err := c.ListUsers(context.Background())
	assert.ErrorContains(t, err, "keychain locked")
}
