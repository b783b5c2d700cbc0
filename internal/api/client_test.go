package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chuongle2003/chorus-cli/internal/models"
	"github.com/chuongle2003/chorus-cli/internal/shared"
	libtest "github.com/chuongle2003/chorus-cli/internal/testing"
	"golang.org/x/oauth2"
)

// newTestClient builds a client backed by a temp token store seeded with a token pair.
func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	store, err := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	if err != nil {
		t.Fatalf("failed to create token store: %v", err)
	}
	err = store.Save(
		&oauth2.Token{AccessToken: "access-1", RefreshToken: "refresh-1", TokenType: "Bearer"},
		models.User{ID: "u1", Username: "ana"},
	)
	if err != nil {
		t.Fatalf("failed to seed token store: %v", err)
	}

	return NewClient(baseURL, nil, store, shared.NewLogger(os.Stderr))
}

func TestClient(t *testing.T) {
	t.Run("NewClient Defaults", func(t *testing.T) {
		c := NewClient("", nil, nil, nil)

		if c.baseURL != "http://localhost:8000/api/v1" {
			t.Errorf("unexpected default base URL: %s", c.baseURL)
		}
		if c.httpClient != http.DefaultClient {
			t.Error("expected http.DefaultClient")
		}
		if c.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("Transport Failure Wraps ErrAPIRequest", func(t *testing.T) {
		httpClient := &http.Client{Transport: libtest.NewMockRoundTripper(nil, errors.New("connection refused"))}
		c := NewClient("http://chorus.invalid/api/v1", httpClient, nil, shared.NewLogger(os.Stderr))

		_, err := c.ListConversations(context.Background())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Failed Response Body Read", func(t *testing.T) {
		httpClient := &http.Client{
			Transport: libtest.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &libtest.FCloser{},
				Header:     http.Header{},
			}, nil),
		}
		c := NewClient("http://chorus.invalid/api/v1", httpClient, nil, shared.NewLogger(os.Stderr))

		_, err := c.ListConversations(context.Background())
		if err == nil {
			t.Fatal("expected error for unreadable body")
		}
		if !strings.Contains(err.Error(), "failed to read response") {
			t.Errorf("expected read error, got %v", err)
		}
	})

	t.Run("Attaches Bearer Token", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		if _, err := c.ListConversations(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gotAuth != "Bearer access-1" {
			t.Errorf("expected bearer header, got %q", gotAuth)
		}
	})

	t.Run("Refreshes Once On 401", func(t *testing.T) {
		var refreshed bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/auth/token/refresh/":
				refreshed = true
				json.NewEncoder(w).Encode(map[string]string{"access": "access-2"})
			case r.Header.Get("Authorization") == "Bearer access-2":
				w.Write([]byte(`[]`))
			default:
				w.WriteHeader(http.StatusUnauthorized)
			}
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		if _, err := c.ListConversations(context.Background()); err != nil {
			t.Fatalf("expected refresh-and-retry to succeed: %v", err)
		}

		if !refreshed {
			t.Error("expected a refresh call")
		}
		tok, err := c.tokens.Current()
		if err != nil {
			t.Fatalf("expected stored token: %v", err)
		}
		if tok.AccessToken != "access-2" {
			t.Errorf("expected refreshed access token, got %s", tok.AccessToken)
		}
		if tok.RefreshToken != "refresh-1" {
			t.Errorf("expected refresh token to be preserved, got %s", tok.RefreshToken)
		}
	})

	t.Run("Repeated 401 Is Not Authenticated", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/auth/token/refresh/" {
				json.NewEncoder(w).Encode(map[string]string{"access": "access-2"})
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		_, err := c.ListConversations(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if _, err := c.tokens.Current(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected session to be discarded, got %v", err)
		}
	})

	t.Run("Server Error Wraps ErrAPIRequest", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		_, err := c.ListConversations(context.Background())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(err.Error(), "boom") {
			t.Errorf("expected body in error, got %v", err)
		}
	})
}

func TestAuth(t *testing.T) {
	t.Run("Login Persists Session", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/auth/token/" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["username"] != "ana" || body["password"] != "s3cret" {
				t.Errorf("unexpected credentials: %v", body)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"access":  "a-tok",
				"refresh": "r-tok",
				"user":    map[string]string{"id": "u1", "username": "ana"},
			})
		}))
		defer server.Close()

		path := filepath.Join(t.TempDir(), "state", "token.json")
		store, err := NewTokenStore(path)
		if err != nil {
			t.Fatalf("failed to create token store: %v", err)
		}
		c := NewClient(server.URL, nil, store, shared.NewLogger(os.Stderr))

		user, err := c.Login(context.Background(), "ana", "s3cret")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if user.ID != "u1" {
			t.Errorf("unexpected user: %+v", user)
		}
		libtest.AssertDirExists(t, filepath.Dir(path))
		libtest.AssertFileExists(t, path)

		// A fresh store reads the persisted session back.
		reloaded, err := NewTokenStore(path)
		if err != nil {
			t.Fatalf("failed to reload token store: %v", err)
		}
		tok, err := reloaded.Current()
		if err != nil {
			t.Fatalf("expected persisted token: %v", err)
		}
		if tok.AccessToken != "a-tok" || tok.RefreshToken != "r-tok" {
			t.Errorf("unexpected persisted token: %+v", tok)
		}
		if u, _ := reloaded.User(); u.Username != "ana" {
			t.Errorf("unexpected persisted user: %+v", u)
		}
	})

	t.Run("Login Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		_, err := c.Login(context.Background(), "ana", "wrong")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Logout Clears Store", func(t *testing.T) {
		c := newTestClient(t, "http://unused")
		if err := c.Logout(); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if _, err := c.tokens.Current(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected cleared store, got %v", err)
		}
	})

	t.Run("Refresh Without Refresh Token", func(t *testing.T) {
		store, err := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
		if err != nil {
			t.Fatalf("failed to create token store: %v", err)
		}
		store.Save(&oauth2.Token{AccessToken: "only-access"}, models.User{ID: "u1"})

		c := NewClient("http://unused", nil, store, shared.NewLogger(os.Stderr))
		if err := c.Refresh(context.Background()); !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})
}

func TestSearchUsers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search"); got != "ana" {
			t.Errorf("unexpected search term: %s", got)
		}
		w.Write([]byte(`[{"id":"u1","username":"ana"},{"username":"no-id"},{"id":"u2","username":"anatole"}]`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	users, err := c.SearchUsers(context.Background(), "ana")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(users) != 2 {
		t.Fatalf("expected entries without an id to be dropped, got %d results", len(users))
	}
	if users[0].Username != "ana" || users[1].Username != "anatole" {
		t.Errorf("unexpected results: %+v", users)
	}
}

func TestUpload(t *testing.T) {
	t.Run("Returns Hosted URL", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("expected multipart form: %v", err)
			}
			f, header, err := r.FormFile("file")
			if err != nil {
				t.Fatalf("expected file field: %v", err)
			}
			defer f.Close()
			if header.Filename != "note.ogg" {
				t.Errorf("unexpected filename: %s", header.Filename)
			}
			json.NewEncoder(w).Encode(map[string]string{"url": "https://cdn.chorus.local/note.ogg"})
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		url, err := c.Upload(context.Background(), "note.ogg", strings.NewReader("audio-bytes"))
		if err != nil {
			t.Fatalf("upload failed: %v", err)
		}
		if url != "https://cdn.chorus.local/note.ogg" {
			t.Errorf("unexpected url: %s", url)
		}
	})

	t.Run("Empty URL Is An Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		if _, err := c.Upload(context.Background(), "x.png", strings.NewReader("img")); err == nil {
			t.Error("expected error for empty url")
		}
	})
}
