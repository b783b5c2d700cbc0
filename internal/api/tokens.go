package api

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chuongle2003/chorus-cli/internal/models"
	"github.com/chuongle2003/chorus-cli/internal/shared"
	"golang.org/x/oauth2"
)

// TokenStore persists the session token pair and the logged-in user profile
// as a JSON file. The chat core re-reads the current access token on every
// socket bind, so refreshed tokens are picked up without a restart.
type TokenStore struct {
	mu    sync.RWMutex
	path  string
	token *oauth2.Token
	user  models.User
}

// storedSession is the on-disk layout of the token file.
type storedSession struct {
	Token *oauth2.Token `json:"token"`
	User  models.User   `json:"user"`
}

// NewTokenStore creates a token store backed by the file at path.
// A leading "~/" is expanded to the user's home directory.
func NewTokenStore(path string) (*TokenStore, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	s := &TokenStore{path: path}
	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

func (s *TokenStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var sess storedSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return fmt.Errorf("failed to parse token file: %w", err)
	}

	s.mu.Lock()
	s.token = sess.Token
	s.user = sess.User
	s.mu.Unlock()
	return nil
}

// Save persists the token pair and user profile, creating parent directories.
// The file is written 0600 since it holds credentials.
func (s *TokenStore) Save(token *oauth2.Token, user models.User) error {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()

	data, err := json.MarshalIndent(storedSession{Token: token, User: user}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Clear removes the persisted session. Used on logout and on repeated 401s.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	s.token = nil
	s.user = models.User{}
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// Current returns the stored token pair.
func (s *TokenStore) Current() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil || s.token.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return s.token, nil
}

// AccessToken returns the current bearer token string.
func (s *TokenStore) AccessToken() (string, error) {
	tok, err := s.Current()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// User returns the logged-in user's profile.
func (s *TokenStore) User() (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user.ID == "" {
		return models.User{}, shared.ErrNotAuthenticated
	}
	return s.user, nil
}
