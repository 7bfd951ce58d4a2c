// Package userstore provides the mocked local user store backing the demo
// sign-in flow. Records are kept as a JSON key-value file; credentials are
// stored in cleartext, which is a demo convenience and not a security model.
package userstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"doc-translator/internal/logger"
	"doc-translator/internal/types"
)

// StoreFileName is the name of the user store file
const StoreFileName = "users.json"

// Store is the narrow contract the app uses for user records. The JSON file
// implementation below is demo-only; a real deployment would put an actual
// credential backend behind this interface.
type Store interface {
	Register(email, name, credential string) (*types.User, error)
	Authenticate(email, credential string) (*types.User, error)
	Get(email string) (*types.User, bool)
	UpdateSettings(email string, endpoint, modelName, customModel string) (*types.User, error)
}

// FileStore persists user records as a JSON map keyed by email.
type FileStore struct {
	filePath string
	mu       sync.RWMutex
	users    map[string]*types.User
}

// NewFileStore creates a FileStore at the given path. An empty path places
// the store next to the application config in the user's home directory.
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, types.NewAppError(types.ErrUserStore, "failed to get user home directory", err)
		}
		filePath = filepath.Join(homeDir, ".config", "doc-translator", StoreFileName)
	}

	s := &FileStore{
		filePath: filePath,
		users:    make(map[string]*types.User),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return types.NewAppError(types.ErrUserStore, "failed to read user store", err)
	}

	var users map[string]*types.User
	if err := json.Unmarshal(data, &users); err != nil {
		logger.Warn("invalid user store file, starting empty",
			logger.String("path", s.filePath), logger.Err(err))
		return nil
	}
	s.users = users
	return nil
}

// save writes the store; callers must hold the write lock.
func (s *FileStore) save() error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.NewAppError(types.ErrUserStore, "failed to create store directory", err)
	}

	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrUserStore, "failed to marshal user store", err)
	}

	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return types.NewAppError(types.ErrUserStore, "failed to write user store", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user record. Registering an existing email fails.
func (s *FileStore) Register(email, name, credential string) (*types.User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, types.NewAppError(types.ErrValidation, "invalid email address", nil)
	}
	if credential == "" {
		return nil, types.NewAppError(types.ErrValidation, "credential must not be empty", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[email]; exists {
		return nil, types.NewAppError(types.ErrUserStore, "user already exists", nil)
	}

	user := &types.User{
		ID:         uuid.NewString(),
		Email:      email,
		Name:       name,
		Credential: credential,
		CreatedAt:  time.Now(),
	}
	s.users[email] = user

	if err := s.save(); err != nil {
		delete(s.users, email)
		return nil, err
	}

	logger.Info("user registered", logger.String("email", email))
	return copyUser(user), nil
}

// Authenticate checks the stored credential for the given email.
func (s *FileStore) Authenticate(email, credential string) (*types.User, error) {
	email = normalizeEmail(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok || user.Credential != credential {
		return nil, types.NewAppError(types.ErrUserStore, "invalid email or credential", nil)
	}
	return copyUser(user), nil
}

// Get returns the user record for an email, if present.
func (s *FileStore) Get(email string) (*types.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[normalizeEmail(email)]
	if !ok {
		return nil, false
	}
	return copyUser(user), true
}

// UpdateSettings stores the per-user translation endpoint and model choices.
func (s *FileStore) UpdateSettings(email string, endpoint, modelName, customModel string) (*types.User, error) {
	email = normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok {
		return nil, types.NewAppError(types.ErrUserStore, "user not found", nil)
	}

	user.Endpoint = endpoint
	user.ModelName = modelName
	user.CustomModel = customModel

	if err := s.save(); err != nil {
		return nil, err
	}
	return copyUser(user), nil
}

func copyUser(u *types.User) *types.User {
	c := *u
	return &c
}
