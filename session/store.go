// ABOUTME: Process-wide session store owning the signed-in user and token
// ABOUTME: Login, register, logout, permission refresh, startup rehydration, and 401 expiry
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/harperreed/salesdesk/models"
)

// Authenticator is the slice of the API client the store drives.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (models.AuthResult, error)
	Register(ctx context.Context, req models.RegisterRequest) (models.AuthResult, error)
	Logout(ctx context.Context) error
	Access(ctx context.Context) ([]string, error)
	SetToken(token string)
	ClearToken()
}

// Snapshot is a copy of the session state at one moment.
type Snapshot struct {
	User    *models.User
	Token   string
	Loading bool
}

func (s Snapshot) Authenticated() bool { return s.Token != "" && s.User != nil }

// Permissions returns the user's permission keys, or nil when signed out.
func (s Snapshot) Permissions() []string {
	if s.User == nil {
		return nil
	}
	return s.User.Permissions
}

// Store is the only writer of session state and of its durable copy.
type Store struct {
	auth    Authenticator
	storage Storage
	logger  *log.Logger
	now     func() time.Time

	mu          sync.RWMutex
	user        *models.User
	token       string
	loading     bool
	subscribers []func(Snapshot)

	initOnce  sync.Once
	refreshed chan struct{}
}

func NewStore(auth Authenticator, storage Storage, logger *log.Logger) *Store {
	return &Store{
		auth:      auth,
		storage:   storage,
		logger:    logger,
		now:       time.Now,
		loading:   true,
		refreshed: make(chan struct{}),
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Token: s.token, Loading: s.loading}
	if s.user != nil {
		u := *s.user
		u.Permissions = append([]string(nil), s.user.Permissions...)
		u.Roles = append([]string(nil), s.user.Roles...)
		snap.User = &u
	}
	return snap
}

func (s *Store) User() *models.User { return s.Snapshot().User }

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool { return s.Snapshot().Authenticated() }

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Permissions() []string { return s.Snapshot().Permissions() }

// Subscribe registers fn to receive a snapshot after every state change.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) publish() {
	s.mu.RLock()
	snap := s.snapshotLocked()
	subs := slices.Clone(s.subscribers)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// Refreshed is closed once the startup permission check has finished,
// whether or not it succeeded.
func (s *Store) Refreshed() <-chan struct{} { return s.refreshed }

// Init rehydrates a persisted session. It runs once; later calls are no-ops.
// A rehydrated session is trusted immediately and its permissions are
// refreshed in the background.
func (s *Store) Init(ctx context.Context) error {
	var initErr error
	s.initOnce.Do(func() {
		initErr = s.init(ctx)
	})
	return initErr
}

func (s *Store) init(ctx context.Context) error {
	token, user, err := s.storage.Load()
	if err != nil {
		s.logger.Warn("failed to read persisted session", "err", err)
		s.finishLoading()
		close(s.refreshed)
		return err
	}

	if token == "" || user == nil {
		s.finishLoading()
		close(s.refreshed)
		return nil
	}

	if s.tokenExpired(token) {
		s.logger.Info("persisted session expired, discarding")
		if err := s.storage.Clear(); err != nil {
			s.logger.Warn("failed to clear expired session", "err", err)
		}
		s.finishLoading()
		close(s.refreshed)
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.loading = false
	s.mu.Unlock()
	s.auth.SetToken(token)
	s.publish()

	go func() {
		defer close(s.refreshed)
		if err := s.RefreshPermissions(ctx); err != nil {
			s.logger.Warn("failed to refresh user access", "err", err)
		}
	}()
	return nil
}

func (s *Store) finishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.publish()
}

// tokenExpired reads the exp claim without verifying the signature; the
// server verifies. Tokens that are not JWTs are left to the server to judge.
func (s *Store) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(s.now())
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.logger.Warn("login failed", "email", email, "err", err)
		return loginError(err)
	}
	s.establish(res)
	s.logger.Info("signed in", "user", res.User.Email)
	return nil
}

func (s *Store) Register(ctx context.Context, req models.RegisterRequest) error {
	res, err := s.auth.Register(ctx, req)
	if err != nil {
		s.logger.Warn("registration failed", "email", req.Email, "err", err)
		return registerError(err)
	}
	s.establish(res)
	s.logger.Info("registered", "user", res.User.Email)
	return nil
}

func (s *Store) establish(res models.AuthResult) {
	user := res.User

	s.mu.Lock()
	if err := s.storage.Save(res.Token, user); err != nil {
		s.logger.Warn("failed to persist session", "err", err)
	}
	s.token = res.Token
	s.user = &user
	s.loading = false
	s.mu.Unlock()

	s.auth.SetToken(res.Token)
	s.publish()
}

// Logout tells the server best-effort and always clears local state.
func (s *Store) Logout(ctx context.Context) {
	if s.Token() != "" {
		if err := s.auth.Logout(ctx); err != nil {
			s.logger.Warn("logout request failed, continuing with local logout", "err", err)
		}
	}
	s.clear()
}

// Expire drops the session after the server rejected the token. It reports
// whether there was a session to drop.
func (s *Store) Expire() bool {
	had := s.Token() != ""
	s.clear()
	if had {
		s.logger.Info("session expired")
	}
	return had
}

func (s *Store) clear() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.loading = false
	if err := s.storage.Clear(); err != nil {
		s.logger.Warn("failed to clear persisted session", "err", err)
	}
	s.mu.Unlock()

	s.auth.ClearToken()
	s.publish()
}

// RefreshPermissions replaces the user's permission set with the server's.
func (s *Store) RefreshPermissions(ctx context.Context) error {
	if s.Token() == "" {
		return ErrNoSession
	}
	perms, err := s.auth.Access(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.user == nil {
		// Signed out while the request was in flight.
		s.mu.Unlock()
		return ErrNoSession
	}
	updated := *s.user
	updated.Permissions = perms
	s.user = &updated
	if err := s.storage.Save(s.token, updated); err != nil {
		s.logger.Warn("failed to persist refreshed permissions", "err", err)
	}
	s.mu.Unlock()

	s.publish()
	return nil
}
