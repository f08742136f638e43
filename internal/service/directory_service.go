package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "tuition/internal/errors"
	"tuition/internal/logger"
	"tuition/internal/model"
	"tuition/internal/repository"
)

const bcryptCost = 10

// UserInput carries the replaceable fields of a user. An empty Password on
// update keeps the stored credential.
type UserInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
	Active   bool
}

// DirectoryService manages the user directory and the single active session.
// Every user value it returns is a copy.
type DirectoryService interface {
	Hydrate(ctx context.Context) error
	Reload(ctx context.Context) error
	IsLoading() bool

	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	Logout(ctx context.Context) error
	LogoutUser(ctx context.Context, userID string) (bool, error)

	Add(ctx context.Context, in UserInput) (*model.User, error)
	Update(ctx context.Context, id string, in UserInput) (*model.User, error)
	Delete(ctx context.Context, id string) error
	Block(ctx context.Context, id string) error
	Unblock(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) []model.User

	Session() *model.User
	IsAdmin() bool
	CanAccessAdminFeatures() bool
}

// DirectoryOption customizes a directory service.
type DirectoryOption func(*directoryService)

// WithClock overrides the time source used for creation and login stamps.
func WithClock(now func() time.Time) DirectoryOption {
	return func(s *directoryService) { s.now = now }
}

// WithPasswordCost overrides the bcrypt cost.
func WithPasswordCost(cost int) DirectoryOption {
	return func(s *directoryService) { s.cost = cost }
}

// WithSeedUsers replaces the accounts written on first start.
func WithSeedUsers(seeds []SeedUser) DirectoryOption {
	return func(s *directoryService) { s.seeds = seeds }
}

type directoryService struct {
	mu       sync.RWMutex
	repo     repository.UserRepository
	log      logger.Logger
	users    []model.User
	session  *model.User
	hydrated bool

	now   func() time.Time
	newID func() string
	cost  int
	seeds []SeedUser
}

// NewDirectoryService creates a directory service. Hydrate must run before use.
func NewDirectoryService(repo repository.UserRepository, log logger.Logger, opts ...DirectoryOption) DirectoryService {
	s := &directoryService{
		repo:  repo,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
		cost:  bcryptCost,
		seeds: DefaultSeedUsers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate loads the directory (seeding it on first start) and restores the
// persisted session if its user still exists and is active.
func (s *directoryService) Hydrate(ctx context.Context) error {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}

	stored, err := s.repo.LoadSession(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = users
	s.session = nil
	if stored != nil {
		if idx := indexOfUser(users, stored.ID); idx >= 0 && users[idx].Active {
			current := users[idx].Clone()
			s.session = &current
		} else {
			if err := s.repo.ClearSession(ctx); err != nil {
				return err
			}
			s.log.Info("stale session dropped", "user_id", stored.ID)
		}
	}
	s.hydrated = true
	return nil
}

// Reload re-reads the directory and revalidates the in-memory session
// against it, so changes written by another process become visible. It never
// seeds: a missing snapshot keeps the directory already in memory.
func (s *directoryService) Reload(ctx context.Context) error {
	users, found, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return err
	}
	if !found {
		s.log.Warn("users snapshot missing on reload, keeping current directory")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = users
	if s.session != nil {
		idx := indexOfUser(users, s.session.ID)
		if idx < 0 || !users[idx].Active {
			s.log.Info("session invalidated on reload", "user_id", s.session.ID)
			return s.clearSessionLocked(ctx)
		}
		current := users[idx].Clone()
		s.session = &current
	}
	return nil
}

func (s *directoryService) loadUsers(ctx context.Context) ([]model.User, error) {
	users, found, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if found {
		return users, nil
	}

	users, err = seedDirectory(s.seeds, s.now(), s.cost)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveUsers(ctx, users); err != nil {
		return nil, fmt.Errorf("persist seed users: %w", err)
	}
	s.log.Info("user directory seeded", "count", len(users))
	return users, nil
}

func (s *directoryService) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.hydrated
}

// Authenticate matches the email case-insensitively and the password exactly.
func (s *directoryService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.users {
		if !strings.EqualFold(s.users[i].Email, email) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(s.users[i].PasswordHash), []byte(password)) == nil {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.log.Warn("login rejected", "email", email)
		return nil, apperrors.ErrInvalidCredentials
	}
	if !s.users[idx].Active {
		s.log.Warn("login rejected for blocked account", "user_id", s.users[idx].ID)
		return nil, apperrors.ErrAccountBlocked
	}

	next := cloneUsers(s.users)
	ts := s.now()
	next[idx].LastLogin = &ts
	if err := s.repo.SaveUsers(ctx, next); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}
	if err := s.repo.SaveSession(ctx, next[idx]); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.users = next
	session := next[idx].Clone()
	s.session = &session

	s.log.Info("user logged in", "user_id", session.ID, "role", session.Role)
	out := session.Clone()
	return &out, nil
}

// Logout clears the session unconditionally.
func (s *directoryService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearSessionLocked(ctx)
}

// LogoutUser ends the session only while userID holds it. It reports whether
// a session was cleared.
func (s *directoryService) LogoutUser(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isSessionLocked(userID) {
		return false, nil
	}
	return true, s.clearSessionLocked(ctx)
}

func (s *directoryService) clearSessionLocked(ctx context.Context) error {
	if s.session != nil {
		s.log.Info("user logged out", "user_id", s.session.ID)
	}
	s.session = nil
	if err := s.repo.ClearSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *directoryService) Add(ctx context.Context, in UserInput) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, err := s.validateLocked(in, "", true)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		ID:           s.newID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Active:       in.Active,
		CreatedAt:    s.now(),
	}
	next := append(cloneUsers(s.users), user)
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}

	s.log.Info("user added", "user_id", user.ID, "role", user.Role)
	out := user.Clone()
	return &out, nil
}

// Update replaces every field except id, creation time and last login.
// Deactivating the session's own account is refused, as with Block.
func (s *directoryService) Update(ctx context.Context, id string, in UserInput) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOfUser(s.users, id)
	if idx < 0 {
		return nil, apperrors.ErrUserNotFound
	}
	if !in.Active && s.isSessionLocked(id) {
		return nil, apperrors.ErrSelfActionBlocked
	}
	in, err := s.validateLocked(in, id, false)
	if err != nil {
		return nil, err
	}

	next := cloneUsers(s.users)
	u := &next[idx]
	u.Name = in.Name
	u.Email = in.Email
	u.Role = in.Role
	u.Active = in.Active
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}

	if s.session != nil && s.session.ID == id {
		session := next[idx].Clone()
		s.session = &session
		if err := s.repo.SaveSession(ctx, session); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}

	s.log.Info("user updated", "user_id", id)
	out := next[idx].Clone()
	return &out, nil
}

// Delete removes the user. The session's own account is refused; a missing
// id is not an error.
func (s *directoryService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isSessionLocked(id) {
		return apperrors.ErrSelfActionBlocked
	}
	idx := indexOfUser(s.users, id)
	if idx < 0 {
		return nil
	}

	next := cloneUsers(s.users)
	next = append(next[:idx], next[idx+1:]...)
	if err := s.commitLocked(ctx, next); err != nil {
		return err
	}

	s.log.Info("user deleted", "user_id", id)
	return nil
}

// Block deactivates the user. The session's own account is refused.
func (s *directoryService) Block(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isSessionLocked(id) {
		return apperrors.ErrSelfActionBlocked
	}
	if err := s.setActiveLocked(ctx, id, false); err != nil {
		return err
	}

	s.log.Info("user blocked", "user_id", id)
	return nil
}

// Unblock reactivates the user without touching the session.
func (s *directoryService) Unblock(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setActiveLocked(ctx, id, true); err != nil {
		return err
	}
	s.log.Info("user unblocked", "user_id", id)
	return nil
}

func (s *directoryService) setActiveLocked(ctx context.Context, id string, active bool) error {
	idx := indexOfUser(s.users, id)
	if idx < 0 {
		return apperrors.ErrUserNotFound
	}
	next := cloneUsers(s.users)
	next[idx].Active = active
	return s.commitLocked(ctx, next)
}

func (s *directoryService) Get(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := indexOfUser(s.users, id)
	if idx < 0 {
		return nil, apperrors.ErrUserNotFound
	}
	out := s.users[idx].Clone()
	return &out, nil
}

func (s *directoryService) List(_ context.Context) []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUsers(s.users)
}

// Session returns a copy of the authenticated user, or nil.
func (s *directoryService) Session() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	out := s.session.Clone()
	return &out
}

func (s *directoryService) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsAdmin()
}

func (s *directoryService) CanAccessAdminFeatures() bool {
	return s.IsAdmin()
}

func (s *directoryService) isSessionLocked(id string) bool {
	return s.session != nil && s.session.ID == id
}

// commitLocked persists next and only then swaps it in.
func (s *directoryService) commitLocked(ctx context.Context, next []model.User) error {
	if err := s.repo.SaveUsers(ctx, next); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	s.users = next
	return nil
}

// validateLocked trims the input and checks required fields and email
// uniqueness. selfID is excluded from the uniqueness check.
func (s *directoryService) validateLocked(in UserInput, selfID string, requirePassword bool) (UserInput, error) {
	var verr apperrors.ValidationError

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		verr.Add("name", "name is required")
	}
	if in.Email == "" {
		verr.Add("email", "email is required")
	}
	if requirePassword && in.Password == "" {
		verr.Add("password", "password is required")
	}
	if !in.Role.Valid() {
		verr.Add("role", "role must be admin or user")
	}
	if err := verr.OrNil(); err != nil {
		return in, err
	}

	for i := range s.users {
		if s.users[i].ID != selfID && strings.EqualFold(s.users[i].Email, in.Email) {
			return in, apperrors.ErrEmailTaken
		}
	}
	return in, nil
}

func indexOfUser(users []model.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneUsers(users []model.User) []model.User {
	out := make([]model.User, len(users))
	for i := range users {
		out[i] = users[i].Clone()
	}
	return out
}
