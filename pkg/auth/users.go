package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/shelfd/shelfd/pkg/record"
)

// User is a registered account. The password hash never serializes.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// WithID returns a copy of the user with the given ID.
func (u User) WithID(id uint64) User {
	u.ID = id
	return u
}

// UserStore holds accounts in a record store with a unique-email index
// on top. All methods are safe for concurrent use; compound operations
// hold the index lock across the store call so the index never drifts.
type UserStore struct {
	records *record.Store[User]

	mu      sync.Mutex
	byEmail map[string]uint64
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		records: record.NewStore[User](),
		byEmail: make(map[string]uint64),
	}
}

// normalizeEmail lowercases and trims an email for index lookups.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account. The email must be unused and the
// password is hashed before storage.
func (s *UserStore) Register(email, password, role string) (User, error) {
	if role == "" {
		role = RoleUser
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}

	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[key]; exists {
		return User{}, ErrEmailTaken
	}

	user := s.records.Create(User{
		Email:        key,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	s.byEmail[key] = user.ID
	return user, nil
}

// Authenticate checks email and password and returns the matching user.
// Unknown email and wrong password both return ErrInvalidCredentials.
func (s *UserStore) Authenticate(email, password string) (User, error) {
	s.mu.Lock()
	id, ok := s.byEmail[normalizeEmail(email)]
	s.mu.Unlock()
	if !ok {
		// Burn a hash comparison so unknown emails take as long as
		// wrong passwords.
		_ = CheckPassword("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0a7bJ9yBJf0yBJf0yBJf0yBJf0y", password)
		return User{}, ErrInvalidCredentials
	}

	user, err := s.records.Get(id)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return User{}, err
	}
	return user, nil
}

// Get returns a user by ID.
func (s *UserStore) Get(id uint64) (User, error) {
	return s.records.Get(id)
}

// List returns all users ordered by ID.
func (s *UserStore) List() []User {
	return s.records.List()
}

// Delete removes an account and its email index entry.
func (s *UserStore) Delete(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.records.Get(id)
	if err != nil {
		return err
	}
	if err := s.records.Delete(id); err != nil {
		return err
	}
	delete(s.byEmail, user.Email)
	return nil
}

// Len returns the number of accounts.
func (s *UserStore) Len() int {
	return s.records.Len()
}
