// Package credentials is the credential store: account creation, password
// login and per-user metadata (display name, admin flag).
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	// bcrypt ignores input past 72 bytes.
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
	minPasswordLen  = 6
	maxPasswordLen  = 72
)

func checkPassword(password string) error {
	switch {
	case len(password) < minPasswordLen:
		return ErrWeakPassword
	case len(password) > maxPasswordLen:
		return ErrPasswordTooLong
	}
	return nil
}

// User is the public view of an account, as returned on sign-up and login.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// Provider is the credential store contract used by the auth service.
type Provider interface {
	SignUp(ctx context.Context, email, password, name string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	SetAdmin(ctx context.Context, email string, admin bool) error
	ResetPassword(ctx context.Context, email, newPassword string) error
}

// Account is the persisted credential record.
type Account struct {
	ID                  string     `json:"id" gorm:"primaryKey"`
	Email               string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash        string     `json:"-"`
	Name                string     `json:"name"`
	IsAdmin             bool       `json:"is_admin"`
	FailedLoginAttempts int        `json:"-" gorm:"default:0"`
	LockedUntil         *time.Time `json:"-"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}

// SetPassword hashes and sets the account's password.
func (a *Account) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares the provided password with the stored hash.
func (a *Account) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

func (a *Account) user() *User {
	return &User{ID: a.ID, Email: a.Email, Name: a.Name, IsAdmin: a.IsAdmin}
}

// LocalProvider keeps accounts in the application database.
type LocalProvider struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{db: db, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *LocalProvider) find(ctx context.Context, email string) (*Account, error) {
	var acct Account
	if err := p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &acct, nil
}

// SignUp creates a regular (non-admin) account.
func (p *LocalProvider) SignUp(ctx context.Context, email, password, name string) (*User, error) {
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	acct := &Account{Email: normalizeEmail(email), Name: strings.TrimSpace(name)}
	if err := acct.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := p.db.WithContext(ctx).Create(acct).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return acct.user(), nil
}

// SignIn verifies a password login. Five consecutive failures lock the
// account for fifteen minutes.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*User, error) {
	acct, err := p.find(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := p.now()
	if acct.LockedUntil != nil && acct.LockedUntil.After(now) {
		return nil, ErrAccountLocked
	}

	if !acct.CheckPassword(password) {
		acct.FailedLoginAttempts++
		if acct.FailedLoginAttempts >= maxFailedLogins {
			lockedUntil := now.Add(lockoutDuration)
			acct.LockedUntil = &lockedUntil
		}
		if err := p.db.WithContext(ctx).Save(acct).Error; err != nil {
			return nil, fmt.Errorf("record failed login: %w", err)
		}
		return nil, ErrInvalidCredentials
	}

	acct.FailedLoginAttempts = 0
	acct.LockedUntil = nil
	acct.LastLogin = &now
	if err := p.db.WithContext(ctx).Save(acct).Error; err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	return acct.user(), nil
}

func (p *LocalProvider) GetUser(ctx context.Context, id string) (*User, error) {
	var acct Account
	if err := p.db.WithContext(ctx).First(&acct, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return acct.user(), nil
}

// SetAdmin flips the admin flag in the account metadata. Tokens already
// issued keep their old claim until they expire.
func (p *LocalProvider) SetAdmin(ctx context.Context, email string, admin bool) error {
	acct, err := p.find(ctx, email)
	if err != nil {
		return err
	}
	return p.db.WithContext(ctx).Model(acct).Update("is_admin", admin).Error
}

// ResetPassword replaces the password and clears any lockout.
func (p *LocalProvider) ResetPassword(ctx context.Context, email, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	acct, err := p.find(ctx, email)
	if err != nil {
		return err
	}
	if err := acct.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	acct.LockedUntil = nil
	acct.FailedLoginAttempts = 0
	return p.db.WithContext(ctx).Save(acct).Error
}
