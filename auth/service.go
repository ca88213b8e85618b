package auth

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/go-pkgz/auth/v2"
	"github.com/go-pkgz/auth/v2/avatar"
	"github.com/go-pkgz/auth/v2/provider"
	"github.com/go-pkgz/auth/v2/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/krishkalaria12/snap-gallery/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const LocalProvider = "local"

var ErrUserExists = errors.New("username or email already taken")

type Options struct {
	Secret             string
	Issuer             string
	URL                string
	AvatarPath         string
	TokenDuration      time.Duration
	CookieDuration     time.Duration
	SecureCookies      bool
	GoogleClientID     string
	GoogleClientSecret string
}

// Service is the identity adapter. It owns the go-pkgz/auth service and the
// local credential store, and turns tokens into explicit Sessions.
type Service struct {
	svc  *auth.Service
	db   *gorm.DB
	opts Options
}

func NewService(opts Options, db *gorm.DB) *Service {
	service := auth.NewService(auth.Opts{
		SecretReader: token.SecretFunc(func(id string) (string, error) {
			return opts.Secret, nil
		}),
		TokenDuration:  opts.TokenDuration,
		CookieDuration: opts.CookieDuration,
		Issuer:         opts.Issuer,
		URL:            opts.URL,
		AvatarStore:    avatar.NewLocalFS(opts.AvatarPath),
		SecureCookies:  opts.SecureCookies,
		DisableXSRF:    true,
	})

	s := &Service{svc: service, db: db, opts: opts}

	if db != nil {
		service.AddDirectProviderWithUserIDFunc(LocalProvider,
			provider.CredCheckerFunc(s.ValidateUserCredentials),
			s.canonicalUsername,
		)
	}
	if opts.GoogleClientID != "" && opts.GoogleClientSecret != "" {
		service.AddProvider("google", opts.GoogleClientID, opts.GoogleClientSecret)
	}

	return s
}

// Handlers returns the sign-in/sign-out routes (/auth/...) and avatar routes.
func (s *Service) Handlers() (authHandler http.Handler, avatarHandler http.Handler) {
	return s.svc.Handlers()
}

// Parse validates a JWT and returns the session it carries.
func (s *Service) Parse(tokenStr string) (*Session, error) {
	claims, err := s.svc.TokenService().Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.User == nil || claims.User.ID == "" {
		return nil, errors.New("token has no user")
	}
	return sessionFromUser(*claims.User), nil
}

// IssueToken signs a token for a local account, with the same user id the
// local provider assigns.
func (s *Service) IssueToken(user *models.User) (string, error) {
	name := user.FullName
	if name == "" {
		name = user.Username
	}

	now := time.Now()
	claims := token.Claims{
		User: &token.User{
			ID:    LocalUserID(user.Username),
			Name:  name,
			Email: user.Email,
			Attributes: map[string]interface{}{
				"username": user.Username,
			},
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.opts.Issuer,
			Audience:  jwt.ClaimStrings{s.opts.Issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
		},
	}

	tokenStr, err := s.svc.TokenService().Token(claims)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenStr, nil
}

func (s *Service) CookieDuration() time.Duration {
	return s.opts.CookieDuration
}

// ValidateUserCredentials checks an email or username and password against
// the users table.
func (s *Service) ValidateUserCredentials(identity, password string) (bool, error) {
	user, err := s.FindUser(identity)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	return CheckPasswordHash(password, user.Password), nil
}

// FindUser looks a user up by email or username; (nil, nil) when missing.
func (s *Service) FindUser(identity string) (*models.User, error) {
	var user models.User
	q := s.db.Where("username = ?", identity)
	if isEmail(identity) {
		q = s.db.Where("email = ?", identity)
	}
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Register creates a local account with a bcrypt-hashed password.
func (s *Service) Register(username, email, fullName, password string) (*models.User, error) {
	var count int64
	if err := s.db.Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		FullName: fullName,
		Password: hash,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// canonicalUsername keeps the local user id stable whether the user signed in
// with their email or their username.
func (s *Service) canonicalUsername(identity string, _ *http.Request) string {
	user, err := s.FindUser(identity)
	if err != nil || user == nil {
		return identity
	}
	return user.Username
}

// LocalUserID mirrors the id go-pkgz/auth derives for direct-provider users.
func LocalUserID(username string) string {
	return LocalProvider + "_" + token.HashID(sha1.New(), username)
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(hashed), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func isEmail(identity string) bool {
	_, err := mail.ParseAddress(identity)
	return err == nil
}
