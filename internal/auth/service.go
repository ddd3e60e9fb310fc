package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"wellness/internal/domain"
	"wellness/internal/infra"
	"wellness/internal/infra/facebook"
	"wellness/internal/infra/google"
)

// ProfileEnsurer creates the profile document for a new account.
type ProfileEnsurer interface {
	EnsureDocument(ctx context.Context, userID, email string) error
}

// ResetMailer delivers password reset links.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// GoogleVerifier verifies Google ID tokens.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*google.Claims, error)
}

// FacebookVerifier verifies Facebook access tokens.
type FacebookVerifier interface {
	Verify(ctx context.Context, accessToken string) (*facebook.User, error)
}

// Options configures a Service. Accounts and Tokens are required.
type Options struct {
	Accounts domain.AccountRepository
	Profiles ProfileEnsurer
	Tokens   *TokenIssuer
	Mailer   ResetMailer
	Google   GoogleVerifier
	Facebook FacebookVerifier
	ResetURL string
	ResetTTL time.Duration
	Now      func() time.Time
	Logger   *infra.Logger
}

// Service signs users up and in.
type Service struct {
	accounts domain.AccountRepository
	profiles ProfileEnsurer
	tokens   *TokenIssuer
	mailer   ResetMailer
	google   GoogleVerifier
	facebook FacebookVerifier
	resetURL string
	resetTTL time.Duration
	now      func() time.Time
	logger   infra.Logger
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	s := &Service{
		accounts: opts.Accounts,
		profiles: opts.Profiles,
		tokens:   opts.Tokens,
		mailer:   opts.Mailer,
		google:   opts.Google,
		facebook: opts.Facebook,
		resetURL: opts.ResetURL,
		resetTTL: opts.ResetTTL,
		now:      opts.Now,
		logger:   infra.Component(*logger, "auth"),
	}
	if s.resetTTL <= 0 {
		s.resetTTL = time.Hour
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Session is returned after a successful sign-in.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	Created   bool      `json:"created"`
}

// SignUp creates a password account and its profile document.
func (s *Service) SignUp(ctx context.Context, email, password, confirm, locale string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if password != confirm {
		return nil, domain.ErrPasswordMismatch
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	account := &domain.Account{Email: email, PasswordHash: hash}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("auth: create account: %w", err)
	}
	if err := s.ensureProfile(ctx, account); err != nil {
		return nil, err
	}
	s.logger.Info().Str("account_id", account.ID).Msg("account created")
	return s.session(account, locale, true)
}

// SignIn checks email and password. Unknown emails and wrong passwords
// return the same error.
func (s *Service) SignIn(ctx context.Context, email, password, locale string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: load account: %w", err)
	}
	if !CheckPassword(account.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return s.session(account, locale, false)
}

// ForgotPassword emails a single-use reset link. It succeeds for unknown
// emails so callers cannot learn which addresses are registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug().Msg("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("auth: load account: %w", err)
	}

	token, hash, err := newResetToken()
	if err != nil {
		return err
	}
	if err := s.accounts.CreateReset(ctx, domain.PasswordReset{
		TokenHash: hash,
		AccountID: account.ID,
		ExpiresAt: s.now().Add(s.resetTTL),
	}); err != nil {
		return fmt.Errorf("auth: store reset: %w", err)
	}
	if s.mailer == nil {
		s.logger.Warn().Str("account_id", account.ID).Msg("no mailer configured, reset link not sent")
		return nil
	}
	if err := s.mailer.SendPasswordReset(ctx, account.Email, s.resetLink(token)); err != nil {
		return fmt.Errorf("auth: send reset: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if strings.TrimSpace(token) == "" {
		return domain.ErrTokenExpired
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if password != confirm {
		return domain.ErrPasswordMismatch
	}
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	accountID, err := s.accounts.ConsumeReset(ctx, HashResetToken(token), s.now())
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, accountID, hash); err != nil {
		return fmt.Errorf("auth: update password: %w", err)
	}
	s.logger.Info().Str("account_id", accountID).Msg("password reset")
	return nil
}

// SignInGoogle exchanges a Google ID token for a session.
func (s *Service) SignInGoogle(ctx context.Context, idToken, locale string) (*Session, error) {
	if s.google == nil {
		return nil, fmt.Errorf("%w: google sign-in not configured", domain.ErrProviderFailure)
	}
	claims, err := s.google.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("google token rejected")
		return nil, domain.ErrUnauthorized
	}
	if claims.Email == "" {
		return nil, domain.Invalid("email", "google account has no email")
	}
	return s.external(ctx, domain.AuthProviderGoogle, claims.Subject, claims.Email, locale)
}

// SignInFacebook exchanges a Facebook access token for a session.
func (s *Service) SignInFacebook(ctx context.Context, accessToken, locale string) (*Session, error) {
	if s.facebook == nil {
		return nil, fmt.Errorf("%w: facebook sign-in not configured", domain.ErrProviderFailure)
	}
	user, err := s.facebook.Verify(ctx, accessToken)
	if err != nil {
		if errors.Is(err, facebook.ErrInvalidToken) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	if user.Email == "" {
		return nil, domain.Invalid("email", "facebook account has no email permission")
	}
	return s.external(ctx, domain.AuthProviderFacebook, user.ID, user.Email, locale)
}

func (s *Service) external(ctx context.Context, provider domain.AuthProvider, externalID, email, locale string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.UpsertExternal(ctx, provider, externalID, email)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("auth: link %s account: %w", provider, err)
	}
	if err := s.ensureProfile(ctx, account); err != nil {
		return nil, err
	}
	created := account.CreatedAt.Equal(account.UpdatedAt)
	return s.session(account, locale, created)
}

func (s *Service) ensureProfile(ctx context.Context, account *domain.Account) error {
	if s.profiles == nil {
		return nil
	}
	if err := s.profiles.EnsureDocument(ctx, account.ID, account.Email); err != nil {
		return fmt.Errorf("auth: create profile: %w", err)
	}
	return nil
}

func (s *Service) session(account *domain.Account, locale string, created bool) (*Session, error) {
	token, exp, err := s.tokens.Sign(account.ID, account.Email, locale)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, AccountID: account.ID, Email: account.Email, Created: created}, nil
}

func (s *Service) resetLink(token string) string {
	u, err := url.Parse(s.resetURL)
	if err != nil || s.resetURL == "" {
		return token
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// HashResetToken is the stored form of a reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

func newResetToken() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("auth: generate reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	return token, HashResetToken(token), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.Invalid("email", "is not a valid address")
	}
	return email, nil
}
