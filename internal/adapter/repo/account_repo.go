package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"wellness/internal/domain"
	"wellness/internal/infra"
	"wellness/internal/sqlinline"
)

const pgUniqueViolation = "23505"

// AccountRepositoryPG implements domain.AccountRepository backed by PostgreSQL.
type AccountRepositoryPG struct {
	db infra.SQLExecutor
}

// NewAccountRepository creates a new AccountRepositoryPG.
func NewAccountRepository(db infra.SQLExecutor) *AccountRepositoryPG {
	return &AccountRepositoryPG{db: db}
}

// Create inserts a password account. ID is generated when empty.
func (r *AccountRepositoryPG) Create(ctx context.Context, account *domain.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	err := r.db.QueryRow(ctx, sqlinline.QInsertAccount, account.ID, account.Email, account.PasswordHash).
		Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("repo: insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account by UUID.
func (r *AccountRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return scanAccount(r.db.QueryRow(ctx, sqlinline.QSelectAccountByID, id))
}

// GetByEmail fetches an account by email, case-insensitively.
func (r *AccountRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, sqlinline.QSelectAccountByEmail, strings.TrimSpace(email)))
}

// UpsertExternal links an OAuth identity to the account with the same email,
// creating the account when none exists.
func (r *AccountRepositoryPG) UpsertExternal(ctx context.Context, provider domain.AuthProvider, externalID, email string) (*domain.Account, error) {
	var query string
	switch provider {
	case domain.AuthProviderGoogle:
		query = sqlinline.QUpsertGoogleAccount
	case domain.AuthProviderFacebook:
		query = sqlinline.QUpsertFacebookAccount
	default:
		return nil, fmt.Errorf("repo: unsupported provider %q", provider)
	}
	account, err := scanAccount(r.db.QueryRow(ctx, query, uuid.NewString(), strings.TrimSpace(email), externalID))
	if err != nil {
		if isUniqueViolation(err) {
			// The external id is already linked to a different email.
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("repo: upsert %s account: %w", provider, err)
	}
	return account, nil
}

// UpdatePassword replaces the password hash.
func (r *AccountRepositoryPG) UpdatePassword(ctx context.Context, id, hash string) error {
	tag, err := r.db.Exec(ctx, sqlinline.QUpdateAccountPassword, id, hash)
	if err != nil {
		return fmt.Errorf("repo: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the account and, by cascade, its reset tokens.
func (r *AccountRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, sqlinline.QDeleteAccount, id)
	if err != nil {
		return fmt.Errorf("repo: delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateReset stores a hashed password reset token.
func (r *AccountRepositoryPG) CreateReset(ctx context.Context, reset domain.PasswordReset) error {
	if _, err := r.db.Exec(ctx, sqlinline.QInsertPasswordReset, reset.TokenHash, reset.AccountID, reset.ExpiresAt); err != nil {
		return fmt.Errorf("repo: insert password reset: %w", err)
	}
	return nil
}

// ConsumeReset marks an unexpired token used and returns its account id.
// A token can be consumed once.
func (r *AccountRepositoryPG) ConsumeReset(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	var accountID string
	if err := r.db.QueryRow(ctx, sqlinline.QConsumePasswordReset, tokenHash, now).Scan(&accountID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrTokenExpired
		}
		return "", fmt.Errorf("repo: consume password reset: %w", err)
	}
	return accountID, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.GoogleSub, &a.FacebookID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

var _ domain.AccountRepository = (*AccountRepositoryPG)(nil)
