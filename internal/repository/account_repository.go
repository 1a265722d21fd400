package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/pkg/database"
)

const accountColumns = `id, email, name, password_algorithm, password_hash, area_activity, avatar, cover_image,
		role, enabled, is_pro, is_verified, created_at, updated_at`

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *database.Postgres
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.Postgres) AccountRepository {
	return &accountRepository{db: db}
}

// CreateWithPreferences creates the account and its default preferences atomically
func (r *accountRepository) CreateWithPreferences(ctx context.Context, account *domain.Account, prefs *domain.Preferences) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = now
	}
	if account.Role == "" {
		account.Role = domain.RoleUser
	}

	prefs.AccountID = account.ID
	prefs.CreatedAt = account.CreatedAt
	prefs.UpdatedAt = account.CreatedAt

	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (id, email, name, password_algorithm, password_hash, area_activity, avatar, cover_image,
				role, enabled, is_pro, is_verified, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`,
			account.ID,
			account.Email,
			account.Name,
			string(account.Password.Algorithm),
			account.Password.Encoded,
			account.AreaActivity,
			account.Avatar,
			account.CoverImage,
			string(account.Role),
			account.Enabled,
			account.IsPro,
			account.IsVerified,
			account.CreatedAt,
			account.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("account with email %s already exists: %w", account.Email, ErrDuplicateEmail)
			}
			return fmt.Errorf("failed to create account: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_preferences (account_id, email_notifications, push_notifications, profile_visibility, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			prefs.AccountID,
			prefs.EmailNotifications,
			prefs.PushNotifications,
			prefs.ProfileVisibility,
			prefs.CreatedAt,
			prefs.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create preferences: %w", err)
		}

		return nil
	})
}

// GetByEmail retrieves an account by its normalized email
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(email) = LOWER($1)`

	account, err := scanAccount(r.db.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account with email %s not found: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

// GetByID retrieves an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

// UpdatePassword replaces the stored password hash
func (r *accountRepository) UpdatePassword(ctx context.Context, id string, hash domain.PasswordHash) error {
	query := `
		UPDATE accounts
		SET password_algorithm = $2, password_hash = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, id, string(hash.Algorithm), hash.Encoded, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
	}

	return nil
}

// UpdateProfile updates the profile columns present in update
func (r *accountRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) error {
	query := `
		UPDATE accounts
		SET name = COALESCE($2, name),
			area_activity = COALESCE($3, area_activity),
			avatar = COALESCE($4, avatar),
			cover_image = COALESCE($5, cover_image),
			updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query,
		id,
		update.Name,
		update.AreaActivity,
		update.Avatar,
		update.CoverImage,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return expectOneRow(result, id)
}

// SetEnabled enables or disables an account
func (r *accountRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	query := `UPDATE accounts SET enabled = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id, enabled, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update enabled flag: %w", err)
	}

	return expectOneRow(result, id)
}

// GetPreferences retrieves the preferences of an account
func (r *accountRepository) GetPreferences(ctx context.Context, accountID string) (*domain.Preferences, error) {
	query := `
		SELECT account_id, email_notifications, push_notifications, profile_visibility, created_at, updated_at
		FROM user_preferences
		WHERE account_id = $1
	`

	prefs := &domain.Preferences{}
	err := r.db.DB.QueryRowContext(ctx, query, accountID).Scan(
		&prefs.AccountID,
		&prefs.EmailNotifications,
		&prefs.PushNotifications,
		&prefs.ProfileVisibility,
		&prefs.CreatedAt,
		&prefs.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("preferences for account %s not found: %w", accountID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	return prefs, nil
}

// UpsertPreferences writes the preferences, keeping the original created_at on update
func (r *accountRepository) UpsertPreferences(ctx context.Context, prefs *domain.Preferences) error {
	now := time.Now().UTC()
	if prefs.CreatedAt.IsZero() {
		prefs.CreatedAt = now
	}
	prefs.UpdatedAt = now

	query := `
		INSERT INTO user_preferences (account_id, email_notifications, push_notifications, profile_visibility, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id) DO UPDATE
		SET email_notifications = EXCLUDED.email_notifications,
			push_notifications = EXCLUDED.push_notifications,
			profile_visibility = EXCLUDED.profile_visibility,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		prefs.AccountID,
		prefs.EmailNotifications,
		prefs.PushNotifications,
		prefs.ProfileVisibility,
		prefs.CreatedAt,
		prefs.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("account with id %s not found: %w", prefs.AccountID, ErrNotFound)
		}
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}

	return nil
}

func expectOneRow(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("account with id %s not found: %w", id, ErrNotFound)
	}

	return nil
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	account := &domain.Account{}
	var algorithm, role string
	var areaActivity, avatar, coverImage sql.NullString

	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&algorithm,
		&account.Password.Encoded,
		&areaActivity,
		&avatar,
		&coverImage,
		&role,
		&account.Enabled,
		&account.IsPro,
		&account.IsVerified,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Password.Algorithm = domain.HashAlgorithm(algorithm)
	account.Role = domain.Role(role)
	account.AreaActivity = nullStringPtr(areaActivity)
	account.Avatar = nullStringPtr(avatar)
	account.CoverImage = nullStringPtr(coverImage)

	return account, nil
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
