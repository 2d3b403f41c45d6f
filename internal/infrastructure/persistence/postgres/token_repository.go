package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

// TokenRepository persists access tokens encrypted at rest. Refreshes
// insert new rows; expired rows are never deleted here, lookups just
// skip them.
type TokenRepository struct {
	db     *DB
	cipher application.TokenCipher
}

func NewTokenRepository(db *DB, cipher application.TokenCipher) *TokenRepository {
	return &TokenRepository{db: db, cipher: cipher}
}

func (r *TokenRepository) Save(ctx context.Context, token *domain.AccessToken) error {
	encrypted, err := r.cipher.Encrypt(token.Value)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}

	query := `
		INSERT INTO access_tokens (associated_setting, access_token, token_fetch_time, expiry_time)
		VALUES ($1, $2, $3, $4)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		token.AssociatedSetting,
		encrypted,
		token.FetchedAt,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}

	return nil
}

// FindActive retrieves the newest non-expired token for a setting,
// decrypted. Returns nil when no usable token exists.
func (r *TokenRepository) FindActive(ctx context.Context, setting string, now time.Time) (*domain.AccessToken, error) {
	query := `
		SELECT id, associated_setting, access_token, token_fetch_time, expiry_time
		FROM access_tokens
		WHERE associated_setting = $1
		  AND expiry_time > $2
		ORDER BY token_fetch_time DESC
		LIMIT 1
	`

	var m accessTokenModel
	err := r.db.Pool.QueryRow(ctx, query, setting, now).Scan(
		&m.ID, &m.AssociatedSetting, &m.AccessToken, &m.TokenFetchTime, &m.ExpiryTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query access token: %w", err)
	}

	value, err := r.cipher.Decrypt(m.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}

	return &domain.AccessToken{
		Value:             value,
		AssociatedSetting: m.AssociatedSetting,
		FetchedAt:         m.TokenFetchTime,
		ExpiresAt:         m.ExpiryTime,
	}, nil
}
