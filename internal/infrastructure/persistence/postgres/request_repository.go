package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

type RequestRepository struct {
	db *DB
}

func NewRequestRepository(db *DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, req *domain.IntegrationRequest) error {
	query := `
		INSERT INTO integration_requests (id, url, payload, headers, status, output, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		req.ID,
		req.URL,
		req.Payload,
		req.Headers,
		string(req.Status),
		req.Output,
		req.Error,
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create integration request: %w", err)
	}

	return nil
}

// UpdateResult overwrites the result fields unconditionally. Repeat
// callback deliveries resolve last-write-wins.
func (r *RequestRepository) UpdateResult(ctx context.Context, id string, status domain.RequestStatus, output, errMsg string) error {
	query := `
		UPDATE integration_requests
		SET status = $1,
			output = NULLIF($2, ''),
			error = NULLIF($3, ''),
			updated_at = now()
		WHERE id = $4
	`

	tag, err := r.db.Pool.Exec(ctx, query, string(status), output, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to update integration request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.NewRequestNotFoundError(id)
	}

	return nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id string) (*domain.IntegrationRequest, error) {
	query := `
		SELECT id, url, payload, headers, status, output, error, created_at, updated_at
		FROM integration_requests
		WHERE id = $1
	`

	row := r.db.Pool.QueryRow(ctx, query, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewRequestNotFoundError(id)
		}
		return nil, fmt.Errorf("query integration request: %w", err)
	}

	return req, nil
}

// FindStalePending lists requests still Pending past the cutoff, oldest
// first.
func (r *RequestRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.IntegrationRequest, error) {
	query := `
		SELECT id, url, payload, headers, status, output, error, created_at, updated_at
		FROM integration_requests
		WHERE status = 'Pending'
		  AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query stale pending requests: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.IntegrationRequest, error) {
		return scanRequest(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan stale pending requests: %w", err)
	}

	return results, nil
}

func scanRequest(row pgx.Row) (*domain.IntegrationRequest, error) {
	var m integrationRequestModel
	err := row.Scan(
		&m.ID, &m.URL, &m.Payload, &m.Headers, &m.Status,
		&m.Output, &m.Error, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &domain.IntegrationRequest{
		ID:        m.ID,
		URL:       m.URL,
		Payload:   m.Payload,
		Headers:   m.Headers,
		Status:    domain.RequestStatus(m.Status),
		Output:    m.Output,
		Error:     m.Error,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}
