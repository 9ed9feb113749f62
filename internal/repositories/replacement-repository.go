package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"asset-system/internal/entities"
	"asset-system/pkg/types"
)

type ReplacementRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, replacement *entities.Replacement) (uint64, error)
	GetReplacements(ctx context.Context, filter types.Filter) ([]entities.Replacement, uint64, error)
}

type replacementRepository struct {
	storage *pgxpool.Pool
}

func NewReplacementRepository(storage *pgxpool.Pool) ReplacementRepositoryInterface {
	return &replacementRepository{storage: storage}
}

func (r *replacementRepository) CreateInTx(ctx context.Context, tx pgx.Tx, replacement *entities.Replacement) (uint64, error) {
	query := `
		INSERT INTO replacements (old_device_id, new_device_id, reason, replaced_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id uint64
	err := tx.QueryRow(ctx, query,
		replacement.OldDeviceID, replacement.NewDeviceID, replacement.Reason,
		replacement.ReplacedAt, replacement.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания записи о замене: %w", err)
	}
	return id, nil
}

func (r *replacementRepository) GetReplacements(ctx context.Context, filter types.Filter) ([]entities.Replacement, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM replacements`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета замен: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}

	query := `
		SELECT id, old_device_id, new_device_id, reason, replaced_at, created_by, created_at
		FROM replacements
		ORDER BY replaced_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.storage.Query(ctx, query, limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка замен: %w", err)
	}
	defer rows.Close()

	replacements := make([]entities.Replacement, 0)
	for rows.Next() {
		var rep entities.Replacement
		if err := rows.Scan(
			&rep.ID, &rep.OldDeviceID, &rep.NewDeviceID, &rep.Reason,
			&rep.ReplacedAt, &rep.CreatedBy, &rep.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования замены в списке: %w", err)
		}
		replacements = append(replacements, rep)
	}
	return replacements, total, nil
}
