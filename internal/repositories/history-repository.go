package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"asset-system/internal/entities"
)

// DeviceHistoryItem - запись истории, обогащенная ФИО актора для отдачи наружу.
type DeviceHistoryItem struct {
	entities.DeviceHistory
	ActorFio string
}

type HistoryRepositoryInterface interface {
	// CreateInTx пишет запись аудита в той же транзакции, что и изменение
	// состояния. Ошибка записи истории валит всю транзакцию.
	CreateInTx(ctx context.Context, tx pgx.Tx, history *entities.DeviceHistory) error
	FindByDeviceID(ctx context.Context, deviceID uint64) ([]DeviceHistoryItem, error)
}

type historyRepository struct {
	storage *pgxpool.Pool
}

func NewHistoryRepository(storage *pgxpool.Pool) HistoryRepositoryInterface {
	return &historyRepository{storage: storage}
}

func (r *historyRepository) CreateInTx(ctx context.Context, tx pgx.Tx, history *entities.DeviceHistory) error {
	query := `
		INSERT INTO device_history (device_id, action, actor_id, description)
		VALUES ($1, $2, $3, $4)`

	_, err := tx.Exec(ctx, query, history.DeviceID, history.Action, history.ActorID, history.Description)
	if err != nil {
		return fmt.Errorf("ошибка записи истории устройства: %w", err)
	}
	return nil
}

func (r *historyRepository) FindByDeviceID(ctx context.Context, deviceID uint64) ([]DeviceHistoryItem, error) {
	query := `
		SELECT h.id, h.device_id, h.action, h.actor_id, h.description, h.created_at,
		       COALESCE(u.fio, '') AS actor_fio
		FROM device_history h
		LEFT JOIN users u ON u.id = h.actor_id
		WHERE h.device_id = $1
		ORDER BY h.created_at DESC, h.id DESC`

	rows, err := r.storage.Query(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории устройства: %w", err)
	}
	defer rows.Close()

	items := make([]DeviceHistoryItem, 0)
	for rows.Next() {
		var item DeviceHistoryItem
		if err := rows.Scan(
			&item.ID, &item.DeviceID, &item.Action, &item.ActorID,
			&item.Description, &item.CreatedAt, &item.ActorFio,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи истории: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}
