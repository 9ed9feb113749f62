package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation — нарушение уникального индекса (код 23505).
// Частичные уникальные индексы страхуют инварианты "не более одной активной
// записи" под конкурентной нагрузкой; нарушение трактуется как конфликт состояния.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
