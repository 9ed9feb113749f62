package seeders

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"asset-system/pkg/constants"
)

// Run наполняет пустую базу стартовыми данными: администратором
// и базовыми справочниками. Повторный запуск ничего не дублирует.
func Run(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if err := seedAdmin(ctx, pool, logger); err != nil {
		return err
	}
	if err := seedDictionaries(ctx, pool); err != nil {
		return err
	}
	return nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE role = $1 AND deleted_at IS NULL)`,
		constants.RoleAdmin,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("ошибка проверки наличия администратора: %w", err)
	}
	if exists {
		return nil
	}

	password := os.Getenv("ADMIN_INITIAL_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ошибка хеширования пароля администратора: %w", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (fio, login, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (login) DO NOTHING`,
		"Администратор системы", "admin", string(hash), constants.RoleAdmin,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания администратора: %w", err)
	}

	logger.Info("Создан пользователь-администратор по умолчанию", zap.String("login", "admin"))
	return nil
}

func seedDictionaries(ctx context.Context, pool *pgxpool.Pool) error {
	deviceTypes := []string{"Ноутбук", "Монитор", "Принтер", "Телефон"}
	for _, name := range deviceTypes {
		if _, err := pool.Exec(ctx,
			`INSERT INTO device_types (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name,
		); err != nil {
			return fmt.Errorf("ошибка наполнения справочника типов устройств: %w", err)
		}
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO departments (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, "Администрация",
	); err != nil {
		return fmt.Errorf("ошибка наполнения справочника отделов: %w", err)
	}
	return nil
}
