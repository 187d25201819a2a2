// Package storage реализует хранилище данных на основе PostgreSQL
// для учётных записей, платежей, подписок и профилей студий.
// Все операции-захваты (имя пользователя, платёж, подписка) выражены
// условными одно-строчными запросами, чтобы конкурентные запросы
// разрешались в ровно одного победителя.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNotFound возвращается, когда запрошенная строка отсутствует.
var ErrNotFound = errors.New("not found")

// ErrUniqueViolation возвращается при нарушении ограничения уникальности.
// Вызывающая сторона решает, какой доменной ошибке это соответствует.
var ErrUniqueViolation = errors.New("unique violation")

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// mapError переводит ошибки драйвера в ошибки хранилища.
func mapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", op, ErrUniqueViolation)
	}
	return fmt.Errorf("%s: %w", op, err)
}
