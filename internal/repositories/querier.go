package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier — общий знаменатель pgxpool.Pool и pgx.Tx.
// Методы репозиториев с суффиксом Tx принимают его, чтобы работать
// и в транзакции, и вне её.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Querier — экспортированный псевдоним для сервисов, которым нужно
// передавать pgx.Tx в транзакционные методы репозиториев.
type Querier = querier
