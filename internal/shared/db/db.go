package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute

	pingAttempts = 10
	pingBackoff  = time.Second
)

// ConnectPostgres abre o pool e espera o banco responder.
// No compose o Postgres pode subir depois do serviço, por isso o ping é repetido.
func ConnectPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	pg, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pg.SetMaxOpenConns(maxOpenConns)
	pg.SetMaxIdleConns(maxIdleConns)
	pg.SetConnMaxLifetime(connMaxLifetime)

	for attempt := 1; ; attempt++ {
		err = pg.PingContext(ctx)
		if err == nil {
			return pg, nil
		}
		if attempt == pingAttempts {
			break
		}
		select {
		case <-ctx.Done():
			_ = pg.Close()
			return nil, fmt.Errorf("ping postgres: %w", ctx.Err())
		case <-time.After(pingBackoff):
		}
	}
	_ = pg.Close()
	return nil, fmt.Errorf("ping postgres after %d attempts: %w", pingAttempts, err)
}

// CreateSchema cria as tabelas se não existirem; pode rodar a cada boot
func CreateSchema(ctx context.Context, pg *sql.DB) error {
	if _, err := pg.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
