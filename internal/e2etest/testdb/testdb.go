// Package testdb spins up a disposable PostgreSQL container for tests.
package testdb

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type TestDBInstance struct {
	DSN       string
	container *tcpostgres.PostgresContainer
}

func NewTestDBInstance() (*TestDBInstance, error) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("canteen"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("container connection string: %w", err)
	}

	return &TestDBInstance{DSN: dsn, container: container}, nil
}

func (t *TestDBInstance) Down() {
	if t.container != nil {
		_ = t.container.Terminate(context.Background())
	}
}
