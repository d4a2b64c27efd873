package postgresstate_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/kitties-ledger-go/state"
	"github.com/AntonStoeckl/kitties-ledger-go/state/postgresstate"
	"github.com/AntonStoeckl/kitties-ledger-go/testutil"
)

func Test_NewBackend_When_ConnectionIsNil(t *testing.T) {
	_, err := postgresstate.NewBackendFromPGXPool(nil)
	assert.ErrorIs(t, err, postgresstate.ErrNilDatabaseConnection)

	_, err = postgresstate.NewBackendFromSQLDB(nil)
	assert.ErrorIs(t, err, postgresstate.ErrNilDatabaseConnection)

	_, err = postgresstate.NewBackendFromSQLX(nil)
	assert.ErrorIs(t, err, postgresstate.ErrNilDatabaseConnection)
}

func Test_WithTableName_When_NameIsEmpty(t *testing.T) {
	db := &sql.DB{}

	_, err := postgresstate.NewBackendFromSQLDB(db, postgresstate.WithTableName(""))

	assert.ErrorIs(t, err, postgresstate.ErrEmptyTableName)
}

func Test_Backend_AllAdapters(t *testing.T) {
	dsn := testutil.PostgresDSN(t)

	factories := map[string]func(t *testing.T, table string) *postgresstate.Backend{
		"pgx.Pool": func(t *testing.T, table string) *postgresstate.Backend {
			pool, err := pgxpool.New(context.Background(), dsn)
			require.NoError(t, err)
			t.Cleanup(pool.Close)

			backend, err := postgresstate.NewBackendFromPGXPool(pool, postgresstate.WithTableName(table))
			require.NoError(t, err)

			return backend
		},
		"sql.DB": func(t *testing.T, table string) *postgresstate.Backend {
			db, err := sql.Open("postgres", dsn)
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })

			backend, err := postgresstate.NewBackendFromSQLDB(db, postgresstate.WithTableName(table))
			require.NoError(t, err)

			return backend
		},
		"sqlx.DB": func(t *testing.T, table string) *postgresstate.Backend {
			db, err := sqlx.Open("postgres", dsn)
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })

			backend, err := postgresstate.NewBackendFromSQLX(db, postgresstate.WithTableName(table))
			require.NoError(t, err)

			return backend
		},
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			table := fmt.Sprintf("ledger_state_test_%d", time.Now().UnixNano())
			backend := factory(t, table)
			require.NoError(t, backend.EnsureSchema(ctx))
			testutil.CleanupPostgresTables(t, dsn, table, table+"_version")

			t.Run("fresh database is at version zero", func(t *testing.T) {
				version, err := backend.Version(ctx)

				assert.NoError(t, err)
				assert.Equal(t, state.Version(0), version)
			})

			t.Run("apply writes values and bumps the version", func(t *testing.T) {
				// arrange
				changes := state.Changes{
					{Key: []byte("a"), Value: []byte{1}},
					{Key: []byte("b"), Value: []byte{2, 3}},
				}

				// act
				err := backend.Apply(ctx, 0, changes)

				// assert
				require.NoError(t, err)
				version, err := backend.Version(ctx)
				require.NoError(t, err)
				assert.Equal(t, state.Version(1), version)

				value, found, err := backend.Get(ctx, []byte("b"))
				require.NoError(t, err)
				assert.True(t, found)
				assert.Equal(t, []byte{2, 3}, value)
			})

			t.Run("apply overwrites existing values", func(t *testing.T) {
				err := backend.Apply(ctx, 1, state.Changes{{Key: []byte("a"), Value: []byte{9}}})

				require.NoError(t, err)
				value, found, err := backend.Get(ctx, []byte("a"))
				require.NoError(t, err)
				assert.True(t, found)
				assert.Equal(t, []byte{9}, value)
			})

			t.Run("apply with a stale version conflicts and writes nothing", func(t *testing.T) {
				err := backend.Apply(ctx, 0, state.Changes{{Key: []byte("c"), Value: []byte{7}}})

				assert.ErrorIs(t, err, state.ErrConcurrencyConflict)
				_, found, getErr := backend.Get(ctx, []byte("c"))
				require.NoError(t, getErr)
				assert.False(t, found)
			})

			t.Run("get on unknown key", func(t *testing.T) {
				value, found, err := backend.Get(ctx, []byte("unknown"))

				assert.NoError(t, err)
				assert.False(t, found)
				assert.Nil(t, value)
			})

			t.Run("overlay commit goes through the backend", func(t *testing.T) {
				overlay, err := state.Open(ctx, backend)
				require.NoError(t, err)
				require.NoError(t, overlay.Put([]byte("d"), []byte{4}))

				require.NoError(t, overlay.Commit(ctx))

				value, found, err := backend.Get(ctx, []byte("d"))
				require.NoError(t, err)
				assert.True(t, found)
				assert.Equal(t, []byte{4}, value)
			})
		})
	}
}
