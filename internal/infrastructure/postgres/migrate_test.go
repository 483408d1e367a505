package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	n   int
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int)) = r.n
	return nil
}

type fakeMigTx struct {
	pgx.Tx
	sqls      []string
	args      [][]any
	commits   int
	rollbacks int
	execErr   error
}

func (t *fakeMigTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if t.execErr != nil {
		return pgconn.CommandTag{}, t.execErr
	}
	t.sqls = append(t.sqls, sql)
	t.args = append(t.args, args)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (t *fakeMigTx) Commit(_ context.Context) error {
	t.commits++
	return nil
}

func (t *fakeMigTx) Rollback(_ context.Context) error {
	t.rollbacks++
	return nil
}

type fakeMigDB struct {
	applied   map[string]bool
	execSQL   []string
	txs       []*fakeMigTx
	txExecErr error
}

func (d *fakeMigDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	d.execSQL = append(d.execSQL, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (d *fakeMigDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	name := args[0].(string)
	n := 0
	if d.applied[name] {
		n = 1
	}
	return fakeRow{n: n}
}

func (d *fakeMigDB) Begin(_ context.Context) (pgx.Tx, error) {
	tx := &fakeMigTx{execErr: d.txExecErr}
	d.txs = append(d.txs, tx)
	return tx, nil
}

func writeMigrations(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, sql := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644))
	}
	return dir
}

func TestRunMigrations(t *testing.T) {
	ctx := context.Background()

	t.Run("applies files in lexical order, each in its own transaction", func(t *testing.T) {
		dir := writeMigrations(t, map[string]string{
			"002_second.sql": "CREATE TABLE second ()",
			"001_first.sql":  "CREATE TABLE first ()",
			"notes.txt":      "ignored",
		})
		db := &fakeMigDB{}

		require.NoError(t, RunMigrations(ctx, db, dir))

		require.Len(t, db.txs, 2)
		assert.Equal(t, "CREATE TABLE first ()", db.txs[0].sqls[0])
		assert.Equal(t, "CREATE TABLE second ()", db.txs[1].sqls[0])
		for i, tx := range db.txs {
			require.Len(t, tx.sqls, 2)
			assert.Contains(t, tx.sqls[1], "INSERT INTO schema_migrations")
			assert.Equal(t, 1, tx.commits, "tx %d", i)
			assert.Zero(t, tx.rollbacks, "tx %d", i)
		}
		assert.Equal(t, []any{"001_first.sql"}, db.txs[0].args[1])
		assert.Equal(t, []any{"002_second.sql"}, db.txs[1].args[1])
	})

	t.Run("skips already-applied files", func(t *testing.T) {
		dir := writeMigrations(t, map[string]string{
			"001_first.sql":  "CREATE TABLE first ()",
			"002_second.sql": "CREATE TABLE second ()",
		})
		db := &fakeMigDB{applied: map[string]bool{"001_first.sql": true}}

		require.NoError(t, RunMigrations(ctx, db, dir))

		require.Len(t, db.txs, 1)
		assert.Equal(t, "CREATE TABLE second ()", db.txs[0].sqls[0])
	})

	t.Run("rerun after everything applied is a no-op", func(t *testing.T) {
		dir := writeMigrations(t, map[string]string{
			"001_first.sql": "CREATE TABLE first ()",
		})
		db := &fakeMigDB{applied: map[string]bool{"001_first.sql": true}}

		require.NoError(t, RunMigrations(ctx, db, dir))
		assert.Empty(t, db.txs)
	})

	t.Run("failing migration rolls back and stops", func(t *testing.T) {
		dir := writeMigrations(t, map[string]string{
			"001_first.sql":  "CREATE TABLE broken (",
			"002_second.sql": "CREATE TABLE second ()",
		})
		db := &fakeMigDB{txExecErr: errors.New("syntax error")}

		err := RunMigrations(ctx, db, dir)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "001_first.sql")
		require.Len(t, db.txs, 1)
		assert.Equal(t, 1, db.txs[0].rollbacks)
		assert.Zero(t, db.txs[0].commits)
	})

	t.Run("empty files are skipped without a transaction", func(t *testing.T) {
		dir := writeMigrations(t, map[string]string{
			"001_empty.sql": "   \n",
		})
		db := &fakeMigDB{}

		require.NoError(t, RunMigrations(ctx, db, dir))
		assert.Empty(t, db.txs)
	})

	t.Run("ensures the tracking table first", func(t *testing.T) {
		db := &fakeMigDB{}
		require.NoError(t, RunMigrations(ctx, db, t.TempDir()))
		require.Len(t, db.execSQL, 1)
		assert.Contains(t, db.execSQL[0], "schema_migrations")
	})
}
