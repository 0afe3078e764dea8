// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "Failed to initialize database")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewAppliesMigrations(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	for _, table := range []string{"channels", "recordings", "settings", "migrations"} {
		var name string
		err := db.Conn().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestNewIsIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM migrations`).Scan(&count))
	assert.Equal(t, 1, count)
	assert.Equal(t, path, db.Path())
}

func TestChannelNumberIsUnique(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()

	insert := `INSERT INTO channels (source, network_id, transport_stream_id, service_id, name, number) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, insert, "S19.2E", 1, 1, 1, "One", 1)
	require.NoError(t, err)

	// identity may repeat, number may not
	_, err = db.ExecContext(ctx, insert, "S19.2E", 1, 1, 1, "Copy", 2)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "S19.2E", 1, 1, 2, "Two", 1)
	require.Error(t, err)

	_, err = db.ExecContext(ctx, insert, "S19.2E", 1, 1, 3, "Zero", 0)
	require.Error(t, err, "numbers below 1 violate the check constraint")
}

func TestBeginTxReleasesWriterOnRollback(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES ('a', '1')`)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	// second release is a no-op
	_ = tx.Rollback()

	done := make(chan error, 1)
	go func() {
		_, err := db.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES ('b', '2')`)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("writer lock was not released by rollback")
	}

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestIsWriteQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT 1", false},
		{"  insert into x values (1)", true},
		{"\n\tUPDATE channels SET name = ?", true},
		{"DELETE FROM channels", true},
		{"REPLACE INTO settings VALUES (?, ?)", true},
		{"PRAGMA optimize", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isWriteQuery(tt.query), tt.query)
	}
}

func TestPingContext(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	require.NoError(t, db.PingContext(context.Background()))

	require.NoError(t, db.Close())
	assert.Error(t, db.PingContext(context.Background()))
}
