package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prperemyshlev/spotlight-api/pkg/database"
	"github.com/stretchr/testify/require"
)

const (
	accountAID = "6f1c2a52-3f0e-4b71-9d55-0c8a3a4f1a01"
	accountBID = "9b2d7e10-5a4c-4e8f-8b61-2f4d6c7a8b02"
	roomID     = "2c8e4b7a-1d3f-4a6b-9c5e-7f0a1b2c3d03"
)

func newMock(t *testing.T) (*database.Postgres, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return &database.Postgres{DB: db}, mock
}
