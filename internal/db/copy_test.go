package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.Background(), nil, "batch_results", []string{"batch_id", "investor_name"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"batch_results"}, []string{"batch_id", "investor_name"}).WillReturnResult(3)

	rows := [][]any{{"b1", "Jane Doe"}, {"b1", "John Smith"}, {"b1", "Acme Capital"}}
	n, err := CopyFrom(context.Background(), mock, "batch_results", []string{"batch_id", "investor_name"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"batch_results"}, []string{"batch_id"}).WillReturnError(fmt.Errorf("copy failed"))

	_, err = CopyFrom(context.Background(), mock, "batch_results", []string{"batch_id"}, [][]any{{"b1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO batch_results")
	assert.NoError(t, mock.ExpectationsWereMet())
}
