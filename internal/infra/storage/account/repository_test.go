package account

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewRepository(db), mock
}

func TestExistsByEmail_NormalisesInput(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`SELECT EXISTS \( SELECT 1 FROM accounts WHERE LOWER\(email\) = \$1 \)`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), "  Ada@Example.com ")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMarkPartner_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`UPDATE accounts SET is_partner = \$1, updated_at = \$2, gateway_customer_id = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkPartner(context.Background(), uuid.New(), "cus_123", time.Now())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestClearPartnerByCustomer(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE accounts SET is_partner = \$1, updated_at = \$2 WHERE gateway_customer_id = \$3`).
		WithArgs(false, now, "cus_123").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.ClearPartnerByCustomer(context.Background(), "cus_123", now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
