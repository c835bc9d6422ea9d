package paymentevent

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	bookingID := uuid.New()

	mock.ExpectExec(`INSERT INTO payment_events \(event_id,event_type,booking_id,processed_at\) VALUES \(\$1,\$2,\$3,\$4\) ON CONFLICT \(event_id\) DO NOTHING`).
		WithArgs("evt_1", "checkout.session.completed", bookingID.String(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO payment_events`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.Record(context.Background(), "evt_1", "checkout.session.completed", &bookingID, now)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := repo.Record(context.Background(), "evt_1", "checkout.session.completed", &bookingID, now)
	require.NoError(t, err)
	assert.False(t, again)

	assert.NoError(t, mock.ExpectationsWereMet())
}
