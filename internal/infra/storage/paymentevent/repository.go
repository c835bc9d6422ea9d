package paymentevent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/pkg/psqlbuilder"
	"github.com/m04kA/stancastle-booking/pkg/txmanager"
)

// Repository журнал обработанных событий платёжного шлюза
type Repository struct {
	db txmanager.DBExecutor
}

func NewRepository(db txmanager.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Record записывает событие. false означает, что событие с таким id уже обработано
func (r *Repository) Record(ctx context.Context, eventID, eventType string, bookingID *uuid.UUID, now time.Time) (bool, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("payment_events").
		Columns("event_id", "event_type", "booking_id", "processed_at").
		Values(eventID, eventType, bookingID, now).
		Suffix("ON CONFLICT (event_id) DO NOTHING").
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: Record - build insert query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: Record - execute insert: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: Record - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}
