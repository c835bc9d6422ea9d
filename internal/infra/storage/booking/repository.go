package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/m04kA/stancastle-booking/internal/domain"
	"github.com/m04kA/stancastle-booking/pkg/psqlbuilder"
	"github.com/m04kA/stancastle-booking/pkg/ptr"
	"github.com/m04kA/stancastle-booking/pkg/txmanager"
	"github.com/m04kA/stancastle-booking/pkg/types"
)

const (
	// ActiveSlotIndex частичный уникальный индекс (booking_date, start_time) WHERE status IN ('pending','paid')
	ActiveSlotIndex = "bookings_active_slot_uniq"

	pqUniqueViolation = "23505"
)

var bookingColumns = []string{
	"id",
	"customer_ref",
	"service_type",
	"booking_date",
	"start_time",
	"duration_minutes",
	"status",
	"first_name",
	"last_name",
	"email",
	"phone",
	"company",
	"website",
	"price_minor",
	"currency",
	"payment_session_ref",
	"amount_paid",
	"paid_at",
	"meeting_ref",
	"meeting_join_url",
	"notified_at",
	"cancellation_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// ExpiredBooking бронирование, отменённое по таймауту оплаты
type ExpiredBooking struct {
	ID          uuid.UUID
	BookingDate time.Time
	StartTime   types.TimeString
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create вставляет pending бронирование одной командой INSERT.
// Проверка "слот свободен" и запись атомарны за счёт частичного уникального индекса:
// из нескольких конкурентных INSERT на один (date, time) проходит ровно один,
// остальные получают ErrSlotTaken
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"id",
			"customer_ref",
			"service_type",
			"booking_date",
			"start_time",
			"duration_minutes",
			"status",
			"first_name",
			"last_name",
			"email",
			"phone",
			"company",
			"website",
			"price_minor",
			"currency",
			"created_at",
			"updated_at",
		).
		Values(
			booking.ID,
			booking.CustomerRef,
			booking.ServiceType,
			booking.BookingDate.Format(domain.DateFormat),
			booking.StartTime,
			booking.DurationMinutes,
			booking.Status,
			booking.Contact.FirstName,
			booking.Contact.LastName,
			booking.Contact.Email,
			booking.Contact.Phone,
			booking.Contact.Company,
			booking.Contact.Website,
			booking.PriceMinor,
			booking.Currency,
			booking.CreatedAt,
			booking.UpdatedAt,
		).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		if isActiveSlotViolation(err) {
			return nil, fmt.Errorf("%w: %s %s", ErrSlotTaken, booking.BookingDate.Format(domain.DateFormat), booking.StartTime)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return booking, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	// Внутри транзакции блокируем строку, чтобы статус не поменялся до коммита
	if txmanager.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// GetActiveSlots возвращает занятые (pending/paid) слоты в диапазоне дат включительно
func (r *Repository) GetActiveSlots(ctx context.Context, from, to time.Time) ([]domain.SlotKey, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("booking_date", "start_time").
		From("bookings").
		Where(squirrel.GtOrEq{"booking_date": from.Format(domain.DateFormat)}).
		Where(squirrel.LtOrEq{"booking_date": to.Format(domain.DateFormat)}).
		Where(squirrel.Eq{"status": statusStrings(domain.BlockingStatuses)}).
		OrderBy("booking_date ASC, start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveSlots - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveSlots - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]domain.SlotKey, 0)
	for rows.Next() {
		var date time.Time
		var start types.TimeString
		if err := rows.Scan(&date, &start); err != nil {
			return nil, fmt.Errorf("%w: GetActiveSlots - scan slot: %v", ErrScanRow, err)
		}
		slots = append(slots, domain.NewSlotKey(date, start))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetActiveSlots - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}

// SetPaymentSession сохраняет ссылку на checkout-сессию, только пока бронирование pending
func (r *Repository) SetPaymentSession(ctx context.Context, id uuid.UUID, sessionRef string, now time.Time) error {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("payment_session_ref", sessionRef).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": domain.StatusPending}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetPaymentSession - build update query: %v", ErrBuildQuery, err)
	}

	return r.execConditional(ctx, executor, "SetPaymentSession", id, query, args)
}

// MarkPaid переводит pending -> paid. Возвращает true, если переход выполнен этим вызовом.
// Повторная доставка того же события получит false: строка уже не pending
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, sessionRef string, amountPaid int64, now time.Time) (bool, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusPaid).
		Set("payment_session_ref", sessionRef).
		Set("amount_paid", amountPaid).
		Set("paid_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": domain.StatusPending}).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: MarkPaid - build update query: %v", ErrBuildQuery, err)
	}

	return r.execAffected(ctx, executor, "MarkPaid", query, args)
}

// AttachMeeting записывает встречу один раз и только для paid бронирования
func (r *Repository) AttachMeeting(ctx context.Context, id uuid.UUID, meetingRef, joinURL string, now time.Time) (bool, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("meeting_ref", meetingRef).
		Set("meeting_join_url", joinURL).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": domain.StatusPaid, "meeting_ref": nil}).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: AttachMeeting - build update query: %v", ErrBuildQuery, err)
	}

	return r.execAffected(ctx, executor, "AttachMeeting", query, args)
}

// MarkNotified ставит отметку об отправленных уведомлениях
func (r *Repository) MarkNotified(ctx context.Context, id uuid.UUID, now time.Time) error {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("notified_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "notified_at": nil}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkNotified - build update query: %v", ErrBuildQuery, err)
	}

	_, err = r.execAffected(ctx, executor, "MarkNotified", query, args)
	return err
}

// Cancel отменяет бронирование, если текущий статус допускает отмену (pending или paid)
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID, reason string, now time.Time) error {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": statusStrings(cancellableStatuses())}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	return r.execConditional(ctx, executor, "Cancel", id, query, args)
}

// ExpirePending отменяет pending бронирования, созданные раньше cutoff
func (r *Repository) ExpirePending(ctx context.Context, cutoff, now time.Time) ([]ExpiredBooking, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCancelled).
		Set("cancellation_reason", domain.CancellationReasonPaymentTimeout).
		Set("cancelled_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"status": domain.StatusPending}).
		Where(squirrel.Lt{"created_at": cutoff}).
		Suffix("RETURNING id, booking_date, start_time").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ExpirePending - build update query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ExpirePending - execute update: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	expired := make([]ExpiredBooking, 0)
	for rows.Next() {
		var e ExpiredBooking
		if err := rows.Scan(&e.ID, &e.BookingDate, &e.StartTime); err != nil {
			return nil, fmt.Errorf("%w: ExpirePending - scan row: %v", ErrScanRow, err)
		}
		expired = append(expired, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ExpirePending - rows error: %v", ErrScanRow, err)
	}

	return expired, nil
}

// ListUnnotifiedPaid возвращает paid бронирования без отметки notified_at,
// оплаченные в полуинтервале [paidFrom, paidTo), старые первыми
func (r *Repository) ListUnnotifiedPaid(ctx context.Context, paidFrom, paidTo time.Time, limit uint64) ([]uuid.UUID, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id").
		From("bookings").
		Where(squirrel.Eq{"status": domain.StatusPaid}).
		Where(squirrel.Eq{"notified_at": nil}).
		Where(squirrel.GtOrEq{"paid_at": paidFrom}).
		Where(squirrel.Lt{"paid_at": paidTo}).
		OrderBy("paid_at ASC").
		Limit(limit).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListUnnotifiedPaid - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListUnnotifiedPaid - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: ListUnnotifiedPaid - scan row: %v", ErrScanRow, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListUnnotifiedPaid - rows error: %v", ErrScanRow, err)
	}

	return ids, nil
}

// execAffected выполняет UPDATE и возвращает, была ли затронута строка
func (r *Repository) execAffected(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) (bool, error) {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	return rowsAffected > 0, nil
}

// execConditional как execAffected, но 0 строк превращает в ошибку:
// ErrBookingNotFound, если строки нет совсем, иначе ErrStatusConflict
func (r *Repository) execConditional(ctx context.Context, executor DBExecutor, op string, id uuid.UUID, query string, args []interface{}) error {
	updated, err := r.execAffected(ctx, executor, op, query, args)
	if err != nil || updated {
		return err
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrStatusConflict, op)
}

func cancellableStatuses() []domain.BookingStatus {
	out := make([]domain.BookingStatus, 0, 2)
	for _, s := range []domain.BookingStatus{domain.StatusPending, domain.StatusPaid, domain.StatusCompleted, domain.StatusCancelled} {
		if s.CanTransitionTo(domain.StatusCancelled) {
			out = append(out, s)
		}
	}
	return out
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func isActiveSlotViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pqUniqueViolation && (pqErr.Constraint == ActiveSlotIndex || pqErr.Constraint == "")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var customerRef uuid.NullUUID

	err := row.Scan(
		&b.ID,
		&customerRef,
		&b.ServiceType,
		&b.BookingDate,
		&b.StartTime,
		&b.DurationMinutes,
		&b.Status,
		&b.Contact.FirstName,
		&b.Contact.LastName,
		&b.Contact.Email,
		&b.Contact.Phone,
		&b.Contact.Company,
		&b.Contact.Website,
		&b.PriceMinor,
		&b.Currency,
		&b.PaymentSessionRef,
		&b.AmountPaid,
		&b.PaidAt,
		&b.MeetingRef,
		&b.MeetingJoinURL,
		&b.NotifiedAt,
		&b.CancellationReason,
		&b.CancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if customerRef.Valid {
		b.CustomerRef = ptr.Ptr(customerRef.UUID)
	}

	return &b, nil
}
