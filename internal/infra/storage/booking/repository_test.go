package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/m04kA/stancastle-booking/internal/domain"
	"github.com/m04kA/stancastle-booking/pkg/txmanager"
	"github.com/m04kA/stancastle-booking/pkg/types"
)

type RepositorySuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	repo *Repository
	tx   *txmanager.Manager
	now  time.Time
}

func (s *RepositorySuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })

	s.mock = mock
	s.repo = NewRepository(db)
	s.tx = txmanager.NewTransactionManager(db)
	s.now = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RepositorySuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) newBooking() *domain.Booking {
	return &domain.Booking{
		ID:              uuid.New(),
		ServiceType:     domain.ServiceDiagnostic,
		BookingDate:     time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		StartTime:       types.MustTimeString("08:00"),
		DurationMinutes: 90,
		Status:          domain.StatusPending,
		Contact: domain.Contact{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Phone:     "07700900123",
		},
		PriceMinor: 15999,
		Currency:   "gbp",
		CreatedAt:  s.now,
		UpdatedAt:  s.now,
	}
}

func (s *RepositorySuite) TestCreate_Success() {
	b := s.newBooking()

	s.mock.ExpectExec("INSERT INTO bookings").
		WithArgs(
			b.ID.String(), nil, "diagnostic", "2026-03-02", "08:00", 90, "pending",
			"Ada", "Lovelace", "ada@example.com", "07700900123", nil, nil,
			int64(15999), "gbp", s.now, s.now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := s.repo.Create(context.Background(), b)
	s.Require().NoError(err)
	s.Equal(b.ID, created.ID)
}

func (s *RepositorySuite) TestCreate_ActiveSlotViolation() {
	s.mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&pq.Error{Code: "23505", Constraint: ActiveSlotIndex})

	_, err := s.repo.Create(context.Background(), s.newBooking())
	s.ErrorIs(err, ErrSlotTaken)
}

func (s *RepositorySuite) TestCreate_OtherError() {
	s.mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(errors.New("connection reset"))

	_, err := s.repo.Create(context.Background(), s.newBooking())
	s.ErrorIs(err, ErrExecQuery)
	s.NotErrorIs(err, ErrSlotTaken)
}

func (s *RepositorySuite) bookingRow(id uuid.UUID, status domain.BookingStatus) *sqlmock.Rows {
	return sqlmock.NewRows(bookingColumns).AddRow(
		id.String(), nil, "diagnostic", time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), "08:00:00", 90, string(status),
		"Ada", "Lovelace", "ada@example.com", "07700900123", "Analytical Engines Ltd", nil,
		int64(15999), "gbp", "cs_test_123", nil, nil,
		nil, nil, nil,
		nil, nil,
		s.now, s.now,
	)
}

func (s *RepositorySuite) TestGetByID_Found() {
	id := uuid.New()
	s.mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnRows(s.bookingRow(id, domain.StatusPending))

	b, err := s.repo.GetByID(context.Background(), id)
	s.Require().NoError(err)

	s.Equal(id, b.ID)
	s.Nil(b.CustomerRef)
	s.Equal(domain.StatusPending, b.Status)
	s.Equal(types.TimeString("08:00"), b.StartTime)
	s.Require().NotNil(b.Contact.Company)
	s.Equal("Analytical Engines Ltd", *b.Contact.Company)
	s.Nil(b.Contact.Website)
	s.Require().NotNil(b.PaymentSessionRef)
	s.Equal("cs_test_123", *b.PaymentSessionRef)
	s.Nil(b.MeetingRef)
}

func (s *RepositorySuite) TestGetByID_NotFound() {
	s.mock.ExpectQuery(`SELECT .* FROM bookings`).
		WillReturnRows(sqlmock.NewRows(bookingColumns))

	_, err := s.repo.GetByID(context.Background(), uuid.New())
	s.ErrorIs(err, ErrBookingNotFound)
}

func (s *RepositorySuite) TestGetByID_LocksRowInsideTransaction() {
	id := uuid.New()
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(s.bookingRow(id, domain.StatusPaid))
	s.mock.ExpectCommit()

	err := s.tx.Do(context.Background(), func(ctx context.Context) error {
		_, err := s.repo.GetByID(ctx, id)
		return err
	})
	s.NoError(err)
}

func (s *RepositorySuite) TestGetActiveSlots() {
	from := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 6)

	s.mock.ExpectQuery(`SELECT booking_date, start_time FROM bookings WHERE booking_date >= \$1 AND booking_date <= \$2 AND status IN \(\$3,\$4\)`).
		WithArgs("2026-03-02", "2026-03-08", "pending", "paid").
		WillReturnRows(sqlmock.NewRows([]string{"booking_date", "start_time"}).
			AddRow(from, "08:00:00").
			AddRow(from.AddDate(0, 0, 2), "10:00:00"))

	slots, err := s.repo.GetActiveSlots(context.Background(), from, to)
	s.Require().NoError(err)
	s.Equal([]domain.SlotKey{
		{Date: "2026-03-02", Time: "08:00"},
		{Date: "2026-03-04", Time: "10:00"},
	}, slots)
}

func (s *RepositorySuite) TestMarkPaid_FirstTransition() {
	id := uuid.New()
	s.mock.ExpectExec(`UPDATE bookings SET status = \$1, payment_session_ref = \$2, amount_paid = \$3, paid_at = \$4, updated_at = \$5 WHERE \(?id = \$6 AND status = \$7\)?`).
		WithArgs("paid", "cs_test_123", int64(15999), s.now, s.now, id.String(), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	transitioned, err := s.repo.MarkPaid(context.Background(), id, "cs_test_123", 15999, s.now)
	s.Require().NoError(err)
	s.True(transitioned)
}

func (s *RepositorySuite) TestMarkPaid_AlreadyPaid() {
	s.mock.ExpectExec(`UPDATE bookings SET status`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	transitioned, err := s.repo.MarkPaid(context.Background(), uuid.New(), "cs_test_123", 15999, s.now)
	s.Require().NoError(err)
	s.False(transitioned)
}

func (s *RepositorySuite) TestAttachMeeting_OnlyOnce() {
	id := uuid.New()
	s.mock.ExpectExec(`UPDATE bookings SET meeting_ref = \$1, meeting_join_url = \$2, updated_at = \$3 WHERE \(?id = \$4 AND meeting_ref IS NULL AND status = \$5\)?`).
		WithArgs("84512345678", "https://zoom.us/j/84512345678", s.now, id.String(), "paid").
		WillReturnResult(sqlmock.NewResult(0, 0))

	attached, err := s.repo.AttachMeeting(context.Background(), id, "84512345678", "https://zoom.us/j/84512345678", s.now)
	s.Require().NoError(err)
	s.False(attached)
}

func (s *RepositorySuite) TestCancel_StatusConflict() {
	id := uuid.New()
	s.mock.ExpectExec(`UPDATE bookings SET status = \$1, cancellation_reason = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1`).
		WillReturnRows(s.bookingRow(id, domain.StatusCancelled))

	err := s.repo.Cancel(context.Background(), id, domain.CancellationReasonCustomer, s.now)
	s.ErrorIs(err, ErrStatusConflict)
}

func (s *RepositorySuite) TestCancel_NotFound() {
	s.mock.ExpectExec(`UPDATE bookings SET status`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`SELECT .* FROM bookings`).
		WillReturnRows(sqlmock.NewRows(bookingColumns))

	err := s.repo.Cancel(context.Background(), uuid.New(), domain.CancellationReasonCustomer, s.now)
	s.ErrorIs(err, ErrBookingNotFound)
}

func (s *RepositorySuite) TestSetPaymentSession_Success() {
	s.mock.ExpectExec(`UPDATE bookings SET payment_session_ref = \$1, updated_at = \$2 WHERE \(?id = \$3 AND status = \$4\)?`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.repo.SetPaymentSession(context.Background(), uuid.New(), "cs_test_123", s.now)
	s.NoError(err)
}

func (s *RepositorySuite) TestExpirePending() {
	cutoff := s.now.Add(-time.Hour)
	id := uuid.New()
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	s.mock.ExpectQuery(`UPDATE bookings SET status = \$1, cancellation_reason = \$2, cancelled_at = \$3, updated_at = \$4 WHERE status = \$5 AND created_at < \$6 RETURNING id, booking_date, start_time`).
		WithArgs("cancelled", domain.CancellationReasonPaymentTimeout, s.now, s.now, "pending", cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_date", "start_time"}).AddRow(id.String(), date, "08:00:00"))

	expired, err := s.repo.ExpirePending(context.Background(), cutoff, s.now)
	s.Require().NoError(err)
	s.Require().Len(expired, 1)
	s.Equal(id, expired[0].ID)
	s.Equal(types.TimeString("08:00"), expired[0].StartTime)
}

func (s *RepositorySuite) TestListUnnotifiedPaid() {
	from := s.now.Add(-24 * time.Hour)
	to := s.now.Add(-10 * time.Minute)
	first, second := uuid.New(), uuid.New()

	s.mock.ExpectQuery(`SELECT id FROM bookings WHERE status = \$1 AND notified_at IS NULL AND paid_at >= \$2 AND paid_at < \$3 ORDER BY paid_at ASC LIMIT 50`).
		WithArgs("paid", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(first.String()).AddRow(second.String()))

	ids, err := s.repo.ListUnnotifiedPaid(context.Background(), from, to, 50)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{first, second}, ids)
}

func (s *RepositorySuite) TestListUnnotifiedPaid_QueryError() {
	s.mock.ExpectQuery(`SELECT id FROM bookings`).WillReturnError(errors.New("connection reset"))

	_, err := s.repo.ListUnnotifiedPaid(context.Background(), s.now.Add(-time.Hour), s.now, 10)
	s.Require().ErrorIs(err, ErrExecQuery)
}

func TestIsActiveSlotViolation(t *testing.T) {
	assert.True(t, isActiveSlotViolation(&pq.Error{Code: "23505", Constraint: ActiveSlotIndex}))
	assert.False(t, isActiveSlotViolation(&pq.Error{Code: "23505", Constraint: "bookings_pkey"}))
	assert.False(t, isActiveSlotViolation(&pq.Error{Code: "40001"}))
	assert.False(t, isActiveSlotViolation(errors.New("boom")))
}

func TestCancellableStatuses(t *testing.T) {
	require.ElementsMatch(t, []domain.BookingStatus{domain.StatusPending, domain.StatusPaid}, cancellableStatuses())
}
