package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/internal/domain"
	"github.com/m04kA/stancastle-booking/internal/integrations/googlecalendar"
	"github.com/m04kA/stancastle-booking/internal/integrations/mailer"
	"github.com/m04kA/stancastle-booking/internal/integrations/zoom"
)

const defaultTimeout = 2 * time.Minute

// Service выполняет побочные эффекты после первого перехода pending -> paid.
// Шаги независимы: сбой одного не отменяет остальные и никогда не откатывает оплату
type Service struct {
	repo     BookingRepository
	meetings MeetingCreator
	calendar CalendarWriter
	notifier Notifier
	catalog  domain.Catalog
	metrics  Metrics
	loc      *time.Location
	timeout  time.Duration

	timeProvider TimeProvider
	logger       Logger

	wg sync.WaitGroup
}

// NewService создает диспетчер
func NewService(repo BookingRepository, catalog domain.Catalog, metrics Metrics, loc *time.Location, opts Options, logger Logger) *Service {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		repo:         repo,
		meetings:     opts.Meetings,
		calendar:     opts.Calendar,
		notifier:     opts.Notifier,
		catalog:      catalog,
		metrics:      metrics,
		loc:          loc,
		timeout:      timeout,
		timeProvider: realTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет часы (тесты)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// DispatchAsync запускает шаги в фоне. Контекст запроса не отменяет работу:
// ответ шлюзу уже отправлен, когда шаги ещё идут
func (s *Service) DispatchAsync(ctx context.Context, bookingID uuid.UUID) {
	detached := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Dispatch: booking id=%s panic: %v", bookingID, r)
			}
		}()

		if _, err := s.Dispatch(detached, bookingID); err != nil {
			s.logger.Error("Dispatch: booking id=%s: %v", bookingID, err)
		}
	}()
}

// Wait ждёт завершения фоновых прогонов или отмены ctx
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher: pending side effects not finished: %w", ctx.Err())
	}
}

// Dispatch синхронный прогон всех шагов
func (s *Service) Dispatch(ctx context.Context, bookingID uuid.UUID) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// 1. Актуальное состояние бронирования
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadBooking, err)
	}
	if !booking.IsPaid() {
		return nil, fmt.Errorf("%w: id=%s status=%s", ErrNotPaid, bookingID, booking.Status)
	}

	report := &Report{}
	offering := s.offering(booking)

	startsAt, err := booking.StartsAt(s.loc)
	if err != nil {
		// Без времени начала ни встречу, ни календарь не создать, письма уйдут с "Date to be confirmed"
		s.logger.Error("Dispatch: booking id=%s has invalid start %q: %v", bookingID, booking.StartTime, err)
	}

	// 2. Встреча
	joinURL := ""
	if booking.MeetingJoinURL != nil {
		joinURL = *booking.MeetingJoinURL
	}
	switch {
	case booking.HasMeeting():
		s.logger.Info("Dispatch: booking id=%s step=%s already attached", bookingID, StepMeeting)
	case s.meetings == nil:
		s.logger.Info("Dispatch: booking id=%s step=%s skipped, provider not configured", bookingID, StepMeeting)
	case startsAt.IsZero():
		s.fail(report, bookingID, StepMeeting, fmt.Errorf("no start time"))
	default:
		joinURL = s.createMeeting(ctx, report, booking, offering, startsAt)
	}

	// 3. Календарь
	switch {
	case s.calendar == nil:
		s.logger.Info("Dispatch: booking id=%s step=%s skipped, provider not configured", bookingID, StepCalendar)
	case startsAt.IsZero():
		s.fail(report, bookingID, StepCalendar, fmt.Errorf("no start time"))
	default:
		s.mirrorToCalendar(ctx, report, booking, offering, startsAt, joinURL)
	}

	// 4, 5. Письма
	if s.notifier == nil {
		s.logger.Info("Dispatch: booking id=%s email steps skipped, provider not configured", bookingID)
		return report, nil
	}
	if booking.NotifiedAt != nil {
		s.logger.Info("Dispatch: booking id=%s already notified", bookingID)
		return report, nil
	}

	details := mailer.SessionDetails{
		To:              booking.Contact.Email,
		FirstName:       booking.Contact.DisplayName(),
		ServiceName:     offering.Name,
		StartsAt:        startsAt,
		DurationMinutes: booking.DurationMinutes,
		JoinURL:         joinURL,
	}

	if err := s.notifier.SendOrderConfirmation(ctx, details); err != nil {
		s.fail(report, bookingID, StepConfirmationEmail, err)
	} else {
		report.ConfirmationOut = true
		s.logger.Info("Dispatch: booking id=%s step=%s sent", bookingID, StepConfirmationEmail)
	}

	if err := s.notifier.SendMeetingDetails(ctx, details); err != nil {
		s.fail(report, bookingID, StepMeetingEmail, err)
	} else {
		report.MeetingEmailOut = true
		s.logger.Info("Dispatch: booking id=%s step=%s sent", bookingID, StepMeetingEmail)
	}

	// 6. Отметка только если ушли оба письма
	if report.ConfirmationOut && report.MeetingEmailOut {
		if err := s.repo.MarkNotified(ctx, bookingID, s.timeProvider.Now()); err != nil {
			s.fail(report, bookingID, StepMarkNotified, err)
		} else {
			report.Notified = true
		}
	}

	return report, nil
}

func (s *Service) createMeeting(ctx context.Context, report *Report, booking *domain.Booking, offering domain.ServiceOffering, startsAt time.Time) string {
	meeting, err := s.meetings.CreateMeeting(ctx, zoom.MeetingRequest{
		Topic:           MeetingTopic(booking.ServiceType),
		Start:           startsAt,
		DurationMinutes: durationOf(booking, offering),
	})
	if err != nil {
		s.fail(report, booking.ID, StepMeeting, err)
		return ""
	}
	report.MeetingCreated = true

	attached, err := s.repo.AttachMeeting(ctx, booking.ID, meeting.ID, meeting.JoinURL, s.timeProvider.Now())
	if err != nil {
		// Ссылка всё равно уйдёт письмом, в базе её не будет
		s.fail(report, booking.ID, StepMeeting, fmt.Errorf("attach meeting %s: %w", meeting.ID, err))
		return meeting.JoinURL
	}
	if !attached {
		s.logger.Warn("Dispatch: booking id=%s meeting %s created but booking already had one or is no longer paid", booking.ID, meeting.ID)
	}

	s.logger.Info("Dispatch: booking id=%s step=%s meeting %s created", booking.ID, StepMeeting, meeting.ID)
	return meeting.JoinURL
}

func (s *Service) mirrorToCalendar(ctx context.Context, report *Report, booking *domain.Booking, offering domain.ServiceOffering, startsAt time.Time, joinURL string) {
	description := fmt.Sprintf("%s\nClient: %s %s <%s>\nPhone: %s",
		offering.Name, booking.Contact.FirstName, booking.Contact.LastName, booking.Contact.Email, booking.Contact.Phone)
	if booking.Contact.Company != nil {
		description += "\nCompany: " + *booking.Contact.Company
	}

	eventID, err := s.calendar.InsertEvent(ctx, googlecalendar.Event{
		ID:          googlecalendar.EventIDFor(booking.ID),
		Summary:     MeetingTopic(booking.ServiceType),
		Description: description,
		Location:    joinURL,
		Start:       startsAt,
		End:         startsAt.Add(time.Duration(durationOf(booking, offering)) * time.Minute),
		BookingID:   booking.ID.String(),
	})
	if err != nil {
		s.fail(report, booking.ID, StepCalendar, err)
		return
	}
	report.CalendarMirror = true
	s.logger.Info("Dispatch: booking id=%s step=%s event %s", booking.ID, StepCalendar, eventID)
}

func (s *Service) fail(report *Report, bookingID uuid.UUID, step Step, err error) {
	report.Failed = append(report.Failed, step)
	s.metrics.IncSideEffectFailure(string(step))
	s.logger.Error("Dispatch: booking id=%s step=%s failed: %v", bookingID, step, err)
}

func (s *Service) offering(b *domain.Booking) domain.ServiceOffering {
	if o, err := s.catalog.Lookup(b.ServiceType); err == nil {
		return o
	}
	return domain.ServiceOffering{Type: b.ServiceType, Name: string(b.ServiceType), DurationMinutes: b.DurationMinutes}
}

// MeetingTopic заголовок встречи и события календаря
func MeetingTopic(t domain.ServiceType) string {
	switch t {
	case domain.ServicePartner:
		return "Stancastle - Partner Programme Call"
	default:
		return "Stancastle - Diagnostic Session"
	}
}

func durationOf(b *domain.Booking, o domain.ServiceOffering) int {
	if b.DurationMinutes > 0 {
		return b.DurationMinutes
	}
	return o.DurationMinutes
}
