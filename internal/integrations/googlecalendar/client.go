package googlecalendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/m04kA/stancastle-booking/internal/domain"
)

// Credentials OAuth клиент с заранее выданным refresh token
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Client адаптер Google Calendar: free/busy и зеркалирование оплаченных сессий
type Client struct {
	svc        *calendar.Service
	calendarID string
	loc        *time.Location
	timeout    time.Duration
	log        Logger
}

// NewClient создает сервис календаря с автоматическим обновлением access token
func NewClient(ctx context.Context, creds Credentials, calendarID string, loc *time.Location, timeout time.Duration, log Logger) (*Client, error) {
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarScope},
	}
	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})

	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("googlecalendar: create service: %w", err)
	}
	return NewWithService(svc, calendarID, loc, timeout, log), nil
}

// NewWithService для тестов и нестандартной авторизации
func NewWithService(svc *calendar.Service, calendarID string, loc *time.Location, timeout time.Duration, log Logger) *Client {
	return &Client{
		svc:        svc,
		calendarID: calendarID,
		loc:        loc,
		timeout:    timeout,
		log:        log,
	}
}

// FreeBusy возвращает занятые интервалы календаря в [from, to)
func (c *Client) FreeBusy(ctx context.Context, from, to time.Time) ([]domain.BusyInterval, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: %s >= %s", ErrInvalidRange, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin:  from.Format(time.RFC3339),
		TimeMax:  to.Format(time.RFC3339),
		TimeZone: c.loc.String(),
		Items:    []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFreeBusy, err)
	}

	cal, ok := resp.Calendars[c.calendarID]
	if !ok {
		return nil, fmt.Errorf("%w: calendar %s missing in response", ErrCalendarError, c.calendarID)
	}
	// Ошибка по календарю приходит в теле 200 ответа; пустой Busy в этом случае не значит "свободно"
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrCalendarError, cal.Errors[0].Domain, cal.Errors[0].Reason)
	}

	busy := make([]domain.BusyInterval, 0, len(cal.Busy))
	for _, p := range cal.Busy {
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: busy start %q: %v", ErrFreeBusy, p.Start, err)
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			return nil, fmt.Errorf("%w: busy end %q: %v", ErrFreeBusy, p.End, err)
		}
		busy = append(busy, domain.BusyInterval{Start: start, End: end})
	}
	return busy, nil
}

// InsertEvent создает событие без рассылки приглашений и возвращает его id.
// Если e.ID уже занят (повторный проход), возвращает e.ID без ошибки
func (c *Client) InsertEvent(ctx context.Context, e Event) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ev := &calendar.Event{
		Id:          e.ID,
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Start: &calendar.EventDateTime{
			DateTime: e.Start.In(c.loc).Format(time.RFC3339),
			TimeZone: c.loc.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: e.End.In(c.loc).Format(time.RFC3339),
			TimeZone: c.loc.String(),
		},
	}
	if e.BookingID != "" {
		ev.ExtendedProperties = &calendar.EventExtendedProperties{
			Private: map[string]string{"booking_id": e.BookingID},
		}
	}

	created, err := c.svc.Events.Insert(c.calendarID, ev).SendUpdates("none").Context(ctx).Do()
	var apiErr *googleapi.Error
	if e.ID != "" && errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
		c.log.Info("Calendar: event %s already exists for booking_id=%s", e.ID, e.BookingID)
		return e.ID, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: booking_id=%s: %v", ErrInsertEvent, e.BookingID, err)
	}

	c.log.Info("Calendar: event %s created for booking_id=%s", created.Id, e.BookingID)
	return created.Id, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}
