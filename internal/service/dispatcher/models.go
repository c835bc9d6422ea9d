package dispatcher

import "time"

// Step название шага для логов и метрики side_effect_failures_total
type Step string

const (
	StepMeeting           Step = "meeting"
	StepCalendar          Step = "calendar"
	StepConfirmationEmail Step = "confirmation_email"
	StepMeetingEmail      Step = "meeting_email"
	StepMarkNotified      Step = "mark_notified"
)

// Options необязательные провайдеры. nil означает "не настроен", шаг пропускается
type Options struct {
	Meetings MeetingCreator
	Calendar CalendarWriter
	Notifier Notifier
	// Timeout общий лимит на один прогон шагов
	Timeout time.Duration
}

// Report что удалось сделать для одного бронирования
type Report struct {
	MeetingCreated  bool
	CalendarMirror  bool
	ConfirmationOut bool
	MeetingEmailOut bool
	Notified        bool
	Failed          []Step
}
