package mailer

import (
	"fmt"
	"strings"
	"time"
)

// Message готовое к отправке письмо
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

func (m Message) validate() error {
	switch {
	case strings.TrimSpace(m.From) == "":
		return fmt.Errorf("%w: empty from", ErrInvalidMessage)
	case strings.TrimSpace(m.To) == "":
		return fmt.Errorf("%w: empty recipient", ErrInvalidMessage)
	case m.Subject == "":
		return fmt.Errorf("%w: empty subject", ErrInvalidMessage)
	}
	return nil
}

// SessionDetails данные оплаченной сессии для обоих писем
type SessionDetails struct {
	To              string
	FirstName       string
	ServiceName     string
	StartsAt        time.Time
	DurationMinutes int
	// JoinURL пустой, если встречу создать не удалось
	JoinURL string
}
