package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// UKDateTimeLayout "Monday, 2 March 2026 at 09:30"
const UKDateTimeLayout = "Monday, 2 January 2006 at 15:04"

// FormatUKDateTime дата и время в часовом поясе бизнеса
func FormatUKDateTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "Date to be confirmed"
	}
	return t.In(loc).Format(UKDateTimeLayout)
}

var orderConfirmationTmpl = template.Must(template.New("order_confirmation").Parse(`<p>Hi {{.FirstName}},</p>
<p>Thank you for booking with Stancastle.</p>
<p><strong>Payment confirmed.</strong> Your {{.ServiceName}} is scheduled for:</p>
<p><strong>{{.DateTime}}</strong> (UK time)</p>
<p><strong>Next steps:</strong></p>
<ul>
  <li>You will receive a separate email shortly with your meeting link and joining instructions.</li>
  <li>To help us prepare for your session, please complete this short form when you're ready: <a href="{{.PrepFormURL}}">Meeting preparation form</a></li>
</ul>
<p>If you have any questions, reply to this email or call {{.ContactPhone}}.</p>
<p>Best,<br>The Stancastle Team</p>
`))

var meetingDetailsTmpl = template.Must(template.New("meeting_details").Parse(`<p>Hi {{.FirstName}},</p>
<p>Here are the details for your Stancastle session.</p>
<p><strong>Date &amp; time:</strong> {{.DateTime}} (UK time)</p>
<p><strong>Service:</strong> {{.ServiceName}}</p>
{{if .JoinURL -}}
<p><strong>Join your session:</strong><br>
<a href="{{.JoinURL}}">{{.JoinURL}}</a></p>
<p><strong>Instructions:</strong></p>
<ul>
  <li>Click the link above at your scheduled time (or a few minutes early).</li>
  <li>You may be asked to install the Zoom app or join via browser.</li>
  <li>Please be in a quiet place with a stable connection. We'll have a {{.DurationMinutes}}-minute focused session.</li>
</ul>
{{- else -}}
<p>Your meeting link will be sent separately once the meeting has been created. If you don't receive it within a few minutes, reply to this email or call {{.ContactPhone}}.</p>
{{- end}}
<p><strong>What to expect:</strong> We'll use the full {{.DurationMinutes}} minutes for a deep dive into your situation and priorities. Come ready to discuss your business and goals.</p>
<p>To help us prepare, please complete this form when you can: <a href="{{.PrepFormURL}}">Meeting preparation form</a></p>
<p>Best,<br>The Stancastle Team</p>
`))

type templateData struct {
	FirstName       string
	ServiceName     string
	DateTime        string
	DurationMinutes int
	JoinURL         string
	PrepFormURL     string
	ContactPhone    string
}

// Renderer собирает письма после оплаты
type Renderer struct {
	from         string
	prepFormURL  string
	contactPhone string
	loc          *time.Location
}

func NewRenderer(from, prepFormURL, contactPhone string, loc *time.Location) *Renderer {
	return &Renderer{
		from:         from,
		prepFormURL:  prepFormURL,
		contactPhone: contactPhone,
		loc:          loc,
	}
}

func (r *Renderer) data(d SessionDetails) templateData {
	name := d.FirstName
	if name == "" {
		name = "there"
	}
	return templateData{
		FirstName:       name,
		ServiceName:     d.ServiceName,
		DateTime:        FormatUKDateTime(d.StartsAt, r.loc),
		DurationMinutes: d.DurationMinutes,
		JoinURL:         d.JoinURL,
		PrepFormURL:     r.prepFormURL,
		ContactPhone:    r.contactPhone,
	}
}

// OrderConfirmation письмо "оплата получена"
func (r *Renderer) OrderConfirmation(d SessionDetails) (Message, error) {
	data := r.data(d)
	return r.render(orderConfirmationTmpl, d.To,
		fmt.Sprintf("Booking confirmed – %s on %s", data.ServiceName, data.DateTime), data)
}

// MeetingDetails письмо со ссылкой на встречу (или обещанием прислать её позже)
func (r *Renderer) MeetingDetails(d SessionDetails) (Message, error) {
	data := r.data(d)
	return r.render(meetingDetailsTmpl, d.To,
		fmt.Sprintf("Meeting details – %s on %s", data.ServiceName, data.DateTime), data)
}

func (r *Renderer) render(tmpl *template.Template, to, subject string, data templateData) (Message, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("%w: %s: %v", ErrRender, tmpl.Name(), err)
	}
	return Message{
		From:    r.from,
		To:      to,
		Subject: subject,
		HTML:    buf.String(),
	}, nil
}
