package mailer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/stancastle-booking/pkg/logger"
)

type fakeSender struct {
	name  string
	err   error
	calls int
	last  Message
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) Send(_ context.Context, msg Message) error {
	f.calls++
	f.last = msg
	if f.err != nil {
		return f.err
	}
	return msg.validate()
}

func validMessage() Message {
	return Message{From: "contact@stancastle.com", To: "jane@example.com", Subject: "Hello", HTML: "<p>hi</p>"}
}

func TestFallbackSender_PrimaryOK(t *testing.T) {
	primary := &fakeSender{name: "smtp"}
	secondary := &fakeSender{name: "ses"}

	err := NewFallbackSender(primary, secondary, logger.Nop()).Send(context.Background(), validMessage())
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, secondary.calls)
}

func TestFallbackSender_DeliveryFailureFallsBack(t *testing.T) {
	primary := &fakeSender{name: "smtp", err: fmt.Errorf("%w: connection refused", ErrSend)}
	secondary := &fakeSender{name: "ses"}

	err := NewFallbackSender(primary, secondary, logger.Nop()).Send(context.Background(), validMessage())
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
	assert.Equal(t, "jane@example.com", secondary.last.To)
}

func TestFallbackSender_InvalidMessageNotRetried(t *testing.T) {
	primary := &fakeSender{name: "smtp"}
	secondary := &fakeSender{name: "ses"}

	msg := validMessage()
	msg.To = ""

	err := NewFallbackSender(primary, secondary, logger.Nop()).Send(context.Background(), msg)
	assert.ErrorIs(t, err, ErrInvalidMessage)
	assert.Zero(t, secondary.calls)
}

func TestFallbackSender_NoSecondary(t *testing.T) {
	primary := &fakeSender{name: "smtp", err: ErrSend}

	s := NewFallbackSender(primary, nil, logger.Nop())
	assert.Equal(t, "smtp", s.Name())
	assert.ErrorIs(t, s.Send(context.Background(), validMessage()), ErrSend)
}

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{}, nil
}

func TestSESSender_BuildsInput(t *testing.T) {
	api := &fakeSES{}
	s := &SESSender{api: api}

	require.NoError(t, s.Send(context.Background(), validMessage()))
	require.NotNil(t, api.input)
	assert.Equal(t, "contact@stancastle.com", *api.input.Source)
	assert.Equal(t, []string{"jane@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "Hello", *api.input.Message.Subject.Data)
	assert.Equal(t, "<p>hi</p>", *api.input.Message.Body.Html.Data)
}

func TestSESSender_Error(t *testing.T) {
	s := &SESSender{api: &fakeSES{err: errors.New("throttled")}}
	assert.ErrorIs(t, s.Send(context.Background(), validMessage()), ErrSend)
}

func TestMailer_NoTransport(t *testing.T) {
	r, _ := testRenderer(t)
	m := New(nil, r, logger.Nop())
	err := m.SendOrderConfirmation(context.Background(), SessionDetails{To: "jane@example.com", ServiceName: "Diagnostic Session"})
	assert.ErrorIs(t, err, ErrNoTransport)
}
