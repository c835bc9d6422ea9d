package stripe_webhook

import (
	"errors"
	"io"
	"net/http"

	"github.com/m04kA/stancastle-booking/internal/api/handlers"
	confirmPayment "github.com/m04kA/stancastle-booking/internal/usecase/confirm_payment"
)

// SignatureHeader заголовок подписи Stripe
const SignatureHeader = "Stripe-Signature"

// maxPayloadBytes Stripe присылает события меньше 64 КБ
const maxPayloadBytes = 64 << 10

const (
	msgUnreadableBody   = "unreadable body"
	msgPayloadTooLarge  = "payload too large"
	msgInvalidSignature = "invalid signature"
)

// WebhookResponse подтверждение для шлюза
type WebhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
}

type Handler struct {
	useCase ConfirmPaymentUseCase
	logger  Logger
}

func NewHandler(useCase ConfirmPaymentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/webhooks/stripe
// 400 только на неверную подпись, 500 чтобы шлюз повторил доставку, иначе 200
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Подпись считается по сырому телу, поэтому никакого JSON декодирования здесь
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			// обрезанное тело не пройдёт проверку подписи, это не подделка
			h.logger.Error("POST /webhooks/stripe - Payload exceeds %d bytes, rejected", tooLarge.Limit)
			handlers.RespondError(w, http.StatusRequestEntityTooLarge, msgPayloadTooLarge)
			return
		}
		h.logger.Warn("POST /webhooks/stripe - Failed to read body: %v", err)
		handlers.RespondBadRequest(w, msgUnreadableBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &confirmPayment.Request{
		Payload:   payload,
		Signature: r.Header.Get(SignatureHeader),
	})
	if err != nil {
		if errors.Is(err, confirmPayment.ErrInvalidSignature) {
			handlers.RespondBadRequest(w, msgInvalidSignature)
			return
		}
		h.logger.Error("POST /webhooks/stripe - Processing failed, gateway will retry: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, WebhookResponse{Received: true, Outcome: string(result.Outcome)})
}
