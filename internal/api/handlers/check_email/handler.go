package check_email

import (
	"errors"
	"net/http"

	"github.com/m04kA/stancastle-booking/internal/api/handlers"
	"github.com/m04kA/stancastle-booking/internal/service/accounts"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgInvalidEmail       = "a valid email address is required"
)

type Handler struct {
	service AccountService
	logger  Logger
}

func NewHandler(service AccountService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/accounts/check-email
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CheckEmailRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /accounts/check-email - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	registered, err := h.service.CheckEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidEmail) {
			handlers.RespondBadRequest(w, msgInvalidEmail)
			return
		}
		h.logger.Error("POST /accounts/check-email - Failed: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, CheckEmailResponse{Registered: registered})
}
