package get_availability

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/stancastle-booking/internal/api/handlers"
	getAvailability "github.com/m04kA/stancastle-booking/internal/usecase/get_availability"
)

const (
	msgInvalidDate   = "invalid date, expected YYYY-MM-DD"
	msgInvalidRange  = "'to' must not be before 'from'"
	msgRangeTooLarge = "date range is too large"
)

type Handler struct {
	useCase GetAvailabilityUseCase
	loc     *time.Location
	logger  Logger
}

func NewHandler(useCase GetAvailabilityUseCase, loc *time.Location, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		loc:     loc,
		logger:  logger,
	}
}

// Handle GET /api/v1/availability?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req, err := ToUseCaseRequest(query.Get("from"), query.Get("to"), h.loc)
	if err != nil {
		h.logger.Warn("GET /availability - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, getAvailability.ErrInvalidRange):
			handlers.RespondBadRequest(w, msgInvalidRange)
		case errors.Is(err, getAvailability.ErrRangeTooLarge):
			handlers.RespondBadRequest(w, msgRangeTooLarge)
		default:
			h.logger.Error("GET /availability - Failed to compute availability: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result, h.loc))
}
