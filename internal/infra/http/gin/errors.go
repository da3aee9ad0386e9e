package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/access"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/commands"
	quotesapp "github.com/hironxdev/trevo.lk-sub002/internal/app/handlers/quotes"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/middleware"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/policies"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/queries"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/validation"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
	domainbooking "github.com/hironxdev/trevo.lk-sub002/internal/domain/booking"
	domainlistings "github.com/hironxdev/trevo.lk-sub002/internal/domain/listings"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/shared/daterange"
)

type errorResponse struct {
	Error  string                  `json:"error"`
	Code   string                  `json:"code"`
	Fields []validation.FieldError `json:"fields,omitempty"`
	Limit  *durationLimit          `json:"limit,omitempty"`
}

type durationLimit struct {
	Unit   string `json:"unit"`
	Limit  int    `json:"limit"`
	Actual int    `json:"actual"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Ordered: the first match wins.
var errorTable = []errorMapping{
	{availability.ErrConflictDetected, http.StatusConflict, "unavailable"},
	{policies.ErrResourceBusy, http.StatusConflict, "busy"},
	{middleware.ErrRequestInFlight, http.StatusConflict, "in_flight"},
	{domainbooking.ErrVersionConflict, http.StatusConflict, "version_conflict"},

	{access.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{access.ErrForbidden, http.StatusForbidden, "forbidden"},

	{domainlistings.ErrListingNotFound, http.StatusNotFound, "listing_not_found"},
	{domainbooking.ErrBookingNotFound, http.StatusNotFound, "booking_not_found"},
	{commands.ErrHandlerNotFound, http.StatusNotFound, "not_found"},
	{queries.ErrHandlerNotFound, http.StatusNotFound, "not_found"},

	{validation.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{daterange.ErrInvalidRange, http.StatusBadRequest, "invalid_range"},
	{pricing.ErrInvalidDuration, http.StatusBadRequest, "invalid_range"},
	{pricing.ErrUnknownRentalType, http.StatusBadRequest, "invalid_rental_type"},
	{availability.ErrUnknownStatus, http.StatusBadRequest, "invalid_status"},
	{access.ErrUnknownRole, http.StatusBadRequest, "invalid_role"},

	{pricing.ErrDurationTooShort, http.StatusUnprocessableEntity, "duration_too_short"},
	{pricing.ErrDurationTooLong, http.StatusUnprocessableEntity, "duration_too_long"},
	{pricing.ErrMissingRate, http.StatusUnprocessableEntity, "missing_rate"},
	{domainlistings.ErrNotBookable, http.StatusUnprocessableEntity, "not_bookable"},
	{domainbooking.ErrInvalidTransition, http.StatusUnprocessableEntity, "invalid_transition"},
	{domainbooking.ErrStartInPast, http.StatusUnprocessableEntity, "start_in_past"},
	{domainbooking.ErrInvalidGuests, http.StatusUnprocessableEntity, "invalid_guests"},
	{domainbooking.ErrZeroTotal, http.StatusUnprocessableEntity, "zero_total"},
	{quotesapp.ErrWrongVertical, http.StatusUnprocessableEntity, "wrong_vertical"},
}

// Messages for these codes are fixed: the underlying errors name other
// guests' bookings.
var fixedMessages = map[string]string{
	"unavailable":      "requested dates are not available",
	"busy":             "listing is being booked by another request, retry shortly",
	"version_conflict": "booking was modified concurrently, reload and retry",
	"forbidden":        "not allowed",
}

func classify(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// respondError writes the mapped status and body. Unmapped errors are 500s
// and are logged with the request context; their message is not exposed.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := classify(err)
	body := errorResponse{Error: err.Error(), Code: code}
	if msg, ok := fixedMessages[code]; ok {
		body.Error = msg
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	var derr *pricing.DurationError
	if errors.As(err, &derr) {
		body.Limit = &durationLimit{Unit: derr.Unit, Limit: derr.Limit, Actual: derr.Actual}
	}

	if status == http.StatusInternalServerError {
		body.Error = "internal error"
		_ = c.Error(err)
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_request"})
}
