package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/access"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/commands"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/dto"
	bookingapp "github.com/hironxdev/trevo.lk-sub002/internal/app/handlers/booking"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/queries"
)

const idempotencyHeader = "Idempotency-Key"

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	ListingID  string `json:"listing_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	RentalType string `json:"rental_type"`
	WithDriver bool   `json:"with_driver"`
	Guests     int    `json:"guests"`
	// GuestID is honoured for admins booking on someone's behalf.
	GuestID string `json:"guest_id"`
}

type changeStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h BookingHandler) Create(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		respondError(c, h.Logger, access.ErrUnauthenticated)
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, end, err := parseDates(req.Start, req.End)
	if err != nil {
		badRequest(c, err)
		return
	}
	guestID := principal.UserID
	if principal.Role == access.RoleAdmin && req.GuestID != "" {
		guestID = req.GuestID
	}
	cmd := bookingapp.RequestBookingCommand{
		CommandID:       generateCommandID(),
		ListingID:       req.ListingID,
		GuestID:         guestID,
		Start:           start,
		End:             end,
		RentalType:      req.RentalType,
		WithDriver:      req.WithDriver,
		Guests:          req.Guests,
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Header("Location", "/api/v1/bookings/"+result.Booking.ID)
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) ChangeStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.ChangeStatusCommand{BookingID: c.Param("id"), Status: req.Status, Reason: req.Reason}
	result, err := commands.Dispatch[bookingapp.ChangeStatusCommand, dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	query := bookingapp.GetBookingQuery{BookingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.Booking](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
