package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/dto"
	availabilityapp "github.com/hironxdev/trevo.lk-sub002/internal/app/handlers/availability"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

// Check answers GET /listings/:id/availability?start=&end=.
func (h AvailabilityHandler) Check(c *gin.Context) {
	start, end, err := parseDates(c.Query("start"), c.Query("end"))
	if err != nil {
		badRequest(c, err)
		return
	}
	query := availabilityapp.CheckAvailabilityQuery{ListingID: c.Param("id"), Start: start, End: end}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
