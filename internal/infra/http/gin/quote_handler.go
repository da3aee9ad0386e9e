package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/dto"
	quotesapp "github.com/hironxdev/trevo.lk-sub002/internal/app/handlers/quotes"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/queries"
)

type QuoteHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

type quoteRequest struct {
	ListingID  string `json:"listing_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	RentalType string `json:"rental_type"`
	WithDriver bool   `json:"with_driver"`
}

func (h QuoteHandler) Vehicle(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, end, err := parseDates(req.Start, req.End)
	if err != nil {
		badRequest(c, err)
		return
	}
	query := quotesapp.QuoteVehicleQuery{
		ListingID:  req.ListingID,
		Start:      start,
		End:        end,
		RentalType: req.RentalType,
		WithDriver: req.WithDriver,
	}
	result, err := queries.Ask[quotesapp.QuoteVehicleQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h QuoteHandler) Stay(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, end, err := parseDates(req.Start, req.End)
	if err != nil {
		badRequest(c, err)
		return
	}
	query := quotesapp.QuoteStayQuery{ListingID: req.ListingID, Start: start, End: end}
	result, err := queries.Ask[quotesapp.QuoteStayQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ QuoteHTTP = QuoteHandler{}
