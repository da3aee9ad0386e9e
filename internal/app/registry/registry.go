package registry

import (
	"log/slog"
	"time"

	"github.com/hironxdev/trevo.lk-sub002/internal/app/access"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/commands"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/dto"
	availabilityapp "github.com/hironxdev/trevo.lk-sub002/internal/app/handlers/availability"
	bookingapp "github.com/hironxdev/trevo.lk-sub002/internal/app/handlers/booking"
	quotesapp "github.com/hironxdev/trevo.lk-sub002/internal/app/handlers/quotes"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/middleware"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/outbox"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/policies"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/queries"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/uow"
	"github.com/hironxdev/trevo.lk-sub002/internal/app/validation"
)

// Deps are the ports the handlers and middleware need. Only UoW is
// mandatory; nil ports drop the middleware that uses them.
type Deps struct {
	UoW         uow.UoWFactory
	Blocking    policies.BlockingPolicy
	Encoder     outbox.EventEncoder
	Idempotency middleware.IdempotencyStore
	Relay       outbox.Relay
	Locker      policies.ResourceLocker
	LockTTL     time.Duration
	LockWait    time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
	NewID       func() string
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// PublicCapabilities are open to callers without an identity.
var PublicCapabilities = []access.Capability{access.QuoteRead, access.AvailabilityRead}

// Build registers every handler and wraps both buses in their middleware stacks.
func Build(d Deps) Buses {
	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: d.UoW,
		Blocking:   d.Blocking,
		Encoder:    d.Encoder,
		Logger:     d.Logger,
		Now:        d.Now,
		NewID:      d.NewID,
	})
	commands.RegisterHandler(commandBus, bookingapp.ChangeStatusCommand{}.Key(), &bookingapp.ChangeStatusHandler{
		UoWFactory: d.UoW,
		Blocking:   d.Blocking,
		Encoder:    d.Encoder,
		Logger:     d.Logger,
		Now:        d.Now,
	})

	queryBus := queries.NewInMemoryBus()
	quotes := &quotesapp.Handler{UoWFactory: d.UoW}
	queries.RegisterHandler(queryBus, quotesapp.QuoteVehicleQuery{}.Key(), quotes.Vehicle())
	queries.RegisterHandler(queryBus, quotesapp.QuoteStayQuery{}.Key(), quotes.Stay())
	queries.RegisterHandler[availabilityapp.CheckAvailabilityQuery, dto.Availability](queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{
		UoWFactory: d.UoW,
		Blocking:   d.Blocking,
	})
	queries.RegisterHandler[bookingapp.GetBookingQuery, dto.Booking](queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{
		UoWFactory: d.UoW,
	})

	validator := validation.New()
	authorizer := access.RoleAuthorizer{Public: PublicCapabilities}

	cmdStack := middleware.CommandStack{
		Logger:      d.Logger,
		Validator:   validator,
		Authorizer:  authorizer,
		Idempotency: d.Idempotency,
		Relay:       d.Relay,
		Locker:      d.Locker,
		LockTTL:     d.LockTTL,
		LockWait:    d.LockWait,
		UoW:         d.UoW,
	}
	queryStack := middleware.QueryStack{
		Logger:     d.Logger,
		Validator:  validator,
		Authorizer: authorizer,
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("buses ready", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	return Buses{
		Commands: cmdStack.Build(commandBus),
		Queries:  queryStack.Build(queryBus),
	}
}
