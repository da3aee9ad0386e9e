package policies

import (
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/availability"
	"github.com/hironxdev/trevo.lk-sub002/internal/domain/pricing"
)

// BlockingPolicy decides which reservation statuses hold inventory per vertical.
type BlockingPolicy interface {
	For(vertical pricing.Vertical) (availability.StatusSet, error)
}

var _ BlockingPolicy = availability.Policy{}
