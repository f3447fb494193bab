package service

import "github.com/BehnamMohamadi/mini-shop-sub000/models"

// allowedTransitions is the full lifecycle: checkout moves an open basket to
// pending, payment either completes it or sends it back to open. Finished is
// terminal.
var allowedTransitions = map[models.BasketStatus][]models.BasketStatus{
	models.BasketStatusOpen:    {models.BasketStatusPending},
	models.BasketStatusPending: {models.BasketStatusOpen, models.BasketStatusFinished},
}

// CanTransition reports whether moving a basket from one status to another is
// allowed.
func CanTransition(from, to models.BasketStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseStatus maps a request string onto a basket status.
func ParseStatus(s string) (models.BasketStatus, bool) {
	switch models.BasketStatus(s) {
	case models.BasketStatusOpen, models.BasketStatusPending, models.BasketStatusFinished:
		return models.BasketStatus(s), true
	default:
		return "", false
	}
}
