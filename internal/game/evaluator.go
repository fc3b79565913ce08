package game

import (
	"fmt"

	"minigame-service/internal/domain"
)

// Evaluate classifies a selection against the authored options of an item.
func Evaluate(item domain.Item, optionID string) (domain.Outcome, error) {
	if len(item.Options) == 0 {
		return domain.Outcome{}, fmt.Errorf("%w: %s", domain.ErrInvalidItem, item.ID)
	}
	for _, opt := range item.Options {
		if opt.ID == optionID {
			return domain.Outcome{
				OptionID:    opt.ID,
				Correct:     opt.Correct,
				Description: opt.Description,
			}, nil
		}
	}
	return domain.Outcome{}, fmt.Errorf("%w: option %q on item %q", domain.ErrLookup, optionID, item.ID)
}
