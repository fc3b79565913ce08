package game

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"minigame-service/internal/domain"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Problems lists the business-rule violations found in a definition.
type Problems []string

func (p Problems) Error() string {
	return strings.Join(p, "; ")
}

// Validate checks a game definition once, at load time, so that every session
// built from it is completable.
func Validate(def domain.Game) error {
	if err := structValidator.Struct(def); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidGame, def.ID, err)
	}

	var problems Problems
	switch {
	case def.Variant.Progressive():
		problems = append(problems, checkItems(def)...)
	case def.Variant == domain.VariantReflex:
		problems = append(problems, checkItems(def)...)
		if def.Timing.ReadyMaxMs > 0 && def.Timing.ReadyMaxMs < def.Timing.ReadyMinMs {
			problems = append(problems, "ready window max below min")
		}
	case def.Variant == domain.VariantBadge:
		if len(def.Tasks) == 0 {
			problems = append(problems, "badge needs at least one task")
		}
		seen := make(map[string]bool, len(def.Tasks))
		for _, task := range def.Tasks {
			if seen[task.ID] {
				problems = append(problems, fmt.Sprintf("duplicate task %q", task.ID))
			}
			seen[task.ID] = true
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidGame, def.ID, problems)
	}
	return nil
}

func checkItems(def domain.Game) Problems {
	var problems Problems
	if len(def.Items) == 0 {
		return append(problems, "no items")
	}
	itemIDs := make(map[string]bool, len(def.Items))
	for _, item := range def.Items {
		if itemIDs[item.ID] {
			problems = append(problems, fmt.Sprintf("duplicate item %q", item.ID))
		}
		itemIDs[item.ID] = true

		optionIDs := make(map[string]bool, len(item.Options))
		correct := 0
		for _, opt := range item.Options {
			if optionIDs[opt.ID] {
				problems = append(problems, fmt.Sprintf("item %q: duplicate option %q", item.ID, opt.ID))
			}
			optionIDs[opt.ID] = true
			if opt.Correct {
				correct++
			}
		}

		switch def.Variant {
		case domain.VariantReflex:
			if correct == 0 || correct == len(item.Options) {
				problems = append(problems, fmt.Sprintf("item %q: reflex needs correct and incorrect options", item.ID))
			}
		case domain.VariantDebate:
			if len(item.Options) != 2 {
				problems = append(problems, fmt.Sprintf("item %q: debate needs exactly two options", item.ID))
			}
			fallthrough
		default:
			if correct != 1 {
				problems = append(problems, fmt.Sprintf("item %q: %d correct options, want 1", item.ID, correct))
			}
		}
	}
	return problems
}
