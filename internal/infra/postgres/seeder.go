package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"minigame-service/internal/domain"
)

type gameRow struct {
	bun.BaseModel `bun:"table:games"`

	ID        string      `bun:"id,pk"`
	Variant   string      `bun:"variant,notnull"`
	Data      domain.Game `bun:"data,type:jsonb,notnull"`
	UpdatedAt time.Time   `bun:"updated_at,notnull"`
}

// Seeder upserts catalogue definitions into the games table.
type Seeder struct {
	db  *bun.DB
	now func() time.Time
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db, now: time.Now}
}

// Upsert writes every definition, replacing rows with the same id.
func (s *Seeder) Upsert(ctx context.Context, games []domain.Game) (int, error) {
	if len(games) == 0 {
		return 0, nil
	}
	now := s.now()
	rows := make([]gameRow, 0, len(games))
	for _, def := range games {
		rows = append(rows, gameRow{
			ID:        def.ID,
			Variant:   string(def.Variant),
			Data:      def,
			UpdatedAt: now,
		})
	}

	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("variant = EXCLUDED.variant").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("upsert games: %w", err)
	}
	return len(rows), nil
}
