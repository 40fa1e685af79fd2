package store

import (
	"context"
)

// UpsertPrompt replaces a player's earlier prompt for the battle, unlike
// deposits which are write-once.
func (s *Store) UpsertPrompt(ctx context.Context, battleID int64, playerAddress, prompt string) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO prompts (id, battle_id, player_address, prompt)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (battle_id, lower(player_address))
		DO UPDATE SET prompt = EXCLUDED.prompt, updated_at = now()`,
		NewID(), battleID, playerAddress, prompt)
	return err
}

func (s *Store) GetPrompt(ctx context.Context, battleID int64, playerAddress string) (*Prompt, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, battle_id, player_address, prompt, created_at, updated_at
		FROM prompts
		WHERE battle_id = $1 AND lower(player_address) = lower($2)`,
		battleID, playerAddress)
	var p Prompt
	if err := row.Scan(&p.ID, &p.BattleID, &p.PlayerAddress, &p.Prompt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (s *Store) ListPrompts(ctx context.Context, battleID int64) ([]Prompt, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, battle_id, player_address, prompt, created_at, updated_at
		FROM prompts
		WHERE battle_id = $1
		ORDER BY created_at ASC`, battleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Prompt{}
	for rows.Next() {
		var p Prompt
		if err := rows.Scan(&p.ID, &p.BattleID, &p.PlayerAddress, &p.Prompt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) CountPrompts(ctx context.Context, battleID int64) (int, error) {
	var c int
	err := s.Pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM prompts WHERE battle_id = $1`, battleID).Scan(&c)
	return c, err
}
