package store

import (
	"context"
)

const depositColumns = `id, battle_id, player_address, amount::text, tx_hash, chain_id,
	token_address, escrow_address, status, created_at`

func scanDeposit(row battleRow) (*Deposit, error) {
	var d Deposit
	err := row.Scan(&d.ID, &d.BattleID, &d.PlayerAddress, &d.Amount, &d.TxHash,
		&d.ChainID, &d.TokenAddress, &d.EscrowAddress, &d.Status, &d.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &d, nil
}

// InsertDeposit relies on the unique index on (battle_id,
// lower(player_address)): concurrent duplicate confirmations, including
// case-varied spellings of the same address, collapse to a single row and
// every caller reads back the surviving one.
func (s *Store) InsertDeposit(ctx context.Context, d Deposit) (*Deposit, error) {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO deposits (id, battle_id, player_address, amount, tx_hash, chain_id, token_address, escrow_address, status)
		VALUES ($1,$2,$3,$4::numeric,$5,$6,$7,$8,$9)
		ON CONFLICT (battle_id, lower(player_address)) DO NOTHING`,
		NewID(), d.BattleID, d.PlayerAddress, d.Amount, d.TxHash, d.ChainID,
		d.TokenAddress, d.EscrowAddress, "confirmed")
	if err != nil {
		return nil, err
	}
	return s.GetDeposit(ctx, d.BattleID, d.PlayerAddress)
}

func (s *Store) GetDeposit(ctx context.Context, battleID int64, playerAddress string) (*Deposit, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT `+depositColumns+`
		FROM deposits
		WHERE battle_id = $1 AND lower(player_address) = lower($2)`,
		battleID, playerAddress)
	return scanDeposit(row)
}

func (s *Store) ListDeposits(ctx context.Context, battleID int64) ([]Deposit, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+depositColumns+`
		FROM deposits
		WHERE battle_id = $1
		ORDER BY created_at ASC`, battleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Deposit{}
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *Store) CountDeposits(ctx context.Context, battleID int64) (int, error) {
	var c int
	err := s.Pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM deposits WHERE battle_id = $1`, battleID).Scan(&c)
	return c, err
}
