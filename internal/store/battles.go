package store

import (
	"context"
)

const battleColumns = `id, player1, player2, stake, status, winner, gen_status, gen_error,
	p1_image_url, p2_image_url, gen_started_at, gen_finished_at, created_at, updated_at`

type battleRow interface {
	Scan(dest ...any) error
}

func scanBattle(row battleRow) (*Battle, error) {
	var b Battle
	err := row.Scan(&b.ID, &b.Player1, &b.Player2, &b.Stake, &b.Status, &b.Winner,
		&b.GenStatus, &b.GenError, &b.P1ImageURL, &b.P2ImageURL,
		&b.GenStartedAt, &b.GenEndedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &b, nil
}

func (s *Store) CreateBattle(ctx context.Context, player1, player2 string, stake int64) (int64, error) {
	var id int64
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO battles (player1, player2, stake, status) VALUES ($1,$2,$3,$4) RETURNING id`,
		player1, player2, stake, BattleWaitingDeposits).Scan(&id)
	return id, err
}

func (s *Store) GetBattle(ctx context.Context, id int64) (*Battle, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+battleColumns+` FROM battles WHERE id = $1`, id)
	return scanBattle(row)
}

func (s *Store) UpdateBattleStatus(ctx context.Context, id int64, status string) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE battles SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	return err
}

// FindOpenBattleByStakeAndPlayer returns the most recent unfinished battle at
// the given stake where the address is one of the players. Used by the
// match poll to discover a pairing made by the opponent's submit.
func (s *Store) FindOpenBattleByStakeAndPlayer(ctx context.Context, stake int64, address string) (*Battle, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT `+battleColumns+`
		FROM battles
		WHERE stake = $1
		  AND status <> $2
		  AND winner IS NULL
		  AND (lower(player1) = lower($3) OR lower(player2) = lower($3))
		ORDER BY created_at DESC
		LIMIT 1`, stake, BattleFinished, address)
	return scanBattle(row)
}

func (s *Store) ListBattles(ctx context.Context, status string, limit int) ([]Battle, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var (
		query = `SELECT ` + battleColumns + ` FROM battles ORDER BY created_at DESC LIMIT $1`
		args  = []any{limit}
	)
	if status != "" {
		query = `SELECT ` + battleColumns + ` FROM battles WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
		args = []any{status, limit}
	}
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Battle{}
	for rows.Next() {
		b, err := scanBattle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *Store) CloseBattle(ctx context.Context, id int64, winner string) (*Battle, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE battles
		SET winner = $1, status = $2, updated_at = now()
		WHERE id = $3
		RETURNING `+battleColumns, winner, BattleFinished, id)
	return scanBattle(row)
}

// ClaimGeneration is the only transition into gen_status='running'. The
// conditional WHERE makes it a cross-process mutex: exactly one caller sees
// a row affected, everyone else loses the race and must not start the job.
func (s *Store) ClaimGeneration(ctx context.Context, id int64) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE battles
		SET gen_status = $1, gen_started_at = now(), gen_error = NULL, updated_at = now()
		WHERE id = $2 AND (gen_status IS NULL OR gen_status = $3)`,
		GenRunning, id, GenIdle)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) FinishGeneration(ctx context.Context, id int64, p1ImageURL, p2ImageURL string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE battles
		SET gen_status = $1, p1_image_url = $2, p2_image_url = $3,
		    gen_finished_at = now(), gen_error = NULL, updated_at = now()
		WHERE id = $4`, GenDone, p1ImageURL, p2ImageURL, id)
	return err
}

func (s *Store) FailGeneration(ctx context.Context, id int64, msg string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE battles
		SET gen_status = $1, gen_error = $2, gen_finished_at = now(), updated_at = now()
		WHERE id = $3`, GenError, msg, id)
	return err
}

// ResetGeneration returns a failed (or wedged) run to idle so a later status
// poll may claim it again. Deliberately refuses to touch done.
func (s *Store) ResetGeneration(ctx context.Context, id int64) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE battles
		SET gen_status = $1, gen_error = NULL, p1_image_url = NULL, p2_image_url = NULL,
		    gen_started_at = NULL, gen_finished_at = NULL, updated_at = now()
		WHERE id = $2 AND gen_status IN ($3, $4)`,
		GenIdle, id, GenError, GenRunning)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
