package store

import (
	"context"
	"encoding/json"
)

// InsertAudit records an audit entry. Callers treat failures as non-fatal;
// the write is best effort by contract.
func (s *Store) InsertAudit(ctx context.Context, tag string, battleID int64, address string, payload any) error {
	var blob []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		blob = b
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO audit_log (id, tag, battle_id, address, payload)
		VALUES ($1,$2,$3,$4,$5)`,
		NewID(), tag, battleID, address, blob)
	return err
}

func (s *Store) ListAudit(ctx context.Context, battleID int64, limit int) ([]AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, tag, battle_id, address, payload, created_at
		FROM audit_log
		WHERE battle_id = $1
		ORDER BY created_at ASC
		LIMIT $2`, battleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AuditEntry{}
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Tag, &e.BattleID, &e.Address, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
