package battle

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrBattleNotFound = errors.New("battle_not_found")
	ErrNotAPlayer     = errors.New("forbidden")
	ErrChainDisabled  = errors.New("chain_disabled")
	ErrInvalidWinner  = errors.New("invalid_winner")
)
