package store

import "time"

// Battle status values. Deposit recomputation walks the first three;
// finished is terminal and set only by the close action.
const (
	BattleWaitingDeposits = "waiting_deposits"
	BattleP1Deposited     = "p1_deposited"
	BattleBothDeposited   = "both_deposited"
	BattleFinished        = "finished"
)

// Generation status values, monotonic idle -> running -> done|error.
const (
	GenIdle    = "idle"
	GenRunning = "running"
	GenDone    = "done"
	GenError   = "error"
)

type Battle struct {
	ID           int64
	Player1      string
	Player2      string
	Stake        int64
	Status       string
	Winner       *string
	GenStatus    string
	GenError     *string
	P1ImageURL   *string
	P2ImageURL   *string
	GenStartedAt *time.Time
	GenEndedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Deposit struct {
	ID            string
	BattleID      int64
	PlayerAddress string
	Amount        string
	TxHash        string
	ChainID       int64
	TokenAddress  string
	EscrowAddress string
	Status        string
	CreatedAt     time.Time
}

type Prompt struct {
	ID            string
	BattleID      int64
	PlayerAddress string
	Prompt        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type AuditEntry struct {
	ID        string
	Tag       string
	BattleID  *int64
	Address   *string
	Payload   []byte
	CreatedAt time.Time
}
