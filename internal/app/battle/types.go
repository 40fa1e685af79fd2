package battle

import "time"

type PlayInput struct {
	Address string
	Stake   int64
	Prompt  string
}

type PlayResponse struct {
	OK       bool      `json:"ok"`
	Status   string    `json:"status"`
	Stake    int64     `json:"stake"`
	QueuedAt time.Time `json:"queuedAt,omitempty"`
	BattleID int64     `json:"battleId,omitempty"`
	Opponent string    `json:"opponent,omitempty"`
}

type MatchResponse struct {
	OK       bool   `json:"ok"`
	Status   string `json:"status"`
	BattleID int64  `json:"battleId,omitempty"`
	Opponent string `json:"opponent,omitempty"`
	Stake    int64  `json:"stake,omitempty"`
}

type ConfirmDepositInput struct {
	BattleID int64
	Address  string
	TxHash   string
}

type DepositItem struct {
	PlayerAddress string    `json:"playerAddress"`
	Amount        string    `json:"amount"`
	TxHash        string    `json:"txHash"`
	ChainID       int64     `json:"chainId"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ConfirmDepositResponse struct {
	OK       bool         `json:"ok"`
	Already  bool         `json:"already,omitempty"`
	BattleID int64        `json:"battleId"`
	Address  string       `json:"address"`
	Amount   string       `json:"amount"`
	TxHash   string       `json:"txHash"`
	ChainID  int64        `json:"chainId"`
	Status   string       `json:"status"`
	Deposit  *DepositItem `json:"deposit,omitempty"`
}

type SubmitPromptInput struct {
	BattleID int64
	Address  string
	Prompt   string
}

type StatusResponse struct {
	OK        bool     `json:"ok"`
	Status    string   `json:"status"`
	GenStatus string   `json:"genStatus"`
	GenError  *string  `json:"genError"`
	P1Image   *string  `json:"p1Image"`
	P2Image   *string  `json:"p2Image"`
	Winner    *string  `json:"winner"`
	Deposits  []string `json:"deposits"`
	Prompts   []string `json:"prompts"`
}

type PromptItem struct {
	PlayerAddress string    `json:"playerAddress"`
	Prompt        string    `json:"prompt"`
	CreatedAt     time.Time `json:"createdAt"`
}

type BattleItem struct {
	ID        int64     `json:"id"`
	Player1   string    `json:"player1"`
	Player2   string    `json:"player2"`
	Stake     int64     `json:"stake"`
	Status    string    `json:"status"`
	Winner    *string   `json:"winner"`
	GenStatus string    `json:"genStatus"`
	GenError  *string   `json:"genError"`
	P1Image   *string   `json:"p1Image"`
	P2Image   *string   `json:"p2Image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type StateComputed struct {
	P1Deposited   bool `json:"p1Deposited"`
	P2Deposited   bool `json:"p2Deposited"`
	BothDeposited bool `json:"bothDeposited"`
	PromptsCount  int  `json:"promptsCount"`
}

type StateResponse struct {
	OK       bool          `json:"ok"`
	Battle   BattleItem    `json:"battle"`
	Deposits []DepositItem `json:"deposits"`
	Prompts  []PromptItem  `json:"prompts"`
	Computed StateComputed `json:"computed"`
}

type ListResponse struct {
	OK    bool         `json:"ok"`
	Items []BattleItem `json:"items"`
}

type DepositsResponse struct {
	OK    bool          `json:"ok"`
	Items []DepositItem `json:"items"`
}

type CloseResponse struct {
	OK     bool       `json:"ok"`
	Battle BattleItem `json:"battle"`
}

type ResetGenerationResponse struct {
	OK    bool `json:"ok"`
	Reset bool `json:"reset"`
}
