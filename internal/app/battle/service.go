// Package battle implements the battle lifecycle: matchmaking, deposit
// confirmation, prompt collection and generation kickoff.
package battle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"prompt-battle/internal/chain"
	"prompt-battle/internal/matchmaker"
	"prompt-battle/internal/store"
)

const defaultStake = 1

// Verifier checks a claimed deposit against chain state.
type Verifier interface {
	VerifyDeposit(ctx context.Context, battleID int64, address, txHash string) (*chain.VerifiedDeposit, error)
}

// Runner kicks off image generation for an eligible battle.
type Runner interface {
	MaybeStart(ctx context.Context, battleID int64) (bool, error)
}

type Service struct {
	store    *store.Store
	matcher  *matchmaker.Matchmaker
	verifier Verifier
	runner   Runner
}

// NewService wires the battle service. verifier may be nil when no chain RPC
// is configured; confirm-deposit then fails with ErrChainDisabled.
func NewService(st *store.Store, matcher *matchmaker.Matchmaker, verifier Verifier, runner Runner) *Service {
	return &Service{store: st, matcher: matcher, verifier: verifier, runner: runner}
}

func (s *Service) Play(ctx context.Context, in PlayInput) (*PlayResponse, error) {
	if in.Address == "" || in.Prompt == "" {
		return nil, fmt.Errorf("%w: address and prompt are required", ErrInvalidRequest)
	}
	stake := in.Stake
	if stake <= 0 {
		stake = defaultStake
	}
	res, err := s.matcher.Submit(ctx, in.Address, stake, in.Prompt)
	if err != nil {
		return nil, err
	}
	if !res.Matched {
		return &PlayResponse{OK: true, Status: "waiting", Stake: stake, QueuedAt: res.QueuedAt}, nil
	}
	return &PlayResponse{
		OK:       true,
		Status:   "matched",
		Stake:    stake,
		BattleID: res.BattleID,
		Opponent: res.Opponent,
	}, nil
}

func (s *Service) Match(ctx context.Context, address string, stake int64) (*MatchResponse, error) {
	if address == "" || stake <= 0 {
		return nil, fmt.Errorf("%w: address and stake are required", ErrInvalidRequest)
	}
	res, err := s.matcher.LookupMatch(ctx, address, stake)
	if err != nil {
		return nil, err
	}
	if !res.Matched {
		return &MatchResponse{OK: true, Status: "waiting"}, nil
	}
	return &MatchResponse{
		OK:       true,
		Status:   "matched",
		BattleID: res.BattleID,
		Opponent: res.Opponent,
		Stake:    stake,
	}, nil
}

// ConfirmDeposit verifies the claimed escrow transaction and records the
// deposit. Repeated calls for the same player return the stored row with
// already=true and never re-touch the chain.
func (s *Service) ConfirmDeposit(ctx context.Context, in ConfirmDepositInput) (*ConfirmDepositResponse, error) {
	if in.BattleID <= 0 || in.Address == "" || in.TxHash == "" {
		return nil, fmt.Errorf("%w: battleId, address and txHash are required", ErrInvalidRequest)
	}

	b, err := s.getBattleForPlayer(ctx, in.BattleID, in.Address)
	if err != nil {
		return nil, err
	}

	if existing, err := s.store.GetDeposit(ctx, in.BattleID, in.Address); err == nil {
		item := depositItem(*existing)
		return &ConfirmDepositResponse{
			OK:       true,
			Already:  true,
			BattleID: in.BattleID,
			Address:  existing.PlayerAddress,
			Amount:   existing.Amount,
			TxHash:   existing.TxHash,
			ChainID:  existing.ChainID,
			Status:   b.Status,
			Deposit:  &item,
		}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if s.verifier == nil {
		return nil, ErrChainDisabled
	}
	vd, err := s.verifier.VerifyDeposit(ctx, in.BattleID, in.Address, in.TxHash)
	if err != nil {
		return nil, err
	}

	dep, err := s.store.InsertDeposit(ctx, store.Deposit{
		BattleID:      in.BattleID,
		PlayerAddress: in.Address,
		Amount:        vd.Amount.String(),
		TxHash:        in.TxHash,
		ChainID:       vd.ChainID,
		TokenAddress:  vd.TokenAddress,
		EscrowAddress: vd.EscrowAddress,
	})
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountDeposits(ctx, in.BattleID)
	if err != nil {
		return nil, err
	}
	// finished is terminal; a deposit landing after close must not
	// regress it
	newStatus := b.Status
	if b.Status != store.BattleFinished {
		newStatus = store.BattleP1Deposited
		if count >= 2 {
			newStatus = store.BattleBothDeposited
		}
		if err := s.store.UpdateBattleStatus(ctx, in.BattleID, newStatus); err != nil {
			return nil, err
		}
	}

	s.audit(ctx, "confirm_deposit", in.BattleID, in.Address, map[string]any{
		"txHash":  in.TxHash,
		"amount":  dep.Amount,
		"chainId": dep.ChainID,
	})

	return &ConfirmDepositResponse{
		OK:       true,
		BattleID: in.BattleID,
		Address:  in.Address,
		Amount:   dep.Amount,
		TxHash:   in.TxHash,
		ChainID:  dep.ChainID,
		Status:   newStatus,
	}, nil
}

func (s *Service) SubmitPrompt(ctx context.Context, in SubmitPromptInput) error {
	if in.BattleID <= 0 || in.Address == "" || in.Prompt == "" {
		return fmt.Errorf("%w: battleId, address and prompt are required", ErrInvalidRequest)
	}
	if _, err := s.getBattleForPlayer(ctx, in.BattleID, in.Address); err != nil {
		return err
	}
	if err := s.store.UpsertPrompt(ctx, in.BattleID, in.Address, in.Prompt); err != nil {
		return err
	}
	s.audit(ctx, "submit_prompt", in.BattleID, in.Address, map[string]any{"prompt": in.Prompt})
	return nil
}

// Status is the player-facing poll. It re-checks generation eligibility
// before answering so a battle that just became ready starts generating
// without any dedicated trigger endpoint.
func (s *Service) Status(ctx context.Context, battleID int64) (*StatusResponse, error) {
	if battleID <= 0 {
		return nil, fmt.Errorf("%w: battleId is required", ErrInvalidRequest)
	}
	if _, err := s.runner.MaybeStart(ctx, battleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBattleNotFound
		}
		log.Warn().
			Err(err).
			Int64("battle_id", battleID).
			Msg("generation kickoff failed")
	}

	b, err := s.store.GetBattle(ctx, battleID)
	if err != nil {
		return nil, mapBattleNotFound(err)
	}
	deposits, err := s.store.ListDeposits(ctx, battleID)
	if err != nil {
		return nil, err
	}
	prompts, err := s.store.ListPrompts(ctx, battleID)
	if err != nil {
		return nil, err
	}

	depAddrs := make([]string, 0, len(deposits))
	for _, d := range deposits {
		depAddrs = append(depAddrs, d.PlayerAddress)
	}
	promptAddrs := make([]string, 0, len(prompts))
	for _, p := range prompts {
		promptAddrs = append(promptAddrs, p.PlayerAddress)
	}

	genStatus := b.GenStatus
	if genStatus == "" {
		genStatus = store.GenIdle
	}
	return &StatusResponse{
		OK:        true,
		Status:    b.Status,
		GenStatus: genStatus,
		GenError:  b.GenError,
		P1Image:   b.P1ImageURL,
		P2Image:   b.P2ImageURL,
		Winner:    b.Winner,
		Deposits:  depAddrs,
		Prompts:   promptAddrs,
	}, nil
}

func (s *Service) State(ctx context.Context, battleID int64) (*StateResponse, error) {
	if battleID <= 0 {
		return nil, fmt.Errorf("%w: battleId is required", ErrInvalidRequest)
	}
	b, err := s.store.GetBattle(ctx, battleID)
	if err != nil {
		return nil, mapBattleNotFound(err)
	}
	deposits, err := s.store.ListDeposits(ctx, battleID)
	if err != nil {
		return nil, err
	}
	prompts, err := s.store.ListPrompts(ctx, battleID)
	if err != nil {
		return nil, err
	}

	depItems := make([]DepositItem, 0, len(deposits))
	var p1Deposited, p2Deposited bool
	for _, d := range deposits {
		depItems = append(depItems, depositItem(d))
		if strings.EqualFold(d.PlayerAddress, b.Player1) {
			p1Deposited = true
		}
		if strings.EqualFold(d.PlayerAddress, b.Player2) {
			p2Deposited = true
		}
	}
	promptItems := make([]PromptItem, 0, len(prompts))
	for _, p := range prompts {
		promptItems = append(promptItems, PromptItem{
			PlayerAddress: p.PlayerAddress,
			Prompt:        p.Prompt,
			CreatedAt:     p.CreatedAt,
		})
	}

	return &StateResponse{
		OK:       true,
		Battle:   battleItem(b),
		Deposits: depItems,
		Prompts:  promptItems,
		Computed: StateComputed{
			P1Deposited:   p1Deposited,
			P2Deposited:   p2Deposited,
			BothDeposited: len(deposits) >= 2,
			PromptsCount:  len(prompts),
		},
	}, nil
}

func (s *Service) List(ctx context.Context, status string, limit int) (*ListResponse, error) {
	battles, err := s.store.ListBattles(ctx, status, limit)
	if err != nil {
		return nil, err
	}
	items := make([]BattleItem, 0, len(battles))
	for i := range battles {
		items = append(items, battleItem(&battles[i]))
	}
	return &ListResponse{OK: true, Items: items}, nil
}

func (s *Service) Deposits(ctx context.Context, battleID int64) (*DepositsResponse, error) {
	if battleID <= 0 {
		return nil, fmt.Errorf("%w: battleId is required", ErrInvalidRequest)
	}
	deposits, err := s.store.ListDeposits(ctx, battleID)
	if err != nil {
		return nil, err
	}
	items := make([]DepositItem, 0, len(deposits))
	for _, d := range deposits {
		items = append(items, depositItem(d))
	}
	return &DepositsResponse{OK: true, Items: items}, nil
}

// Close finishes the battle. The winner must be one of the two players.
func (s *Service) Close(ctx context.Context, battleID int64, winner string) (*CloseResponse, error) {
	if battleID <= 0 || winner == "" {
		return nil, fmt.Errorf("%w: battleId and winner are required", ErrInvalidRequest)
	}
	b, err := s.store.GetBattle(ctx, battleID)
	if err != nil {
		return nil, mapBattleNotFound(err)
	}
	if !strings.EqualFold(winner, b.Player1) && !strings.EqualFold(winner, b.Player2) {
		return nil, fmt.Errorf("%w: winner must be one of the players", ErrInvalidWinner)
	}
	closed, err := s.store.CloseBattle(ctx, battleID, winner)
	if err != nil {
		return nil, mapBattleNotFound(err)
	}
	s.audit(ctx, "close_battle", battleID, winner, nil)
	return &CloseResponse{OK: true, Battle: battleItem(closed)}, nil
}

// ResetGeneration moves a stuck or failed generation back to idle so the
// next status poll retries it. A finished generation is never reset.
func (s *Service) ResetGeneration(ctx context.Context, battleID int64) (*ResetGenerationResponse, error) {
	if battleID <= 0 {
		return nil, fmt.Errorf("%w: battleId is required", ErrInvalidRequest)
	}
	if _, err := s.store.GetBattle(ctx, battleID); err != nil {
		return nil, mapBattleNotFound(err)
	}
	reset, err := s.store.ResetGeneration(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if reset {
		s.audit(ctx, "reset_generation", battleID, "", nil)
	}
	return &ResetGenerationResponse{OK: true, Reset: reset}, nil
}

func (s *Service) getBattleForPlayer(ctx context.Context, battleID int64, address string) (*store.Battle, error) {
	b, err := s.store.GetBattle(ctx, battleID)
	if err != nil {
		return nil, mapBattleNotFound(err)
	}
	if !strings.EqualFold(address, b.Player1) && !strings.EqualFold(address, b.Player2) {
		return nil, fmt.Errorf("%w: address is not a player of this battle", ErrNotAPlayer)
	}
	return b, nil
}

// audit is best effort. A broken audit table must not fail the request.
func (s *Service) audit(ctx context.Context, tag string, battleID int64, address string, payload any) {
	if err := s.store.InsertAudit(ctx, tag, battleID, address, payload); err != nil {
		log.Warn().
			Err(err).
			Str("tag", tag).
			Int64("battle_id", battleID).
			Msg("audit insert failed")
	}
}

func mapBattleNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrBattleNotFound
	}
	return err
}

func depositItem(d store.Deposit) DepositItem {
	return DepositItem{
		PlayerAddress: d.PlayerAddress,
		Amount:        d.Amount,
		TxHash:        d.TxHash,
		ChainID:       d.ChainID,
		Status:        d.Status,
		CreatedAt:     d.CreatedAt,
	}
}

func battleItem(b *store.Battle) BattleItem {
	genStatus := b.GenStatus
	if genStatus == "" {
		genStatus = store.GenIdle
	}
	return BattleItem{
		ID:        b.ID,
		Player1:   b.Player1,
		Player2:   b.Player2,
		Stake:     b.Stake,
		Status:    b.Status,
		Winner:    b.Winner,
		GenStatus: genStatus,
		GenError:  b.GenError,
		P1Image:   b.P1ImageURL,
		P2Image:   b.P2ImageURL,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}
