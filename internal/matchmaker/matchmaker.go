// Package matchmaker pairs players by stake size. Each stake value owns a
// single in-memory waiting slot; the slot is a rendezvous point, never the
// source of truth for a formed battle.
package matchmaker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"prompt-battle/internal/store"
)

// Store is the durable side of matchmaking. *store.Store satisfies it.
type Store interface {
	CreateBattle(ctx context.Context, player1, player2 string, stake int64) (int64, error)
	UpsertPrompt(ctx context.Context, battleID int64, playerAddress, prompt string) error
	FindOpenBattleByStakeAndPlayer(ctx context.Context, stake int64, address string) (*store.Battle, error)
}

type WaitingEntry struct {
	Address  string
	Prompt   string
	QueuedAt time.Time
}

type Result struct {
	Matched  bool
	BattleID int64
	Opponent string
	QueuedAt time.Time
}

type Matchmaker struct {
	store Store

	mu      sync.Mutex
	waiting map[int64]*WaitingEntry
}

func New(st Store) *Matchmaker {
	return &Matchmaker{
		store:   st,
		waiting: map[int64]*WaitingEntry{},
	}
}

// Submit queues the caller at the given stake or, when a different address
// is already waiting there, pops the waiter and creates the battle. The
// slot check-and-set happens under the lock; the battle insert happens
// after release so a slow store never blocks other stakes.
func (m *Matchmaker) Submit(ctx context.Context, address string, stake int64, prompt string) (*Result, error) {
	if address == "" || stake <= 0 {
		return nil, errors.New("address and stake are required")
	}

	m.mu.Lock()
	waiter := m.waiting[stake]
	if waiter == nil || strings.EqualFold(waiter.Address, address) {
		entry := &WaitingEntry{Address: address, Prompt: prompt, QueuedAt: time.Now()}
		m.waiting[stake] = entry
		m.mu.Unlock()
		return &Result{QueuedAt: entry.QueuedAt}, nil
	}
	delete(m.waiting, stake)
	m.mu.Unlock()

	battleID, err := m.store.CreateBattle(ctx, waiter.Address, address, stake)
	if err != nil {
		return nil, err
	}
	if waiter.Prompt != "" {
		if err := m.store.UpsertPrompt(ctx, battleID, waiter.Address, waiter.Prompt); err != nil {
			return nil, err
		}
	}
	if prompt != "" {
		if err := m.store.UpsertPrompt(ctx, battleID, address, prompt); err != nil {
			return nil, err
		}
	}
	return &Result{Matched: true, BattleID: battleID, Opponent: waiter.Address}, nil
}

// LookupMatch is the non-mutating poll for a caller stuck in waiting: it
// answers from the store, so a match formed by the opponent's submit is
// visible even though this process never touched the slot.
func (m *Matchmaker) LookupMatch(ctx context.Context, address string, stake int64) (*Result, error) {
	if address == "" || stake <= 0 {
		return nil, errors.New("address and stake are required")
	}
	b, err := m.store.FindOpenBattleByStakeAndPlayer(ctx, stake, address)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &Result{}, nil
		}
		return nil, err
	}
	opponent := b.Player1
	if strings.EqualFold(b.Player1, address) {
		opponent = b.Player2
	}
	return &Result{Matched: true, BattleID: b.ID, Opponent: opponent}, nil
}

// Waiting reports the current slot for a stake, mainly for tests and debug
// endpoints.
func (m *Matchmaker) Waiting(stake int64) *WaitingEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiting[stake]
}

// Reset drops all waiting slots. Called on shutdown and between tests.
func (m *Matchmaker) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waiting = map[int64]*WaitingEntry{}
}
