package matchmaker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"prompt-battle/internal/store"
)

type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	battles map[int64]*store.Battle
	prompts map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{battles: map[int64]*store.Battle{}, prompts: map[string]string{}}
}

func (f *fakeStore) CreateBattle(_ context.Context, player1, player2 string, stake int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.battles[f.nextID] = &store.Battle{
		ID: f.nextID, Player1: player1, Player2: player2, Stake: stake,
		Status: store.BattleWaitingDeposits, GenStatus: store.GenIdle,
	}
	return f.nextID, nil
}

func (f *fakeStore) UpsertPrompt(_ context.Context, battleID int64, playerAddress, prompt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts[fmt.Sprintf("%d/%s", battleID, strings.ToLower(playerAddress))] = prompt
	return nil
}

func (f *fakeStore) FindOpenBattleByStakeAndPlayer(_ context.Context, stake int64, address string) (*store.Battle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *store.Battle
	for _, b := range f.battles {
		if b.Stake != stake || b.Status == store.BattleFinished {
			continue
		}
		if !strings.EqualFold(b.Player1, address) && !strings.EqualFold(b.Player2, address) {
			continue
		}
		if found == nil || b.ID > found.ID {
			found = b
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

func (f *fakeStore) battleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.battles)
}

func TestSubmitFirstCallerWaits(t *testing.T) {
	m := New(newFakeStore())
	res, err := m.Submit(context.Background(), "0xAAA", 5, "a castle")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Matched {
		t.Fatal("first submit should wait, got matched")
	}
	if res.QueuedAt.IsZero() {
		t.Fatal("expected queuedAt set")
	}
	if m.Waiting(5) == nil {
		t.Fatal("expected waiting slot at stake 5")
	}
}

func TestSubmitSelfMatchExcluded(t *testing.T) {
	fs := newFakeStore()
	m := New(fs)
	if _, err := m.Submit(context.Background(), "0xAAA", 1, "first"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err := m.Submit(context.Background(), "0xaaa", 1, "second")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Matched {
		t.Fatal("same address must not match itself")
	}
	if fs.battleCount() != 0 {
		t.Fatalf("expected no battles, got %d", fs.battleCount())
	}
	// re-queue replaced the slot, including the prompt
	if got := m.Waiting(1).Prompt; got != "second" {
		t.Fatalf("slot prompt = %q, want replacement", got)
	}
}

func TestSubmitDistinctAddressesMatch(t *testing.T) {
	fs := newFakeStore()
	m := New(fs)
	if _, err := m.Submit(context.Background(), "0xAAA", 10, "knights"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err := m.Submit(context.Background(), "0xBBB", 10, "dragons")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Matched {
		t.Fatal("expected matched")
	}
	if res.Opponent != "0xAAA" {
		t.Fatalf("opponent = %q, want waiter", res.Opponent)
	}
	if fs.battleCount() != 1 {
		t.Fatalf("battles = %d, want 1", fs.battleCount())
	}
	if m.Waiting(10) != nil {
		t.Fatal("slot should be empty after match")
	}
	if fs.prompts[fmt.Sprintf("%d/0xaaa", res.BattleID)] != "knights" {
		t.Fatal("waiter prompt not recorded")
	}
	if fs.prompts[fmt.Sprintf("%d/0xbbb", res.BattleID)] != "dragons" {
		t.Fatal("caller prompt not recorded")
	}
}

func TestSubmitDifferentStakesDoNotMatch(t *testing.T) {
	fs := newFakeStore()
	m := New(fs)
	if _, err := m.Submit(context.Background(), "0xAAA", 1, ""); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err := m.Submit(context.Background(), "0xBBB", 5, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Matched {
		t.Fatal("different stakes must not pair")
	}
	if fs.battleCount() != 0 {
		t.Fatalf("battles = %d, want 0", fs.battleCount())
	}
}

func TestSubmitConcurrentPairCreatesOneBattle(t *testing.T) {
	for round := 0; round < 50; round++ {
		fs := newFakeStore()
		m := New(fs)
		var wg sync.WaitGroup
		results := make([]*Result, 2)
		for i, addr := range []string{"0xAAA", "0xBBB"} {
			wg.Add(1)
			go func(i int, addr string) {
				defer wg.Done()
				res, err := m.Submit(context.Background(), addr, 5, "p")
				if err != nil {
					t.Errorf("submit %s: %v", addr, err)
					return
				}
				results[i] = res
			}(i, addr)
		}
		wg.Wait()

		matched := 0
		for _, r := range results {
			if r != nil && r.Matched {
				matched++
			}
		}
		if fs.battleCount() > 1 {
			t.Fatalf("round %d: %d battles created", round, fs.battleCount())
		}
		if matched != fs.battleCount() {
			t.Fatalf("round %d: %d matched results but %d battles", round, matched, fs.battleCount())
		}
		// When both landed in waiting order (no match), one slot must remain
		// so a later submit can still pair.
		if matched == 0 && m.Waiting(5) == nil {
			t.Fatalf("round %d: no match and no waiter left", round)
		}
	}
}

func TestLookupMatchSeesBattleFormedByOpponent(t *testing.T) {
	fs := newFakeStore()
	m := New(fs)
	if _, err := m.Submit(context.Background(), "0xAAA", 5, ""); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err := m.Submit(context.Background(), "0xBBB", 5, "")
	if err != nil || !res.Matched {
		t.Fatalf("expected match, got %+v err=%v", res, err)
	}

	look, err := m.LookupMatch(context.Background(), "0xAAA", 5)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !look.Matched || look.BattleID != res.BattleID {
		t.Fatalf("lookup = %+v, want battle %d", look, res.BattleID)
	}
	if look.Opponent != "0xBBB" {
		t.Fatalf("opponent = %q", look.Opponent)
	}
}

func TestLookupMatchWaitingWhenNoBattle(t *testing.T) {
	m := New(newFakeStore())
	res, err := m.LookupMatch(context.Background(), "0xAAA", 5)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if res.Matched {
		t.Fatal("expected waiting")
	}
}

func TestResetClearsSlots(t *testing.T) {
	m := New(newFakeStore())
	if _, err := m.Submit(context.Background(), "0xAAA", 5, ""); err != nil {
		t.Fatalf("submit: %v", err)
	}
	m.Reset()
	if m.Waiting(5) != nil {
		t.Fatal("expected empty queue after reset")
	}
}
