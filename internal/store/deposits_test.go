package store_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"prompt-battle/internal/store"
	"prompt-battle/internal/testutil"
)

func TestInsertDepositIdempotent(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	id := mustCreateBattle(t, st, 1)

	first, err := st.InsertDeposit(ctx, store.Deposit{
		BattleID:      id,
		PlayerAddress: addr1,
		Amount:        "1000000",
		TxHash:        "0xaaa",
		ChainID:       5042002,
		TokenAddress:  "0xtoken",
		EscrowAddress: "0xescrow",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.Amount != "1000000" || first.Status != "confirmed" {
		t.Fatalf("unexpected deposit: %+v", first)
	}

	// second insert for the same (battle, player) loses the conflict and
	// reads back the surviving row, different tx hash and all
	second, err := st.InsertDeposit(ctx, store.Deposit{
		BattleID:      id,
		PlayerAddress: addr1,
		Amount:        "5000000",
		TxHash:        "0xbbb",
		ChainID:       5042002,
		TokenAddress:  "0xtoken",
		EscrowAddress: "0xescrow",
	})
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if second.ID != first.ID || second.TxHash != "0xaaa" || second.Amount != "1000000" {
		t.Fatalf("duplicate returned %+v, want surviving row %+v", second, first)
	}

	count, err := st.CountDeposits(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

// Uniqueness holds across case-varied spellings of the same address, not
// just exact replays, so racing confirms cannot both insert.
func TestInsertDepositCaseVariedAddressCollapses(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	id := mustCreateBattle(t, st, 1)
	first, err := st.InsertDeposit(ctx, store.Deposit{
		BattleID:      id,
		PlayerAddress: addr1,
		Amount:        "1000000",
		TxHash:        "0xaaa",
		ChainID:       5042002,
		TokenAddress:  "0xtoken",
		EscrowAddress: "0xescrow",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	second, err := st.InsertDeposit(ctx, store.Deposit{
		BattleID:      id,
		PlayerAddress: strings.ToUpper(addr1),
		Amount:        "1000000",
		TxHash:        "0xbbb",
		ChainID:       5042002,
		TokenAddress:  "0xtoken",
		EscrowAddress: "0xescrow",
	})
	if err != nil {
		t.Fatalf("case-varied insert: %v", err)
	}
	if second.ID != first.ID || second.TxHash != "0xaaa" {
		t.Fatalf("case-varied insert returned %+v, want surviving row %+v", second, first)
	}

	count, err := st.CountDeposits(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestGetDepositCaseInsensitive(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	id := mustCreateBattle(t, st, 1)
	if _, err := st.InsertDeposit(ctx, store.Deposit{
		BattleID:      id,
		PlayerAddress: addr1,
		Amount:        "1000000",
		TxHash:        "0xaaa",
		ChainID:       1,
		TokenAddress:  "0xtoken",
		EscrowAddress: "0xescrow",
	}); err != nil {
		t.Fatal(err)
	}

	d, err := st.GetDeposit(ctx, id, "0xAB5801A7D398351B8BE11C439E05C5B3259AEC9B")
	if err != nil {
		t.Fatalf("uppercase lookup: %v", err)
	}
	if d.PlayerAddress != addr1 {
		t.Fatalf("player = %q", d.PlayerAddress)
	}

	if _, err := st.GetDeposit(ctx, id, addr2); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing deposit err = %v, want ErrNotFound", err)
	}
}

func TestListDepositsOrderedByCreation(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	id := mustCreateBattle(t, st, 1)
	for i, p := range []struct{ addr, tx string }{{addr1, "0xaaa"}, {addr2, "0xbbb"}} {
		if _, err := st.InsertDeposit(ctx, store.Deposit{
			BattleID:      id,
			PlayerAddress: p.addr,
			Amount:        "1000000",
			TxHash:        p.tx,
			ChainID:       1,
			TokenAddress:  "0xtoken",
			EscrowAddress: "0xescrow",
		}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	items, err := st.ListDeposits(ctx, id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d", len(items))
	}
	if items[0].PlayerAddress != addr1 || items[1].PlayerAddress != addr2 {
		t.Fatalf("order = %s, %s", items[0].PlayerAddress, items[1].PlayerAddress)
	}
}
