package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/atk-inventory/internal/domain/items"
	"github.com/Spok95/atk-inventory/internal/domain/users"
	"github.com/Spok95/atk-inventory/internal/ledger"
	"github.com/Spok95/atk-inventory/internal/storage/memory"
)

func TestAtomicRollsBackOnError(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	var id int64
	err := store.Atomic(ctx, func(tx ledger.Tx) error {
		it, err := tx.InsertItem(ctx, items.Item{Name: "Gunting", Unit: "Pcs"})
		if err != nil {
			return err
		}
		id = it.ID
		return nil
	})
	if err != nil {
		t.Fatalf("Atomic: %v", err)
	}

	boom := errors.New("boom")
	err = store.Atomic(ctx, func(tx ledger.Tx) error {
		if err := tx.SetItemStock(ctx, id, 99); err != nil {
			return err
		}
		if _, err := tx.InsertItem(ctx, items.Item{Name: "Cutter", Unit: "Pcs"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	it, err := store.GetItem(ctx, id)
	if err != nil || it == nil {
		t.Fatalf("GetItem: %v, %v", it, err)
	}
	if it.Stock != 0 {
		t.Fatalf("stock = %d, want 0 (write rolled back)", it.Stock)
	}
	list, _ := store.ListItems(ctx)
	if len(list) != 1 {
		t.Fatalf("got %d items, want 1 (insert rolled back)", len(list))
	}
}

func TestAtomicHonorsCancelledContext(t *testing.T) {
	store := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Atomic(ctx, func(tx ledger.Tx) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestUserLookupByUsername(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	u, err := store.CreateUser(ctx, users.User{Username: "admin", FullName: "Administrator", Role: users.RoleAdmin})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("user id not assigned")
	}

	got, err := store.GetUserByUsername(ctx, "admin")
	if err != nil || got == nil {
		t.Fatalf("GetUserByUsername: %v, %v", got, err)
	}
	if got.ID != u.ID {
		t.Fatalf("id = %d, want %d", got.ID, u.ID)
	}

	missing, err := store.GetUserByUsername(ctx, "nobody")
	if err != nil || missing != nil {
		t.Fatalf("missing lookup = %v, %v, want nil, nil", missing, err)
	}
}
