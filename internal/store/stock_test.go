package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mabello/bodega/internal/db"
	"github.com/mabello/bodega/internal/model"
)

func TestCreditAndDebit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	product, _ := CreateProduct(ctx, database, "Widget", "WID1", "", "")
	branch, _ := CreateBranch(ctx, database, "Central", "ES", "", model.BranchTypeWarehouse)

	if err := Credit(ctx, database, product.ID, branch.ID, 10); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := Credit(ctx, database, product.ID, branch.ID, 5); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	quantity, err := GetQuantity(ctx, database, product.ID, branch.ID)
	if err != nil {
		t.Fatalf("GetQuantity: %v", err)
	}
	if quantity != 15 {
		t.Errorf("expected quantity 15, got %d", quantity)
	}

	if err := Debit(ctx, database, product.ID, branch.ID, 6); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	quantity, _ = GetQuantity(ctx, database, product.ID, branch.ID)
	if quantity != 9 {
		t.Errorf("expected quantity 9 after debit, got %d", quantity)
	}
}

func TestDebitInsufficient(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	product, _ := CreateProduct(ctx, database, "Widget", "WID1", "", "")
	branch, _ := CreateBranch(ctx, database, "Central", "ES", "", model.BranchTypeWarehouse)

	Credit(ctx, database, product.ID, branch.ID, 3)

	err := Debit(ctx, database, product.ID, branch.ID, 5)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}

	// The failed debit must not have touched the entry.
	quantity, _ := GetQuantity(ctx, database, product.ID, branch.ID)
	if quantity != 3 {
		t.Errorf("expected quantity 3 untouched, got %d", quantity)
	}
}

func TestDebitMissingEntry(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	product, _ := CreateProduct(ctx, database, "Widget", "WID1", "", "")
	branch, _ := CreateBranch(ctx, database, "Central", "ES", "", model.BranchTypeWarehouse)

	err := Debit(ctx, database, product.ID, branch.ID, 1)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock for missing entry, got %v", err)
	}
}

func TestDebitRejectsNonPositive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, quantity := range []int{0, -4} {
		if err := Debit(ctx, database, 1, 1, quantity); !errors.Is(err, ErrValidation) {
			t.Errorf("quantity %d: expected ErrValidation, got %v", quantity, err)
		}
		if err := Credit(ctx, database, 1, 1, quantity); !errors.Is(err, ErrValidation) {
			t.Errorf("quantity %d: expected ErrValidation, got %v", quantity, err)
		}
	}
}

func TestMove(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	product, _ := CreateProduct(ctx, database, "Widget", "WID1", "", "")
	from, _ := CreateBranch(ctx, database, "Central", "ES", "", model.BranchTypeWarehouse)
	to, _ := CreateBranch(ctx, database, "Madrid", "ES", "", model.BranchTypeStore)

	Credit(ctx, database, product.ID, from.ID, 10)

	if err := Move(ctx, database, product.ID, from.ID, to.ID, 4); err != nil {
		t.Fatalf("Move: %v", err)
	}

	fromQty, _ := GetQuantity(ctx, database, product.ID, from.ID)
	toQty, _ := GetQuantity(ctx, database, product.ID, to.ID)
	if fromQty != 6 || toQty != 4 {
		t.Errorf("expected 6/4 after move, got %d/%d", fromQty, toQty)
	}
}

func TestMoveInsufficientLeavesBothSides(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	product, _ := CreateProduct(ctx, database, "Widget", "WID1", "", "")
	from, _ := CreateBranch(ctx, database, "Central", "ES", "", model.BranchTypeWarehouse)
	to, _ := CreateBranch(ctx, database, "Madrid", "ES", "", model.BranchTypeStore)

	Credit(ctx, database, product.ID, from.ID, 2)

	err := Move(ctx, database, product.ID, from.ID, to.ID, 5)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	fromQty, _ := GetQuantity(ctx, database, product.ID, from.ID)
	toQty, _ := GetQuantity(ctx, database, product.ID, to.ID)
	if fromQty != 2 || toQty != 0 {
		t.Errorf("expected 2/0 after failed move, got %d/%d", fromQty, toQty)
	}
}

func TestMoveToSelfRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := Move(ctx, database, 1, 2, 2, 1); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

// Two concurrent debits against stock that only covers one of them:
// exactly one must succeed.
func TestConcurrentDebits(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	product, _ := CreateProduct(ctx, database, "Widget", "WID1", "", "")
	branch, _ := CreateBranch(ctx, database, "Central", "ES", "", model.BranchTypeWarehouse)

	Credit(ctx, database, product.ID, branch.ID, 10)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Debit(ctx, database, product.ID, branch.ID, 7)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrInsufficientStock) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly one debit to succeed, got %d", succeeded)
	}

	quantity, _ := GetQuantity(ctx, database, product.ID, branch.ID)
	if quantity != 3 {
		t.Errorf("expected quantity 3, got %d", quantity)
	}
}
