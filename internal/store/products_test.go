package store

import (
	"context"
	"errors"
	"testing"

	"github.com/mabello/bodega/internal/db"
)

func TestCreateProduct(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	product, err := CreateProduct(ctx, database, "Widget", "wid1", "tools", "a widget")
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if product.Code != "WID1" {
		t.Errorf("expected code normalized to WID1, got %s", product.Code)
	}
	if product.Category != "tools" {
		t.Errorf("expected category tools, got %s", product.Category)
	}

	if _, err := CreateProduct(ctx, database, "", "GAD1", "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty name, got %v", err)
	}
	if _, err := CreateProduct(ctx, database, "Bad", "TOOLONG", "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for bad code, got %v", err)
	}
	if _, err := CreateProduct(ctx, database, "Dup", "WID1", "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for duplicate code, got %v", err)
	}
}

func TestDeletedProductFreesCode(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	product, _ := CreateProduct(ctx, database, "Widget", "WID1", "", "")
	if err := DeleteProduct(ctx, database, product.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}

	if _, err := CreateProduct(ctx, database, "Widget v2", "WID1", "", ""); err != nil {
		t.Errorf("expected deleted product's code reusable, got %v", err)
	}
}

func TestListProductsByCategory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateProduct(ctx, database, "Widget", "WID1", "tools", "")
	CreateProduct(ctx, database, "Gadget", "GAD1", "tools", "")
	CreateProduct(ctx, database, "Tomato", "TOM1", "food", "")

	all, err := ListProducts(ctx, database, "")
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 products, got %d", len(all))
	}

	tools, _ := ListProducts(ctx, database, "tools")
	if len(tools) != 2 {
		t.Errorf("expected 2 tools, got %d", len(tools))
	}
}

func TestUpdateProductKeepsCode(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	product, _ := CreateProduct(ctx, database, "Widget", "WID1", "", "")

	if err := UpdateProduct(ctx, database, product.ID, "Widget Pro", "tools", "improved"); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}

	updated, _ := GetProduct(ctx, database, product.ID)
	if updated.Name != "Widget Pro" || updated.Code != "WID1" {
		t.Errorf("unexpected product after update: %+v", updated)
	}
}

func TestDeleteProductDropsInventory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	product, _ := CreateProduct(ctx, database, "Widget", "WID1", "", "")
	branch, _ := CreateBranch(ctx, database, "Central", "ES", "", "warehouse")
	Credit(ctx, database, product.ID, branch.ID, 5)

	if err := DeleteProduct(ctx, database, product.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}

	entries, _ := GetBranchInventory(ctx, database, branch.ID)
	if len(entries) != 0 {
		t.Errorf("expected inventory dropped with product, got %v", entries)
	}
}

func TestProductImageRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	product, _ := CreateProduct(ctx, database, "Widget", "WID1", "", "")

	if err := SetProductImage(ctx, database, product.ID, []byte{1, 2, 3}, "image/jpeg"); err != nil {
		t.Fatalf("SetProductImage: %v", err)
	}

	data, mime, err := GetProductImage(ctx, database, product.ID)
	if err != nil {
		t.Fatalf("GetProductImage: %v", err)
	}
	if len(data) != 3 || mime != "image/jpeg" {
		t.Errorf("unexpected image data: %v %s", data, mime)
	}
}
