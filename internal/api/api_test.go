package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mabello/bodega/internal/db"
	"github.com/mabello/bodega/internal/model"
	"github.com/mabello/bodega/internal/store"
)

const (
	testJWTSecret = "test-secret"
	testBaseURL   = "https://bodega.example.com"
)

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	server := httptest.NewServer(NewRouter(database, testJWTSecret, testBaseURL))
	t.Cleanup(server.Close)
	return server, database
}

// loginAs creates a user with the given roles and returns a bearer token.
func loginAs(t *testing.T, server *httptest.Server, database *sql.DB, username string, roles ...string) string {
	t.Helper()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if _, err := store.CreateUser(context.Background(), database, username, string(hash), roles); err != nil {
		t.Fatalf("creating %s: %v", username, err)
	}

	body, _ := json.Marshal(map[string]string{"username": username, "password": "password123"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login as %s failed: %d", username, resp.StatusCode)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return loginResp.Token
}

func doJSON(t *testing.T, method, url, token string, body any, out any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp
}

func TestLoginEndpoint(t *testing.T) {
	server, database := setupTestServer(t)
	loginAs(t, server, database, "admin", model.RoleAdmin)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDisabledAccountCannotLogin(t *testing.T) {
	server, database := setupTestServer(t)
	ctx := context.Background()

	loginAs(t, server, database, "ana", model.RoleAdmin)
	user, _ := store.GetUserByUsername(ctx, database, "ana")
	store.SetUserDisabled(ctx, database, user.ID, true)

	body, _ := json.Marshal(map[string]string{"username": "ana", "password": "password123"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for disabled account, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	server, _ := setupTestServer(t)

	for _, path := range []string{"/api/inventory", "/api/transfers", "/api/users"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestRoleEnforcement(t *testing.T) {
	server, database := setupTestServer(t)
	carrierToken := loginAs(t, server, database, "tomas", model.RoleCarrier)

	// Carriers cannot manage users.
	resp := doJSON(t, "GET", server.URL+"/api/users", carrierToken, nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 listing users as carrier, got %d", resp.StatusCode)
	}

	// Carriers cannot adjust stock directly.
	resp = doJSON(t, "POST", server.URL+"/api/inventory/receive", carrierToken,
		map[string]any{"product_id": 1, "branch_id": 1, "quantity": 5}, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 receiving stock as carrier, got %d", resp.StatusCode)
	}

	// But carriers can read inventory.
	resp = doJSON(t, "GET", server.URL+"/api/inventory", carrierToken, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 reading inventory as carrier, got %d", resp.StatusCode)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	server, database := setupTestServer(t)
	token := loginAs(t, server, database, "ana", model.RoleAdmin)

	resp := doJSON(t, "POST", server.URL+"/api/auth/logout", token, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, "GET", server.URL+"/api/inventory", token, nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with revoked token, got %d", resp.StatusCode)
	}
}

func TestSuperAccountProtected(t *testing.T) {
	server, database := setupTestServer(t)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	superdev, _ := store.CreateUser(ctx, database, model.SuperUsername, string(hash), []string{model.RoleDeveloper})

	adminToken := loginAs(t, server, database, "ana", model.RoleAdmin)

	resp := doJSON(t, "PUT", fmt.Sprintf("%s/api/users/%d/password", server.URL, superdev.ID),
		adminToken, map[string]string{"new_password": "newpassword"}, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 resetting maintenance account password, got %d", resp.StatusCode)
	}

	resp = doJSON(t, "DELETE", fmt.Sprintf("%s/api/users/%d", server.URL, superdev.ID),
		adminToken, nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 deleting maintenance account, got %d", resp.StatusCode)
	}

	// The developer role cannot be granted to regular users.
	resp = doJSON(t, "POST", server.URL+"/api/users", adminToken,
		map[string]any{"username": "bob", "password": "password123", "roles": []string{model.RoleDeveloper}}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 granting developer role, got %d", resp.StatusCode)
	}
}

func TestTransferAPILifecycle(t *testing.T) {
	server, database := setupTestServer(t)

	adminToken := loginAs(t, server, database, "ana", model.RoleAdmin)
	carrierToken := loginAs(t, server, database, "tomas", model.RoleCarrier)
	clerkToken := loginAs(t, server, database, "carlos")

	// Admin sets up branches, a product, and stock.
	var from, to model.Branch
	resp := doJSON(t, "POST", server.URL+"/api/branches", adminToken,
		map[string]string{"name": "Central", "country": "ES", "type": model.BranchTypeWarehouse}, &from)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating branch: expected 201, got %d", resp.StatusCode)
	}
	resp = doJSON(t, "POST", server.URL+"/api/branches", adminToken,
		map[string]string{"name": "Madrid", "country": "ES", "type": model.BranchTypeStore}, &to)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating branch: expected 201, got %d", resp.StatusCode)
	}

	var product model.Product
	resp = doJSON(t, "POST", server.URL+"/api/products", adminToken,
		map[string]string{"name": "Widget", "code": "WID1"}, &product)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating product: expected 201, got %d", resp.StatusCode)
	}

	resp = doJSON(t, "POST", server.URL+"/api/inventory/receive", adminToken,
		map[string]any{"product_id": product.ID, "branch_id": from.ID, "quantity": 10}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("receiving stock: expected 200, got %d", resp.StatusCode)
	}

	// A clerk with no roles can request a transfer.
	var created struct {
		model.Transfer
		ShareURL   string `json:"share_url"`
		NextStatus string `json:"next_status"`
	}
	resp = doJSON(t, "POST", server.URL+"/api/transfers", clerkToken, map[string]any{
		"from_branch_id": from.ID,
		"to_branch_id":   to.ID,
		"lines":          []map[string]any{{"product_id": product.ID, "quantity": 4, "unit_price": 2.5}},
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating transfer: expected 201, got %d", resp.StatusCode)
	}
	if created.Status != model.TransferPending {
		t.Fatalf("expected pending, got %s", created.Status)
	}
	if created.ShareURL != testBaseURL+"/t/"+created.Reference {
		t.Errorf("unexpected share URL: %s", created.ShareURL)
	}
	if created.NextStatus != "" {
		t.Errorf("clerk should see no next status, got %s", created.NextStatus)
	}

	// The pending queue shows it.
	var count struct {
		Count int `json:"count"`
	}
	doJSON(t, "GET", server.URL+"/api/transfers/pending/count", adminToken, nil, &count)
	if count.Count != 1 {
		t.Errorf("expected 1 pending, got %d", count.Count)
	}

	// The clerk cannot advance it.
	url := fmt.Sprintf("%s/api/transfers/%d/advance", server.URL, created.ID)
	resp = doJSON(t, "POST", url, clerkToken, nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 advancing as clerk, got %d", resp.StatusCode)
	}

	// Carrier picks it up.
	var advanced struct {
		model.Transfer
	}
	resp = doJSON(t, "POST", url, carrierToken, nil, &advanced)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("carrier advance: expected 200, got %d", resp.StatusCode)
	}
	if advanced.Status != model.TransferInTransit {
		t.Fatalf("expected in_transit, got %s", advanced.Status)
	}

	// Admin receives it, moving the stock.
	resp = doJSON(t, "POST", url, adminToken, nil, &advanced)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin advance: expected 200, got %d", resp.StatusCode)
	}
	if advanced.Status != model.TransferReceived {
		t.Fatalf("expected received, got %s", advanced.Status)
	}

	var entries []model.InventoryEntry
	doJSON(t, "GET", fmt.Sprintf("%s/api/branches/%d/inventory", server.URL, to.ID), adminToken, nil, &entries)
	if len(entries) != 1 || entries[0].Quantity != 4 {
		t.Errorf("expected destination at 4, got %v", entries)
	}

	// The queue is empty again.
	doJSON(t, "GET", server.URL+"/api/transfers/pending/count", adminToken, nil, &count)
	if count.Count != 0 {
		t.Errorf("expected 0 pending, got %d", count.Count)
	}

	// The handoff reference resolves.
	var byRef struct {
		model.Transfer
	}
	resp = doJSON(t, "GET", server.URL+"/api/transfers/ref/"+created.Reference, clerkToken, nil, &byRef)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("by reference: expected 200, got %d", resp.StatusCode)
	}
	if byRef.ID != created.ID {
		t.Errorf("expected transfer %d, got %d", created.ID, byRef.ID)
	}

	// Summary reflects the terminal receipt.
	var summary map[string]int
	doJSON(t, "GET", server.URL+"/api/transfers/summary", adminToken, nil, &summary)
	if summary[model.TransferReceived] != 1 {
		t.Errorf("unexpected summary: %v", summary)
	}
}

func TestCancelTransferAPI(t *testing.T) {
	server, database := setupTestServer(t)
	ctx := context.Background()

	adminToken := loginAs(t, server, database, "ana", model.RoleAdmin)
	admin, _ := store.GetUserByUsername(ctx, database, "ana")

	from, _ := store.CreateBranch(ctx, database, "Central", "ES", "", model.BranchTypeWarehouse)
	to, _ := store.CreateBranch(ctx, database, "Madrid", "ES", "", model.BranchTypeStore)
	product, _ := store.CreateProduct(ctx, database, "Widget", "WID1", "", "")
	store.Credit(ctx, database, product.ID, from.ID, 10)

	transfer, err := store.CreateTransfer(ctx, database, from.ID, to.ID, "", admin.ID,
		[]model.TransferLine{{ProductID: product.ID, Quantity: 2}})
	if err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}

	var cancelled struct {
		model.Transfer
	}
	url := fmt.Sprintf("%s/api/transfers/%d/cancel", server.URL, transfer.ID)
	resp := doJSON(t, "POST", url, adminToken, nil, &cancelled)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", resp.StatusCode)
	}
	if cancelled.Status != model.TransferCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}

	// Stock untouched.
	quantity, _ := store.GetQuantity(ctx, database, product.ID, from.ID)
	if quantity != 10 {
		t.Errorf("expected stock at 10, got %d", quantity)
	}
}

func TestInsufficientStockSurfacesConflict(t *testing.T) {
	server, database := setupTestServer(t)
	ctx := context.Background()

	adminToken := loginAs(t, server, database, "ana", model.RoleAdmin)

	from, _ := store.CreateBranch(ctx, database, "Central", "ES", "", model.BranchTypeWarehouse)
	to, _ := store.CreateBranch(ctx, database, "Madrid", "ES", "", model.BranchTypeStore)
	product, _ := store.CreateProduct(ctx, database, "Widget", "WID1", "", "")
	store.Credit(ctx, database, product.ID, from.ID, 3)

	resp := doJSON(t, "POST", server.URL+"/api/transfers", adminToken, map[string]any{
		"from_branch_id": from.ID,
		"to_branch_id":   to.ID,
		"lines":          []map[string]any{{"product_id": product.ID, "quantity": 5}},
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for insufficient stock, got %d", resp.StatusCode)
	}
}
