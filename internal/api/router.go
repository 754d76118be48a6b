package api

import (
	"database/sql"
	"net/http"

	"github.com/mabello/bodega/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret, baseURL string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	branchesHandler := &BranchesHandler{DB: db}
	productsHandler := &ProductsHandler{DB: db}
	inventoryHandler := &InventoryHandler{DB: db}
	transfersHandler := &TransfersHandler{DB: db, BaseURL: baseURL}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireAnyRole(model.RoleAdmin)
	requireApprover := RequireAnyRole(model.RoleAdmin, model.RoleSupervisor)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}/roles", authMW(requireAdmin(http.HandlerFunc(usersHandler.SetRoles))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("PUT /api/users/{id}/disabled", authMW(requireAdmin(http.HandlerFunc(usersHandler.SetDisabled))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Branches: read (all roles), write (admin/supervisor).
	mux.Handle("GET /api/branches", authMW(http.HandlerFunc(branchesHandler.List)))
	mux.Handle("POST /api/branches", authMW(requireApprover(http.HandlerFunc(branchesHandler.Create))))
	mux.Handle("GET /api/branches/{id}", authMW(http.HandlerFunc(branchesHandler.Get)))
	mux.Handle("PUT /api/branches/{id}", authMW(requireApprover(http.HandlerFunc(branchesHandler.Update))))
	mux.Handle("DELETE /api/branches/{id}", authMW(requireAdmin(http.HandlerFunc(branchesHandler.Delete))))
	mux.Handle("GET /api/branches/{id}/inventory", authMW(http.HandlerFunc(branchesHandler.Inventory)))

	// Products: read (all roles), write (admin/supervisor).
	mux.Handle("GET /api/products", authMW(http.HandlerFunc(productsHandler.List)))
	mux.Handle("POST /api/products", authMW(requireApprover(http.HandlerFunc(productsHandler.Create))))
	mux.Handle("GET /api/products/{id}", authMW(http.HandlerFunc(productsHandler.Get)))
	mux.Handle("PUT /api/products/{id}", authMW(requireApprover(http.HandlerFunc(productsHandler.Update))))
	mux.Handle("DELETE /api/products/{id}", authMW(requireAdmin(http.HandlerFunc(productsHandler.Delete))))
	mux.Handle("GET /api/products/{id}/distribution", authMW(http.HandlerFunc(productsHandler.Distribution)))
	mux.Handle("PUT /api/products/{id}/image", authMW(requireApprover(http.HandlerFunc(productsHandler.UploadImage))))
	mux.Handle("GET /api/products/{id}/image", authMW(http.HandlerFunc(productsHandler.GetImage)))

	// Inventory: read (all roles), direct adjustments (admin/supervisor).
	mux.Handle("GET /api/inventory", authMW(http.HandlerFunc(inventoryHandler.List)))
	mux.Handle("POST /api/inventory/receive", authMW(requireApprover(http.HandlerFunc(inventoryHandler.Receive))))
	mux.Handle("POST /api/inventory/dispatch", authMW(requireApprover(http.HandlerFunc(inventoryHandler.Dispatch))))

	// Transfers. Creation and reads are open to every role; advance and
	// cancel check the role gate internally per target status.
	mux.Handle("POST /api/transfers", authMW(http.HandlerFunc(transfersHandler.Create)))
	mux.Handle("GET /api/transfers", authMW(http.HandlerFunc(transfersHandler.List)))
	mux.Handle("GET /api/transfers/summary", authMW(http.HandlerFunc(transfersHandler.Summary)))
	mux.Handle("GET /api/transfers/pending", authMW(http.HandlerFunc(transfersHandler.ListPending)))
	mux.Handle("GET /api/transfers/pending/count", authMW(http.HandlerFunc(transfersHandler.CountPending)))
	mux.Handle("GET /api/transfers/ref/{reference}", authMW(http.HandlerFunc(transfersHandler.GetByReference)))
	mux.Handle("GET /api/transfers/{id}", authMW(http.HandlerFunc(transfersHandler.Get)))
	mux.Handle("POST /api/transfers/{id}/advance", authMW(http.HandlerFunc(transfersHandler.Advance)))
	mux.Handle("POST /api/transfers/{id}/cancel", authMW(http.HandlerFunc(transfersHandler.Cancel)))

	return mux
}
