package integration

import (
	"net/http"
	"testing"

	"github.com/obligent/obligent/internal/adapter/http/dto"
)

func TestAccountProvisioning(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	e := newEnv(t)

	t.Run("create account", func(t *testing.T) {
		var resp dto.AccountResponse
		code := e.request(t, http.MethodPost, "/api/v1/accounts/", map[string]any{
			"id":     "acc_alice",
			"name":   "Alice",
			"ledger": "TRUST",
			"class":  "asset",
		}, &resp)

		if code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %+v", code, resp)
		}

		if resp.ID != "acc_alice" || !resp.Active || !resp.Balance.IsZero() {
			t.Fatalf("unexpected account %+v", resp)
		}
	})

	t.Run("duplicate account conflicts", func(t *testing.T) {
		var resp dto.ErrorResponse
		code := e.request(t, http.MethodPost, "/api/v1/accounts/", map[string]any{
			"id":     "acc_alice",
			"name":   "Alice Again",
			"ledger": "TRUST",
			"class":  "asset",
		}, &resp)

		if code != http.StatusConflict {
			t.Fatalf("expected 409 for duplicate id, got %d", code)
		}
	})

	t.Run("create route", func(t *testing.T) {
		var acct dto.AccountResponse
		code := e.request(t, http.MethodPost, "/api/v1/accounts/", map[string]any{
			"id":     "acc_rent",
			"name":   "Rent Obligations",
			"ledger": "TRUST",
			"class":  "obligation",
		}, &acct)
		if code != http.StatusCreated {
			t.Fatalf("failed to create obligation account: %d", code)
		}

		var route dto.RouteResponse
		code = e.request(t, http.MethodPost, "/api/v1/routes/", map[string]any{
			"purpose":               "RENT",
			"obligation_account_id": "acc_rent",
			"direction":             "outbound",
		}, &route)

		if code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %+v", code, route)
		}

		if route.Purpose != "RENT" || route.ObligationAccountID != "acc_rent" {
			t.Fatalf("unexpected route %+v", route)
		}
	})

	t.Run("route to asset account is rejected", func(t *testing.T) {
		var resp dto.ErrorResponse
		code := e.request(t, http.MethodPost, "/api/v1/routes/", map[string]any{
			"purpose":               "BROKEN",
			"obligation_account_id": "acc_alice",
			"direction":             "outbound",
		}, &resp)

		if code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for a non-obligation target, got %d", code)
		}
	})

	t.Run("deactivate account", func(t *testing.T) {
		var resp dto.AccountResponse
		code := e.request(t, http.MethodPost, "/api/v1/accounts/acc_alice/deactivate", nil, &resp)
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}

		if resp.Active {
			t.Fatalf("expected the account deactivated, got %+v", resp)
		}
	})

	t.Run("list accounts", func(t *testing.T) {
		var resp dto.ListAccountsResponse
		code := e.request(t, http.MethodGet, "/api/v1/accounts/?limit=10", nil, &resp)
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}

		if resp.Total != 2 || len(resp.Accounts) != 2 {
			t.Fatalf("expected both accounts listed, got %+v", resp)
		}
	})
}
