//go:build integration

package integration

import (
	"net/http"
	"testing"
)

const testAPIKey = "integration-test-key"

func TestAdmin_NoAuth(t *testing.T) {
	resp := doGet(t, "/api/admin/coupons")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAdmin_InvalidKey(t *testing.T) {
	resp := doWithAuth(t, http.MethodGet, "/api/admin/coupons", nil, "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAdmin_ListCoupons(t *testing.T) {
	resp := doWithAuth(t, http.MethodGet, "/api/admin/coupons", nil, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	coupons := decodeJSON[[]couponResponse](t, resp)
	if len(coupons) < 3 {
		t.Fatalf("expected at least 3 seeded coupons, got %d", len(coupons))
	}
}

func TestAdmin_CreateAndDeleteCoupon(t *testing.T) {
	resp := doWithAuth(t, http.MethodPost, "/api/admin/coupons", map[string]any{
		"code":            "integracao15",
		"discountPercent": 15,
		"maxUses":         10,
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	created := decodeJSON[couponResponse](t, resp)
	if created.Code != "INTEGRACAO15" {
		t.Errorf("code: got %q, want INTEGRACAO15", created.Code)
	}

	del := doWithAuth(t, http.MethodDelete, "/api/admin/coupons/"+created.ID, nil, testAPIKey)
	defer del.Body.Close()

	if del.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", del.StatusCode)
	}
}

func TestAdmin_CreateCouponRejectsBothDiscounts(t *testing.T) {
	resp := doWithAuth(t, http.MethodPost, "/api/admin/coupons", map[string]any{
		"code":            "AMBOS",
		"discountPercent": 15,
		"discountAmount":  5,
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAdmin_SalesReport(t *testing.T) {
	resp := doWithAuth(t, http.MethodGet, "/api/admin/sales-report", nil, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	report := decodeJSON[salesReportResponse](t, resp)
	if report.PurchaseCount < 0 {
		t.Fatalf("purchaseCount must not be negative, got %d", report.PurchaseCount)
	}
}
