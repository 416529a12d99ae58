package seller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/fuzz"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/policy"
)

func newSellerServer(t *testing.T, cfg Config, reviewGate *fuzz.Gate) (*httptest.Server, *ledgerFixture) {
	t.Helper()

	fx := newLedgerFixture(t, cfg, fuzz.Disabled(), reviewGate)
	catalog := fx.ledger.catalog

	policyHandler := policy.NewHandler(fx.policies, policy.SellerFields, "seller", nil)
	srv := httptest.NewServer(NewServer(zap.NewNop(), NewHandler(fx.ledger, catalog), policyHandler, nil))
	t.Cleanup(srv.Close)
	return srv, fx
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeOrder(t *testing.T, resp *http.Response) domain.Order {
	t.Helper()
	var o domain.Order
	if err := json.NewDecoder(resp.Body).Decode(&o); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	return o
}

func TestSellerHTTP(t *testing.T) {
	t.Parallel()

	t.Run("place order end to end", func(t *testing.T) {
		srv, _ := newSellerServer(t, Config{}, fuzz.Disabled())

		resp := postJSON(t, srv.URL+"/order", PlaceRequest{AccountID: "acc-1", SKU: "X", Quantity: 3})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		order := decodeOrder(t, resp)
		if order.Status != domain.StatusDelivered {
			t.Fatalf("expected delivered, got %s", order.Status)
		}
	})

	t.Run("rejected order still returns 201", func(t *testing.T) {
		srv, fx := newSellerServer(t, Config{}, fuzz.Disabled())
		enableRejectOnQuantity(t, fx.policies, 1)

		resp := postJSON(t, srv.URL+"/order", PlaceRequest{AccountID: "acc-1", SKU: "X", Quantity: 2})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("rejection is a recorded outcome, not a request failure: got %d", resp.StatusCode)
		}
		order := decodeOrder(t, resp)
		if order.Status != domain.StatusError {
			t.Fatalf("expected error status, got %s", order.Status)
		}
	})

	t.Run("error statuses map to the taxonomy", func(t *testing.T) {
		srv, _ := newSellerServer(t, Config{}, fuzz.Disabled())

		// 404: неизвестный товар
		resp := postJSON(t, srv.URL+"/order", PlaceRequest{AccountID: "acc-1", SKU: "NOPE", Quantity: 1})
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 for unknown sku, got %d", resp.StatusCode)
		}

		// 400: невалидное количество
		resp = postJSON(t, srv.URL+"/order", PlaceRequest{AccountID: "acc-1", SKU: "X", Quantity: 0})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for zero quantity, got %d", resp.StatusCode)
		}

		// 404: переход несуществующего заказа
		resp = postJSON(t, srv.URL+"/approve", map[string]string{"orderId": "missing"})
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 for unknown order, got %d", resp.StatusCode)
		}
	})

	t.Run("approve pending order over http", func(t *testing.T) {
		srv, _ := newSellerServer(t, Config{ProgressiveConfirmation: true}, fuzz.Disabled())

		resp := postJSON(t, srv.URL+"/order", PlaceRequest{AccountID: "acc-1", SKU: "X", Quantity: 1})
		order := decodeOrder(t, resp)
		if order.Status != domain.StatusPendingConfirmation {
			t.Fatalf("expected pending, got %s", order.Status)
		}

		resp = postJSON(t, srv.URL+"/approve", map[string]string{"orderId": order.ID})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var body struct {
			Message string       `json:"message"`
			Order   domain.Order `json:"order"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Order.Status != domain.StatusDelivered {
			t.Fatalf("expected delivered after approve, got %s", body.Order.Status)
		}

		// Повторный approve — недопустимый переход
		resp = postJSON(t, srv.URL+"/approve", map[string]string{"orderId": order.ID})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 on double approve, got %d", resp.StatusCode)
		}
	})

	t.Run("orders filtered by status", func(t *testing.T) {
		srv, _ := newSellerServer(t, Config{}, fuzz.Disabled())
		postJSON(t, srv.URL+"/order", PlaceRequest{AccountID: "acc-1", SKU: "X", Quantity: 1})

		resp, err := http.Get(srv.URL + "/orders/delivered")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		defer resp.Body.Close()
		var orders []domain.Order
		if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(orders) != 1 {
			t.Fatalf("expected 1 delivered order, got %d", len(orders))
		}

		resp, err = http.Get(srv.URL + "/orders/bogus")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown status, got %d", resp.StatusCode)
		}
	})

	t.Run("product management", func(t *testing.T) {
		srv, _ := newSellerServer(t, Config{}, fuzz.Disabled())

		resp := postJSON(t, srv.URL+"/products", domain.Product{
			SKU: "NEW1", Description: "New widget", Price: decimal.NewFromInt(15),
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		// Дубликат SKU
		resp = postJSON(t, srv.URL+"/products", domain.Product{
			SKU: "NEW1", Description: "Duplicate", Price: decimal.NewFromInt(1),
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for duplicate sku, got %d", resp.StatusCode)
		}

		// Новый товар заказываем
		orderResp := postJSON(t, srv.URL+"/order", PlaceRequest{AccountID: "acc-1", SKU: "NEW1", Quantity: 2})
		order := decodeOrder(t, orderResp)
		if !order.TotalPrice.Equal(decimal.NewFromInt(30)) {
			t.Fatalf("expected total 30, got %s", order.TotalPrice)
		}

		req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/products/NEW1", nil)
		delResp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		delResp.Body.Close()
		if delResp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", delResp.StatusCode)
		}
	})

	t.Run("stats shape", func(t *testing.T) {
		srv, _ := newSellerServer(t, Config{}, fuzz.Disabled())
		postJSON(t, srv.URL+"/order", PlaceRequest{AccountID: "acc-1", SKU: "X", Quantity: 2})

		resp, err := http.Get(srv.URL + "/stats")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		defer resp.Body.Close()

		var stats Stats
		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if stats.TotalOrders != 1 || !stats.TotalRevenue.Equal(decimal.NewFromInt(20)) {
			t.Fatalf("unexpected stats: %+v", stats)
		}
	})

	t.Run("health", func(t *testing.T) {
		srv, _ := newSellerServer(t, Config{}, fuzz.Disabled())
		resp, err := http.Get(srv.URL + "/health")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	})
}
