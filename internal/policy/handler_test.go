package policy

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
)

func newPolicyServer(t *testing.T, fields FieldSet) (*httptest.Server, *Store) {
	t.Helper()
	store := NewStore()
	srv := httptest.NewServer(NewHandler(store, fields, "seller", nil).Routes())
	t.Cleanup(srv.Close)
	return srv, store
}

func postPolicy(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url+"/", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPolicyHandlerCRUD(t *testing.T) {
	t.Parallel()

	srv, store := newPolicyServer(t, SellerFields)

	valid := domain.Policy{
		Name:    "quantity-cap",
		Type:    domain.PolicyAutoReject,
		Enabled: true,
		Condition: domain.Condition{
			Field:    domain.FieldQuantity,
			Operator: domain.OpGreaterThan,
			Value:    2,
		},
	}

	t.Run("create", func(t *testing.T) {
		resp := postPolicy(t, srv.URL, valid)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		var created domain.Policy
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if created.ID == "" || created.CreatedAt.IsZero() {
			t.Fatalf("expected server-assigned id and timestamp, got %+v", created)
		}
	})

	t.Run("create rejects unknown type", func(t *testing.T) {
		bad := valid
		bad.Type = domain.PolicyType("escalate")
		if resp := postPolicy(t, srv.URL, bad); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("create rejects field outside vocabulary", func(t *testing.T) {
		// wallet_balance есть только в словаре агента
		bad := valid
		bad.Condition.Field = domain.FieldWallet
		if resp := postPolicy(t, srv.URL, bad); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for agent-only field at the seller, got %d", resp.StatusCode)
		}
	})

	t.Run("get unknown policy", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/no-such-id")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("update and delete", func(t *testing.T) {
		created, err := store.Create(valid)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}

		updated := created
		updated.Enabled = false
		raw, _ := json.Marshal(updated)
		req, _ := http.NewRequest(http.MethodPut, srv.URL+"/"+created.ID, bytes.NewReader(raw))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("put: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		got, err := store.Get(created.ID)
		if err != nil || got.Enabled {
			t.Fatalf("expected disabled policy after update, got %+v %v", got, err)
		}
		if !got.CreatedAt.Equal(created.CreatedAt) {
			t.Fatalf("update must preserve creation time")
		}

		req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/"+created.ID, nil)
		resp, err = http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", resp.StatusCode)
		}
		if _, err := store.Get(created.ID); err == nil {
			t.Fatalf("expected policy gone after delete")
		}
	})

	t.Run("agent vocabulary accepts wallet field", func(t *testing.T) {
		agentSrv, _ := newPolicyServer(t, AgentFields)

		p := valid
		p.Condition.Field = domain.FieldWallet
		if resp := postPolicy(t, agentSrv.URL, p); resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201 at the agent, got %d", resp.StatusCode)
		}
	})
}
