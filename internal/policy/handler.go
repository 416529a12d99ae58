package policy

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/audit"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/httpx"
)

// Handler — CRUD управления набором политик сервиса. Один и тот же
// обработчик монтируется и у продавца, и у агента; различие только в
// легальном словаре полей.
type Handler struct {
	store   *Store
	fields  FieldSet
	service string
	auditor audit.Logger
}

func NewHandler(store *Store, fields FieldSet, service string, auditor audit.Logger) *Handler {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &Handler{store: store, fields: fields, service: service, auditor: auditor}
}

// Routes монтируется как r.Mount("/policies", h.Routes()).
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})
	return r
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var p domain.Policy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	if err := h.validate(p); err != nil {
		httpx.WriteError(w, err)
		return
	}

	created, err := h.store.Create(p)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	h.audit("policy_created", created)
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var p domain.Policy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := h.validate(p); err != nil {
		httpx.WriteError(w, err)
		return
	}

	updated, err := h.store.Update(p)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	h.audit("policy_updated", updated)
	httpx.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(id); err != nil {
		httpx.WriteError(w, err)
		return
	}

	h.audit("policy_deleted", map[string]string{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) validate(p domain.Policy) error {
	if p.Name == "" {
		return fmt.Errorf("%w: policy name is required", domain.ErrValidation)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: invalid policy type %q", domain.ErrValidation, p.Type)
	}
	if !p.Condition.Operator.Valid() {
		return fmt.Errorf("%w: invalid operator %q", domain.ErrValidation, p.Condition.Operator)
	}
	if !h.fields[p.Condition.Field] {
		return fmt.Errorf("%w: field %q is not allowed here", domain.ErrValidation, p.Condition.Field)
	}
	return nil
}

func (h *Handler) audit(action string, entity interface{}) {
	h.auditor.Log(audit.Event{
		Service: h.service,
		Actor:   "operator",
		Action:  action,
		Entity:  entity,
	})
}
