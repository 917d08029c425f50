package expense

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/transport"
	"github.com/frahmantamala/expenseflow/pkg/logger"
	"github.com/go-chi/chi"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type ServiceAPI interface {
	Submit(ctx context.Context, p internal.Principal, dto SubmitExpenseDTO) (*Expense, error)
	ListMine(ctx context.Context, p internal.Principal, page Page) ([]*Expense, error)
	ListPending(ctx context.Context, p internal.Principal, page Page) ([]*Expense, error)
	ListAll(ctx context.Context, p internal.Principal, status Status, page Page) ([]*Expense, error)
	Get(ctx context.Context, p internal.Principal, expenseID int64) (*Expense, error)
	Approve(ctx context.Context, p internal.Principal, expenseID int64, dto DecisionDTO) (*Expense, error)
	Reject(ctx context.Context, p internal.Principal, expenseID int64, dto DecisionDTO) (*Expense, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// ListResponse wraps every expense list.
type ListResponse struct {
	Expenses []*Expense `json:"expenses"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

// SubmitExpense handles POST /expenses
func (h *Handler) SubmitExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	var dto SubmitExpenseDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	e, err := h.Service.Submit(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, e)
}

// ListMyExpenses handles GET /expenses
func (h *Handler) ListMyExpenses(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	page := pageFromQuery(r)
	expenses, err := h.Service.ListMine(r.Context(), p, page)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.writeList(w, expenses, page)
}

// ListPendingExpenses handles GET /expenses/pending
func (h *Handler) ListPendingExpenses(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	page := pageFromQuery(r)
	expenses, err := h.Service.ListPending(r.Context(), p, page)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.writeList(w, expenses, page)
}

// ListAllExpenses handles GET /expenses/all?status=
func (h *Handler) ListAllExpenses(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	var status Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, valid := ParseStatus(raw)
		if !valid {
			h.WriteAppError(w, internal.NewValidationFieldError("status", "status must be one of: pending, approved, rejected", internal.ErrCodeValidationFailed))
			return
		}
		status = parsed
	}

	page := pageFromQuery(r)
	expenses, err := h.Service.ListAll(r.Context(), p, status, page)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.writeList(w, expenses, page)
}

// GetExpense handles GET /expenses/{id}
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	expenseID, ok := h.expenseID(w, r)
	if !ok {
		return
	}

	e, err := h.Service.Get(r.Context(), p, expenseID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, e)
}

// ApproveExpense handles PATCH /expenses/{id}/approve
func (h *Handler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, DecisionApprove)
}

// RejectExpense handles PATCH /expenses/{id}/reject
func (h *Handler) RejectExpense(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, DecisionReject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, d Decision) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}

	expenseID, ok := h.expenseID(w, r)
	if !ok {
		return
	}

	// An empty body is a decision without a comment.
	var dto DecisionDTO
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil && !errors.Is(err, io.EOF) {
			h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
			return
		}
	}

	var (
		e   *Expense
		err error
	)
	switch d {
	case DecisionApprove:
		e, err = h.Service.Approve(r.Context(), p, expenseID, dto)
	case DecisionReject:
		e, err = h.Service.Reject(r.Context(), p, expenseID, dto)
	}
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) expenseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	expenseID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || expenseID <= 0 {
		h.Logger.Warn("invalid expense ID", "id", raw)
		h.WriteAppError(w, internal.NewValidationFieldError("id", "invalid expense ID", internal.ErrCodeValidationFailed))
		return 0, false
	}
	return expenseID, true
}

func (h *Handler) writeList(w http.ResponseWriter, expenses []*Expense, page Page) {
	if expenses == nil {
		expenses = []*Expense{}
	}
	h.WriteJSON(w, http.StatusOK, ListResponse{
		Expenses: expenses,
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
}

func pageFromQuery(r *http.Request) Page {
	page := Page{Limit: defaultPageLimit}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			page.Limit = min(l, maxPageLimit)
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			page.Offset = o
		}
	}

	return page
}
