package category

import (
	"net/http"

	"github.com/frahmantamala/expenseflow/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
}

func NewHandler(baseHandler *transport.BaseHandler) *Handler {
	return &Handler{BaseHandler: baseHandler}
}

// GetCategories handles GET /categories
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	all := All()
	categories := make([]CategoryResponse, len(all))
	for i, c := range all {
		categories[i] = c.ToResponse()
	}

	h.WriteJSON(w, http.StatusOK, CategoriesResponse{
		Categories: categories,
	})
}
