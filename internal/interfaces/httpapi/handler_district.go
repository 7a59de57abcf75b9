package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) ListDistricts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDistricts")
	defer span.End()

	zip := strings.TrimSpace(r.URL.Query().Get("zip"))
	districts, err := h.gradebook.Districts(ctx, zip)
	if err != nil {
		h.logger.WarnContext(ctx, "list districts failed", "zip", zip, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]districtDTO, 0, len(districts))
	for _, d := range districts {
		items = append(items, districtToDTO(d))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
