package products

import (
	"strings"

	"github.com/odyssey-erp/boutique/internal/shared"
	"github.com/odyssey-erp/boutique/internal/store"
)

func validate(in ProductInput, state store.State, self store.ID) error {
	fields := shared.Validate(in)
	if fields == nil {
		fields = shared.FieldErrors{}
	}
	if in.Category != "" && !state.HasCategory(in.Category) {
		fields["category"] = "unknown category"
	}
	if sku := strings.TrimSpace(in.SKU); sku != "" {
		for _, p := range state.Products {
			if p.ID != self && strings.EqualFold(p.SKU, sku) {
				fields["sku"] = "already used by " + p.Name
				break
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
