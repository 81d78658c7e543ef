package products

import (
	"encoding/json"
	"strconv"

	"github.com/lmdelacruz/evride-storefront/pkg/numeric"
)

// Product is a catalog entry owned by the commerce backend. The gateway
// reads it and, in admin flows, submits full or partial replacements.
type Product struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Price          float64        `json:"price"`
	OriginalPrice  float64        `json:"original_price,omitempty"`
	Category       string         `json:"category"`
	Model          string         `json:"model,omitempty"`
	Specifications map[string]any `json:"specifications,omitempty"`
	IdealFor       []string       `json:"ideal_for,omitempty"`
	Colors         []string       `json:"colors,omitempty"`
	InStock        bool           `json:"in_stock"`
	Featured       bool           `json:"featured"`
	Images         []string       `json:"images,omitempty"`
}

type rawProduct struct {
	ID             any            `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Price          any            `json:"price"`
	OriginalPrice  any            `json:"original_price"`
	Category       string         `json:"category"`
	Model          string         `json:"model"`
	Specifications map[string]any `json:"specifications"`
	IdealFor       []string       `json:"ideal_for"`
	Colors         []string       `json:"colors"`
	InStock        any            `json:"in_stock"`
	Featured       any            `json:"featured"`
	Images         []string       `json:"images"`
	Image          string         `json:"image"`
}

func decodeProduct(raw json.RawMessage) (Product, error) {
	var payload rawProduct
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Product{}, err
	}

	product := Product{
		ID:             stringID(payload.ID),
		Name:           payload.Name,
		Description:    payload.Description,
		Price:          numeric.Clamp(numeric.Coerce(payload.Price)),
		OriginalPrice:  numeric.Clamp(numeric.Coerce(payload.OriginalPrice)),
		Category:       payload.Category,
		Model:          payload.Model,
		Specifications: payload.Specifications,
		IdealFor:       payload.IdealFor,
		Colors:         payload.Colors,
		InStock:        truthy(payload.InStock),
		Featured:       truthy(payload.Featured),
		Images:         payload.Images,
	}
	if len(product.Images) == 0 && payload.Image != "" {
		product.Images = []string{payload.Image}
	}
	return product, nil
}

// truthy interprets the backend's inconsistent boolean encodings: real
// booleans, 0/1 numerics, and their string forms.
func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "1" || v == "true"
	default:
		return numeric.Coerce(value) != 0
	}
}

func stringID(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}
