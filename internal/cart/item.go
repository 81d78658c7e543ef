package cart

import (
	"encoding/json"
	"strconv"

	"github.com/lmdelacruz/evride-storefront/pkg/numeric"
)

// Fallback display values. The backend omits product snapshots often enough
// that every field has a defined default; the storefront never renders an
// empty string where a name or image belongs.
const (
	DefaultProductName = "Unknown Product"
	DefaultModel       = "Standard Model"
	DefaultCategory    = "Electric Vehicle"
	PlaceholderImage   = "/images/placeholder-vehicle.png"
)

// Item is one line in a user's cart with a denormalized product snapshot.
type Item struct {
	ID          string   `json:"id"`
	ProductID   string   `json:"product_id"`
	Quantity    int      `json:"quantity"`
	Price       float64  `json:"price"`
	Total       float64  `json:"total"`
	Color       string   `json:"color,omitempty"`
	Name        string   `json:"name"`
	Image       string   `json:"image"`
	Images      []string `json:"images"`
	Model       string   `json:"model"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
}

type rawSnapshot struct {
	Name        string   `json:"name"`
	Price       any      `json:"price"`
	Image       string   `json:"image"`
	ImageURL    string   `json:"image_url"`
	Images      []string `json:"images"`
	Model       string   `json:"model"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
}

type rawItem struct {
	ID          any          `json:"id"`
	ProductID   any          `json:"product_id"`
	Quantity    any          `json:"quantity"`
	Price       any          `json:"price"`
	Total       any          `json:"total"`
	Color       string       `json:"color"`
	Name        string       `json:"name"`
	ProductName string       `json:"product_name"`
	Image       string       `json:"image"`
	ImageURL    string       `json:"image_url"`
	Images      []string     `json:"images"`
	Model       string       `json:"model"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Product     *rawSnapshot `json:"product"`
}

// decodeItem coerces one upstream cart line into a renderable Item. Every
// numeric field goes through pkg/numeric and every display field gets a
// backfill default.
func decodeItem(raw json.RawMessage) (Item, error) {
	var payload rawItem
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Item{}, err
	}

	item := Item{
		ID:          stringID(payload.ID),
		ProductID:   stringID(payload.ProductID),
		Quantity:    numeric.CoerceQuantity(payload.Quantity),
		Price:       numeric.Clamp(numeric.Coerce(payload.Price)),
		Color:       payload.Color,
		Name:        firstNonEmpty(payload.Name, payload.ProductName),
		Image:       firstNonEmpty(payload.Image, payload.ImageURL),
		Images:      payload.Images,
		Model:       payload.Model,
		Category:    payload.Category,
		Description: payload.Description,
	}

	if snap := payload.Product; snap != nil {
		item.Name = firstNonEmpty(item.Name, snap.Name)
		item.Image = firstNonEmpty(item.Image, snap.Image, snap.ImageURL)
		item.Model = firstNonEmpty(item.Model, snap.Model)
		item.Category = firstNonEmpty(item.Category, snap.Category)
		item.Description = firstNonEmpty(item.Description, snap.Description)
		if item.Price == 0 {
			item.Price = numeric.Clamp(numeric.Coerce(snap.Price))
		}
		if len(item.Images) == 0 {
			item.Images = snap.Images
		}
	}

	if item.Name == "" {
		item.Name = DefaultProductName
	}
	if item.Model == "" {
		item.Model = DefaultModel
	}
	if item.Category == "" {
		item.Category = DefaultCategory
	}
	if item.Image == "" {
		item.Image = PlaceholderImage
	}
	if len(item.Images) == 0 {
		item.Images = []string{item.Image}
	}

	// total == price * quantity unless the backend supplied one.
	item.Total = numeric.Clamp(numeric.Coerce(payload.Total))
	if item.Total == 0 {
		item.Total = item.Price * float64(item.Quantity)
	}

	return item, nil
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

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
