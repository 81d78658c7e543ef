package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lmdelacruz/evride-storefront/api/responses"
	"github.com/lmdelacruz/evride-storefront/api/validators"
	productsvc "github.com/lmdelacruz/evride-storefront/internal/products"
	"github.com/lmdelacruz/evride-storefront/pkg/enums"
	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
	"github.com/lmdelacruz/evride-storefront/pkg/logger"
)

func productFilters(r *http.Request) (productsvc.Filters, error) {
	filters := productsvc.Filters{
		Search:    validators.SanitizeString(r.URL.Query().Get("search"), 200),
		Category:  canonicalCategory(r.URL.Query().Get("category")),
		SortBy:    validators.SanitizeString(r.URL.Query().Get("sort_by"), 50),
		SortOrder: validators.SanitizeString(r.URL.Query().Get("sort_order"), 10),
	}

	page, err := validators.ParseQueryInt(r, "page", 0, 1, 100000)
	if err != nil {
		return productsvc.Filters{}, err
	}
	filters.Page = page

	perPage, err := validators.ParseQueryInt(r, "per_page", 0, 1, 100)
	if err != nil {
		return productsvc.Filters{}, err
	}
	filters.PerPage = perPage

	minPrice, err := validators.ParseQueryFloat(r, "min_price")
	if err != nil {
		return productsvc.Filters{}, err
	}
	filters.MinPrice = minPrice

	maxPrice, err := validators.ParseQueryFloat(r, "max_price")
	if err != nil {
		return productsvc.Filters{}, err
	}
	filters.MaxPrice = maxPrice

	if raw := strings.TrimSpace(r.URL.Query().Get("in_stock")); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			return productsvc.Filters{}, pkgerrors.New(pkgerrors.CodeValidation, "in_stock must be a boolean")
		}
		filters.InStock = &inStock
	}

	return filters, nil
}

// canonicalCategory folds a recognized category to its canonical casing so
// "e-bike" filters the same rows as "E-Bike". Unrecognized values pass
// through untouched; the backend may know categories this gateway does not.
func canonicalCategory(raw string) string {
	cleaned := validators.SanitizeString(raw, 100)
	if category, err := enums.ParseVehicleCategory(cleaned); err == nil {
		return string(category)
	}
	return cleaned
}

func ProductList(svc productsvc.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := productFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func ProductFeatured(svc productsvc.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Featured(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func ProductGet(svc productsvc.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "productID")
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id required"))
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductCategories always answers 200: the service falls back to the
// storefront's fixed category list when the backend cannot provide one.
func ProductCategories(svc productsvc.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Categories(r.Context()))
	}
}

type createProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Model       string   `json:"model"`
	Category    string   `json:"category"`
	Price       float64  `json:"price" validate:"required"`
	InStock     bool     `json:"in_stock"`
	Featured    bool     `json:"featured"`
	Description string   `json:"description"`
	Colors      []string `json:"colors"`
	Images      []string `json:"images"`
}

func ProductCreate(svc productsvc.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), productsvc.Product{
			Name:        validators.SanitizeString(payload.Name, 200),
			Model:       validators.SanitizeString(payload.Model, 200),
			Category:    validators.SanitizeString(payload.Category, 100),
			Price:       payload.Price,
			InStock:     payload.InStock,
			Featured:    payload.Featured,
			Description: payload.Description,
			Colors:      payload.Colors,
			Images:      payload.Images,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ProductUpdate accepts either a JSON patch or, for image uploads, a
// multipart form. Multipart bodies ride a POST to the backend with a
// method-override field, so both arrive here under PUT semantics.
func ProductUpdate(svc productsvc.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "productID")
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id required"))
			return
		}

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			updateProductMultipart(w, r, svc, id, logg)
			return
		}

		// A patch is a free-form field map, so it skips struct validation.
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}
		if len(fields) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update"))
			return
		}

		if err := svc.Update(r.Context(), id, fields); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "product updated")
	}
}

const maxUploadBytes = 32 << 20

func updateProductMultipart(w http.ResponseWriter, r *http.Request, svc productsvc.Client, id string, logg *logger.Logger) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
		return
	}

	fields := map[string]string{}
	for key, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	var files []productsvc.FileUpload
	for field, headers := range r.MultipartForm.File {
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable upload"))
				return
			}
			defer file.Close()
			files = append(files, productsvc.FileUpload{
				Field:   field,
				Name:    header.Filename,
				Content: file,
			})
		}
	}

	if err := svc.UpdateMultipart(r.Context(), id, fields, files); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteMessage(w, "product updated")
}

func ProductDelete(svc productsvc.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "productID")
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id required"))
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "product deleted")
	}
}
