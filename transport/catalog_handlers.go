package transport

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/forresttindall/paradoxlabs/pkg/catalog/domain/model"
)

type productResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	ImageURL      string  `json:"imageUrl"`
	InStock       bool    `json:"inStock"`
	StockQuantity int     `json:"stockQuantity"`
}

func (h *handler) listProducts(w http.ResponseWriter, _ *http.Request) {
	products, err := h.deps.Catalog.ListProducts()
	if err != nil {
		log.WithError(err).Error("list products failed")
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, product := range products {
		resp = append(resp, toProductResponse(product))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product id", err.Error())
		return
	}

	product, err := h.deps.Catalog.GetProduct(id)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found", err.Error())
			return
		}
		log.WithError(err).Error("get product failed")
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func toProductResponse(product *model.Product) productResponse {
	return productResponse{
		ID:            product.ID.String(),
		Name:          product.Name,
		Description:   product.Description,
		Price:         float64(product.PriceCents) / 100,
		ImageURL:      product.ImageURL,
		InStock:       product.StockQuantity > 0,
		StockQuantity: product.StockQuantity,
	}
}
