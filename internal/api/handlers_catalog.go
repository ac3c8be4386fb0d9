// handlers_catalog.go - Furniture catalog handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wedding-planner/backend/internal/catalog"
)

// CatalogHandlerImpl implements the CatalogHandler interface
type CatalogHandlerImpl struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(cat *catalog.Catalog) CatalogHandler {
	if cat == nil {
		cat = catalog.Default()
	}
	return &CatalogHandlerImpl{catalog: cat}
}

// HandleGetCatalog returns the furniture kinds clients can place
func (h *CatalogHandlerImpl) HandleGetCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Catalog)
}
