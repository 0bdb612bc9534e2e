package adminapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/orangeboy/storefront/internal/catalog"
	"github.com/orangeboy/storefront/internal/domain"
	"github.com/orangeboy/storefront/internal/webserver"
)

// registerProductRoutes registers the public storefront reads
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
}

// registerAdminProductRoutes registers product writes behind admin auth
func registerAdminProductRoutes() {
	webserver.AdminPOST("/products", createProduct)
	webserver.AdminPUT("/products/:id", updateProduct)
	webserver.AdminDELETE("/products/:id", deleteProduct)
}

// listProducts returns the catalog
// @Summary list products
// @Tags Products
// @Param category query string false "Category filter"
// @Param lang query string false "Locale code"
// @Success 200 {object} domain.ProductCollection
// @Router /api/products [get]
func listProducts(c echo.Context) error {
	category := strings.TrimSpace(c.QueryParam("category"))
	lang := strings.TrimSpace(c.QueryParam("lang"))

	col, err := GetAppContext(c).Catalog().List(c.Request().Context(), lang, category)
	if err != nil {
		return failCatalog(c, "list", err)
	}
	return ok(c, col)
}

// @Summary get a product
// @Tags Products
// @Param id path string true "Product ID"
// @Param lang query string false "Locale code"
// @Success 200 {object} domain.ProductEntry
// @Router /api/products/{id} [get]
func getProduct(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	entry, err := GetAppContext(c).Catalog().Get(c.Request().Context(), id, c.QueryParam("lang"))
	if err != nil {
		return failCatalog(c, "get", err)
	}
	return ok(c, entry)
}

// @Summary create a product
// @Tags Admin
// @Success 201 {object} domain.ProductEntry
// @Router /api/admin/products [post]
func createProduct(c echo.Context) error {
	appCtx := GetAppContext(c)
	payload, err := readProductPayload(c)
	if err != nil {
		return failCatalog(c, "create", err)
	}
	entry, err := appCtx.Catalog().Create(c.Request().Context(), payload)
	if err != nil {
		return failCatalog(c, "create", err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// @Summary update a product
// @Tags Admin
// @Param id path string true "Product ID"
// @Success 200 {object} domain.ProductEntry
// @Router /api/admin/products/{id} [put]
func updateProduct(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	payload, err := readProductPayload(c)
	if err != nil {
		return failCatalog(c, "update", err)
	}
	entry, err := GetAppContext(c).Catalog().Update(c.Request().Context(), id, payload)
	if err != nil {
		return failCatalog(c, "update", err)
	}
	return ok(c, entry)
}

// @Summary delete a product
// @Tags Admin
// @Param id path string true "Product ID"
// @Success 204
// @Router /api/admin/products/{id} [delete]
func deleteProduct(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := GetAppContext(c).Catalog().Delete(c.Request().Context(), id); err != nil {
		return failCatalog(c, "delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// readProductPayload normalizes the raw request body; prices may arrive as
// numeric strings and images in several shapes.
func readProductPayload(c echo.Context) (*domain.ProductPayload, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, &catalog.ValidationError{Code: catalog.CodeInvalidBody, Message: "unreadable request body"}
	}
	return catalog.ParseProductPayload(body, GetAppContext(c).Languages())
}
