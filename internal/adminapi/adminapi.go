package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/orangeboy/storefront/internal/app"
	"github.com/orangeboy/storefront/internal/catalog"
	"github.com/orangeboy/storefront/internal/webserver"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Init registers every API route on the web server. webserver.Init must
// have been called first.
func Init() {
	registerProductRoutes()
	registerAdminProductRoutes()
	registerUploadRoutes()
	registerTranslateRoutes()
	registerAuthRoutes()
	registerExportRoutes()
	registerSchedulerRoutes()
}

func GetAppContext(c echo.Context) app.AppContext {
	return webserver.GetAppContext(c)
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func fail(c echo.Context, status int, code, msg string, detail interface{}) error {
	return webserver.Fail(c, status, code, msg, detail)
}

// failCatalog maps product access errors onto HTTP responses.
func failCatalog(c echo.Context, op string, err error) error {
	if verr, isValidation := catalog.IsValidation(err); isValidation {
		return fail(c, http.StatusBadRequest, verr.Code, verr.Message, nil)
	}
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return fail(c, http.StatusNotFound, "not_found", "Product not found", nil)
	case errors.Is(err, catalog.ErrInvalidID):
		return fail(c, http.StatusBadRequest, "invalid_id", "Invalid product ID", nil)
	}
	zap.L().Error("product operation failed", zap.String("op", op), zap.Error(err))
	return fail(c, http.StatusBadGateway, "backend_error", "Product backend unavailable", nil)
}
