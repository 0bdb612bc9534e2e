package adminapi

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/orangeboy/storefront/internal/catalog"
	"github.com/orangeboy/storefront/internal/domain"
	"github.com/orangeboy/storefront/internal/webserver"
)

// uploadFields are the multipart field names accepted, in lookup order.
var uploadFields = []string{"files", "file"}

func registerUploadRoutes() {
	webserver.AdminPOST("/upload", uploadImage)
}

// uploadImage stores a product image
// @Summary upload a product image
// @Tags Admin
// @Accept multipart/form-data
// @Param files formData file true "Image file"
// @Success 200 {object} domain.Image
// @Router /api/admin/upload [post]
func uploadImage(c echo.Context) error {
	fh := formFile(c)
	if fh == nil {
		return fail(c, http.StatusBadRequest, catalog.CodeFileRequired, "An image file is required", nil)
	}
	src, err := fh.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, catalog.CodeFileRequired, "Unable to read uploaded file", err.Error())
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return fail(c, http.StatusBadRequest, catalog.CodeFileRequired, "Unable to read uploaded file", err.Error())
	}

	up := &domain.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}
	img, _, err := GetAppContext(c).Catalog().UploadImage(c.Request().Context(), up)
	if err != nil {
		return failCatalog(c, "upload", err)
	}
	return ok(c, img)
}

func formFile(c echo.Context) *multipart.FileHeader {
	for _, field := range uploadFields {
		if fh, err := c.FormFile(field); err == nil {
			return fh
		}
	}
	return nil
}
