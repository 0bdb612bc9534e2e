package adminapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"github.com/orangeboy/storefront/internal/domain"
	"github.com/orangeboy/storefront/internal/webserver"
)

const exportSheet = "Sheet1"

type exportRow struct {
	ID           int64   `csv:"id"`
	Name         string  `csv:"name"`
	Price        float64 `csv:"price"`
	Category     string  `csv:"category"`
	Description  string  `csv:"description"`
	OrderFormURL string  `csv:"order_form_url"`
	ImageURL     string  `csv:"image_url"`
	Locale       string  `csv:"locale"`
	CreatedAt    string  `csv:"created_at"`
}

var exportHeader = []string{"id", "name", "price", "category", "description", "order_form_url", "image_url", "locale", "created_at"}

func registerExportRoutes() {
	webserver.AdminGET("/products/export", exportProducts)
}

// exportProducts downloads the catalog in the default locale
// @Summary export the catalog as csv or xlsx
// @Tags Admin
// @Param format query string false "csv or xlsx"
// @Router /api/admin/products/export [get]
func exportProducts(c echo.Context) error {
	format := strings.ToLower(strings.TrimSpace(c.QueryParam("format")))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		return fail(c, http.StatusBadRequest, "invalid_request", "format must be csv or xlsx", nil)
	}

	appCtx := GetAppContext(c)
	col, err := appCtx.Catalog().List(c.Request().Context(), appCtx.Languages().Default(), "")
	if err != nil {
		return failCatalog(c, "export", err)
	}
	rows := toExportRows(col.Data)
	filename := fmt.Sprintf("products-%s.%s", time.Now().Format("20060102"), format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	if format == "csv" {
		data, err := gocsv.MarshalBytes(&rows)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "export_error", "Unable to encode csv", err.Error())
		}
		return c.Blob(http.StatusOK, "text/csv; charset=utf-8", data)
	}

	data, err := writeXlsx(rows)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "export_error", "Unable to encode xlsx", err.Error())
	}
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func toExportRows(products []domain.Product) []*exportRow {
	rows := make([]*exportRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, &exportRow{
			ID:           p.ID,
			Name:         p.Name,
			Price:        p.Price,
			Category:     deref(p.Category),
			Description:  deref(p.Description),
			OrderFormURL: deref(p.OrderFormURL),
			ImageURL:     p.ImageURLOrEmpty(),
			Locale:       p.Locale,
			CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows
}

func writeXlsx(rows []*exportRow) ([]byte, error) {
	f := excelize.NewFile()
	for i, h := range exportHeader {
		f.SetCellValue(exportSheet, cellName(i, 1), h)
	}
	for r, row := range rows {
		line := r + 2
		values := []interface{}{
			row.ID, row.Name, row.Price, row.Category, row.Description,
			row.OrderFormURL, row.ImageURL, row.Locale, row.CreatedAt,
		}
		for i, v := range values {
			f.SetCellValue(exportSheet, cellName(i, line), v)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// cellName converts a zero-based column and one-based row into "B3" form.
func cellName(col, row int) string {
	return fmt.Sprintf("%c%d", rune('A'+col), row)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
