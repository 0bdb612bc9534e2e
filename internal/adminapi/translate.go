package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/orangeboy/storefront/internal/webserver"
)

type translateRequest struct {
	TargetLang string   `json:"targetLang" validate:"required,max=16"`
	SourceLang string   `json:"sourceLang" validate:"omitempty,max=16"`
	Texts      []string `json:"texts" validate:"required,max=500"`
}

type translateResponse struct {
	Data []string `json:"data"`
}

func registerTranslateRoutes() {
	webserver.ApiPOST("/translate", translateTexts)
	webserver.ApiGET("/languages", listLanguages)
}

// translateTexts translates a batch of UI strings
// @Summary translate texts
// @Tags Translation
// @Param request body translateRequest true "texts and target locale"
// @Success 200 {object} translateResponse
// @Router /api/translate [post]
func translateTexts(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_request", "Unable to parse translation request", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_request", "targetLang and texts are required", err.Error())
	}

	gateway := GetAppContext(c).Translator()
	registry := gateway.Registry()
	target := registry.Normalize(req.TargetLang)
	source := registry.Normalize(req.SourceLang)

	out := gateway.Translate(c.Request().Context(), req.Texts, target, source)
	if out == nil {
		out = []string{}
	}
	return ok(c, translateResponse{Data: out})
}

// @Summary list supported languages
// @Tags Translation
// @Router /api/languages [get]
func listLanguages(c echo.Context) error {
	registry := GetAppContext(c).Languages()
	return ok(c, map[string]interface{}{
		"default": registry.Default(),
		"data":    registry.Options(),
	})
}
