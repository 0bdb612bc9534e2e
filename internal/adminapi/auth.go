package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/orangeboy/storefront/internal/webserver"
	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Username  string    `json:"username"`
}

func registerAuthRoutes() {
	webserver.ApiPOST("/auth/login", login)
	webserver.ApiPOST("/auth/logout", logout)
	webserver.AdminGET("/me", currentAdmin)
}

// login checks admin credentials, sets the session cookie and returns a
// bearer token for API clients.
// @Summary admin login
// @Tags Auth
// @Param request body loginRequest true "credentials"
// @Success 200 {object} loginResponse
// @Router /api/auth/login [post]
func login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_request", "Unable to parse credentials", err.Error())
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_request", "username and password are required", nil)
	}

	appCtx := GetAppContext(c)
	if !appCtx.CheckAdminCredentials(req.Username, req.Password) {
		zap.L().Warn("admin login rejected", zap.String("username", req.Username), zap.String("remote", c.RealIP()))
		return fail(c, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password", nil)
	}

	cfg := appCtx.Config()
	token, expiresAt, err := webserver.IssueToken(cfg.Web.Secret, req.Username, cfg.TokenTTL())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "token_error", "Unable to issue token", err.Error())
	}
	if err := webserver.SaveSession(c, req.Username, cfg.TokenTTL()); err != nil {
		return fail(c, http.StatusInternalServerError, "session_error", "Unable to save session", err.Error())
	}
	return ok(c, loginResponse{Token: token, ExpiresAt: expiresAt, Username: req.Username})
}

// @Summary admin logout
// @Tags Auth
// @Success 204
// @Router /api/auth/logout [post]
func logout(c echo.Context) error {
	if err := webserver.ClearSession(c); err != nil {
		return fail(c, http.StatusInternalServerError, "session_error", "Unable to clear session", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func currentAdmin(c echo.Context) error {
	return ok(c, map[string]string{"username": webserver.AdminUser(c)})
}
