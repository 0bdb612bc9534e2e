package webserver

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/orangeboy/storefront/internal/app"
	"github.com/pkg/errors"
)

const (
	SessionName     = "storefront_session"
	sessionUserKey  = "username"
	adminContextKey = "admin"
	tokenIssuer     = "storefront"
)

// ErrorBody is the error envelope every endpoint answers with.
type ErrorBody struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Detail  interface{} `json:"detail,omitempty"`
}

// Fail writes an error response.
func Fail(c echo.Context, status int, code, msg string, detail interface{}) error {
	return c.JSON(status, ErrorBody{Error: code, Message: msg, Detail: detail})
}

// IssueToken signs a bearer token for username.
func IssueToken(secret, username string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// ParseToken validates a bearer token and returns its subject.
func ParseToken(secret, token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" || claims.Issuer != tokenIssuer {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// SaveSession stores the admin login in the session cookie.
func SaveSession(c echo.Context, username string, ttl time.Duration) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	sess.Options.Path = "/"
	sess.Options.MaxAge = int(ttl.Seconds())
	sess.Options.HttpOnly = true
	sess.Options.SameSite = http.SameSiteLaxMode
	sess.Values[sessionUserKey] = username
	return sess.Save(c.Request(), c.Response())
}

// ClearSession expires the admin session cookie.
func ClearSession(c echo.Context) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	sess.Options.Path = "/"
	sess.Options.MaxAge = -1
	delete(sess.Values, sessionUserKey)
	return sess.Save(c.Request(), c.Response())
}

func sessionUser(c echo.Context) string {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return ""
	}
	username, _ := sess.Values[sessionUserKey].(string)
	return username
}

// AdminUser returns the authenticated admin for the request.
func AdminUser(c echo.Context) string {
	username, _ := c.Get(adminContextKey).(string)
	return username
}

// RequireAdmin accepts either a valid session cookie or an
// "Authorization: Bearer <token>" header. Either must name the configured
// admin, and both are refused while admin login is disabled.
func RequireAdmin(appCtx app.AppContext) echo.MiddlewareFunc {
	secret := appCtx.Config().Web.Secret
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: adminContextKey,
		Skipper: func(c echo.Context) bool {
			if username := sessionUser(c); appCtx.IsAdmin(username) {
				c.Set(adminContextKey, username)
				return true
			}
			return false
		},
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			username, err := ParseToken(secret, auth)
			if err != nil {
				return nil, err
			}
			if !appCtx.IsAdmin(username) {
				return nil, errors.Errorf("token subject %q is not an admin", username)
			}
			return username, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return Fail(c, http.StatusUnauthorized, "unauthorized", "admin authentication required", nil)
		},
	})
}
