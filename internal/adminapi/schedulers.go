package adminapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/orangeboy/storefront/internal/app"
	"github.com/orangeboy/storefront/internal/webserver"
	"github.com/pkg/errors"
)

// registerSchedulerRoutes registers background job API routes
func registerSchedulerRoutes() {
	webserver.AdminGET("/jobs", ListJobs)
	webserver.AdminPOST("/jobs/:name/run", TriggerJob)
}

// ListJobs returns the background jobs with their last and next run
// @Summary get the background job list
// @Tags Admin
// @Success 200 {object} map[string]interface{}
// @Router /api/admin/jobs [get]
func ListJobs(c echo.Context) error {
	jobs := GetAppContext(c).Jobs()
	return ok(c, map[string]interface{}{
		"data":  jobs,
		"total": len(jobs),
	})
}

// TriggerJob runs a job immediately
// @Summary run a background job now
// @Tags Admin
// @Param name path string true "Job name"
// @Success 204
// @Router /api/admin/jobs/{name}/run [post]
func TriggerJob(c echo.Context) error {
	name := strings.TrimSpace(c.Param("name"))
	if err := GetAppContext(c).RunJobNow(name); err != nil {
		if errors.Is(err, app.ErrJobNotFound) {
			return fail(c, http.StatusNotFound, "not_found", "Job not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "run_failed", "Failed to run job", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
