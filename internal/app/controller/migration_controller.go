package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/migration"
)

type MigrationController struct {
	migrationService service.MigrationService
}

func NewMigrationController(migrationService service.MigrationService) *MigrationController {
	return &MigrationController{
		migrationService: migrationService,
	}
}

// Migrate runs one migration and returns the per-table summary.
// Row-level failures are listed in results.errors with status 200; only a
// connection failure yields 500. A client that disconnects does not stop the run.
// @Router /api/migrate [post]
func (ctrl *MigrationController) Migrate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	if username, ok := middleware.GetUsername(c); ok {
		log = log.WithContext(map[string]interface{}{"triggered_by": username})
	}

	report, err := ctrl.migrationService.Migrate(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMigrationInProgress):
			apperrors.Conflict(c, apperrors.MigrationInProgress, err.Error())
		case migration.IsConnectionError(err):
			log.Error("Migration aborted on connection failure", err)
			apperrors.InternalError(c, apperrors.MigrationConnectionFailed, err.Error())
		default:
			log.Error("Migration failed", err)
			apperrors.InternalError(c, apperrors.MigrationFailed, err.Error())
		}
		return
	}

	log.Info("Migration request completed", map[string]interface{}{
		"run_id": report.RunID,
		"errors": len(report.Errors),
	})

	c.JSON(http.StatusOK, gin.H{
		"success": report.Success(),
		"message": report.Message(),
		"results": report.Results(),
	})
}
