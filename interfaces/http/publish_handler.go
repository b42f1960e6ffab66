package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"speakcraft-social/infrastructure/logger"
	"speakcraft-social/usecase"
)

type IPublishHandler interface {
	Run(ctx *gin.Context)
}

// PublishHandler exposes the publish worker as an HTTP trigger so external
// schedulers can drive the queue in addition to the in-process ticker.
type PublishHandler struct {
	publishUsecase usecase.IPublishUsecase
}

func NewPublishHandler(publishUsecase usecase.IPublishUsecase) IPublishHandler {
	return &PublishHandler{publishUsecase: publishUsecase}
}

// Run handles POST /publish/run.
func (h *PublishHandler) Run(ctx *gin.Context) {
	processed, err := h.publishUsecase.ProcessDue(ctx.Request.Context(), time.Now().UTC())
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Publish run failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if processed == 0 {
		ctx.JSON(http.StatusOK, gin.H{"message": "No posts due"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Batch Processed", "processed": processed})
}
