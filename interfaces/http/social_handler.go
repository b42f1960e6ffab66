package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"speakcraft-social/usecase"
)

// ISocialHandler is the authenticated dashboard API surface: connected
// accounts, the post queue, and per-post publish history.
type ISocialHandler interface {
	ListAccounts(ctx *gin.Context)
	CreatePost(ctx *gin.Context)
	ListPosts(ctx *gin.Context)
	ListPostLogs(ctx *gin.Context)
}

type SocialHandler struct {
	accountUsecase usecase.ISocialAccountUsecase
	postUsecase    usecase.ISocialPostUsecase
}

func NewSocialHandler(accountUsecase usecase.ISocialAccountUsecase, postUsecase usecase.ISocialPostUsecase) ISocialHandler {
	return &SocialHandler{accountUsecase: accountUsecase, postUsecase: postUsecase}
}

// ListAccounts handles GET /api/social/accounts. Token columns never leave
// the model's json:"-" fields, so the response is credential free.
func (h *SocialHandler) ListAccounts(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	accounts, err := h.accountUsecase.ListAccounts(ctx.Request.Context(), userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

type createPostRequest struct {
	AccountID   int64      `json:"accountId" binding:"required"`
	Content     string     `json:"content"`
	MediaURLs   []string   `json:"mediaUrls"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

// CreatePost handles POST /api/social/posts.
func (h *SocialHandler) CreatePost(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	var req createPostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	post, err := h.postUsecase.SchedulePost(ctx.Request.Context(), userID, req.AccountID, req.Content, req.MediaURLs, req.ScheduledAt)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, usecase.ErrAccountNotFound):
			status = http.StatusNotFound
		case errors.Is(err, usecase.ErrNotOwner):
			status = http.StatusForbidden
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"post": post})
}

// ListPosts handles GET /api/social/posts.
func (h *SocialHandler) ListPosts(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	posts, err := h.postUsecase.ListPosts(ctx.Request.Context(), userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"posts": posts})
}

// ListPostLogs handles GET /api/social/posts/:id/logs.
func (h *SocialHandler) ListPostLogs(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	postID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post id"})
		return
	}
	logs, err := h.postUsecase.GetPostLogs(ctx.Request.Context(), userID, postID)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, usecase.ErrPostNotFound):
			status = http.StatusNotFound
		case errors.Is(err, usecase.ErrNotOwner):
			status = http.StatusForbidden
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"logs": logs})
}
