// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"movie-rec-go/internal/model"
	"movie-rec-go/internal/service"
	"movie-rec-go/pkg/log"
)

// RecommendationHandler 负责处理所有与推荐相关的 API 请求。
type RecommendationHandler struct {
	recService service.RecommendationService
}

// NewRecommendationHandler 创建一个新的 RecommendationHandler 实例。
func NewRecommendationHandler(recService service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recService: recService}
}

// Register 把推荐相关路由注册到给定的路由组。
func (h *RecommendationHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/recommendations/similar", h.GetSimilarMovies)
	rg.GET("/recommendations/movie/:title", h.GetSimilarByTitle)
	rg.GET("/search", h.SearchMovies)
	rg.GET("/status", h.GetModelStatus)
	rg.POST("/reload", h.Reload)
	rg.GET("/runs", h.ListTrainingRuns)
}

// GetSimilarMovies 处理按 movie_id 或 title 查询相似电影的请求。
func (h *RecommendationHandler) GetSimilarMovies(c *gin.Context) {
	identifier := c.Query("movie_id")
	if identifier == "" {
		identifier = c.Query("title")
	}
	if identifier == "" {
		log.Warnf("[RecommendationHandler] 请求失败: movie_id 与 title 均为空")
		c.JSON(http.StatusBadRequest, gin.H{"error": "movie_id 或 title 参数必填"})
		return
	}
	h.respondSimilar(c, identifier)
}

// GetSimilarByTitle 处理路径参数形式的片名查询。
func (h *RecommendationHandler) GetSimilarByTitle(c *gin.Context) {
	h.respondSimilar(c, c.Param("title"))
}

func (h *RecommendationHandler) respondSimilar(c *gin.Context, identifier string) {
	limit := queryInt(c, "limit", 0)
	log.Infof("[RecommendationHandler] 收到相似电影请求, identifier: %s, limit: %d", identifier, limit)

	resp := h.recService.GetSimilarMovies(c.Request.Context(), identifier, limit)
	if !resp.Success {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "data": resp, "message": resp.Error})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": resp, "message": "success"})
}

// SearchMovies 处理片名模糊搜索请求。
func (h *RecommendationHandler) SearchMovies(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "查询参数 q 必填"})
		return
	}
	limit := queryInt(c, "limit", 10)

	resp, err := h.recService.SearchMovies(c.Request.Context(), query, limit)
	if err != nil {
		if errors.Is(err, model.ErrNotInitialized) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "推荐系统尚未初始化"})
			return
		}
		log.Errorf("[RecommendationHandler] 搜索失败, query: %s, error: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "搜索失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": resp, "message": "success"})
}

// GetModelStatus 返回当前快照的状态。
func (h *RecommendationHandler) GetModelStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": h.recService.GetModelStatus(), "message": "success"})
}

// Reload 触发后台重建完整快照。
func (h *RecommendationHandler) Reload(c *gin.Context) {
	if err := h.recService.Reload(c.Request.Context()); err != nil {
		if errors.Is(err, model.ErrReloadInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "已有快照构建在运行"})
			return
		}
		log.Error("[RecommendationHandler] 触发重建失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "触发重建失败"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"code": http.StatusAccepted, "message": "重建已在后台开始"})
}

// ListTrainingRuns 返回最近的快照构建记录。
func (h *RecommendationHandler) ListTrainingRuns(c *gin.Context) {
	runs, err := h.recService.TrainingRuns(c.Request.Context(), queryInt(c, "limit", 20))
	if err != nil {
		log.Error("[RecommendationHandler] 查询构建记录失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询构建记录失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": runs, "message": "success"})
}

// queryInt 解析整数查询参数，缺失或非法时返回默认值。
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
