// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"short-story-api/internal/application/story"
	"short-story-api/internal/interfaces/http/dto"
	"short-story-api/pkg/logger"
)

// StoryGenerator 故事生成能力（由 story.Service 实现）
type StoryGenerator interface {
	Generate(ctx context.Context, prompt string) (*story.Result, error)
}

// StoryHandler 故事处理器
type StoryHandler struct {
	service StoryGenerator
}

// NewStoryHandler 创建故事处理器
func NewStoryHandler(service StoryGenerator) *StoryHandler {
	return &StoryHandler{service: service}
}

// Generate 生成短篇故事
// @Summary 生成短篇故事
// @Description 根据 prompt 调用 LLM 生成故事，并按配置裁剪段落与字数
// @Tags Story
// @Accept json
// @Produce json
// @Param body body dto.StoryRequest true "故事请求"
// @Success 200 {object} dto.StoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /story [post]
func (h *StoryHandler) Generate(c *gin.Context) {
	var req dto.StoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn(c.Request.Context(), "invalid story request body",
			"error", err.Error(),
			"client_ip", c.ClientIP(),
		)
		dto.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.StoryResponse{Story: result.Story})
}
