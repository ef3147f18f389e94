package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "short-story-api/pkg/errors"
)

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error 返回错误响应
func Error(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, ErrorResponse{Error: message})
}

// AbortWithError 返回错误响应并中止后续处理器
func AbortWithError(c *gin.Context, httpCode int, message string) {
	c.AbortWithStatusJSON(httpCode, ErrorResponse{Error: message})
}

// FromError 根据 AppError 的状态码与描述返回错误响应
func FromError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	Error(c, status, appErr.Describe())
}

// BadRequest 返回 400 错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// TooManyRequests 返回 429 错误
func TooManyRequests(c *gin.Context) {
	AbortWithError(c, http.StatusTooManyRequests, "rate limit exceeded")
}

// InternalError 返回 500 错误
func InternalError(c *gin.Context) {
	AbortWithError(c, apperrors.ErrInternalError.HTTPStatus, apperrors.ErrInternalError.Message)
}
