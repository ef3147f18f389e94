// Package dto 提供 HTTP 层数据传输对象
package dto

// StoryRequest 生成故事请求
type StoryRequest struct {
	// Prompt 缺省时按空字符串处理，由服务层统一校验
	Prompt string `json:"prompt"`
}

// StoryResponse 生成故事响应
type StoryResponse struct {
	Story string `json:"story"`
}
