package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

// 与gin的c.JSON一致：转义HTML字符、map按key排序
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Result 与传输层无关的处理结果
// 设计说明：
// 1. Status是HTTP状态码，Body是会被序列化为JSON的响应体
// 2. controller只产出Result，gin与net/http两种绑定各自负责写出
// 3. 同一个请求在两种绑定下得到完全相同的状态码和响应体
type Result struct {
	Status int
	Body   interface{}
}

// ErrorBody 错误响应体
// details只在有底层错误信息时出现
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MessageBody 只有提示信息的响应体（如删除成功）
type MessageBody struct {
	Message string `json:"message"`
}

// OK 200响应
func OK(body interface{}) Result {
	return Result{Status: http.StatusOK, Body: body}
}

// Created 201响应
func Created(body interface{}) Result {
	return Result{Status: http.StatusCreated, Body: body}
}

// Message 200 + {"message": ...}
func Message(msg string) Result {
	return OK(MessageBody{Message: msg})
}

// Error 错误响应 {"error": ...}
func Error(status int, msg string) Result {
	return Result{Status: status, Body: ErrorBody{Error: msg}}
}

// ErrorWithDetails 错误响应 {"error": ..., "details": ...}
func ErrorWithDetails(status int, msg, details string) Result {
	return Result{Status: status, Body: ErrorBody{Error: msg, Details: details}}
}

// IsError 是否为4xx/5xx
func (r Result) IsError() bool {
	return r.Status >= http.StatusBadRequest
}

// JSON 通过gin写出Result
func JSON(c *gin.Context, r Result) {
	c.JSON(r.Status, r.Body)
}

// Write 通过net/http写出Result
// 先序列化再写头，序列化失败时返回500
func Write(w http.ResponseWriter, r Result) error {
	body, err := json.Marshal(r.Body)
	if err != nil {
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(r.Status)
	_, err = w.Write(body)
	return err
}
