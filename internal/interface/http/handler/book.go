package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookcatalog/internal/interface/http/controller"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// BookHandler 图书HTTP处理器(gin绑定)
// 只负责从gin.Context取参数，处理逻辑都在controller.BookController
type BookHandler struct {
	controller *controller.BookController
}

// NewBookHandler 创建图书处理器
func NewBookHandler(c *controller.BookController) *BookHandler {
	return &BookHandler{controller: c}
}

// ListBooks 图书列表
// @Summary      图书列表
// @Description  分页查询图书，search非空时按正则匹配标题、作者、简介，正则非法时改用子串匹配
// @Tags         图书
// @Produce      json
// @Param        page   query int    false "页码(默认1)"
// @Param        limit  query int    false "每页数量(默认10)"
// @Param        search query string false "搜索词"
// @Success      200 {object} dto.ListBooksResponse
// @Failure      500 {object} response.ErrorBody
// @Router       /api/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	response.JSON(c, h.controller.ListBooks(c.Request.Context(), c.Request.URL.Query()))
}

// CreateBook 创建图书
// @Summary      创建图书
// @Tags         图书
// @Accept       json
// @Produce      json
// @Param        request body dto.BookRequest true "图书信息"
// @Success      201 {object} dto.BookResponse
// @Failure      400 {object} response.ErrorBody "标题或作者为空/图书已存在"
// @Failure      500 {object} response.ErrorBody
// @Router       /api/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.JSON(c, response.ErrorWithDetails(http.StatusBadRequest, controller.MsgInvalidBody, err.Error()))
		return
	}
	response.JSON(c, h.controller.CreateBook(c.Request.Context(), body))
}

// GetBook 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} dto.BookResponse
// @Failure      404 {object} response.ErrorBody
// @Failure      500 {object} response.ErrorBody
// @Router       /api/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	response.JSON(c, h.controller.GetBook(c.Request.Context(), c.Param("id")))
}

// UpdateBook 更新图书(整体替换)
// @Summary      更新图书
// @Tags         图书
// @Accept       json
// @Produce      json
// @Param        id      path int             true "图书ID"
// @Param        request body dto.BookRequest true "图书信息"
// @Success      200 {object} dto.BookResponse
// @Failure      400 {object} response.ErrorBody
// @Failure      404 {object} response.ErrorBody
// @Failure      500 {object} response.ErrorBody
// @Router       /api/books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.JSON(c, response.ErrorWithDetails(http.StatusBadRequest, controller.MsgInvalidBody, err.Error()))
		return
	}
	response.JSON(c, h.controller.UpdateBook(c.Request.Context(), c.Param("id"), body))
}

// DeleteBook 删除图书
// @Summary      删除图书
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.MessageBody
// @Failure      404 {object} response.ErrorBody
// @Failure      500 {object} response.ErrorBody
// @Router       /api/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	response.JSON(c, h.controller.DeleteBook(c.Request.Context(), c.Param("id")))
}

// Ping 存活检查
// @Summary  存活检查
// @Tags     运维
// @Produce  json
// @Success  200 {object} map[string]string
// @Router   /ping [get]
func (h *BookHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
		"status":  "healthy",
	})
}

// Ready 就绪检查
// @Summary  就绪检查
// @Tags     运维
// @Produce  json
// @Success  200 {object} map[string]string
// @Failure  503 {object} response.ErrorBody
// @Router   /readyz [get]
func (h *BookHandler) Ready(c *gin.Context) {
	response.JSON(c, h.controller.Ready(c.Request.Context()))
}
