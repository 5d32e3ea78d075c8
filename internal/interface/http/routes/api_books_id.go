package routes

import (
	"io"
	"net/http"

	"github.com/xiebiao/bookcatalog/internal/interface/http/controller"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// /api/books/{id}

// GET 图书详情
func (b *BookByID) GET(w http.ResponseWriter, r *http.Request) {
	b.write(w, r, b.controller.GetBook(r.Context(), r.PathValue("id")))
}

// PUT 整体替换图书字段
func (b *BookByID) PUT(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		b.write(w, r, response.ErrorWithDetails(http.StatusBadRequest, controller.MsgInvalidBody, err.Error()))
		return
	}
	b.write(w, r, b.controller.UpdateBook(r.Context(), r.PathValue("id"), body))
}

// DELETE 删除图书
func (b *BookByID) DELETE(w http.ResponseWriter, r *http.Request) {
	b.write(w, r, b.controller.DeleteBook(r.Context(), r.PathValue("id")))
}
