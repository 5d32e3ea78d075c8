package routes

import (
	"io"
	"net/http"

	"github.com/xiebiao/bookcatalog/internal/interface/http/controller"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// /api/books

// GET 图书列表
func (b *Books) GET(w http.ResponseWriter, r *http.Request) {
	b.write(w, r, b.controller.ListBooks(r.Context(), r.URL.Query()))
}

// POST 创建图书
func (b *Books) POST(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		b.write(w, r, response.ErrorWithDetails(http.StatusBadRequest, controller.MsgInvalidBody, err.Error()))
		return
	}
	b.write(w, r, b.controller.CreateBook(r.Context(), body))
}
