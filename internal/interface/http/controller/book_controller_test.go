package controller_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbook "github.com/xiebiao/bookcatalog/internal/application/book"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/interface/http/controller"
	"github.com/xiebiao/bookcatalog/internal/interface/http/dto"
	"github.com/xiebiao/bookcatalog/internal/testutil"
	pkglogger "github.com/xiebiao/bookcatalog/pkg/logger"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

func createBook(t *testing.T, c *controller.BookController, body string) dto.BookResponse {
	t.Helper()
	res := c.CreateBook(context.Background(), []byte(body))
	require.Equal(t, http.StatusCreated, res.Status, "%+v", res.Body)
	return res.Body.(dto.BookResponse)
}

func errorBody(t *testing.T, res response.Result) response.ErrorBody {
	t.Helper()
	body, ok := res.Body.(response.ErrorBody)
	require.True(t, ok, "响应体不是ErrorBody: %#v", res.Body)
	return body
}

func countBooks(t *testing.T, s *testutil.Stack) int64 {
	t.Helper()
	_, total, err := s.Repo.List(context.Background(), book.ListParams{Limit: 1})
	require.NoError(t, err)
	return total
}

func TestCreateBook(t *testing.T) {
	t.Run("只有标题和作者", func(t *testing.T) {
		s := testutil.NewStack(t)
		b := createBook(t, s.Controller, `{"title":"A","author":"B"}`)

		assert.NotZero(t, b.ID)
		assert.Equal(t, "A", b.Title)
		assert.Equal(t, "B", b.Author)
		assert.Nil(t, b.Description)
		assert.Nil(t, b.PublishedAt)
		assert.True(t, b.CreatedAt.Equal(b.UpdatedAt))
	})

	t.Run("完整字段", func(t *testing.T) {
		s := testutil.NewStack(t)
		b := createBook(t, s.Controller, `{"title":"A","author":"B","description":"","publishedAt":"2015-10-26"}`)

		require.NotNil(t, b.Description)
		assert.Equal(t, "", *b.Description, "空字符串原样保存")
		require.NotNil(t, b.PublishedAt)
		assert.Equal(t, time.Date(2015, 10, 26, 0, 0, 0, 0, time.UTC), *b.PublishedAt)
	})

	t.Run("RFC3339出版日期", func(t *testing.T) {
		s := testutil.NewStack(t)
		b := createBook(t, s.Controller, `{"title":"A","author":"B","publishedAt":"2020-02-03T04:05:06Z"}`)
		require.NotNil(t, b.PublishedAt)
		assert.Equal(t, time.Date(2020, 2, 3, 4, 5, 6, 0, time.UTC), *b.PublishedAt)
	})

	t.Run("出版日期为空串或null", func(t *testing.T) {
		s := testutil.NewStack(t)
		for _, body := range []string{
			`{"title":"A","author":"B","publishedAt":""}`,
			`{"title":"A","author":"B","publishedAt":null,"description":null}`,
		} {
			b := createBook(t, s.Controller, body)
			assert.Nil(t, b.PublishedAt)
			assert.Nil(t, b.Description)
		}
	})

	t.Run("缺少必填字段", func(t *testing.T) {
		s := testutil.NewStack(t)
		for _, body := range []string{
			`{"title":"A"}`,
			`{"author":"B"}`,
			`{"title":"","author":"B"}`,
			`{}`,
			``,
		} {
			res := s.Controller.CreateBook(context.Background(), []byte(body))
			assert.Equal(t, http.StatusBadRequest, res.Status, body)
			assert.Equal(t, response.ErrorBody{Error: controller.MsgRequiredFields}, errorBody(t, res))
		}
		assert.Zero(t, countBooks(t, s), "校验失败不应写入数据")
	})

	t.Run("非法JSON", func(t *testing.T) {
		s := testutil.NewStack(t)
		res := s.Controller.CreateBook(context.Background(), []byte(`{"title":`))
		assert.Equal(t, http.StatusBadRequest, res.Status)
		body := errorBody(t, res)
		assert.Equal(t, controller.MsgInvalidBody, body.Error)
		assert.NotEmpty(t, body.Details)
	})

	t.Run("非法出版日期", func(t *testing.T) {
		s := testutil.NewStack(t)
		res := s.Controller.CreateBook(context.Background(), []byte(`{"title":"A","author":"B","publishedAt":"next tuesday"}`))
		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.Equal(t, controller.MsgInvalidPublishedAt, errorBody(t, res).Error)
		assert.Zero(t, countBooks(t, s))
	})
}

func TestGetBook(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	created := createBook(t, s.Controller, `{"title":"Go","author":"Pike","description":"d","publishedAt":"2012-03-28"}`)

	t.Run("往返一致", func(t *testing.T) {
		res := s.Controller.GetBook(ctx, fmt.Sprint(created.ID))
		require.Equal(t, http.StatusOK, res.Status)
		got := res.Body.(dto.BookResponse)

		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, created.Title, got.Title)
		assert.Equal(t, created.Author, got.Author)
		assert.Equal(t, created.Description, got.Description)
		assert.True(t, created.PublishedAt.Equal(*got.PublishedAt))
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
		assert.True(t, created.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("不存在或非法ID", func(t *testing.T) {
		for _, id := range []string{"999", "0", "-1", "abc", "1.5", ""} {
			res := s.Controller.GetBook(ctx, id)
			assert.Equal(t, http.StatusNotFound, res.Status, id)
			assert.Equal(t, response.ErrorBody{Error: controller.MsgBookNotFound}, errorBody(t, res))
		}
	})
}

func TestUpdateBook(t *testing.T) {
	ctx := context.Background()

	t.Run("整体替换并刷新updatedAt", func(t *testing.T) {
		s := testutil.NewStack(t)
		created := createBook(t, s.Controller, `{"title":"A","author":"B","description":"old","publishedAt":"2000-01-01"}`)
		time.Sleep(5 * time.Millisecond)

		res := s.Controller.UpdateBook(ctx, fmt.Sprint(created.ID), []byte(`{"title":"A2","author":"B2"}`))
		require.Equal(t, http.StatusOK, res.Status)
		got := res.Body.(dto.BookResponse)

		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "A2", got.Title)
		assert.Equal(t, "B2", got.Author)
		assert.Nil(t, got.Description, "未提供的字段被清空")
		assert.Nil(t, got.PublishedAt)
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
		assert.True(t, got.UpdatedAt.After(created.UpdatedAt))
	})

	t.Run("不存在", func(t *testing.T) {
		s := testutil.NewStack(t)
		res := s.Controller.UpdateBook(ctx, "42", []byte(`{"title":"A","author":"B"}`))
		assert.Equal(t, http.StatusNotFound, res.Status)
		assert.Equal(t, response.ErrorBody{Error: controller.MsgBookNotFound}, errorBody(t, res))
		assert.Zero(t, countBooks(t, s))
	})

	t.Run("校验先于ID", func(t *testing.T) {
		s := testutil.NewStack(t)
		res := s.Controller.UpdateBook(ctx, "abc", []byte(`{"title":"A"}`))
		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.Equal(t, controller.MsgRequiredFields, errorBody(t, res).Error)
	})
}

func TestDeleteBook(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	created := createBook(t, s.Controller, `{"title":"A","author":"B"}`)
	id := fmt.Sprint(created.ID)

	res := s.Controller.DeleteBook(ctx, id)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, response.MessageBody{Message: controller.MsgBookDeleted}, res.Body)

	res = s.Controller.DeleteBook(ctx, id)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, response.ErrorBody{Error: controller.MsgBookNotFound}, errorBody(t, res))

	res = s.Controller.GetBook(ctx, id)
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestListBooks(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	for i := 1; i <= 23; i++ {
		createBook(t, s.Controller, fmt.Sprintf(`{"title":"Book %02d","author":"Author %d"}`, i, i%3))
	}

	list := func(q string) dto.ListBooksResponse {
		t.Helper()
		values, err := url.ParseQuery(q)
		require.NoError(t, err)
		res := s.Controller.ListBooks(ctx, values)
		require.Equal(t, http.StatusOK, res.Status, "%+v", res.Body)
		return res.Body.(dto.ListBooksResponse)
	}

	t.Run("分页性质", func(t *testing.T) {
		const total = 23
		for _, limit := range []int{1, 5, 10, 23, 50} {
			pages := (total + limit - 1) / limit
			for page := 1; page <= pages+1; page++ {
				got := list(fmt.Sprintf("page=%d&limit=%d", page, limit))
				offset := (page - 1) * limit

				want := 0
				if offset < total {
					want = min(limit, total-offset)
				}
				assert.Len(t, got.Books, want, "page=%d limit=%d", page, limit)
				assert.Equal(t, dto.PaginationResponse{
					Page: page, Limit: limit, Total: total, TotalPages: pages,
				}, got.Pagination)
			}
		}

		// (page-1)*limit超出int范围时仍是空页
		for _, q := range []string{
			fmt.Sprintf("page=%d&limit=4", math.MaxInt/2+2),
			fmt.Sprintf("page=3&limit=%d", math.MaxInt),
			fmt.Sprintf("page=%d&limit=%d", math.MaxInt, math.MaxInt),
		} {
			got := list(q)
			assert.Empty(t, got.Books, q)
			assert.Equal(t, int64(total), got.Pagination.Total, q)
		}
	})

	t.Run("默认值与按创建时间倒序", func(t *testing.T) {
		got := list("page=abc&limit=")
		assert.Equal(t, 1, got.Pagination.Page)
		assert.Equal(t, 10, got.Pagination.Limit)
		require.Len(t, got.Books, 10)
		assert.Equal(t, "Book 23", got.Books[0].Title)
		assert.Equal(t, "Book 14", got.Books[9].Title)
	})

	t.Run("整数前缀", func(t *testing.T) {
		got := list("page=2abc&limit=4.9")
		assert.Equal(t, 2, got.Pagination.Page)
		assert.Equal(t, 4, got.Pagination.Limit)
	})

	t.Run("正则搜索", func(t *testing.T) {
		got := list("search=^Book 0[1-3]$")
		assert.Equal(t, int64(3), got.Pagination.Total)
		assert.Equal(t, 1, got.Pagination.TotalPages)
	})

	t.Run("非法正则改用子串匹配", func(t *testing.T) {
		createBook(t, s.Controller, `{"title":"C++ [draft","author":"X"}`)
		got := list("search=" + url.QueryEscape("[draft"))
		require.Len(t, got.Books, 1)
		assert.Equal(t, "C++ [draft", got.Books[0].Title)
	})

	t.Run("无匹配", func(t *testing.T) {
		got := list("search=nothing-matches-this")
		assert.Empty(t, got.Books)
		assert.NotNil(t, got.Books)
		assert.Equal(t, 0, got.Pagination.TotalPages)
	})
}

func TestStoreUnavailable(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	require.NoError(t, s.Handle.Close())

	results := map[string]response.Result{
		"list":   s.Controller.ListBooks(ctx, url.Values{"search": {"go"}}),
		"create": s.Controller.CreateBook(ctx, []byte(`{"title":"A","author":"B"}`)),
		"get":    s.Controller.GetBook(ctx, "1"),
		"update": s.Controller.UpdateBook(ctx, "1", []byte(`{"title":"A","author":"B"}`)),
		"delete": s.Controller.DeleteBook(ctx, "1"),
	}
	for name, res := range results {
		assert.Equal(t, http.StatusInternalServerError, res.Status, name)
		assert.Equal(t, response.ErrorBody{Error: controller.MsgDatabaseFailed}, errorBody(t, res), name)
	}

	res := s.Controller.Ready(ctx)
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)
}

func TestReady(t *testing.T) {
	s := testutil.NewStack(t)
	res := s.Controller.Ready(context.Background())
	assert.Equal(t, http.StatusOK, res.Status)
}

// stubService 返回固定错误的领域服务，用于验证错误映射
type stubService struct {
	book.Service
	err error
}

func (s stubService) GetBookByID(context.Context, uint) (*book.Book, error) { return nil, s.err }
func (s stubService) CreateBook(context.Context, book.Fields) (*book.Book, error) {
	return nil, s.err
}
func (s stubService) UpdateBook(context.Context, uint, book.Fields) (*book.Book, error) {
	return nil, s.err
}
func (s stubService) DeleteBook(context.Context, uint) error { return s.err }
func (s stubService) ListBooks(context.Context, book.ListParams) ([]*book.Book, int64, error) {
	return nil, 0, s.err
}

func TestErrorMapping(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"title":"A","author":"B"}`)

	tests := []struct {
		name   string
		err    error
		status int
		want   response.ErrorBody
	}{
		{
			name:   "重复记录",
			err:    book.ErrBookDuplicate.WithCause(errors.New("Duplicate entry 'A' for key 'title'")),
			status: http.StatusBadRequest,
			want:   response.ErrorBody{Error: controller.MsgBookExists},
		},
		{
			name:   "不存在",
			err:    book.ErrBookNotFound,
			status: http.StatusNotFound,
			want:   response.ErrorBody{Error: controller.MsgBookNotFound},
		},
		{
			name:   "连接失败不暴露细节",
			err:    book.ErrStoreUnavailable.WithCause(errors.New("dial tcp 10.0.0.5:3306: connect: connection refused")),
			status: http.StatusInternalServerError,
			want:   response.ErrorBody{Error: controller.MsgDatabaseFailed},
		},
		{
			name:   "未分类错误带details",
			err:    errors.New("disk I/O error"),
			status: http.StatusInternalServerError,
			want:   response.ErrorBody{Error: controller.MsgFailedUpdateBook, Details: "disk I/O error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := stubService{err: tt.err}
			log := pkglogger.Discard()
			c := controller.NewBookController(svc, appbook.NewListBooksUseCase(svc, appbook.QueryPolicy{}, log), log)

			res := c.UpdateBook(ctx, "1", body)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.want, errorBody(t, res))
		})
	}

	t.Run("各操作的错误文案", func(t *testing.T) {
		svc := stubService{err: errors.New("boom")}
		log := pkglogger.Discard()
		c := controller.NewBookController(svc, appbook.NewListBooksUseCase(svc, appbook.QueryPolicy{}, log), log)

		cases := map[string]response.Result{
			controller.MsgFailedFetchBooks: c.ListBooks(ctx, url.Values{}),
			controller.MsgFailedCreateBook: c.CreateBook(ctx, body),
			controller.MsgFailedFetchBook:  c.GetBook(ctx, "1"),
			controller.MsgFailedUpdateBook: c.UpdateBook(ctx, "1", body),
			controller.MsgFailedDeleteBook: c.DeleteBook(ctx, "1"),
		}
		for msg, res := range cases {
			assert.Equal(t, http.StatusInternalServerError, res.Status, msg)
			assert.Equal(t, response.ErrorBody{Error: msg, Details: "boom"}, errorBody(t, res))
		}
	})
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw  string
		want uint
		ok   bool
	}{
		{"1", 1, true},
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"7x", 0, false},
		{"", 0, false},
		{"99999999999999999999999", 0, false},
	}
	for _, tt := range tests {
		got, ok := controller.ParseID(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestParseIntPrefix(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"12", 12},
		{"  7", 7},
		{"12abc", 12},
		{"3.9", 3},
		{"-2", -2},
		{"+5", 5},
		{"-", 0},
		{"99999999999999999999999", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, controller.ParseIntPrefix(tt.raw), tt.raw)
	}
}
