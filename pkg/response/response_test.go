package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	assert.Equal(t, Result{Status: 200, Body: "x"}, OK("x"))
	assert.Equal(t, Result{Status: 201, Body: "x"}, Created("x"))
	assert.Equal(t, Result{Status: 200, Body: MessageBody{Message: "Book deleted successfully"}}, Message("Book deleted successfully"))
	assert.Equal(t, Result{Status: 404, Body: ErrorBody{Error: "Book not found"}}, Error(404, "Book not found"))
	assert.Equal(t,
		Result{Status: 500, Body: ErrorBody{Error: "Failed to fetch books", Details: "boom"}},
		ErrorWithDetails(500, "Failed to fetch books", "boom"),
	)

	assert.False(t, OK(nil).IsError())
	assert.True(t, Error(400, "bad").IsError())
}

func TestErrorBody_OmitsEmptyDetails(t *testing.T) {
	b, err := json.Marshal(ErrorBody{Error: "Book not found"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Book not found"}`, string(b))

	b, err = json.Marshal(ErrorBody{Error: "Failed to create book", Details: "disk full"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Failed to create book","details":"disk full"}`, string(b))
}

// 两种绑定写出的状态码和响应体必须一致
func TestWriters_SameOutput(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := ErrorWithDetails(http.StatusInternalServerError, "Failed to update book", "timeout")

	ginRec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(ginRec)
	JSON(c, r)

	stdRec := httptest.NewRecorder()
	require.NoError(t, Write(stdRec, r))

	assert.Equal(t, ginRec.Code, stdRec.Code)
	assert.JSONEq(t, ginRec.Body.String(), stdRec.Body.String())
	assert.Contains(t, stdRec.Header().Get("Content-Type"), "application/json")
}

// 逐字节一致：HTML转义、非ASCII字符、map键顺序
func TestWriters_SameBytes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	bodies := []interface{}{
		ErrorWithDetails(http.StatusBadRequest, "Invalid pattern", "<b>&</b>").Body,
		map[string]interface{}{"title": "三体", "author": "刘慈欣", "isbn": "978-7-5366-9293-0", "a": 1},
		[]MessageBody{{Message: "x > y"}},
	}

	for _, body := range bodies {
		r := OK(body)

		ginRec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(ginRec)
		JSON(c, r)

		stdRec := httptest.NewRecorder()
		require.NoError(t, Write(stdRec, r))

		assert.Equal(t, ginRec.Body.String(), stdRec.Body.String())
	}
}

func TestWrite_MarshalError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := Write(rec, OK(map[string]interface{}{"ch": make(chan int)}))
	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
