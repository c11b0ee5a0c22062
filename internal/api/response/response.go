package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success bool `json:"success"`
	Code    int  `json:"code"`
	Extras  any  `json:"extras"`
}

type content struct {
	Content string `json:"content"`
}

type list[T any] struct {
	List []T `json:"list"`
}

func ok(c *gin.Context, extras any) {
	c.JSON(http.StatusOK, Response{Success: true, Code: http.StatusOK, Extras: extras})
}

// SuccessResponseContent answers 200 with a single text value.
func SuccessResponseContent(c *gin.Context, text string) {
	ok(c, content{Content: text})
}

// SuccessResponseList answers 200 with items. A nil slice is sent as an empty list.
func SuccessResponseList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	ok(c, list[T]{List: items})
}

// ErrorResponse aborts the request with an Error body.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, NewError(code, message))
}
