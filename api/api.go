package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, message string, code int) {
	c.JSON(code, Error{Code: code, Message: message})
}

var (
	BadRequestErrorHandler = func(c *gin.Context, err error) {
		writeError(c, err.Error(), http.StatusBadRequest)
	}
	NotFoundErrorHandler = func(c *gin.Context, err error) {
		writeError(c, err.Error(), http.StatusNotFound)
	}
	InternalErrorHandler = func(c *gin.Context) {
		writeError(c, "An unexpected error occurred.", http.StatusInternalServerError)
	}
)
