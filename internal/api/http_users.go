package api

import (
	"accounts/internal/entity"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxUserPageSize = 100

// ListUsers 管理员查看全部账户；非管理员或匿名调用得到空列表
func (h *HTTPHandler) ListUsers(c *gin.Context) {
	var query entity.UserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}
	if query.PageSize < 0 {
		query.PageSize = 0
	}
	if query.PageSize > maxUserPageSize {
		query.PageSize = maxUserPageSize
	}
	if query.Page <= 0 {
		query.Page = 1
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	resp, err := h.accounts.ListAllAccounts(ctx, CurrentUserID(c), &query)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
