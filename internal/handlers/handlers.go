package handlers

import (
	"strconv"

	"forgestudio/internal/common"

	"github.com/labstack/echo/v4"
)

// parsePagination reads limit/offset query parameters, falling back to the
// shared defaults on anything unparsable.
func parsePagination(c echo.Context) (int, int) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return common.ValidatePaginationParams(limit, offset)
}
