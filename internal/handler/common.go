package handler // handler defines http handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getAdminID extracts the admin_id from echo.Context and converts it to
// uint64.  JWT claims decode numbers as float64, so several stored types
// are accepted.
func getAdminID(c echo.Context) (uint64, error) {
	v := c.Get("admin_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid admin_id in context")
}

// pathID parses the :id route parameter as an unsigned integer.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
