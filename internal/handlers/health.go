package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func HealthCheck(e echo.Context) error {
	return e.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "koinonia-api",
	})
}

// actorID returns the authenticated Firebase UID set by the auth middleware,
// or empty when the request is unauthenticated.
func actorID(c echo.Context) string {
	uid, _ := c.Get("firebaseUID").(string)
	return uid
}
