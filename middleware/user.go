package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
)

// UserKey is the gin context key holding the terminal user name.
const UserKey = "user"

var validUser = regexp.MustCompile(`^[A-Za-z0-9._-]{1,32}$`)

// User reads the terminal user from the "username" header, falling back to
// the "username" query parameter, since browsers cannot set headers on a
// websocket upgrade. Invalid or missing names leave the key unset and the
// session keeps its default user.
func User() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetHeader("username")
		if username == "" {
			username = c.Query("username")
		}
		if validUser.MatchString(username) {
			c.Set(UserKey, username)
		}
		c.Next()
	}
}
