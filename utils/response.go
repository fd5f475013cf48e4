package utils

import "github.com/gin-gonic/gin"

// Fail writes the uniform error body shared by every failing route. Clients
// only ever see {"error": <message>}; internals never leak.
func Fail(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"error": message})
}

// Message writes a 200 response carrying only a human-readable message.
func Message(ctx *gin.Context, message string) {
	ctx.JSON(200, gin.H{"message": message})
}
