package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/seoblog/apperr"
	"github.com/cppla/seoblog/models"
	"github.com/cppla/seoblog/utils"
)

const (
	// ContextUserIDKey stores the authenticated account id in the Gin context.
	ContextUserIDKey = "user_id"
	// ContextActorKey stores the full *models.User of the acting principal.
	ContextActorKey = "actor"
)

// TokenCookieName is the cookie carrying the session token.
const TokenCookieName = "token"

// RequireSignin verifies the session token (signature plus expiry) and
// populates the acting principal id. The token is read from the
// Authorization bearer header or, failing that, the token cookie set at
// signin. The identity is only ever taken from the verified token, never
// from client-supplied fields.
func RequireSignin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := bearerToken(ctx)
		if tokenString == "" {
			if cookie, err := ctx.Cookie(TokenCookieName); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			utils.Fail(ctx, http.StatusUnauthorized, "You must be signed in to do that.")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Fail(ctx, http.StatusUnauthorized, "Invalid or expired token. Please sign in again.")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Next()
	}
}

// AuthMiddleware resolves the principal id into a full account record. The
// account must still exist; a deleted account fails closed.
func AuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := loadActor(ctx, db)
		if !ok {
			return
		}
		ctx.Set(ContextActorKey, user)
		ctx.Next()
	}
}

// AdminMiddleware resolves the principal like AuthMiddleware and additionally
// requires the administrator role.
func AdminMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := loadActor(ctx, db)
		if !ok {
			return
		}
		if !user.IsAdmin() {
			utils.Fail(ctx, apperr.Status(apperr.Forbidden), "Admin resource, access denied.")
			ctx.Abort()
			return
		}
		ctx.Set(ContextActorKey, user)
		ctx.Next()
	}
}

// CanUpdateDeleteBlog loads the blog named by the :slug parameter and applies
// the ownership guard: admins pass, authors pass only on their own blogs.
// Runs strictly after AuthMiddleware.
func CanUpdateDeleteBlog(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		actor, ok := Actor(ctx)
		if !ok {
			utils.Fail(ctx, http.StatusUnauthorized, "You must be signed in to do that.")
			ctx.Abort()
			return
		}

		slug := strings.ToLower(strings.TrimSpace(ctx.Param("slug")))
		var blog models.Blog
		if err := db.Where("slug = ?", slug).First(&blog).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Fail(ctx, http.StatusNotFound, "Blog not found.")
			} else {
				utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
			}
			ctx.Abort()
			return
		}

		if !models.CanMutate(actor, blog.AuthorID) {
			utils.Fail(ctx, apperr.Status(apperr.Forbidden), "You can't perform that action.")
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}

// Actor returns the resolved acting principal, if any.
func Actor(ctx *gin.Context) (*models.User, bool) {
	value, exists := ctx.Get(ContextActorKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// UserID returns the authenticated account id set by RequireSignin.
func UserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

func bearerToken(ctx *gin.Context) string {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func loadActor(ctx *gin.Context, db *gorm.DB) (*models.User, bool) {
	userID, ok := UserID(ctx)
	if !ok {
		utils.Fail(ctx, http.StatusUnauthorized, "You must be signed in to do that.")
		ctx.Abort()
		return nil, false
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "User not found.")
		ctx.Abort()
		return nil, false
	}
	return &user, true
}
