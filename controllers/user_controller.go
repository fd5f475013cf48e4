package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/seoblog/apperr"
	"github.com/cppla/seoblog/middleware"
	"github.com/cppla/seoblog/models"
	"github.com/cppla/seoblog/utils"
)

// UserController serves profiles and profile updates.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a UserController.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// Profile returns the authenticated account. The hash and photo blob are
// excluded by the model's JSON mapping.
func (u *UserController) Profile(ctx *gin.Context) {
	actor, ok := middleware.Actor(ctx)
	if !ok {
		utils.Fail(ctx, http.StatusUnauthorized, "You must be signed in to do that.")
		return
	}
	ctx.JSON(http.StatusOK, actor)
}

// PublicProfile returns a user by username along with their ten most recent
// blogs.
func (u *UserController) PublicProfile(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	if username == "" {
		utils.Fail(ctx, http.StatusBadRequest, "There was a problem retrieving that user.")
		return
	}

	var user models.User
	if err := u.db.Where("username = ?", username).First(&user).Error; err != nil {
		utils.Fail(ctx, apperr.Status(apperr.NotFound), "User was not found")
		return
	}

	var blogs []models.Blog
	err := u.db.Select(blogListFields).
		Preload("Categories").Preload("Tags").Preload("Author").
		Where("author_id = ?", user.ID).
		Order("created_at DESC").Limit(10).Find(&blogs).Error
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":  user.PublicProfile(),
		"blogs": blogs,
	})
}

// Update applies an allow-listed patch to the authenticated account: name,
// about, password, photo. Role, username, email, and the stored hash can
// never be written through this route.
func (u *UserController) Update(ctx *gin.Context) {
	actor, ok := middleware.Actor(ctx)
	if !ok {
		utils.Fail(ctx, http.StatusUnauthorized, "You must be signed in to do that.")
		return
	}

	if name := strings.TrimSpace(ctx.PostForm("name")); name != "" {
		actor.Name = name
	}
	if about := strings.TrimSpace(ctx.PostForm("about")); about != "" {
		actor.About = about
	}

	if password := ctx.PostForm("password"); password != "" {
		if len(password) < 6 {
			utils.Fail(ctx, apperr.Status(apperr.Validation), "Password needs to be at least 6 characters long.")
			return
		}
		hash, err := utils.HashPassword(password)
		if err != nil {
			utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
			return
		}
		actor.PasswordHash = hash
	}

	if header, err := ctx.FormFile("photo"); err == nil {
		if header.Size > models.PhotoMaxSize {
			utils.Fail(ctx, apperr.Status(apperr.Upload), "Image should be less than 1mb")
			return
		}
		photo, photoType, appErr := readPhoto(ctx)
		if appErr != nil {
			utils.Fail(ctx, apperr.Status(appErr.Kind), appErr.Message)
			return
		}
		actor.Photo = photo
		actor.PhotoContentType = photoType
	}

	if err := u.db.Save(actor).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":    actor.PublicProfile(),
		"message": "Profile successfully updated.",
	})
}

// Photo streams a user's profile image with its stored content type.
func (u *UserController) Photo(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))

	var user models.User
	if err := u.db.Select("id, photo, photo_content_type").Where("username = ?", username).First(&user).Error; err != nil {
		utils.Fail(ctx, apperr.Status(apperr.NotFound), "User was not found")
		return
	}
	if len(user.Photo) == 0 {
		utils.Fail(ctx, apperr.Status(apperr.NotFound), "User was not found")
		return
	}
	ctx.Data(http.StatusOK, user.PhotoContentType, user.Photo)
}
