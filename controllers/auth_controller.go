package controllers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cppla/seoblog/apperr"
	"github.com/cppla/seoblog/config"
	"github.com/cppla/seoblog/middleware"
	"github.com/cppla/seoblog/models"
	"github.com/cppla/seoblog/utils"
)

// AuthController handles signup, signin, and signout.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Signup registers a local account. The username is generated, the password
// stored as a bcrypt hash only.
func (a *AuthController) Signup(ctx *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "Unable to process that action right now.")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if req.Name == "" {
		utils.Fail(ctx, apperr.Status(apperr.Validation), "A name is required.")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		utils.Fail(ctx, apperr.Status(apperr.Validation), "Must be a valid email address")
		return
	}
	if len(req.Password) < 6 {
		utils.Fail(ctx, apperr.Status(apperr.Validation), "Password must be at least 6 characters long.")
		return
	}

	var existing models.User
	if err := a.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		utils.Fail(ctx, apperr.Status(apperr.Conflict), "Email is already taken.")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	cfg := config.Get()
	username := generateUsername()
	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		Username:     username,
		Profile:      cfg.ClientURL + "/profile/" + username,
		PasswordHash: hash,
		Role:         models.RoleSubscriber,
	}

	if err := a.db.Create(&user).Error; err != nil {
		// Losing the race on the unique email index lands here.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Fail(ctx, apperr.Status(apperr.Conflict), "Email is already taken.")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	utils.Message(ctx, "Signup success! Please sign in.")
}

// Signin authenticates credentials and issues a signed session token with a
// fixed one-day validity, both in the response body and as a cookie of the
// same lifetime.
func (a *AuthController) Signin(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "Unable to process that action right now.")
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", strings.TrimSpace(req.Email)).First(&user).Error; err != nil {
		utils.Fail(ctx, apperr.Status(apperr.NotFound), "A user with that email does not exist, please sign up.")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Fail(ctx, apperr.Status(apperr.Auth), "Email and password do not match.")
		return
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	ctx.SetCookie(middleware.TokenCookieName, token, int(utils.TokenLifetime.Seconds()), "/", "", false, true)
	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user.PublicProfile(),
	})
}

// Signout clears the session cookie. Tokens stay valid until they expire;
// there is no server-side revocation.
func (a *AuthController) Signout(ctx *gin.Context) {
	ctx.SetCookie(middleware.TokenCookieName, "", -1, "/", "", false, true)
	utils.Message(ctx, "Signed out successfully.")
}

// generateUsername produces a short unique handle for new accounts.
func generateUsername() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
