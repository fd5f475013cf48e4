package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/seoblog/config"
	"github.com/cppla/seoblog/controllers"
	"github.com/cppla/seoblog/middleware"
	"github.com/cppla/seoblog/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.Ginzap())
	r.Use(utils.RecoveryWithZap())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	blogController := controllers.NewBlogController(db)
	categoryController := controllers.NewCategoryController(db)
	tagController := controllers.NewTagController(db)
	userController := controllers.NewUserController(db)

	api := r.Group("/api")

	// Credentials. Rate limited to slow down guessing.
	authGroup := api.Group("")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/signup", authController.Signup)
	authGroup.POST("/signin", authController.Signin)
	authGroup.POST("/signout", authController.Signout)

	// Public blog reads.
	api.GET("/blogs", blogController.ListAll)
	api.POST("/blogs-categories-tags", blogController.ListAllInfo)
	api.GET("/blog/:slug", blogController.ListSingle)
	api.GET("/blog/photo/:slug", blogController.GetPhoto)
	api.POST("/blogs/related", blogController.Related)
	api.GET("/blogs/search", blogController.Search)
	api.GET("/:username/blogs", blogController.ListByUser)

	// Admin-scoped blog mutations.
	adminBlogs := api.Group("")
	adminBlogs.Use(middleware.RequireSignin(), middleware.AdminMiddleware(db))
	adminBlogs.POST("/blog", blogController.Create)
	adminBlogs.PUT("/blog/:slug", blogController.Update)
	adminBlogs.DELETE("/blog/:slug", blogController.Remove)

	// Author-scoped blog mutations. Create only needs an account; update and
	// delete additionally pass the ownership guard.
	userBlogs := api.Group("/user")
	userBlogs.Use(middleware.RequireSignin(), middleware.AuthMiddleware(db))
	userBlogs.POST("/blog", blogController.Create)
	userBlogs.PUT("/blog/:slug", middleware.CanUpdateDeleteBlog(db), blogController.Update)
	userBlogs.DELETE("/blog/:slug", middleware.CanUpdateDeleteBlog(db), blogController.Remove)

	// Taxonomy. Reads are public, writes admin only.
	api.GET("/categories", categoryController.List)
	api.GET("/category/:slug", categoryController.Read)
	api.GET("/tags", tagController.List)
	api.GET("/tag/:slug", tagController.Read)

	adminTaxonomy := api.Group("")
	adminTaxonomy.Use(middleware.RequireSignin(), middleware.AdminMiddleware(db))
	adminTaxonomy.POST("/category", categoryController.Create)
	adminTaxonomy.DELETE("/category/:slug", categoryController.Remove)
	adminTaxonomy.POST("/tag", tagController.Create)
	adminTaxonomy.DELETE("/tag/:slug", tagController.Remove)

	// Users.
	api.GET("/user/:username", userController.PublicProfile)
	api.GET("/user/photo/:username", userController.Photo)

	userSelf := api.Group("/user")
	userSelf.Use(middleware.RequireSignin(), middleware.AuthMiddleware(db))
	userSelf.GET("/profile", userController.Profile)
	userSelf.PUT("/update", userController.Update)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Fail(ctx, http.StatusNotFound, "Route not found.")
	})

	return r
}
