package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/seoblog/apperr"
	"github.com/cppla/seoblog/models"
	"github.com/cppla/seoblog/normalize"
	"github.com/cppla/seoblog/utils"
)

// CategoryController manages the category taxonomy.
type CategoryController struct {
	db *gorm.DB
}

// NewCategoryController creates a CategoryController.
func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

// Create adds a category with a derived slug. Admin only.
func (c *CategoryController) Create(ctx *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "Unable to process that action right now.")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.Fail(ctx, apperr.Status(apperr.Validation), "Name is required.")
		return
	}
	if len([]rune(name)) > models.NameMaxLen {
		utils.Fail(ctx, apperr.Status(apperr.Validation), "Name can't exceed 32 characters.")
		return
	}

	category := models.Category{Name: name, Slug: normalize.Slugify(name)}
	if err := c.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Fail(ctx, apperr.Status(apperr.Conflict), "Category already exists.")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	utils.InvalidateByPrefix(cacheTaxonomyPrefix)
	utils.InvalidateByPrefix(cacheBlogPrefix)
	ctx.JSON(http.StatusOK, category)
}

// List returns all categories.
func (c *CategoryController) List(ctx *gin.Context) {
	cacheKey := cacheTaxonomyPrefix + ":categories"
	if cached, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", cached)
		return
	}

	var categories []models.Category
	if err := c.db.Find(&categories).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	utils.CacheSetJSON(cacheKey, categories, time.Hour)
	ctx.JSON(http.StatusOK, categories)
}

// Read returns a category plus the blogs filed under it.
func (c *CategoryController) Read(ctx *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(ctx.Param("slug")))

	cacheKey := cacheTaxonomyPrefix + ":category:" + slug
	if cached, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", cached)
		return
	}

	var category models.Category
	if err := c.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		utils.Fail(ctx, apperr.Status(apperr.NotFound), "Category not found.")
		return
	}

	var blogs []models.Blog
	err := c.db.Select(blogListFields).
		Joins("JOIN blog_categories bc ON bc.blog_id = blogs.id").
		Where("bc.category_id = ?", category.ID).
		Preload("Categories").Preload("Tags").Preload("Author").
		Order("created_at DESC").Find(&blogs).Error
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	payload := gin.H{"category": category, "blogs": blogs}
	utils.CacheSetJSON(cacheKey, payload, time.Hour)
	ctx.JSON(http.StatusOK, payload)
}

// Remove deletes a category. Blogs referencing it keep existing; only the
// join rows go away. Admin only.
func (c *CategoryController) Remove(ctx *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(ctx.Param("slug")))

	var category models.Category
	if err := c.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		utils.Fail(ctx, apperr.Status(apperr.NotFound), "Category not found.")
		return
	}

	_ = c.db.Model(&category).Association("Blogs").Clear()
	if err := c.db.Delete(&category).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	utils.InvalidateByPrefix(cacheTaxonomyPrefix)
	utils.InvalidateByPrefix(cacheBlogPrefix)
	utils.Message(ctx, "Category successfully deleted.")
}
