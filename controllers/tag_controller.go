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

// TagController manages the tag taxonomy.
type TagController struct {
	db *gorm.DB
}

// NewTagController creates a TagController.
func NewTagController(db *gorm.DB) *TagController {
	return &TagController{db: db}
}

// Create adds a tag with a derived slug. Admin only.
func (t *TagController) Create(ctx *gin.Context) {
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

	tag := models.Tag{Name: name, Slug: normalize.Slugify(name)}
	if err := t.db.Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Fail(ctx, apperr.Status(apperr.Conflict), "Tag already exists.")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	utils.InvalidateByPrefix(cacheTaxonomyPrefix)
	utils.InvalidateByPrefix(cacheBlogPrefix)
	ctx.JSON(http.StatusOK, tag)
}

// List returns all tags.
func (t *TagController) List(ctx *gin.Context) {
	cacheKey := cacheTaxonomyPrefix + ":tags"
	if cached, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", cached)
		return
	}

	var tags []models.Tag
	if err := t.db.Find(&tags).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	utils.CacheSetJSON(cacheKey, tags, time.Hour)
	ctx.JSON(http.StatusOK, tags)
}

// Read returns a tag plus the blogs carrying it.
func (t *TagController) Read(ctx *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(ctx.Param("slug")))

	cacheKey := cacheTaxonomyPrefix + ":tag:" + slug
	if cached, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", cached)
		return
	}

	var tag models.Tag
	if err := t.db.Where("slug = ?", slug).First(&tag).Error; err != nil {
		utils.Fail(ctx, apperr.Status(apperr.NotFound), "Tag not found.")
		return
	}

	var blogs []models.Blog
	err := t.db.Select(blogListFields).
		Joins("JOIN blog_tags bt ON bt.blog_id = blogs.id").
		Where("bt.tag_id = ?", tag.ID).
		Preload("Categories").Preload("Tags").Preload("Author").
		Order("created_at DESC").Find(&blogs).Error
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	payload := gin.H{"tag": tag, "blogs": blogs}
	utils.CacheSetJSON(cacheKey, payload, time.Hour)
	ctx.JSON(http.StatusOK, payload)
}

// Remove deletes a tag, clearing join rows only. Admin only.
func (t *TagController) Remove(ctx *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(ctx.Param("slug")))

	var tag models.Tag
	if err := t.db.Where("slug = ?", slug).First(&tag).Error; err != nil {
		utils.Fail(ctx, apperr.Status(apperr.NotFound), "Tag not found.")
		return
	}

	_ = t.db.Model(&tag).Association("Blogs").Clear()
	if err := t.db.Delete(&tag).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	utils.InvalidateByPrefix(cacheTaxonomyPrefix)
	utils.InvalidateByPrefix(cacheBlogPrefix)
	utils.Message(ctx, "Tag successfully deleted.")
}
