package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/seoblog/apperr"
	"github.com/cppla/seoblog/config"
	"github.com/cppla/seoblog/middleware"
	"github.com/cppla/seoblog/models"
	"github.com/cppla/seoblog/normalize"
	"github.com/cppla/seoblog/utils"
)

// blogListFields is what listing endpoints expose; body and photo stay out.
const blogListFields = "id, title, slug, excerpt, author_id, created_at, updated_at"

// Cache key prefixes. Blog mutations invalidate all of them because category
// and tag reads embed blog lists.
const (
	cacheBlogPrefix     = "cache:blog"
	cacheTaxonomyPrefix = "cache:taxonomy"
)

// BlogController manages blog CRUD, photos, listings, and search.
type BlogController struct {
	db *gorm.DB
}

// NewBlogController creates a BlogController.
func NewBlogController(db *gorm.DB) *BlogController {
	return &BlogController{db: db}
}

// Create handles both the admin route and the author route: multipart fields
// title, body, categories, tags and an optional photo file. Validation runs
// before normalization, normalization before any write.
func (b *BlogController) Create(ctx *gin.Context) {
	actor, ok := middleware.Actor(ctx)
	if !ok {
		utils.Fail(ctx, http.StatusUnauthorized, "You must be signed in to do that.")
		return
	}

	title := strings.TrimSpace(ctx.PostForm("title"))
	body := ctx.PostForm("body")
	categories := ctx.PostForm("categories")
	tags := ctx.PostForm("tags")

	if title == "" {
		utils.Fail(ctx, apperr.Status(apperr.Validation), "A title is required.")
		return
	}
	if len([]rune(title)) < models.TitleMinLen {
		utils.Fail(ctx, apperr.Status(apperr.Validation), "Titles need to be at least 3 characters long.")
		return
	}
	if len([]rune(title)) > models.TitleMaxLen {
		utils.Fail(ctx, apperr.Status(apperr.Validation), "Titles can't exceed 160 characters.")
		return
	}
	if len(body) < models.BodyMinLen {
		utils.Fail(ctx, apperr.Status(apperr.Validation), "You need more content.")
		return
	}
	if len(body) > models.BodyMaxLen {
		utils.Fail(ctx, apperr.Status(apperr.Validation), "Content is too long.")
		return
	}
	if categories == "" {
		utils.Fail(ctx, apperr.Status(apperr.Validation), "At least one category is required.")
		return
	}
	if tags == "" {
		utils.Fail(ctx, apperr.Status(apperr.Validation), "At least one tag is required.")
		return
	}

	slug := normalize.Slugify(title)
	var existing models.Blog
	if err := b.db.Where("slug = ?", slug).First(&existing).Error; err == nil {
		utils.Fail(ctx, apperr.Status(apperr.Conflict), "A blog with that title already exists.")
		return
	}

	photo, photoType, appErr := readPhoto(ctx)
	if appErr != nil {
		utils.Fail(ctx, apperr.Status(appErr.Kind), appErr.Message)
		return
	}

	cats, err := b.findCategories(categories)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "There was a problem adding categories/tags to the blog.")
		return
	}
	// Tags are parsed from the tags field on their own, not from the
	// categories delimiter.
	tagList, err := b.findTags(tags)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "There was a problem adding categories/tags to the blog.")
		return
	}

	cfg := config.Get()
	blog := models.Blog{
		Title:            title,
		Slug:             slug,
		Body:             utils.Sanitize(body),
		Excerpt:          normalize.Excerpt(body),
		MetaTitle:        normalize.MetaTitle(title, cfg.AppName),
		MetaDescription:  normalize.MetaDescription(body),
		Photo:            photo,
		PhotoContentType: photoType,
		AuthorID:         actor.ID,
		Categories:       cats,
		Tags:             tagList,
	}

	if err := b.db.Create(&blog).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Fail(ctx, apperr.Status(apperr.Conflict), "A blog with that title already exists.")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	utils.InvalidateByPrefix(cacheBlogPrefix)
	utils.InvalidateByPrefix(cacheTaxonomyPrefix)
	utils.Message(ctx, "Blog created successfully")
}

// Update applies an allow-listed patch to a blog looked up by slug. The slug
// itself never changes, even when the title does. Photo is replaced only when
// a new one is submitted.
func (b *BlogController) Update(ctx *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(ctx.Param("slug")))

	var blog models.Blog
	if err := b.db.Where("slug = ?", slug).First(&blog).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(ctx, apperr.Status(apperr.NotFound), "Blog not found.")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	if title := strings.TrimSpace(ctx.PostForm("title")); title != "" {
		if len([]rune(title)) < models.TitleMinLen {
			utils.Fail(ctx, apperr.Status(apperr.Validation), "Titles need to be at least 3 characters long.")
			return
		}
		if len([]rune(title)) > models.TitleMaxLen {
			utils.Fail(ctx, apperr.Status(apperr.Validation), "Titles can't exceed 160 characters.")
			return
		}
		blog.Title = title
		blog.MetaTitle = normalize.MetaTitle(title, config.Get().AppName)
	}

	if body := ctx.PostForm("body"); body != "" {
		if len(body) < models.BodyMinLen {
			utils.Fail(ctx, apperr.Status(apperr.Validation), "You need more content.")
			return
		}
		if len(body) > models.BodyMaxLen {
			utils.Fail(ctx, apperr.Status(apperr.Validation), "Content is too long.")
			return
		}
		blog.Body = utils.Sanitize(body)
		blog.Excerpt = normalize.Excerpt(body)
		blog.MetaDescription = normalize.MetaDescription(body)
	}

	photo, photoType, appErr := readPhoto(ctx)
	if appErr != nil {
		utils.Fail(ctx, apperr.Status(appErr.Kind), appErr.Message)
		return
	}
	if photo != nil {
		blog.Photo = photo
		blog.PhotoContentType = photoType
	}

	if categories := strings.TrimSpace(ctx.PostForm("categories")); categories != "" {
		cats, err := b.findCategories(categories)
		if err != nil {
			utils.Fail(ctx, http.StatusInternalServerError, "There was a problem adding categories/tags to the blog.")
			return
		}
		if err := b.db.Model(&blog).Association("Categories").Replace(cats); err != nil {
			utils.Fail(ctx, http.StatusInternalServerError, "There was a problem adding categories/tags to the blog.")
			return
		}
	}
	if tags := strings.TrimSpace(ctx.PostForm("tags")); tags != "" {
		tagList, err := b.findTags(tags)
		if err != nil {
			utils.Fail(ctx, http.StatusInternalServerError, "There was a problem adding categories/tags to the blog.")
			return
		}
		if err := b.db.Model(&blog).Association("Tags").Replace(tagList); err != nil {
			utils.Fail(ctx, http.StatusInternalServerError, "There was a problem adding categories/tags to the blog.")
			return
		}
	}

	if err := b.db.Save(&blog).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	utils.InvalidateByPrefix(cacheBlogPrefix)
	utils.InvalidateByPrefix(cacheTaxonomyPrefix)
	ctx.JSON(http.StatusOK, blog)
}

// Remove deletes a blog by slug along with its taxonomy join rows.
func (b *BlogController) Remove(ctx *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(ctx.Param("slug")))

	var blog models.Blog
	if err := b.db.Where("slug = ?", slug).First(&blog).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(ctx, apperr.Status(apperr.NotFound), "Blog not found.")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	_ = b.db.Model(&blog).Association("Categories").Clear()
	_ = b.db.Model(&blog).Association("Tags").Clear()
	if err := b.db.Delete(&blog).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	utils.InvalidateByPrefix(cacheBlogPrefix)
	utils.InvalidateByPrefix(cacheTaxonomyPrefix)
	utils.Message(ctx, "Blog deleted successfully.")
}

// GetPhoto streams the embedded photo with its stored content type.
func (b *BlogController) GetPhoto(ctx *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(ctx.Param("slug")))

	var blog models.Blog
	if err := b.db.Select("id, photo, photo_content_type").Where("slug = ?", slug).First(&blog).Error; err != nil {
		utils.Fail(ctx, apperr.Status(apperr.NotFound), "Blog not found.")
		return
	}
	if len(blog.Photo) == 0 {
		utils.Fail(ctx, apperr.Status(apperr.NotFound), "Blog not found.")
		return
	}
	ctx.Data(http.StatusOK, blog.PhotoContentType, blog.Photo)
}

// ListSingle returns one blog by slug with body and taxonomy.
func (b *BlogController) ListSingle(ctx *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(ctx.Param("slug")))

	cacheKey := "cache:blog:detail:" + slug
	if cached, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", cached)
		return
	}

	var blog models.Blog
	err := b.db.Preload("Categories").Preload("Tags").Preload("Author").
		Where("slug = ?", slug).First(&blog).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(ctx, apperr.Status(apperr.NotFound), "Blog not found.")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	utils.CacheSetJSON(cacheKey, blog, time.Hour)
	ctx.JSON(http.StatusOK, blog)
}

// ListAll returns every blog in list form, newest first.
func (b *BlogController) ListAll(ctx *gin.Context) {
	cacheKey := "cache:blogs:all"
	if cached, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", cached)
		return
	}

	var blogs []models.Blog
	err := b.db.Select(blogListFields).
		Preload("Categories").Preload("Tags").Preload("Author").
		Order("created_at DESC").Find(&blogs).Error
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	utils.CacheSetJSON(cacheKey, blogs, time.Hour)
	ctx.JSON(http.StatusOK, blogs)
}

// ListAllInfo answers the home feed request: a page of blogs plus the full
// category and tag lists in one round trip.
func (b *BlogController) ListAllInfo(ctx *gin.Context) {
	var req struct {
		Limit int `json:"limit"`
		Skip  int `json:"skip"`
	}
	_ = ctx.ShouldBindJSON(&req)
	if req.Limit <= 0 {
		req.Limit = 10
	}
	if req.Skip < 0 {
		req.Skip = 0
	}

	cacheKey := fmt.Sprintf("cache:blogs:feed:limit=%d:skip=%d", req.Limit, req.Skip)
	if cached, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", cached)
		return
	}

	payload, err := BlogFeed(b.db, req.Limit, req.Skip)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	utils.CacheSetJSON(cacheKey, payload, time.Hour)
	ctx.JSON(http.StatusOK, payload)
}

// BlogFeed builds the blogs-categories-tags payload. Shared with the cache
// warming task.
func BlogFeed(db *gorm.DB, limit, skip int) (gin.H, error) {
	var blogs []models.Blog
	err := db.Select(blogListFields).
		Preload("Categories").Preload("Tags").Preload("Author").
		Order("created_at DESC").Offset(skip).Limit(limit).Find(&blogs).Error
	if err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := db.Find(&categories).Error; err != nil {
		return nil, err
	}

	var tags []models.Tag
	if err := db.Find(&tags).Error; err != nil {
		return nil, err
	}

	return gin.H{
		"blogs":      blogs,
		"categories": categories,
		"tags":       tags,
		"size":       len(blogs),
	}, nil
}

// ListByUser returns a user's blogs in list form (public).
func (b *BlogController) ListByUser(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))

	var user models.User
	if err := b.db.Where("username = ?", username).First(&user).Error; err != nil {
		utils.Fail(ctx, apperr.Status(apperr.NotFound), "User was not found")
		return
	}

	var blogs []models.Blog
	err := b.db.Select(blogListFields).
		Preload("Categories").Preload("Tags").Preload("Author").
		Where("author_id = ?", user.ID).
		Order("created_at DESC").Find(&blogs).Error
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	ctx.JSON(http.StatusOK, blogs)
}

// Related returns blogs sharing at least one category with the given blog.
func (b *BlogController) Related(ctx *gin.Context) {
	var req struct {
		Slug  string `json:"slug"`
		Limit int    `json:"limit"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Slug) == "" {
		utils.Fail(ctx, http.StatusBadRequest, "Unable to process that action right now.")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 3
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	var blog models.Blog
	if err := b.db.Preload("Categories").Where("slug = ?", slug).First(&blog).Error; err != nil {
		utils.Fail(ctx, apperr.Status(apperr.NotFound), "Blog not found.")
		return
	}

	categoryIDs := make([]uint, 0, len(blog.Categories))
	for _, c := range blog.Categories {
		categoryIDs = append(categoryIDs, c.ID)
	}
	if len(categoryIDs) == 0 {
		ctx.JSON(http.StatusOK, []models.Blog{})
		return
	}

	var related []models.Blog
	err := b.db.Select("DISTINCT "+blogListFields).
		Joins("JOIN blog_categories bc ON bc.blog_id = blogs.id").
		Where("bc.category_id IN ?", categoryIDs).
		Where("blogs.id <> ?", blog.ID).
		Preload("Categories").Preload("Tags").Preload("Author").
		Order("created_at DESC").Limit(req.Limit).Find(&related).Error
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	ctx.JSON(http.StatusOK, related)
}

// Search matches the query against titles and bodies.
func (b *BlogController) Search(ctx *gin.Context) {
	search := strings.TrimSpace(ctx.Query("search"))
	if search == "" {
		ctx.JSON(http.StatusOK, []models.Blog{})
		return
	}

	var blogs []models.Blog
	pattern := "%" + search + "%"
	err := b.db.Select(blogListFields).
		Preload("Categories").Preload("Tags").Preload("Author").
		Where("title LIKE ? OR body LIKE ?", pattern, pattern).
		Order("created_at DESC").Find(&blogs).Error
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Unable to process that action right now.")
		return
	}

	ctx.JSON(http.StatusOK, blogs)
}

func (b *BlogController) findCategories(csv string) ([]models.Category, error) {
	ids := parseIDList(csv)
	if len(ids) == 0 {
		return nil, nil
	}
	var cats []models.Category
	if err := b.db.Find(&cats, ids).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (b *BlogController) findTags(csv string) ([]models.Tag, error) {
	ids := parseIDList(csv)
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	if err := b.db.Find(&tags, ids).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// parseIDList splits a comma separated id list, dropping blanks and junk.
func parseIDList(csv string) []uint {
	parts := strings.Split(csv, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil || n == 0 {
			continue
		}
		ids = append(ids, uint(n))
	}
	return ids
}

// readPhoto pulls the optional photo file from a multipart form, enforcing
// the 1MB ceiling before anything is written. Returns nil data when no photo
// was submitted.
func readPhoto(ctx *gin.Context) ([]byte, string, *apperr.Error) {
	header, err := ctx.FormFile("photo")
	if err != nil {
		return nil, "", nil
	}
	if header.Size > models.PhotoMaxSize {
		return nil, "", apperr.New(apperr.Upload, "Images need to be less than 1mb in size.")
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", apperr.New(apperr.Upload, "Error uploading photo.")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, models.PhotoMaxSize+1))
	if err != nil {
		return nil, "", apperr.New(apperr.Upload, "Error uploading photo.")
	}
	if len(data) > models.PhotoMaxSize {
		return nil, "", apperr.New(apperr.Upload, "Images need to be less than 1mb in size.")
	}

	return data, header.Header.Get("Content-Type"), nil
}
