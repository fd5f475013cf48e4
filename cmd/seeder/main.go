// Seeder fills the database with demo accounts, taxonomy, and blogs.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cppla/seoblog/config"
	"github.com/cppla/seoblog/models"
	"github.com/cppla/seoblog/normalize"
	"github.com/cppla/seoblog/utils"
)

func main() {
	numUsers := flag.Int("users", 5, "number of subscriber accounts to create")
	numBlogs := flag.Int("blogs", 25, "number of blogs to create")
	password := flag.String("password", "secret6", "password for every seeded account")
	flag.Parse()

	cfg := config.Load()
	db := config.InitDatabase(&models.User{}, &models.Category{}, &models.Tag{}, &models.Blog{})

	hash, err := utils.HashPassword(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	admin := seedUser(db, cfg, "Admin", "admin@"+strings.ToLower(cfg.AppName)+".dev", hash, models.RoleAdmin)
	log.Printf("admin account: %s / %s", admin.Email, *password)

	users := []models.User{admin}
	for i := 0; i < *numUsers; i++ {
		u := seedUser(db, cfg, gofakeit.Name(), gofakeit.Email(), hash, models.RoleSubscriber)
		users = append(users, u)
	}

	categories := seedCategories(db)
	tags := seedTags(db)

	for i := 0; i < *numBlogs; i++ {
		author := users[gofakeit.Number(0, len(users)-1)]
		title := strings.TrimSuffix(gofakeit.Sentence(gofakeit.Number(4, 9)), ".")
		body := gofakeit.Paragraph(6, 8, 40, "\n\n")

		blog := models.Blog{
			Title:           title,
			Slug:            normalize.Slugify(title) + "-" + fmt.Sprint(i),
			Body:            body,
			Excerpt:         normalize.Excerpt(body),
			MetaTitle:       normalize.MetaTitle(title, cfg.AppName),
			MetaDescription: normalize.MetaDescription(body),
			AuthorID:        author.ID,
			Categories:      pick(categories, gofakeit.Number(1, 2)),
			Tags:            pickTags(tags, gofakeit.Number(1, 3)),
		}
		if err := db.Create(&blog).Error; err != nil {
			log.Printf("blog %d failed: %v", i, err)
		}
	}

	log.Printf("seeded %d users, %d categories, %d tags, %d blogs",
		len(users), len(categories), len(tags), *numBlogs)
}

func seedUser(db *gorm.DB, cfg config.AppConfig, name, email, hash string, role models.Role) models.User {
	username := strings.SplitN(uuid.NewString(), "-", 2)[0]
	user := models.User{
		Name:         name,
		Email:        email,
		Username:     username,
		Profile:      cfg.ClientURL + "/profile/" + username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := db.Where("email = ?", email).FirstOrCreate(&user).Error; err != nil {
		log.Fatalf("seed user %s: %v", email, err)
	}
	return user
}

func seedCategories(db *gorm.DB) []models.Category {
	names := []string{"Tech", "Programming", "Design", "Travel", "Food"}
	out := make([]models.Category, 0, len(names))
	for _, n := range names {
		c := models.Category{Name: n, Slug: normalize.Slugify(n)}
		if err := db.Where("slug = ?", c.Slug).FirstOrCreate(&c).Error; err != nil {
			log.Fatalf("seed category %s: %v", n, err)
		}
		out = append(out, c)
	}
	return out
}

func seedTags(db *gorm.DB) []models.Tag {
	names := []string{"golang", "react", "mysql", "redis", "seo", "howto"}
	out := make([]models.Tag, 0, len(names))
	for _, n := range names {
		t := models.Tag{Name: n, Slug: normalize.Slugify(n)}
		if err := db.Where("slug = ?", t.Slug).FirstOrCreate(&t).Error; err != nil {
			log.Fatalf("seed tag %s: %v", n, err)
		}
		out = append(out, t)
	}
	return out
}

func pick(from []models.Category, n int) []models.Category {
	if n > len(from) {
		n = len(from)
	}
	start := gofakeit.Number(0, len(from)-n)
	return from[start : start+n]
}

func pickTags(from []models.Tag, n int) []models.Tag {
	if n > len(from) {
		n = len(from)
	}
	start := gofakeit.Number(0, len(from)-n)
	return from[start : start+n]
}
