package controllers_test

import (
	"net/http"
	"testing"

	"github.com/cppla/seoblog/models"
)

func TestCategoryLifecycle(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)
	token := env.token(admin)

	w := env.doJSON("POST", "/api/category", map[string]string{"name": "Web Development"}, token)
	wantStatus(t, w, http.StatusOK)
	created := decodeBody(t, w)
	if created["slug"] != "web-development" {
		t.Fatalf("slug = %v", created["slug"])
	}

	w = env.doJSON("POST", "/api/category", map[string]string{"name": "Web Development"}, token)
	wantError(t, w, http.StatusConflict, "Category already exists.")

	w = env.doJSON("POST", "/api/category", map[string]string{"name": ""}, token)
	wantError(t, w, http.StatusBadRequest, "Name is required.")

	list := env.do("GET", "/api/categories", nil, "", "")
	wantStatus(t, list, http.StatusOK)

	read := env.do("GET", "/api/category/web-development", nil, "", "")
	wantStatus(t, read, http.StatusOK)
	payload := decodeBody(t, read)
	if _, ok := payload["category"]; !ok {
		t.Fatal("read missing category")
	}
	if _, ok := payload["blogs"]; !ok {
		t.Fatal("read missing blogs")
	}

	w = env.do("DELETE", "/api/category/web-development", nil, "", token)
	wantMessage(t, w, "Category successfully deleted.")

	read = env.do("GET", "/api/category/web-development", nil, "", "")
	wantError(t, read, http.StatusNotFound, "Category not found.")
}

func TestTagLifecycle(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)
	token := env.token(admin)

	w := env.doJSON("POST", "/api/tag", map[string]string{"name": "Hot Takes"}, token)
	wantStatus(t, w, http.StatusOK)
	created := decodeBody(t, w)
	if created["slug"] != "hot-takes" {
		t.Fatalf("slug = %v", created["slug"])
	}

	w = env.doJSON("POST", "/api/tag", map[string]string{"name": "Hot Takes"}, token)
	wantError(t, w, http.StatusConflict, "Tag already exists.")

	w = env.do("DELETE", "/api/tag/hot-takes", nil, "", token)
	wantMessage(t, w, "Tag successfully deleted.")
}

func TestTaxonomyWritesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	subscriber := env.createUser("Sub", "sub@example.com", "hunter22", models.RoleSubscriber)
	token := env.token(subscriber)

	w := env.doJSON("POST", "/api/category", map[string]string{"name": "Nope"}, token)
	wantError(t, w, http.StatusBadRequest, "Admin resource, access denied.")

	w = env.doJSON("POST", "/api/tag", map[string]string{"name": "Nope"}, token)
	wantError(t, w, http.StatusBadRequest, "Admin resource, access denied.")

	w = env.do("DELETE", "/api/category/nope", nil, "", token)
	wantError(t, w, http.StatusBadRequest, "Admin resource, access denied.")
}

// Deleting a category must only detach it; the blogs filed under it survive.
func TestCategoryDeleteKeepsBlogs(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)
	categories, tags := env.seedTaxonomy()
	token := env.token(admin)

	form, contentType := blogForm(t, map[string]string{
		"title":      "Filed Post",
		"body":       testBody,
		"categories": idList(categories[0].ID),
		"tags":       idList(tags[0].ID),
	}, nil, "")
	wantMessage(t, env.do("POST", "/api/blog", form, contentType, token), "Blog created successfully")

	w := env.do("DELETE", "/api/category/"+categories[0].Slug, nil, "", token)
	wantMessage(t, w, "Category successfully deleted.")

	if n := env.countBlogs(); n != 1 {
		t.Fatalf("blog went away with its category, count = %d", n)
	}
	var blog models.Blog
	if err := env.db.Preload("Categories").Where("slug = ?", "filed-post").First(&blog).Error; err != nil {
		t.Fatalf("load blog: %v", err)
	}
	if len(blog.Categories) != 0 {
		t.Fatalf("stale category association: %+v", blog.Categories)
	}
}
