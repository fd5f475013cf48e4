package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/cppla/seoblog/models"
)

func TestCreateBlogDerivesFields(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)
	categories, tags := env.seedTaxonomy()

	photo := bytes.Repeat([]byte{0x42}, 512)
	form, contentType := blogForm(t, map[string]string{
		"title":      "A Guide to Indexes",
		"body":       testBody,
		"categories": idList(categories[0].ID, categories[1].ID),
		"tags":       idList(tags[0].ID),
	}, photo, "image/png")

	w := env.do("POST", "/api/blog", form, contentType, env.token(admin))
	wantMessage(t, w, "Blog created successfully")

	var blog models.Blog
	err := env.db.Preload("Categories").Preload("Tags").
		Where("slug = ?", "a-guide-to-indexes").First(&blog).Error
	if err != nil {
		t.Fatalf("blog not persisted under derived slug: %v", err)
	}

	if blog.AuthorID != admin.ID {
		t.Fatalf("author = %d, want %d", blog.AuthorID, admin.ID)
	}
	if blog.MetaTitle != "A Guide to Indexes | SEOBLOG" {
		t.Fatalf("meta title = %q", blog.MetaTitle)
	}
	if !strings.HasSuffix(blog.Excerpt, " ...") {
		t.Fatalf("long body excerpt not truncated: %q", blog.Excerpt)
	}
	if len([]rune(blog.Excerpt)) > 324 {
		t.Fatalf("excerpt too long: %d runes", len([]rune(blog.Excerpt)))
	}
	if blog.MetaDescription == "" || len([]rune(blog.MetaDescription)) > 160 {
		t.Fatalf("meta description = %q", blog.MetaDescription)
	}
	// Categories and tags must come from their own form fields.
	if len(blog.Categories) != 2 {
		t.Fatalf("categories attached = %d, want 2", len(blog.Categories))
	}
	if len(blog.Tags) != 1 {
		t.Fatalf("tags attached = %d, want 1", len(blog.Tags))
	}

	photoResp := env.do("GET", "/api/blog/photo/a-guide-to-indexes", nil, "", "")
	wantStatus(t, photoResp, http.StatusOK)
	if got := photoResp.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("photo content type = %q", got)
	}
	if !bytes.Equal(photoResp.Body.Bytes(), photo) {
		t.Fatal("photo bytes did not round trip")
	}
}

func TestCreateBlogTitleTooShort(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)
	categories, tags := env.seedTaxonomy()

	form, contentType := blogForm(t, map[string]string{
		"title":      "ab",
		"body":       testBody,
		"categories": idList(categories[0].ID),
		"tags":       idList(tags[0].ID),
	}, nil, "")

	w := env.do("POST", "/api/blog", form, contentType, env.token(admin))
	wantError(t, w, http.StatusBadRequest, "Titles need to be at least 3 characters long.")
	if n := env.countBlogs(); n != 0 {
		t.Fatalf("rejected blog persisted, count = %d", n)
	}
}

func TestCreateBlogValidationMessages(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)
	categories, tags := env.seedTaxonomy()
	token := env.token(admin)

	cases := []struct {
		name    string
		fields  map[string]string
		message string
	}{
		{
			"missing title",
			map[string]string{"body": testBody, "categories": idList(categories[0].ID), "tags": idList(tags[0].ID)},
			"A title is required.",
		},
		{
			"short body",
			map[string]string{"title": "Valid Title", "body": "too short", "categories": idList(categories[0].ID), "tags": idList(tags[0].ID)},
			"You need more content.",
		},
		{
			"missing categories",
			map[string]string{"title": "Valid Title", "body": testBody, "tags": idList(tags[0].ID)},
			"At least one category is required.",
		},
		{
			"missing tags",
			map[string]string{"title": "Valid Title", "body": testBody, "categories": idList(categories[0].ID)},
			"At least one tag is required.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form, contentType := blogForm(t, tc.fields, nil, "")
			w := env.do("POST", "/api/blog", form, contentType, token)
			wantError(t, w, http.StatusBadRequest, tc.message)
		})
	}
	if n := env.countBlogs(); n != 0 {
		t.Fatalf("rejected blogs persisted, count = %d", n)
	}
}

func TestCreateBlogDuplicateTitle(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)
	categories, tags := env.seedTaxonomy()
	token := env.token(admin)

	fields := map[string]string{
		"title":      "Same Title",
		"body":       testBody,
		"categories": idList(categories[0].ID),
		"tags":       idList(tags[0].ID),
	}

	form, contentType := blogForm(t, fields, nil, "")
	wantMessage(t, env.do("POST", "/api/blog", form, contentType, token), "Blog created successfully")

	form, contentType = blogForm(t, fields, nil, "")
	w := env.do("POST", "/api/blog", form, contentType, token)
	wantError(t, w, http.StatusConflict, "A blog with that title already exists.")
	if n := env.countBlogs(); n != 1 {
		t.Fatalf("duplicate blog persisted, count = %d", n)
	}
}

func TestCreateBlogOversizePhoto(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)
	categories, tags := env.seedTaxonomy()

	form, contentType := blogForm(t, map[string]string{
		"title":      "Big Picture",
		"body":       testBody,
		"categories": idList(categories[0].ID),
		"tags":       idList(tags[0].ID),
	}, bytes.Repeat([]byte{0x42}, models.PhotoMaxSize+1), "image/png")

	w := env.do("POST", "/api/blog", form, contentType, env.token(admin))
	wantError(t, w, http.StatusBadRequest, "Images need to be less than 1mb in size.")
	if n := env.countBlogs(); n != 0 {
		t.Fatalf("rejected blog persisted, count = %d", n)
	}
}

func TestUpdateBlogKeepsSlug(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)
	categories, tags := env.seedTaxonomy()
	token := env.token(admin)

	form, contentType := blogForm(t, map[string]string{
		"title":      "Original Title",
		"body":       testBody,
		"categories": idList(categories[0].ID),
		"tags":       idList(tags[0].ID),
	}, nil, "")
	wantMessage(t, env.do("POST", "/api/blog", form, contentType, token), "Blog created successfully")

	form, contentType = blogForm(t, map[string]string{
		"title": "Completely Different Title",
	}, nil, "")
	w := env.do("PUT", "/api/blog/original-title", form, contentType, token)
	wantStatus(t, w, http.StatusOK)

	var blog models.Blog
	if err := env.db.Where("slug = ?", "original-title").First(&blog).Error; err != nil {
		t.Fatalf("slug changed on title update: %v", err)
	}
	if blog.Title != "Completely Different Title" {
		t.Fatalf("title = %q", blog.Title)
	}
	if blog.MetaTitle != "Completely Different Title | SEOBLOG" {
		t.Fatalf("meta title not rederived: %q", blog.MetaTitle)
	}
}

func TestUpdateBlogReplacesTaxonomy(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)
	categories, tags := env.seedTaxonomy()
	token := env.token(admin)

	form, contentType := blogForm(t, map[string]string{
		"title":      "Taxonomy Swap",
		"body":       testBody,
		"categories": idList(categories[0].ID),
		"tags":       idList(tags[0].ID),
	}, nil, "")
	wantMessage(t, env.do("POST", "/api/blog", form, contentType, token), "Blog created successfully")

	form, contentType = blogForm(t, map[string]string{
		"categories": idList(categories[1].ID),
		"tags":       idList(tags[1].ID),
	}, nil, "")
	w := env.do("PUT", "/api/blog/taxonomy-swap", form, contentType, token)
	wantStatus(t, w, http.StatusOK)

	var blog models.Blog
	err := env.db.Preload("Categories").Preload("Tags").
		Where("slug = ?", "taxonomy-swap").First(&blog).Error
	if err != nil {
		t.Fatalf("load blog: %v", err)
	}
	if len(blog.Categories) != 1 || blog.Categories[0].ID != categories[1].ID {
		t.Fatalf("categories not replaced: %+v", blog.Categories)
	}
	if len(blog.Tags) != 1 || blog.Tags[0].ID != tags[1].ID {
		t.Fatalf("tags not replaced: %+v", blog.Tags)
	}
}

func TestOwnershipGuard(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser("Author", "author@example.com", "hunter22", models.RoleSubscriber)
	other := env.createUser("Other", "other@example.com", "hunter22", models.RoleSubscriber)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)
	categories, tags := env.seedTaxonomy()

	form, contentType := blogForm(t, map[string]string{
		"title":      "My Own Post",
		"body":       testBody,
		"categories": idList(categories[0].ID),
		"tags":       idList(tags[0].ID),
	}, nil, "")
	wantMessage(t, env.do("POST", "/api/user/blog", form, contentType, env.token(author)), "Blog created successfully")

	// A different subscriber cannot touch it.
	w := env.do("DELETE", "/api/user/blog/my-own-post", nil, "", env.token(other))
	wantError(t, w, http.StatusBadRequest, "You can't perform that action.")
	if n := env.countBlogs(); n != 1 {
		t.Fatalf("blog removed by non-owner, count = %d", n)
	}

	form, contentType = blogForm(t, map[string]string{"title": "Hijacked Title"}, nil, "")
	w = env.do("PUT", "/api/user/blog/my-own-post", form, contentType, env.token(other))
	wantError(t, w, http.StatusBadRequest, "You can't perform that action.")

	// Admins pass the guard on anyone's post.
	form, contentType = blogForm(t, map[string]string{"title": "Moderated Title"}, nil, "")
	w = env.do("PUT", "/api/blog/my-own-post", form, contentType, env.token(admin))
	wantStatus(t, w, http.StatusOK)

	// The author can delete their own post.
	w = env.do("DELETE", "/api/user/blog/my-own-post", nil, "", env.token(author))
	wantMessage(t, w, "Blog deleted successfully.")
	if n := env.countBlogs(); n != 0 {
		t.Fatalf("blog not deleted, count = %d", n)
	}
}

func TestDeleteUnknownBlog(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)

	w := env.do("DELETE", "/api/blog/no-such-slug", nil, "", env.token(admin))
	wantError(t, w, http.StatusNotFound, "Blog not found.")
}

func TestAdminRouteRejectsSubscriber(t *testing.T) {
	env := newTestEnv(t)
	subscriber := env.createUser("Sub", "sub@example.com", "hunter22", models.RoleSubscriber)
	categories, tags := env.seedTaxonomy()

	form, contentType := blogForm(t, map[string]string{
		"title":      "Not Allowed",
		"body":       testBody,
		"categories": idList(categories[0].ID),
		"tags":       idList(tags[0].ID),
	}, nil, "")
	w := env.do("POST", "/api/blog", form, contentType, env.token(subscriber))
	wantError(t, w, http.StatusBadRequest, "Admin resource, access denied.")

	w = env.do("POST", "/api/blog", form, contentType, "")
	wantError(t, w, http.StatusUnauthorized, "You must be signed in to do that.")
}

func TestBlogListingsAndFeed(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)
	categories, tags := env.seedTaxonomy()
	token := env.token(admin)

	for _, title := range []string{"First Post", "Second Post", "Third Post"} {
		form, contentType := blogForm(t, map[string]string{
			"title":      title,
			"body":       testBody,
			"categories": idList(categories[0].ID),
			"tags":       idList(tags[0].ID),
		}, nil, "")
		wantMessage(t, env.do("POST", "/api/blog", form, contentType, token), "Blog created successfully")
	}

	w := env.do("GET", "/api/blogs", nil, "", "")
	wantStatus(t, w, http.StatusOK)
	var listed []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("listed %d blogs, want 3", len(listed))
	}
	for _, item := range listed {
		if _, hasBody := item["body"]; hasBody {
			t.Fatal("listing leaked blog bodies")
		}
		if item["excerpt"] == "" {
			t.Fatal("listing missing excerpt")
		}
	}

	feed := env.doJSON("POST", "/api/blogs-categories-tags", map[string]int{"limit": 2, "skip": 0}, "")
	wantStatus(t, feed, http.StatusOK)
	payload := decodeBody(t, feed)
	if payload["size"] != float64(2) {
		t.Fatalf("feed size = %v, want 2", payload["size"])
	}
	if _, ok := payload["categories"]; !ok {
		t.Fatal("feed missing categories")
	}
	if _, ok := payload["tags"]; !ok {
		t.Fatal("feed missing tags")
	}

	single := env.do("GET", "/api/blog/first-post", nil, "", "")
	wantStatus(t, single, http.StatusOK)
	detail := decodeBody(t, single)
	if detail["body"] == nil || detail["body"] == "" {
		t.Fatal("detail view missing body")
	}

	missing := env.do("GET", "/api/blog/no-such-post", nil, "", "")
	wantError(t, missing, http.StatusNotFound, "Blog not found.")
}

// Public blog payloads embed the author under postedBy; only public identity
// fields may appear there, never the email or anything else off the account.
func TestPublicListingRestrictsAuthorFields(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser("Author", "author@example.com", "hunter22", models.RoleSubscriber)
	categories, tags := env.seedTaxonomy()

	form, contentType := blogForm(t, map[string]string{
		"title":      "Visible Post",
		"body":       testBody,
		"categories": idList(categories[0].ID),
		"tags":       idList(tags[0].ID),
	}, nil, "")
	wantMessage(t, env.do("POST", "/api/user/blog", form, contentType, env.token(author)), "Blog created successfully")

	for _, path := range []string{"/api/blogs", "/api/blog/visible-post"} {
		w := env.do("GET", path, nil, "", "")
		wantStatus(t, w, http.StatusOK)
		if bytes.Contains(w.Body.Bytes(), []byte("author@example.com")) {
			t.Fatalf("%s leaked the author email", path)
		}
	}

	w := env.do("GET", "/api/blogs", nil, "", "")
	var listed []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	postedBy, ok := listed[0]["postedBy"].(map[string]any)
	if !ok {
		t.Fatalf("listing missing postedBy: %v", listed[0])
	}
	for _, key := range []string{"_id", "name", "username", "profile"} {
		if _, present := postedBy[key]; !present {
			t.Fatalf("postedBy missing %q", key)
		}
	}
	if len(postedBy) != 4 {
		t.Fatalf("postedBy exposes extra fields: %v", postedBy)
	}
	if postedBy["username"] != author.Username {
		t.Fatalf("postedBy.username = %v", postedBy["username"])
	}
}

func TestRelatedBlogs(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)
	categories, tags := env.seedTaxonomy()
	token := env.token(admin)

	create := func(title string, categoryID uint) {
		form, contentType := blogForm(t, map[string]string{
			"title":      title,
			"body":       testBody,
			"categories": idList(categoryID),
			"tags":       idList(tags[0].ID),
		}, nil, "")
		wantMessage(t, env.do("POST", "/api/blog", form, contentType, token), "Blog created successfully")
	}
	create("Anchor Post", categories[0].ID)
	create("Sibling Post", categories[0].ID)
	create("Unrelated Post", categories[1].ID)

	w := env.doJSON("POST", "/api/blogs/related", map[string]any{"slug": "anchor-post"}, "")
	wantStatus(t, w, http.StatusOK)
	var related []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &related); err != nil {
		t.Fatalf("decode related: %v", err)
	}
	if len(related) != 1 {
		t.Fatalf("related count = %d, want 1", len(related))
	}
	if related[0]["slug"] != "sibling-post" {
		t.Fatalf("related slug = %v", related[0]["slug"])
	}
}

func TestSearchBlogs(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("Admin", "admin@example.com", "hunter22", models.RoleAdmin)
	categories, tags := env.seedTaxonomy()
	token := env.token(admin)

	for _, title := range []string{"Tuning Postgres", "Baking Bread"} {
		form, contentType := blogForm(t, map[string]string{
			"title":      title,
			"body":       testBody,
			"categories": idList(categories[0].ID),
			"tags":       idList(tags[0].ID),
		}, nil, "")
		wantMessage(t, env.do("POST", "/api/blog", form, contentType, token), "Blog created successfully")
	}

	w := env.do("GET", "/api/blogs/search?search=Postgres", nil, "", "")
	wantStatus(t, w, http.StatusOK)
	var found []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &found); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(found) != 1 || found[0]["slug"] != "tuning-postgres" {
		t.Fatalf("search results = %+v", found)
	}

	empty := env.do("GET", "/api/blogs/search", nil, "", "")
	wantStatus(t, empty, http.StatusOK)
	if strings.TrimSpace(empty.Body.String()) != "[]" {
		t.Fatalf("blank search = %s", empty.Body.String())
	}
}
