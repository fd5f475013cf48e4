package models

import "testing"

func TestCanMutate(t *testing.T) {
	author := &User{ID: 1, Role: RoleSubscriber}
	other := &User{ID: 2, Role: RoleSubscriber}
	admin := &User{ID: 3, Role: RoleAdmin}

	const blogAuthorID = 1

	if !CanMutate(author, blogAuthorID) {
		t.Fatalf("author must be able to mutate their own blog")
	}
	if CanMutate(other, blogAuthorID) {
		t.Fatalf("non-owner must not be able to mutate another author's blog")
	}
	if !CanMutate(admin, blogAuthorID) {
		t.Fatalf("admin must be able to mutate any blog")
	}
	if !CanMutate(admin, admin.ID) {
		t.Fatalf("admin must be able to mutate their own blog")
	}
	if CanMutate(nil, blogAuthorID) {
		t.Fatalf("nil actor must never pass the guard")
	}
}

func TestPublicProfileOmitsSecrets(t *testing.T) {
	u := &User{
		ID:           7,
		Name:         "A",
		Email:        "a@x.com",
		Username:     "abc123",
		PasswordHash: "$2a$10$secret",
		Photo:        []byte{1, 2, 3},
	}
	profile := u.PublicProfile()

	for key := range profile {
		switch key {
		case "_id", "name", "email", "username", "profile", "about", "role":
		default:
			t.Fatalf("unexpected key %q in public profile", key)
		}
	}
}
