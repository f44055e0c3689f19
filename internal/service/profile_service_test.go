package service

import (
	"errors"
	"testing"

	"github.com/inkpress/internal/db"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewProfileService(gdb, NewIdentityService(gdb))

	user, err := svc.Register(RegisterInput{
		Username: "newcomer",
		Email:    "newcomer@example.com",
		Password: "long-enough-password",
		FullName: "New Comer",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Password == "long-enough-password" {
		t.Fatal("password stored in plain text")
	}

	authed, err := svc.Authenticate("newcomer@example.com", "long-enough-password")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, authed.ID)
	}

	if _, err := svc.Authenticate("newcomer@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewProfileService(gdb, NewIdentityService(gdb))

	input := RegisterInput{
		Username: "taken",
		Email:    "first@example.com",
		Password: "long-enough-password",
	}
	if _, err := svc.Register(input); err != nil {
		t.Fatalf("register first: %v", err)
	}

	input.Email = "second@example.com"
	if _, err := svc.Register(input); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}
}

func TestUpdateProfileOwnership(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewProfileService(gdb, NewIdentityService(gdb))

	owner := createTestUser(t, gdb, "profile-owner")
	stranger := createTestUser(t, gdb, "profile-stranger")
	admin := createTestUser(t, gdb, "profile-admin", db.RoleAdmin)

	bio := "short bio"
	if _, err := svc.Update(stranger.ID, owner.ID, ProfileUpdate{Bio: &bio}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	updated, err := svc.Update(owner.ID, owner.ID, ProfileUpdate{Bio: &bio})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Bio != bio {
		t.Fatalf("expected bio %q, got %q", bio, updated.Bio)
	}

	fullName := "Set By Admin"
	if _, err := svc.Update(admin.ID, owner.ID, ProfileUpdate{FullName: &fullName}); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestUpdateProfileRejectsBadAvatarURL(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewProfileService(gdb, NewIdentityService(gdb))

	owner := createTestUser(t, gdb, "avatar-owner")

	bad := "not a url at all"
	if _, err := svc.Update(owner.ID, owner.ID, ProfileUpdate{AvatarURL: &bad}); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListAllRequiresAdmin(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewProfileService(gdb, NewIdentityService(gdb))

	editor := createTestUser(t, gdb, "list-editor", db.RoleEditor)
	admin := createTestUser(t, gdb, "list-admin", db.RoleAdmin)

	if _, err := svc.ListAll(editor.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	profiles, err := svc.ListAll(admin.ID)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected two profiles, got %d", len(profiles))
	}
	for _, profile := range profiles {
		if profile.Roles == nil {
			t.Fatalf("expected roles slice for %s", profile.Username)
		}
	}
}

func TestDeleteProfileCascades(t *testing.T) {
	gdb := setupServiceTestDB(t)
	identity := NewIdentityService(gdb)
	svc := NewProfileService(gdb, identity)
	posts := NewPostService(gdb, identity)
	comments := NewCommentService(gdb, identity)

	admin := createTestUser(t, gdb, "erasing-admin", db.RoleAdmin)
	doomed := createTestUser(t, gdb, "doomed-user", db.RoleEditor)
	bystander := createTestUser(t, gdb, "bystander")

	post := createTestPost(t, posts, doomed.ID, "Doomed Author Post", db.StatusPublished)
	if _, err := comments.Create(bystander.ID, post.ID, "on the doomed post", nil); err != nil {
		t.Fatalf("create bystander comment: %v", err)
	}

	otherPost := createTestPost(t, posts, admin.ID, "Surviving Post", db.StatusPublished)
	if _, err := comments.Create(doomed.ID, otherPost.ID, "doomed elsewhere", nil); err != nil {
		t.Fatalf("create doomed comment: %v", err)
	}

	if err := svc.Delete(admin.ID, doomed.ID); err != nil {
		t.Fatalf("delete profile: %v", err)
	}

	if _, err := svc.Get(doomed.ID); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected profile gone, got %v", err)
	}

	var postCount int64
	if err := gdb.Model(&db.Post{}).Where("author_id = ?", doomed.ID).Count(&postCount).Error; err != nil {
		t.Fatalf("count posts: %v", err)
	}
	if postCount != 0 {
		t.Fatalf("expected author posts cascaded, got %d", postCount)
	}

	var commentCount int64
	if err := gdb.Model(&db.Comment{}).Where("author_id = ? OR post_id = ?", doomed.ID, post.ID).Count(&commentCount).Error; err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if commentCount != 0 {
		t.Fatalf("expected comments cascaded, got %d", commentCount)
	}

	var roleCount int64
	if err := gdb.Model(&db.UserRole{}).Where("user_id = ?", doomed.ID).Count(&roleCount).Error; err != nil {
		t.Fatalf("count roles: %v", err)
	}
	if roleCount != 0 {
		t.Fatalf("expected role rows cascaded, got %d", roleCount)
	}

	surviving, err := posts.Get(otherPost.ID)
	if err != nil {
		t.Fatalf("expected unrelated post to survive: %v", err)
	}
	if surviving.AuthorID != admin.ID {
		t.Fatalf("unexpected author %d", surviving.AuthorID)
	}
}

func TestUpdatePasswordValidation(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewProfileService(gdb, NewIdentityService(gdb))

	user := createTestUser(t, gdb, "password-user")

	if err := svc.UpdatePassword(user.ID, "short"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.UpdatePassword(0, "long-enough-password"); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected auth required, got %v", err)
	}
	if err := svc.UpdatePassword(user.ID, "long-enough-password"); err != nil {
		t.Fatalf("update password: %v", err)
	}
}
