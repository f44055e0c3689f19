package service

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/inkpress/internal/db"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return gdb
}

func createTestUser(t *testing.T, gdb *gorm.DB, username string, roles ...db.Role) *db.User {
	t.Helper()
	user := db.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
	}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	for _, role := range roles {
		if err := gdb.Create(&db.UserRole{UserID: user.ID, Role: role}).Error; err != nil {
			t.Fatalf("assign role %s: %v", role, err)
		}
	}
	return &user
}

func createTestPost(t *testing.T, svc *PostService, authorID uint, title, status string) *db.Post {
	t.Helper()
	post, err := svc.Create(authorID, PostInput{
		Title:   title,
		Content: "some content long enough to pass validation",
		Status:  status,
	})
	if err != nil {
		t.Fatalf("create post %q: %v", title, err)
	}
	return post
}
