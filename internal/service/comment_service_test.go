package service

import (
	"errors"
	"testing"
	"time"

	"github.com/inkpress/internal/db"
)

func setupCommentFixture(t *testing.T) (*CommentService, *db.Post, *db.User, *db.User) {
	t.Helper()
	gdb := setupServiceTestDB(t)
	identity := NewIdentityService(gdb)
	posts := NewPostService(gdb, identity)
	comments := NewCommentService(gdb, identity)

	author := createTestUser(t, gdb, "post-author", db.RoleEditor)
	reader := createTestUser(t, gdb, "commenter")
	post := createTestPost(t, posts, author.ID, "Discussed Post", db.StatusPublished)

	return comments, post, author, reader
}

func TestCreateCommentAndReply(t *testing.T) {
	comments, post, _, reader := setupCommentFixture(t)

	top, err := comments.Create(reader.ID, post.ID, "nice post", nil)
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if top.ParentID != nil {
		t.Fatalf("expected top-level comment, got parent %v", top.ParentID)
	}

	reply, err := comments.Create(reader.ID, post.ID, "replying to myself", &top.ID)
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	if reply.ParentID == nil || *reply.ParentID != top.ID {
		t.Fatalf("expected reply parent %d, got %v", top.ID, reply.ParentID)
	}
}

func TestReplyToReplyRejected(t *testing.T) {
	comments, post, _, reader := setupCommentFixture(t)

	top, err := comments.Create(reader.ID, post.ID, "top level", nil)
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	reply, err := comments.Create(reader.ID, post.ID, "first reply", &top.ID)
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}

	_, err = comments.Create(reader.ID, post.ID, "nice", &reply.ID)
	if !IsValidation(err) {
		t.Fatalf("expected validation error for reply-to-reply, got %v", err)
	}
}

func TestReplyAcrossPostsRejected(t *testing.T) {
	gdb := setupServiceTestDB(t)
	identity := NewIdentityService(gdb)
	posts := NewPostService(gdb, identity)
	comments := NewCommentService(gdb, identity)

	author := createTestUser(t, gdb, "cross-author", db.RoleEditor)
	reader := createTestUser(t, gdb, "cross-reader")

	first := createTestPost(t, posts, author.ID, "First Post", db.StatusPublished)
	second := createTestPost(t, posts, author.ID, "Second Post", db.StatusPublished)

	top, err := comments.Create(reader.ID, first.ID, "on the first post", nil)
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	_, err = comments.Create(reader.ID, second.ID, "wrong thread", &top.ID)
	if !IsValidation(err) {
		t.Fatalf("expected validation error for cross-post parent, got %v", err)
	}
}

func TestCreateCommentRequiresAuth(t *testing.T) {
	comments, post, _, _ := setupCommentFixture(t)

	_, err := comments.Create(0, post.ID, "anonymous shout", nil)
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected auth required, got %v", err)
	}
}

func TestGetThreadOrdering(t *testing.T) {
	comments, post, author, reader := setupCommentFixture(t)

	first, err := comments.Create(reader.ID, post.ID, "first!", nil)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := comments.Create(author.ID, post.ID, "thanks for reading", nil)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := comments.Create(author.ID, post.ID, "welcome", &first.ID); err != nil {
		t.Fatalf("create reply: %v", err)
	}

	thread, err := comments.GetThread(post.ID)
	if err != nil {
		t.Fatalf("get thread: %v", err)
	}
	if len(thread) != 2 {
		t.Fatalf("expected two top-level comments, got %d", len(thread))
	}
	if thread[0].ID != first.ID || thread[1].ID != second.ID {
		t.Fatalf("expected ascending creation order, got %d then %d", thread[0].ID, thread[1].ID)
	}
	if len(thread[0].Replies) != 1 {
		t.Fatalf("expected one reply under the first comment, got %d", len(thread[0].Replies))
	}
	if len(thread[1].Replies) != 0 {
		t.Fatalf("expected no replies under the second comment, got %d", len(thread[1].Replies))
	}
	if thread[0].Author.Username != reader.Username {
		t.Fatalf("expected author preloaded, got %q", thread[0].Author.Username)
	}
}

func TestUpdateCommentAuthorization(t *testing.T) {
	gdb := setupServiceTestDB(t)
	identity := NewIdentityService(gdb)
	posts := NewPostService(gdb, identity)
	comments := NewCommentService(gdb, identity)

	author := createTestUser(t, gdb, "moderated-author", db.RoleEditor)
	commenter := createTestUser(t, gdb, "moderated-commenter")
	stranger := createTestUser(t, gdb, "moderated-stranger")
	admin := createTestUser(t, gdb, "moderator", db.RoleAdmin)

	post := createTestPost(t, posts, author.ID, "Moderated Post", db.StatusPublished)

	comment, err := comments.Create(commenter.ID, post.ID, "hot take", nil)
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if _, err := comments.Update(stranger.ID, comment.ID, "defaced"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	if _, err := comments.Update(commenter.ID, comment.ID, "cooler take"); err != nil {
		t.Fatalf("author update: %v", err)
	}
	if err := comments.Delete(admin.ID, comment.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestDeleteTopLevelCascadesReplies(t *testing.T) {
	comments, post, author, reader := setupCommentFixture(t)

	top, err := comments.Create(reader.ID, post.ID, "parent", nil)
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	if _, err := comments.Create(author.ID, post.ID, "child", &top.ID); err != nil {
		t.Fatalf("create child: %v", err)
	}

	if err := comments.Delete(reader.ID, top.ID); err != nil {
		t.Fatalf("delete parent: %v", err)
	}

	thread, err := comments.GetThread(post.ID)
	if err != nil {
		t.Fatalf("get thread: %v", err)
	}
	if len(thread) != 0 {
		t.Fatalf("expected empty thread, got %d comments", len(thread))
	}
}
