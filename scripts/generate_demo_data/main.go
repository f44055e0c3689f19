package main

import (
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkpress/internal/config"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/service"
)

// 演示数据生成器，方便本地调试前台和后台
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成演示数据...")

	admin := ensureUser("demo-admin", "demo-admin@example.com", "admin123", db.RoleAdmin)
	editor := ensureUser("demo-editor", "demo-editor@example.com", "editor123", db.RoleEditor)
	reader := ensureUser("demo-reader", "demo-reader@example.com", "reader123")

	identity := service.NewIdentityService(db.DB)
	taxonomy := service.NewTaxonomyService(db.DB, identity)
	posts := service.NewPostService(db.DB, identity)
	comments := service.NewCommentService(db.DB, identity)

	category, err := taxonomy.CreateCategory(admin.ID, service.CategoryInput{
		Name:        "技术",
		Description: "工程和技术相关的文章",
	})
	if err != nil {
		log.Fatal("创建分类失败:", err)
	}

	var tagIDs []uint
	for _, name := range []string{"golang", "web", "随笔"} {
		tag, err := taxonomy.CreateTag(admin.ID, name)
		if err != nil {
			log.Fatal("创建标签失败:", err)
		}
		tagIDs = append(tagIDs, tag.ID)
	}

	published, err := posts.Create(editor.ID, service.PostInput{
		Title:      "第一篇演示文章",
		Content:    "# 欢迎\n\n这是一篇已发布的演示文章，包含足够长的正文。",
		Excerpt:    "演示文章摘要",
		Status:     db.StatusPublished,
		CategoryID: &category.ID,
		TagIDs:     tagIDs[:2],
	})
	if err != nil {
		log.Fatal("创建文章失败:", err)
	}

	if _, err := posts.Create(editor.ID, service.PostInput{
		Title:   "一篇待发布的草稿",
		Content: "还在打磨中的内容，暂时不对外展示。",
		Status:  db.StatusDraft,
		TagIDs:  tagIDs[2:],
	}); err != nil {
		log.Fatal("创建草稿失败:", err)
	}

	comment, err := comments.Create(reader.ID, published.ID, "写得不错，期待更新！", nil)
	if err != nil {
		log.Fatal("创建评论失败:", err)
	}
	if _, err := comments.Create(editor.ID, published.ID, "谢谢支持，下周继续。", &comment.ID); err != nil {
		log.Fatal("创建回复失败:", err)
	}

	fmt.Println("演示数据生成完成！")
	fmt.Println("管理员: demo-admin@example.com (密码: admin123)")
	fmt.Println("编辑: demo-editor@example.com (密码: editor123)")
	fmt.Println("读者: demo-reader@example.com (密码: reader123)")
}

func ensureUser(username, email, password string, roles ...db.Role) *db.User {
	var existing db.User
	if err := db.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		fmt.Printf("用户 %s 已存在，跳过创建\n", username)
		return &existing
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("密码加密失败:", err)
	}

	user := db.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
	}
	if err := db.DB.Create(&user).Error; err != nil {
		log.Fatal("创建用户失败:", err)
	}
	for _, role := range roles {
		if err := db.DB.Create(&db.UserRole{UserID: user.ID, Role: role}).Error; err != nil {
			log.Fatal("分配角色失败:", err)
		}
	}
	return &user
}
