package handler

import (
	"gorm.io/gorm"

	"github.com/inkpress/internal/service"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	identity  *service.IdentityService
	profiles  *service.ProfileService
	posts     *service.PostService
	taxonomy  *service.TaxonomyService
	comments  *service.CommentService
	uploadDir string
	uploadURL string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, uploadDir, uploadURL string) *API {
	identity := service.NewIdentityService(gdb)

	return &API{
		db:        gdb,
		identity:  identity,
		profiles:  service.NewProfileService(gdb, identity),
		posts:     service.NewPostService(gdb, identity),
		taxonomy:  service.NewTaxonomyService(gdb, identity),
		comments:  service.NewCommentService(gdb, identity),
		uploadDir: uploadDir,
		uploadURL: uploadURL,
	}
}
