package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/gamexpress/storefront/internal/api"
	"github.com/gamexpress/storefront/internal/app/model"
	apperrors "github.com/gamexpress/storefront/internal/errors"
	"github.com/gamexpress/storefront/internal/storage"
	"github.com/gamexpress/storefront/pkg/logger"
	"github.com/go-playground/validator/v10"
)

const (
	fallbackCategories = "Failed to fetch categories. Please try again."
	fallbackCategory   = "Failed to save category"
	fallbackProducts   = "Failed to fetch products"
	fallbackProduct    = "Failed to save product"
	fallbackDelete     = "Failed to delete"
	fallbackDashboard  = "Failed to fetch dashboard statistics"
)

var (
	catalogManagers  = []model.UserRole{model.RoleProductManager, model.RoleSuperAdmin}
	categoryManagers = []model.UserRole{model.RoleSuperAdmin}
)

// AdminAPI is the part of the API client used by the admin pages.
type AdminAPI interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id uint) (*model.Category, error)
	CreateCategory(ctx context.Context, in api.CategoryInput) error
	UpdateCategory(ctx context.Context, id uint, in api.CategoryInput) error
	DeleteCategory(ctx context.Context, id uint) error
	ListAdminProducts(ctx context.Context) ([]model.Product, error)
	GetAdminProduct(ctx context.Context, id uint) (*model.Product, error)
	CreateProduct(ctx context.Context, form api.ProductForm, images []api.Upload) error
	UpdateProduct(ctx context.Context, id uint, form api.ProductForm, images []api.Upload) error
	DeleteProduct(ctx context.Context, id uint) error
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
}

// PrincipalSource exposes the signed in principal.
type PrincipalSource interface {
	Principal() *model.Principal
}

// ImageOpener resolves an image reference into file contents.
type ImageOpener interface {
	Load(ctx context.Context, ref string) (*storage.Image, error)
}

type AdminService interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id uint) (*model.Category, error)
	CreateCategory(ctx context.Context, in api.CategoryInput) error
	UpdateCategory(ctx context.Context, id uint, in api.CategoryInput) error
	DeleteCategory(ctx context.Context, id uint) error

	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	CreateProduct(ctx context.Context, form api.ProductForm, imageRefs []string) error
	UpdateProduct(ctx context.Context, id uint, form api.ProductForm, imageRefs []string) error
	DeleteProduct(ctx context.Context, id uint) error

	Dashboard(ctx context.Context) (*model.DashboardStats, error)
	ImportProducts(ctx context.Context, path string) (*ImportReport, error)
}

type adminService struct {
	api      AdminAPI
	auth     PrincipalSource
	images   ImageOpener
	validate *validator.Validate
	log      *logger.Logger
}

func NewAdminService(adminAPI AdminAPI, auth PrincipalSource, images ImageOpener, log *logger.Logger) AdminService {
	if log == nil {
		log = logger.Get()
	}
	return &adminService{
		api:      adminAPI,
		auth:     auth,
		images:   images,
		validate: newValidator(),
		log:      log,
	}
}

var (
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slugify derives a URL slug from a name: lower case, whitespace becomes a
// hyphen and anything outside [a-z0-9-] is dropped.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugSpaces.ReplaceAllString(slug, "-")
	return slugInvalid.ReplaceAllString(slug, "")
}

func (s *adminService) requireRole(roles []model.UserRole) error {
	principal := s.auth.Principal()
	if principal == nil {
		return apperrors.New(apperrors.AuthUnauthorized, "Please log in to continue.")
	}
	if !principal.HasRole(roles...) {
		s.log.Warn("Admin action refused for role", logger.Fields{
			"user_id": principal.ID,
			"role":    principal.Role,
		})
		return apperrors.New(apperrors.AuthzForbidden, "You are not allowed to access this page.")
	}
	return nil
}

func (s *adminService) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := s.requireRole(categoryManagers); err != nil {
		return nil, err
	}
	categories, err := s.api.ListCategories(ctx)
	if err != nil {
		s.log.Error("Failed to fetch categories", err)
		return nil, apperrors.FromAPI(err, fallbackCategories)
	}
	return categories, nil
}

func (s *adminService) GetCategory(ctx context.Context, id uint) (*model.Category, error) {
	if err := s.requireRole(categoryManagers); err != nil {
		return nil, err
	}
	category, err := s.api.GetCategory(ctx, id)
	if err != nil {
		return nil, apperrors.FromAPI(err, fallbackCategories)
	}
	return category, nil
}

func (s *adminService) prepareCategory(in api.CategoryInput) (api.CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Slug == "" {
		in.Slug = Slugify(in.Name)
	}
	if err := s.validate.Struct(in); err != nil {
		return in, apperrors.FromValidation(err)
	}
	return in, nil
}

func (s *adminService) CreateCategory(ctx context.Context, in api.CategoryInput) error {
	if err := s.requireRole(categoryManagers); err != nil {
		return err
	}
	in, err := s.prepareCategory(in)
	if err != nil {
		return err
	}

	if err := s.api.CreateCategory(ctx, in); err != nil {
		s.log.Error("Failed to create category", err, logger.Fields{"name": in.Name})
		return apperrors.FromAPI(err, fallbackCategory)
	}
	s.log.Info("Category created", logger.Fields{"name": in.Name, "slug": in.Slug})
	return nil
}

func (s *adminService) UpdateCategory(ctx context.Context, id uint, in api.CategoryInput) error {
	if err := s.requireRole(categoryManagers); err != nil {
		return err
	}
	in, err := s.prepareCategory(in)
	if err != nil {
		return err
	}

	if err := s.api.UpdateCategory(ctx, id, in); err != nil {
		s.log.Error("Failed to update category", err, logger.Fields{"category_id": id})
		return apperrors.FromAPI(err, fallbackCategory)
	}
	s.log.Info("Category updated", logger.Fields{"category_id": id})
	return nil
}

func (s *adminService) DeleteCategory(ctx context.Context, id uint) error {
	if err := s.requireRole(categoryManagers); err != nil {
		return err
	}
	if err := s.api.DeleteCategory(ctx, id); err != nil {
		s.log.Error("Failed to delete category", err, logger.Fields{"category_id": id})
		return apperrors.FromAPI(err, fallbackDelete)
	}
	s.log.Info("Category deleted", logger.Fields{"category_id": id})
	return nil
}

func (s *adminService) ListProducts(ctx context.Context) ([]model.Product, error) {
	if err := s.requireRole(catalogManagers); err != nil {
		return nil, err
	}
	products, err := s.api.ListAdminProducts(ctx)
	if err != nil {
		s.log.Error("Failed to fetch admin products", err)
		return nil, apperrors.FromAPI(err, fallbackProducts)
	}
	return products, nil
}

func (s *adminService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	if err := s.requireRole(catalogManagers); err != nil {
		return nil, err
	}
	product, err := s.api.GetAdminProduct(ctx, id)
	if err != nil {
		return nil, apperrors.FromAPI(err, fallbackProducts)
	}
	return product, nil
}

// prepareProduct validates the form and loads every image before anything
// is sent.
func (s *adminService) prepareProduct(ctx context.Context, form api.ProductForm, imageRefs []string) (api.ProductForm, []api.Upload, error) {
	form.Name = strings.TrimSpace(form.Name)
	if form.Slug == "" {
		form.Slug = Slugify(form.Name)
	}
	if err := s.validate.Struct(form); err != nil {
		return form, nil, apperrors.FromValidation(err)
	}
	if form.Price.IsNegative() {
		fields := apperrors.FieldErrors{"price": "Must be greater than or equal to 0"}
		return form, nil, apperrors.Wrap(fields, apperrors.ValidationInvalidInput, fields.Error())
	}
	if len(imageRefs) > 0 && form.PrimaryIndex >= len(imageRefs) {
		fields := apperrors.FieldErrors{"primary_index": "Must point at one of the images"}
		return form, nil, apperrors.Wrap(fields, apperrors.ValidationInvalidInput, fields.Error())
	}

	if len(imageRefs) > 0 && s.images == nil {
		return form, nil, apperrors.New(apperrors.ValidationInvalidFile, "Image uploads are not available")
	}

	uploads := make([]api.Upload, 0, len(imageRefs))
	for _, ref := range imageRefs {
		img, err := s.images.Load(ctx, ref)
		if err != nil {
			s.log.Warn("Rejected product image", logger.Fields{
				"image": ref,
				"error": err.Error(),
			})
			return form, nil, apperrors.Wrap(err, apperrors.ValidationInvalidFile,
				"Accepted formats: JPG, JPEG, PNG, GIF (max: 2MB)")
		}
		uploads = append(uploads, api.Upload{Filename: img.Filename, Data: img.Data})
	}
	return form, uploads, nil
}

func (s *adminService) CreateProduct(ctx context.Context, form api.ProductForm, imageRefs []string) error {
	if err := s.requireRole(catalogManagers); err != nil {
		return err
	}
	form, uploads, err := s.prepareProduct(ctx, form, imageRefs)
	if err != nil {
		return err
	}

	if err := s.api.CreateProduct(ctx, form, uploads); err != nil {
		s.log.Error("Failed to create product", err, logger.Fields{"name": form.Name})
		return apperrors.FromAPI(err, fallbackProduct)
	}
	s.log.Info("Product created", logger.Fields{
		"name":   form.Name,
		"images": len(uploads),
	})
	return nil
}

func (s *adminService) UpdateProduct(ctx context.Context, id uint, form api.ProductForm, imageRefs []string) error {
	if err := s.requireRole(catalogManagers); err != nil {
		return err
	}
	form, uploads, err := s.prepareProduct(ctx, form, imageRefs)
	if err != nil {
		return err
	}

	if err := s.api.UpdateProduct(ctx, id, form, uploads); err != nil {
		s.log.Error("Failed to update product", err, logger.Fields{"product_id": id})
		return apperrors.FromAPI(err, fallbackProduct)
	}
	s.log.Info("Product updated", logger.Fields{"product_id": id})
	return nil
}

func (s *adminService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.requireRole(catalogManagers); err != nil {
		return err
	}
	if err := s.api.DeleteProduct(ctx, id); err != nil {
		s.log.Error("Failed to delete product", err, logger.Fields{"product_id": id})
		return apperrors.FromAPI(err, fallbackDelete)
	}
	s.log.Info("Product deleted", logger.Fields{"product_id": id})
	return nil
}

func (s *adminService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	if err := s.requireRole(catalogManagers); err != nil {
		return nil, err
	}
	stats, err := s.api.Dashboard(ctx)
	if err != nil {
		s.log.Error("Failed to fetch dashboard statistics", err)
		return nil, apperrors.FromAPI(err, fallbackDashboard)
	}
	return stats, nil
}
