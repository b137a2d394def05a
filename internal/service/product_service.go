package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"rentbook/internal/docstore"
	"rentbook/internal/domain"
	"rentbook/internal/imagestore"
	"rentbook/internal/logging"
	"rentbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProductImageFolder is where product uploads are stored.
const ProductImageFolder = "products"

type ProductService struct {
	repo     domain.ProductRepository
	ratings  domain.RatingRepository
	bookings domain.BookingRepository
	users    domain.UserDirectory
	images   domain.ImageStore
	pageSize int
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewProductService(
	repo domain.ProductRepository,
	ratings domain.RatingRepository,
	bookings domain.BookingRepository,
	users domain.UserDirectory,
	images domain.ImageStore,
	pageSize int,
	logger *zerolog.Logger,
) *ProductService {
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	return &ProductService{
		repo:     repo,
		ratings:  ratings,
		bookings: bookings,
		users:    users,
		images:   images,
		pageSize: pageSize,
		logger:   logging.Component(logger, "product_service"),
		now:      time.Now,
	}
}

func (s *ProductService) log(ctx context.Context) *zerolog.Logger {
	return logging.FromContext(ctx, s.logger, "product_service")
}

type ListProductsInput struct {
	Page     int
	Limit    int
	UserID   string
	Category string
	Search   string
}

type ProductInput struct {
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Quantity      int      `json:"quantity"`
	Image         string   `json:"image"`
	Images        []string `json:"images"`
	ImageFileID   string   `json:"imageFileId"`
	ImageFileIDs  []string `json:"imageFileIds"`
	Condition     string   `json:"condition"`
	SellerMessage string   `json:"sellerMessage"`
	RentAvailable bool     `json:"rentAvailable"`
}

// ProductUpdate is a partial update; nil fields are left untouched.
type ProductUpdate struct {
	Name          *string   `json:"name"`
	Price         *float64  `json:"price"`
	Description   *string   `json:"description"`
	Category      *string   `json:"category"`
	Quantity      *int      `json:"quantity"`
	Image         *string   `json:"image"`
	Images        *[]string `json:"images"`
	ImageFileID   *string   `json:"imageFileId"`
	ImageFileIDs  *[]string `json:"imageFileIds"`
	Condition     *string   `json:"condition"`
	SellerMessage *string   `json:"sellerMessage"`
	RentAvailable *bool     `json:"rentAvailable"`
}

// List filters the catalog before slicing the requested page. Pages start at 1.
func (s *ProductService) List(ctx context.Context, in ListProductsInput) (*models.ProductPage, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = s.pageSize
	}
	if limit > models.MaxPageSize {
		limit = models.MaxPageSize
	}

	all, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, internalError(s.log(ctx), "list products", err)
	}

	category := strings.ToLower(strings.TrimSpace(in.Category))
	search := strings.ToLower(strings.TrimSpace(in.Search))
	filtered := make([]*models.Product, 0, len(all))
	for _, p := range all {
		if in.UserID != "" && p.UserID != in.UserID {
			continue
		}
		if category != "" && strings.ToLower(p.Category) != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		filtered = append(filtered, p)
	}

	total := len(filtered)
	// compare in pages first so a huge page cannot overflow the offset
	start := total
	if page-1 <= total/limit {
		start = min((page-1)*limit, total)
	}
	end := start + limit
	if end > total {
		end = total
	}
	items := filtered[start:end]
	s.resolveSellers(ctx, items)

	return &models.ProductPage{
		Products:   items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, storeError(s.log(ctx), "get product", err, "product not found")
	}
	s.resolveSellers(ctx, []*models.Product{p})
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, principal string, in ProductInput) (*models.Product, error) {
	if err := validateProduct(in.Name, in.Price, in.Quantity); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Product{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		Price:         in.Price,
		Description:   in.Description,
		Category:      in.Category,
		Quantity:      in.Quantity,
		UserID:        principal,
		Image:         in.Image,
		Images:        in.Images,
		ImageFileID:   in.ImageFileID,
		ImageFileIDs:  in.ImageFileIDs,
		Condition:     in.Condition,
		SellerMessage: in.SellerMessage,
		RentAvailable: in.RentAvailable,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, internalError(s.log(ctx), "create product", err)
	}

	s.log(ctx).Info().Str("product_id", p.ID).Str("user_id", principal).Msg("product created")
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id, principal string, in ProductUpdate) (*models.Product, error) {
	p, err := s.loadOwned(ctx, id, principal)
	if err != nil {
		return nil, err
	}

	name, price, quantity := p.Name, p.Price, p.Quantity
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		price = *in.Price
	}
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if err := validateProduct(name, price, quantity); err != nil {
		return nil, err
	}

	fields := map[string]any{"updatedAt": s.now().UTC()}
	if in.Name != nil {
		fields["name"] = name
	}
	if in.Price != nil {
		fields["price"] = price
	}
	if in.Quantity != nil {
		fields["quantity"] = quantity
	}
	setIf(fields, "description", in.Description)
	setIf(fields, "category", in.Category)
	setIf(fields, "image", in.Image)
	setIf(fields, "images", in.Images)
	setIf(fields, "imageFileId", in.ImageFileID)
	setIf(fields, "imageFileIds", in.ImageFileIDs)
	setIf(fields, "condition", in.Condition)
	setIf(fields, "sellerMessage", in.SellerMessage)
	setIf(fields, "rentAvailable", in.RentAvailable)

	if err := s.repo.UpdateProduct(ctx, id, fields); err != nil {
		return nil, storeError(s.log(ctx), "update product", err, "product not found")
	}
	return s.Get(ctx, id)
}

// Delete removes the product's ratings, repairs bookings that still carry
// its name, deletes the product and finally its stored images.
func (s *ProductService) Delete(ctx context.Context, id, principal string) error {
	p, err := s.loadOwned(ctx, id, principal)
	if err != nil {
		return err
	}

	removed, err := s.ratings.DeleteRatingsByProduct(ctx, id)
	if err != nil {
		return internalError(s.log(ctx), "delete product ratings", err)
	}
	repaired, err := s.bookings.MarkProductUnavailable(ctx, p.Name)
	if err != nil {
		return internalError(s.log(ctx), "repair product bookings", err)
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return storeError(s.log(ctx), "delete product", err, "product not found")
	}

	if s.images != nil {
		for _, fileID := range p.FileIDs() {
			if err := s.images.Delete(ctx, fileID); err != nil {
				s.log(ctx).Error().Err(err).Str("product_id", id).Str("file_id", fileID).Msg("delete product image failed")
			}
		}
	}

	s.log(ctx).Info().
		Str("product_id", id).
		Int("ratings_removed", removed).
		Int("bookings_repaired", repaired).
		Msg("product deleted")
	return nil
}

// UploadImage stores an image for a future product listing.
func (s *ProductService) UploadImage(ctx context.Context, filename string, r io.Reader) (*models.Image, error) {
	if s.images == nil {
		return nil, internalError(s.log(ctx), "upload image", errors.New("image store is not configured"))
	}
	img, err := s.images.Upload(ctx, filename, r, ProductImageFolder)
	switch {
	case errors.Is(err, imagestore.ErrEmptyFile), errors.Is(err, imagestore.ErrNotAnImage):
		return nil, validationError("%s", err.Error())
	case err != nil:
		return nil, internalError(s.log(ctx), "upload image", err)
	}
	return img, nil
}

func (s *ProductService) loadOwned(ctx context.Context, id, principal string) (*models.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, storeError(s.log(ctx), "get product", err, "product not found")
	}
	if p.UserID == principal {
		return p, nil
	}
	admin, err := s.users.IsAdmin(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, forbidden("you can only modify your own products")
	}
	return p, nil
}

// resolveSellers fills sellerName and sellerPhoto, one lookup per seller.
func (s *ProductService) resolveSellers(ctx context.Context, products []*models.Product) {
	cache := make(map[string]*models.User)
	for _, p := range products {
		user, ok := cache[p.UserID]
		if !ok {
			u, err := s.users.GetUser(ctx, p.UserID)
			if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, docstore.ErrNotFound) {
				s.log(ctx).Warn().Err(err).Str("user_id", p.UserID).Msg("seller lookup failed")
			}
			if err == nil {
				user = u
			}
			cache[p.UserID] = user
		}
		if user != nil {
			p.SellerName = user.Username
			p.SellerPhoto = user.Profile.PhotoURL
		}
	}
}

func validateProduct(name string, price float64, quantity int) error {
	switch {
	case strings.TrimSpace(name) == "":
		return validationError("name is required")
	case price < 0:
		return validationError("price must not be negative")
	case quantity < 0:
		return validationError("quantity must not be negative")
	}
	return nil
}

func setIf[T any](fields map[string]any, key string, v *T) {
	if v != nil {
		fields[key] = *v
	}
}
