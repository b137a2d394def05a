package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentbook/internal/docstore"
	"rentbook/internal/domain"
	"rentbook/internal/logging"
	"rentbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RatingService manages standalone product reviews. It is independent of
// the review embedded in a booking.
type RatingService struct {
	repo     domain.RatingRepository
	products domain.ProductRepository
	users    domain.UserDirectory
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewRatingService(repo domain.RatingRepository, products domain.ProductRepository, users domain.UserDirectory, logger *zerolog.Logger) *RatingService {
	return &RatingService{repo: repo, products: products, users: users, logger: logging.Component(logger, "rating_service"), now: time.Now}
}

func (s *RatingService) log(ctx context.Context) *zerolog.Logger {
	return logging.FromContext(ctx, s.logger, "rating_service")
}

type CreateRatingInput struct {
	ProductID string  `json:"productId"`
	BookingID string  `json:"bookingId"`
	Rating    float64 `json:"rating"`
	Comment   string  `json:"comment"`
}

// UpdateRatingInput holds the author-editable fields; nil keeps the value.
type UpdateRatingInput struct {
	Rating  *float64 `json:"rating"`
	Comment *string  `json:"comment"`
}

func (s *RatingService) Create(ctx context.Context, principal string, in CreateRatingInput) (*models.Rating, error) {
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, validationError("productId is required")
	}
	if !models.ValidRating(in.Rating) {
		return nil, validationError("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}

	now := s.now().UTC()
	rating := &models.Rating{
		ID:        uuid.NewString(),
		ProductID: in.ProductID,
		UserID:    principal,
		UserName:  s.users.Username(ctx, principal),
		BookingID: in.BookingID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateRating(ctx, rating); err != nil {
		return nil, internalError(s.log(ctx), "create rating", err)
	}

	s.refreshProductRating(ctx, rating.ProductID)
	return rating, nil
}

func (s *RatingService) Get(ctx context.Context, id string) (*models.Rating, error) {
	rating, err := s.repo.GetRating(ctx, id)
	if err != nil {
		return nil, storeError(s.log(ctx), "get rating", err, "rating not found")
	}
	return rating, nil
}

func (s *RatingService) ListByProduct(ctx context.Context, productID string) ([]*models.Rating, error) {
	list, err := s.repo.ListRatingsByProduct(ctx, productID)
	if err != nil {
		return nil, internalError(s.log(ctx), "list product ratings", err)
	}
	return list, nil
}

func (s *RatingService) ListByUser(ctx context.Context, uid string) ([]*models.Rating, error) {
	list, err := s.repo.ListRatingsByUser(ctx, uid)
	if err != nil {
		return nil, internalError(s.log(ctx), "list user ratings", err)
	}
	return list, nil
}

func (s *RatingService) Update(ctx context.Context, id, principal string, in UpdateRatingInput) (*models.Rating, error) {
	rating, err := s.repo.GetRating(ctx, id)
	if err != nil {
		return nil, storeError(s.log(ctx), "get rating", err, "rating not found")
	}
	if rating.UserID != principal {
		return nil, forbidden("you can only update your own ratings")
	}

	fields := map[string]any{"updatedAt": s.now().UTC()}
	if in.Rating != nil {
		if !models.ValidRating(*in.Rating) {
			return nil, validationError("rating must be between %d and %d", models.MinRating, models.MaxRating)
		}
		fields["rating"] = *in.Rating
	}
	if in.Comment != nil {
		fields["comment"] = *in.Comment
	}
	if err := s.repo.UpdateRating(ctx, id, fields); err != nil {
		return nil, storeError(s.log(ctx), "update rating", err, "rating not found")
	}

	if in.Rating != nil {
		s.refreshProductRating(ctx, rating.ProductID)
	}
	return s.Get(ctx, id)
}

func (s *RatingService) Delete(ctx context.Context, id, principal string) error {
	rating, err := s.repo.GetRating(ctx, id)
	if err != nil {
		return storeError(s.log(ctx), "get rating", err, "rating not found")
	}
	if rating.UserID != principal {
		return forbidden("you can only delete your own ratings")
	}
	if err := s.repo.DeleteRating(ctx, id); err != nil {
		return storeError(s.log(ctx), "delete rating", err, "rating not found")
	}

	s.refreshProductRating(ctx, rating.ProductID)
	return nil
}

// AverageForProduct is the mean rating of the product, 0 when unrated.
func (s *RatingService) AverageForProduct(ctx context.Context, productID string) (float64, error) {
	list, err := s.repo.ListRatingsByProduct(ctx, productID)
	if err != nil {
		return 0, internalError(s.log(ctx), "average rating", err)
	}
	return averageRating(list), nil
}

// refreshProductRating copies the current average onto the product document.
func (s *RatingService) refreshProductRating(ctx context.Context, productID string) {
	if s.products == nil {
		return
	}
	list, err := s.repo.ListRatingsByProduct(ctx, productID)
	if err != nil {
		s.log(ctx).Error().Err(err).Str("product_id", productID).Msg("load ratings for product average failed")
		return
	}
	fields := map[string]any{"rating": averageRating(list)}
	if err := s.products.UpdateProduct(ctx, productID, fields); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		s.log(ctx).Error().Err(err).Str("product_id", productID).Msg("update product rating failed")
	}
}

func averageRating(list []*models.Rating) float64 {
	if len(list) == 0 {
		return 0
	}
	var sum float64
	for _, r := range list {
		sum += r.Rating
	}
	return sum / float64(len(list))
}
