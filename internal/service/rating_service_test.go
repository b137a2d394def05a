package service

import (
	"context"
	"testing"

	"rentbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func TestRatingService_CreateDenormalizesUserName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "C", "carla", models.RoleCustomer)

	r, err := f.ratings.Create(ctx, "C", CreateRatingInput{ProductID: "p1", Rating: 4, Comment: "nice"})
	require.NoError(t, err)
	assert.Equal(t, "carla", r.UserName)
	assert.Equal(t, "C", r.UserID)

	anon, err := f.ratings.Create(ctx, "ghost", CreateRatingInput{ProductID: "p1", Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, models.UnknownOwnerUsername, anon.UserName)
}

func TestRatingService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ratings.Create(ctx, "C", CreateRatingInput{Rating: 4})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.ratings.Create(ctx, "C", CreateRatingInput{ProductID: "p1", Rating: 0})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.ratings.Create(ctx, "C", CreateRatingInput{ProductID: "p1", Rating: 5.5})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRatingService_Average(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	avg, err := f.ratings.AverageForProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, float64(0), avg)

	_, err = f.ratings.Create(ctx, "C", CreateRatingInput{ProductID: "p1", Rating: 3})
	require.NoError(t, err)
	_, err = f.ratings.Create(ctx, "D", CreateRatingInput{ProductID: "p1", Rating: 5})
	require.NoError(t, err)
	_, err = f.ratings.Create(ctx, "D", CreateRatingInput{ProductID: "p2", Rating: 1})
	require.NoError(t, err)

	avg, err = f.ratings.AverageForProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, float64(4), avg)
}

func TestRatingService_RefreshesProductAverage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.CreateProduct(ctx, &models.Product{ID: "p1", Name: "Dress", UserID: "S"}))

	first, err := f.ratings.Create(ctx, "C", CreateRatingInput{ProductID: "p1", Rating: 2})
	require.NoError(t, err)
	_, err = f.ratings.Create(ctx, "D", CreateRatingInput{ProductID: "p1", Rating: 4})
	require.NoError(t, err)

	p, err := f.repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, float64(3), p.Rating)

	require.NoError(t, f.ratings.Delete(ctx, first.ID, "C"))
	p, err = f.repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, float64(4), p.Rating)
}

func TestRatingService_AuthorOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.ratings.Create(ctx, "C", CreateRatingInput{ProductID: "p1", Rating: 3})
	require.NoError(t, err)

	_, err = f.ratings.Update(ctx, r.ID, "D", UpdateRatingInput{Rating: floatPtr(1)})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.ratings.Delete(ctx, r.ID, "D"), ErrForbidden)

	updated, err := f.ratings.Update(ctx, r.ID, "C", UpdateRatingInput{Rating: floatPtr(5), Comment: strPtr("changed my mind")})
	require.NoError(t, err)
	assert.Equal(t, float64(5), updated.Rating)
	assert.Equal(t, "changed my mind", updated.Comment)
	assert.True(t, updated.UpdatedAt.After(r.UpdatedAt))

	_, err = f.ratings.Update(ctx, r.ID, "C", UpdateRatingInput{Rating: floatPtr(9)})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, f.ratings.Delete(ctx, r.ID, "C"))
	_, err = f.ratings.Get(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRatingService_Lists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r1, err := f.ratings.Create(ctx, "C", CreateRatingInput{ProductID: "p1", Rating: 3})
	require.NoError(t, err)
	r2, err := f.ratings.Create(ctx, "C", CreateRatingInput{ProductID: "p2", Rating: 4})
	require.NoError(t, err)
	r3, err := f.ratings.Create(ctx, "D", CreateRatingInput{ProductID: "p1", Rating: 5})
	require.NoError(t, err)

	byProduct, err := f.ratings.ListByProduct(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, byProduct, 2)
	assert.Equal(t, r3.ID, byProduct[0].ID)
	assert.Equal(t, r1.ID, byProduct[1].ID)

	byUser, err := f.ratings.ListByUser(ctx, "C")
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, r2.ID, byUser[0].ID)
}
