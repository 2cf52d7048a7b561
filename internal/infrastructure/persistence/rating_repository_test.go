package persistence

import (
	"testing"

	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func intPtr(v int) *int { return &v }

func seedRating(t *testing.T, db *gorm.DB, supplierID, orderID uuid.UUID, scores partner.Scores) *partner.SupplierRating {
	t.Helper()
	r, err := partner.NewSupplierRating(supplierID, orderID, scores, "ok", "buyer-1")
	require.NoError(t, err)
	require.NoError(t, NewGormRatingRepository(db).Create(t.Context(), r))
	return r
}

func TestGormRatingRepository_OneRatingPerOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormRatingRepository(db)
	ctx := t.Context()
	s := seedSupplier(t, db, "Acme", "acme@example.com")
	po := seedReceivedOrder(t, db, s.ID)

	exists, err := repo.ExistsForOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	seedRating(t, db, s.ID, po.ID, partner.Scores{Overall: 4})

	exists, err = repo.ExistsForOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	dup, err := partner.NewSupplierRating(s.ID, po.ID, partner.Scores{Overall: 2}, "", "buyer-2")
	require.NoError(t, err)
	err = repo.Create(ctx, dup)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func TestGormRatingRepository_SaveAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormRatingRepository(db)
	ctx := t.Context()
	s := seedSupplier(t, db, "Acme", "acme@example.com")
	po := seedReceivedOrder(t, db, s.ID)
	r := seedRating(t, db, s.ID, po.ID, partner.Scores{Overall: 3})

	comments := "late but complete"
	require.NoError(t, r.Apply(partner.RatingPatch{Overall: intPtr(2), Delivery: intPtr(1), Comments: &comments}))
	require.NoError(t, repo.Save(ctx, r))

	stored, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Scores.Overall)
	require.NotNil(t, stored.Scores.Delivery)
	assert.Equal(t, 1, *stored.Scores.Delivery)
	assert.Nil(t, stored.Scores.Quality)
	assert.Equal(t, comments, stored.Comments)

	require.NoError(t, repo.Delete(ctx, r.ID))
	assert.Equal(t, shared.KindNotFound, shared.KindOf(repo.Delete(ctx, r.ID)))
	_, err = repo.FindByID(ctx, r.ID)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestGormRatingRepository_ListBySupplier(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormRatingRepository(db)
	s := seedSupplier(t, db, "Acme", "acme@example.com")
	other := seedSupplier(t, db, "Other", "other@example.com")

	po1 := seedReceivedOrder(t, db, s.ID)
	po2 := seedReceivedOrder(t, db, s.ID)
	seedRating(t, db, s.ID, po1.ID, partner.Scores{Overall: 5})
	seedRating(t, db, s.ID, po2.ID, partner.Scores{Overall: 3})
	seedRating(t, db, other.ID, seedReceivedOrder(t, db, other.ID).ID, partner.Scores{Overall: 1})

	rows, err := repo.ListBySupplier(t.Context(), s.ID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	numbers := []string{rows[0].PONumber, rows[1].PONumber}
	assert.ElementsMatch(t, []string{po1.PONumber, po2.PONumber}, numbers)
	assert.False(t, rows[0].OrderDate.IsZero())

	limited, err := repo.ListBySupplier(t.Context(), s.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGormRatingRepository_StatsBySupplier(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormRatingRepository(db)
	s := seedSupplier(t, db, "Acme", "acme@example.com")

	empty, err := repo.StatsBySupplier(t.Context(), s.ID)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalRatings)
	assert.Nil(t, empty.AverageRating)

	seedRating(t, db, s.ID, seedReceivedOrder(t, db, s.ID).ID, partner.Scores{Overall: 5, Quality: intPtr(4)})
	seedRating(t, db, s.ID, seedReceivedOrder(t, db, s.ID).ID, partner.Scores{Overall: 4})
	seedRating(t, db, s.ID, seedReceivedOrder(t, db, s.ID).ID, partner.Scores{Overall: 4})

	stats, err := repo.StatsBySupplier(t.Context(), s.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalRatings)
	require.NotNil(t, stats.AverageRating)
	assert.True(t, decimal.RequireFromString("4.33").Equal(*stats.AverageRating), stats.AverageRating.String())
	require.NotNil(t, stats.AverageQuality)
	assert.True(t, decimal.NewFromInt(4).Equal(*stats.AverageQuality))
	assert.Nil(t, stats.AverageCommunication)
}
