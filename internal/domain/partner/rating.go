package partner

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Scores are the rating axes. Overall is mandatory, the others optional.
type Scores struct {
	Overall       int
	Quality       *int
	Delivery      *int
	Communication *int
}

// Validate checks every present axis is within 1..5
func (s Scores) Validate() error {
	if err := validateScore("rating", &s.Overall); err != nil {
		return err
	}
	if err := validateScore("quality_rating", s.Quality); err != nil {
		return err
	}
	if err := validateScore("delivery_rating", s.Delivery); err != nil {
		return err
	}
	return validateScore("communication_rating", s.Communication)
}

func validateScore(field string, v *int) error {
	if v == nil {
		return nil
	}
	if *v < MinScore || *v > MaxScore {
		return shared.NewValidationError(fmt.Sprintf("%s must be between %d and %d", field, MinScore, MaxScore))
	}
	return nil
}

// SupplierRating is a single rating given for a received purchase order
type SupplierRating struct {
	shared.BaseEntity
	SupplierID      uuid.UUID
	PurchaseOrderID uuid.UUID
	Scores          Scores
	Comments        string
	RatedBy         string
}

// NewSupplierRating creates a rating. Order eligibility is checked by the
// purchase order itself before this is called.
func NewSupplierRating(supplierID, orderID uuid.UUID, scores Scores, comments, ratedBy string) (*SupplierRating, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewValidationError("supplier_id is required")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewValidationError("purchase_order_id is required")
	}
	if err := scores.Validate(); err != nil {
		return nil, err
	}
	return &SupplierRating{
		BaseEntity:      shared.NewBaseEntity(),
		SupplierID:      supplierID,
		PurchaseOrderID: orderID,
		Scores:          scores,
		Comments:        strings.TrimSpace(comments),
		RatedBy:         ratedBy,
	}, nil
}

// RatingPatch updates selected axes; nil keeps the current value
type RatingPatch struct {
	Overall       *int
	Quality       *int
	Delivery      *int
	Communication *int
	Comments      *string
}

// Apply validates and applies a patch
func (r *SupplierRating) Apply(p RatingPatch) error {
	next := r.Scores
	if p.Overall != nil {
		next.Overall = *p.Overall
	}
	if p.Quality != nil {
		next.Quality = p.Quality
	}
	if p.Delivery != nil {
		next.Delivery = p.Delivery
	}
	if p.Communication != nil {
		next.Communication = p.Communication
	}
	if err := next.Validate(); err != nil {
		return err
	}
	r.Scores = next
	if p.Comments != nil {
		r.Comments = strings.TrimSpace(*p.Comments)
	}
	r.Touch()
	return nil
}

// RatingWithOrder is a rating joined with the order it was given for
type RatingWithOrder struct {
	SupplierRating
	PONumber  string
	OrderDate time.Time
}

// RatingStats summarises a supplier's ratings; averages are nil without data
type RatingStats struct {
	TotalRatings         int64
	AverageRating        *decimal.Decimal
	AverageQuality       *decimal.Decimal
	AverageDelivery      *decimal.Decimal
	AverageCommunication *decimal.Decimal
}
