package procurement

import (
	"context"
	"errors"

	"github.com/erp/supplier-service/internal/domain/audit"
	"github.com/erp/supplier-service/internal/domain/partner"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

const (
	DefaultRatingListLimit = 50
	MaxRatingListLimit     = 200
)

// CodeAlreadyRated is returned, with the invalid transition kind, when an
// order already carries a rating.
const CodeAlreadyRated = "ALREADY_RATED"

func alreadyRated(poNumber string) error {
	return &shared.DomainError{
		Code:    CodeAlreadyRated,
		Kind:    shared.KindInvalidTransition,
		Message: "purchase order " + poNumber + " has already been rated",
	}
}

// RatingService handles supplier ratings. Each change recomputes the
// supplier's average in the same transaction.
type RatingService struct {
	base
	ratings   partner.RatingRepository
	suppliers partner.SupplierRepository
}

// NewRatingService creates a new RatingService
func NewRatingService(txScope TransactionScope, ratings partner.RatingRepository, suppliers partner.SupplierRepository) *RatingService {
	return &RatingService{
		base:      newBase(txScope),
		ratings:   ratings,
		suppliers: suppliers,
	}
}

// Create rates a received order of supplierID. Rows are locked order first,
// then supplier, the same order Receive takes them in. The supplier lock
// serializes rating writes of one supplier so each recompute sees the
// ratings committed before it. The unique index on the order catches
// anything that slips through.
func (s *RatingService) Create(ctx context.Context, supplierID uuid.UUID, req CreateRatingRequest) (*RatingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "rating", "create",
		telemetry.WithAttribute(telemetry.SpanAttrSupplierID, supplierID),
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, req.PurchaseOrderID))
	defer span.End()

	var (
		rating *partner.SupplierRating
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		po, err := repos.Orders().FindByIDForUpdate(ctx, req.PurchaseOrderID)
		if err != nil {
			return err
		}
		if _, err := repos.Suppliers().FindByIDForUpdate(ctx, supplierID); err != nil {
			return err
		}
		if po.SupplierID != supplierID {
			return shared.NewValidationError("purchase order does not belong to this supplier")
		}
		if err := po.EnsureRateable(); err != nil {
			return err
		}
		exists, err := repos.Ratings().ExistsForOrder(ctx, po.ID)
		if err != nil {
			return err
		}
		if exists {
			return alreadyRated(po.PONumber)
		}

		rating, err = partner.NewSupplierRating(supplierID, po.ID, partner.Scores{
			Overall:       req.Rating,
			Quality:       req.QualityRating,
			Delivery:      req.DeliveryRating,
			Communication: req.CommunicationRating,
		}, req.Comments, shared.ActorFromContext(ctx))
		if err != nil {
			return err
		}
		if err := repos.Ratings().Create(ctx, rating); err != nil {
			if errors.Is(err, shared.ErrConflict) {
				return alreadyRated(po.PONumber)
			}
			return err
		}
		if err := repos.Aggregates().RecomputeRatings(ctx, supplierID); err != nil {
			return err
		}
		events = []shared.DomainEvent{partner.NewSupplierRatedEvent(rating, partner.RatingCreated)}
		return record(ctx, repos, supplierID, audit.ActionRatingCreated, ratingDetails(rating, po.PONumber))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrRatingID, rating.ID)

	s.publish(ctx, events)
	resp := ToRatingResponse(rating)
	return &resp, nil
}

// Update changes selected axes or the comment of a rating
func (s *RatingService) Update(ctx context.Context, ratingID uuid.UUID, req UpdateRatingRequest) (*RatingResponse, error) {
	if req.Rating == nil && req.QualityRating == nil && req.DeliveryRating == nil &&
		req.CommunicationRating == nil && req.Comments == nil {
		return nil, shared.NewValidationError("no updatable fields supplied")
	}

	var (
		rating *partner.SupplierRating
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		rating, err = repos.Ratings().FindByID(ctx, ratingID)
		if err != nil {
			return err
		}
		if _, err := repos.Suppliers().FindByIDForUpdate(ctx, rating.SupplierID); err != nil {
			return err
		}
		if err := rating.Apply(partner.RatingPatch{
			Overall:       req.Rating,
			Quality:       req.QualityRating,
			Delivery:      req.DeliveryRating,
			Communication: req.CommunicationRating,
			Comments:      req.Comments,
		}); err != nil {
			return err
		}
		if err := repos.Ratings().Save(ctx, rating); err != nil {
			return err
		}
		if err := repos.Aggregates().RecomputeRatings(ctx, rating.SupplierID); err != nil {
			return err
		}
		events = []shared.DomainEvent{partner.NewSupplierRatedEvent(rating, partner.RatingUpdated)}
		return record(ctx, repos, rating.SupplierID, audit.ActionRatingUpdated, ratingDetails(rating, ""))
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	resp := ToRatingResponse(rating)
	return &resp, nil
}

// Delete removes a rating
func (s *RatingService) Delete(ctx context.Context, ratingID uuid.UUID) error {
	var events []shared.DomainEvent
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		rating, err := repos.Ratings().FindByID(ctx, ratingID)
		if err != nil {
			return err
		}
		if _, err := repos.Suppliers().FindByIDForUpdate(ctx, rating.SupplierID); err != nil {
			return err
		}
		if err := repos.Ratings().Delete(ctx, ratingID); err != nil {
			return err
		}
		if err := repos.Aggregates().RecomputeRatings(ctx, rating.SupplierID); err != nil {
			return err
		}
		events = []shared.DomainEvent{partner.NewSupplierRatedEvent(rating, partner.RatingDeleted)}
		return record(ctx, repos, rating.SupplierID, audit.ActionRatingDeleted, ratingDetails(rating, ""))
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events)
	return nil
}

// List returns up to limit ratings of a supplier, newest first
func (s *RatingService) List(ctx context.Context, supplierID uuid.UUID, limit int) ([]RatingResponse, error) {
	if limit <= 0 {
		limit = DefaultRatingListLimit
	}
	limit = min(limit, MaxRatingListLimit)

	if _, err := s.suppliers.FindByID(ctx, supplierID); err != nil {
		return nil, err
	}
	rows, err := s.ratings.ListBySupplier(ctx, supplierID, limit)
	if err != nil {
		return nil, err
	}
	return toRatingWithOrderResponses(rows), nil
}

// Stats returns the rating averages of a supplier next to its aggregates
func (s *RatingService) Stats(ctx context.Context, supplierID uuid.UUID) (*RatingStatsResponse, error) {
	supplier, err := s.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	stats, err := s.ratings.StatsBySupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	return &RatingStatsResponse{
		SupplierID:           supplierID,
		TotalRatings:         stats.TotalRatings,
		AverageRating:        stats.AverageRating,
		AverageQuality:       stats.AverageQuality,
		AverageDelivery:      stats.AverageDelivery,
		AverageCommunication: stats.AverageCommunication,
		Supplier:             ToPerformanceResponse(supplier),
	}, nil
}

func ratingDetails(r *partner.SupplierRating, poNumber string) audit.Details {
	details := audit.Details{
		"rating_id":         r.ID,
		"purchase_order_id": r.PurchaseOrderID,
		"rating":            r.Scores.Overall,
	}
	if poNumber != "" {
		details["po_number"] = poNumber
	}
	return details
}
