package partner

import (
	"strings"
	"time"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Supplier represents a supplier and its derived performance figures.
// It is the aggregate root for supplier profile operations; the
// Performance block is owned by the aggregate engine and never edited directly.
type Supplier struct {
	shared.BaseAggregateRoot
	Name          string
	ContactPerson string
	Email         string
	Phone         string
	Address       string
	Country       string
	PaymentTerms  string
	AsgardeoSub   *string // identity provider subject of the supplier's own user
	IsActive      bool
	Performance   Performance
}

// Performance holds counters maintained by the aggregate engine
type Performance struct {
	TotalOrders         int
	OnTimeDeliveries    int
	LateDeliveries      int
	AverageDeliveryDays decimal.Decimal
	LastDeliveryDate    *time.Time
	AverageRating       decimal.Decimal
	TotalRatings        int
}

// OnTimePercentage returns on-time deliveries as a percentage of all
// deliveries, rounded to two decimals
func (p Performance) OnTimePercentage() decimal.Decimal {
	total := p.OnTimeDeliveries + p.LateDeliveries
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(p.OnTimeDeliveries)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// NewSupplier creates a new active supplier
func NewSupplier(name, email string) (*Supplier, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	s := &Supplier{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		IsActive:          true,
		Performance: Performance{
			AverageDeliveryDays: decimal.Zero,
			AverageRating:       decimal.Zero,
		},
	}
	s.AddDomainEvent(NewSupplierCreatedEvent(s))
	return s, nil
}

// ProfileUpdate carries optional profile changes; nil fields are left untouched
type ProfileUpdate struct {
	Name          *string
	ContactPerson *string
	Email         *string
	Phone         *string
	Address       *string
	Country       *string
	PaymentTerms  *string
	AsgardeoSub   *string
	IsActive      *bool
}

// IsEmpty reports whether the update carries no field at all
func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.ContactPerson == nil && u.Email == nil && u.Phone == nil &&
		u.Address == nil && u.Country == nil && u.PaymentTerms == nil && u.AsgardeoSub == nil &&
		u.IsActive == nil
}

// ApplyProfile validates and applies a profile update, returning the names of
// fields whose value actually changed
func (s *Supplier) ApplyProfile(u ProfileUpdate) ([]string, error) {
	if u.IsEmpty() {
		return nil, shared.NewValidationError("no updatable fields supplied")
	}
	if u.Name != nil {
		if err := validateName(strings.TrimSpace(*u.Name)); err != nil {
			return nil, err
		}
	}
	if u.Email != nil {
		if err := validateEmail(normalizeEmail(*u.Email)); err != nil {
			return nil, err
		}
	}
	for field, v := range map[string]*string{
		"contact_person": u.ContactPerson,
		"phone":          u.Phone,
		"country":        u.Country,
		"payment_terms":  u.PaymentTerms,
	} {
		if v != nil && len(*v) > 255 {
			return nil, shared.NewValidationError(field + " cannot exceed 255 characters")
		}
	}

	var changed []string
	setString := func(field string, dst *string, v *string) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = append(changed, field)
		}
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		setString("name", &s.Name, &name)
	}
	if u.Email != nil {
		email := normalizeEmail(*u.Email)
		setString("email", &s.Email, &email)
	}
	setString("contact_person", &s.ContactPerson, u.ContactPerson)
	setString("phone", &s.Phone, u.Phone)
	setString("address", &s.Address, u.Address)
	setString("country", &s.Country, u.Country)
	setString("payment_terms", &s.PaymentTerms, u.PaymentTerms)
	if u.AsgardeoSub != nil {
		sub := strings.TrimSpace(*u.AsgardeoSub)
		current := ""
		if s.AsgardeoSub != nil {
			current = *s.AsgardeoSub
		}
		if sub != current {
			if sub == "" {
				s.AsgardeoSub = nil
			} else {
				s.AsgardeoSub = &sub
			}
			changed = append(changed, "asgardeo_sub")
		}
	}
	if u.IsActive != nil && s.IsActive != *u.IsActive {
		s.IsActive = *u.IsActive
		changed = append(changed, "is_active")
	}

	if len(changed) > 0 {
		s.Touch()
		s.AddDomainEvent(NewSupplierProfileUpdatedEvent(s, changed))
	}
	return changed, nil
}

// LinkIdentity sets the identity provider subject at creation time
func (s *Supplier) LinkIdentity(sub string) {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		s.AsgardeoSub = nil
		return
	}
	s.AsgardeoSub = &sub
}

// EnsureCanReceiveOrders rejects new orders for deactivated suppliers
func (s *Supplier) EnsureCanReceiveOrders() error {
	if !s.IsActive {
		return shared.NewInvalidTransitionError("supplier " + s.Name + " is inactive")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) error {
	if name == "" {
		return shared.NewValidationError("supplier name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewValidationError("supplier name cannot exceed 255 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewValidationError("supplier email cannot be empty")
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return shared.NewValidationError("supplier email is not a valid address")
	}
	if len(email) > 255 {
		return shared.NewValidationError("supplier email cannot exceed 255 characters")
	}
	return nil
}
