package shared

import "fmt"

// InitialVersion is the version every aggregate starts with
const InitialVersion = 1

// BaseAggregateRoot provides identity, an optimistic-concurrency version and
// pending domain events.
//
// The version is only advanced by the repository after a version-checked
// write has succeeded, so an in-memory aggregate always mirrors the stored row.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// NewBaseAggregateRoot creates a new aggregate root at InitialVersion
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    InitialVersion,
	}
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// CheckVersion compares a caller supplied version against the current one.
// A nil expectation always passes (last writer wins).
func (a *BaseAggregateRoot) CheckVersion(expected *int) error {
	if expected == nil {
		return nil
	}
	if *expected != a.Version {
		return NewVersionConflictError(*expected, a.Version)
	}
	return nil
}

// MarkPersisted records a successful version-checked write
func (a *BaseAggregateRoot) MarkPersisted(newVersion int) {
	a.Version = newVersion
}

// AddDomainEvent adds a domain event to be published after commit
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// PullDomainEvents returns pending events and clears them
func (a *BaseAggregateRoot) PullDomainEvents() []DomainEvent {
	events := a.domainEvents
	a.domainEvents = nil
	return events
}

// String is used in log fields
func (a *BaseAggregateRoot) String() string {
	return fmt.Sprintf("%s@v%d", a.ID, a.Version)
}
