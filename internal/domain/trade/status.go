package trade

import "sort"

// Status is the lifecycle state of a purchase order
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusShipped   Status = "shipped"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []Status{
	StatusDraft, StatusPending, StatusConfirmed, StatusPreparing,
	StatusShipped, StatusReceived, StatusCancelled, StatusRejected,
}

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// IsTerminal returns true if no event leaves this status
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(statusTransitions[s]) == 0
}

func (s Status) String() string {
	return string(s)
}

// Event drives a status transition
type Event string

const (
	EventSubmit  Event = "submit"
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventPrepare Event = "prepare"
	EventShip    Event = "ship"
	EventReceive Event = "receive"
	EventCancel  Event = "cancel"
)

// statusTransitions is the single source of truth for status legality.
// Terminal states map to an empty set.
var statusTransitions = map[Status]map[Event]Status{
	StatusDraft: {
		EventSubmit:  StatusPending,
		EventApprove: StatusConfirmed,
		EventReject:  StatusRejected,
		EventCancel:  StatusCancelled,
	},
	StatusPending: {
		EventApprove: StatusConfirmed,
		EventReject:  StatusRejected,
		EventCancel:  StatusCancelled,
	},
	StatusConfirmed: {
		EventPrepare: StatusPreparing,
		EventShip:    StatusShipped,
		EventReject:  StatusRejected,
		EventCancel:  StatusCancelled,
	},
	StatusPreparing: {
		EventShip:   StatusShipped,
		EventReject: StatusRejected,
		EventCancel: StatusCancelled,
	},
	StatusShipped: {
		EventReceive: StatusReceived,
		EventReject:  StatusRejected,
		EventCancel:  StatusCancelled,
	},
	StatusReceived:  {},
	StatusCancelled: {},
	StatusRejected:  {},
}

// TransitionTable returns a copy of the status transition table
func TransitionTable() map[Status]map[Event]Status {
	out := make(map[Status]map[Event]Status, len(statusTransitions))
	for from, events := range statusTransitions {
		row := make(map[Event]Status, len(events))
		for e, to := range events {
			row[e] = to
		}
		out[from] = row
	}
	return out
}

// Fire returns the status reached by event from s
func (s Status) Fire(e Event) (Status, bool) {
	to, ok := statusTransitions[s][e]
	return to, ok
}

// EventTo finds the event that moves s to target
func (s Status) EventTo(target Status) (Event, bool) {
	for e, to := range statusTransitions[s] {
		if to == target {
			return e, true
		}
	}
	return "", false
}

// OwnedByResponse reports whether firing e from a state whose supplier
// response is r would decide the supplier's answer. Such events are fired
// only by Respond.
func (e Event) OwnedByResponse(r SupplierResponse) bool {
	for _, owned := range responseTransitions[r] {
		if owned == e {
			return true
		}
	}
	return e == EventApprove
}

// AllowedTargets lists the statuses reachable from s in one step, sorted
func (s Status) AllowedTargets() []Status {
	targets := make([]Status, 0, len(statusTransitions[s]))
	for _, to := range statusTransitions[s] {
		targets = append(targets, to)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets
}

// SupplierResponse is the supplier's decision on an order, independent of Status
type SupplierResponse string

const (
	ResponsePending           SupplierResponse = "pending"
	ResponseApproved          SupplierResponse = "approved"
	ResponseRejected          SupplierResponse = "rejected"
	ResponsePartiallyApproved SupplierResponse = "partially_approved"
)

// IsValid checks if the response is a known SupplierResponse
func (r SupplierResponse) IsValid() bool {
	switch r {
	case ResponsePending, ResponseApproved, ResponseRejected, ResponsePartiallyApproved:
		return true
	}
	return false
}

func (r SupplierResponse) String() string {
	return string(r)
}

// responseTransitions maps a response change to the status event it fires.
// Only pending has outgoing edges so a response is given at most once.
var responseTransitions = map[SupplierResponse]map[SupplierResponse]Event{
	ResponsePending: {
		ResponseApproved:          EventApprove,
		ResponsePartiallyApproved: EventApprove,
		ResponseRejected:          EventReject,
	},
	ResponseApproved:          {},
	ResponseRejected:          {},
	ResponsePartiallyApproved: {},
}

// ResponseTable returns a copy of the supplier response transition table
func ResponseTable() map[SupplierResponse]map[SupplierResponse]Event {
	out := make(map[SupplierResponse]map[SupplierResponse]Event, len(responseTransitions))
	for from, row := range responseTransitions {
		cp := make(map[SupplierResponse]Event, len(row))
		for to, e := range row {
			cp[to] = e
		}
		out[from] = cp
	}
	return out
}
