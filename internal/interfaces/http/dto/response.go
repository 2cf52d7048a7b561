package dto

import "github.com/erp/supplier-service/internal/domain/shared"

// Response represents a standard API response
type Response struct {
	Success bool  `json:"success"`
	Data    any   `json:"data,omitempty"`
	Meta    *Meta `json:"meta,omitempty"`
}

// Meta represents pagination metadata
type Meta struct {
	Page     int   `json:"page"`
	Size     int   `json:"size"`
	Total    int64 `json:"total"`
	NextPage *int  `json:"next_page"`
}

// ListData is the body of a paginated list
type ListData[T any] struct {
	Items      []T  `json:"items"`
	Pagination Meta `json:"pagination"`
}

// ValidationDetail names one rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the error body of the standard envelope
type ErrorResponse struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// LegacyResponse is the envelope of the rating routes
type LegacyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// LegacyErrorResponse is the error body of the rating routes. Error repeats
// the code so older clients that only read it keep working.
type LegacyErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewListResponse wraps a page of results
func NewListResponse[T any](page shared.Paginated[T]) Response {
	meta := Meta{Page: page.Page, Size: page.Size, Total: page.Total, NextPage: page.NextPage}
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return Response{
		Success: true,
		Data:    ListData[T]{Items: items, Pagination: meta},
		Meta:    &meta,
	}
}

// NewErrorResponse builds the standard error body for a translated error
func NewErrorResponse(e APIError, requestID string) ErrorResponse {
	return ErrorResponse{Code: e.Code, Message: e.Message, RequestID: requestID, Details: e.Details}
}

// NewLegacyErrorResponse builds the rating-route error body
func NewLegacyErrorResponse(e APIError, requestID string) LegacyErrorResponse {
	return LegacyErrorResponse{
		Success:   false,
		Message:   e.Message,
		Error:     e.Code,
		Code:      e.Code,
		RequestID: requestID,
	}
}
