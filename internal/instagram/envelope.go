package instagram

import (
	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
)

// Meta is the status block every Instagram response carries.
type Meta struct {
	Code         int     `json:"code"`
	ErrorType    *string `json:"error_type,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// Pagination points at the next page of a list endpoint.
type Pagination struct {
	NextURL   *string `json:"next_url,omitempty"`
	NextMaxID *string `json:"next_max_id,omitempty"`
}

// Envelope is the standard response wrapper with typed data.
type Envelope[T any] struct {
	Data       *T          `json:"data,omitempty"`
	Meta       Meta        `json:"meta"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Result applies the envelope rules: data wins, then an error message,
// otherwise an empty success.
func (e *Envelope[T]) Result() (*T, error) {
	if e.Data != nil {
		return e.Data, nil
	}
	if err := e.Meta.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

// Err returns the API error described by m, or nil when m has no message.
func (m Meta) Err() error {
	if m.ErrorMessage == nil {
		return nil
	}
	err := &clierrors.InvalidRequestError{Message: *m.ErrorMessage, Code: m.Code}
	if m.ErrorType != nil {
		err.Type = *m.ErrorType
	}
	return err
}

// RawEnvelope is an envelope whose data is left as an untyped tree.
type RawEnvelope struct {
	Data       Value       `json:"data"`
	Meta       Meta        `json:"meta"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// HasNextPage reports whether the response points at another page.
func (e *RawEnvelope) HasNextPage() bool {
	return e.Pagination != nil && e.Pagination.NextURL != nil && *e.Pagination.NextURL != ""
}
