package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorDetail is one server-reported error entry.
type ErrorDetail struct {
	Code        ErrorCode `json:"code"`
	Description string    `json:"description"`

	// RawCode is the integer the server sent, kept for diagnostics when
	// Code resolved to ErrorCodeUnknown.
	RawCode int `json:"-"`
}

// Title is a short label for the entry.
func (d ErrorDetail) Title() string {
	return fmt.Sprintf("Error %s", d.Code)
}

func (d ErrorDetail) String() string {
	return d.Title() + ": " + d.Description
}

// RawErrorDetail is the wire shape of an error entry.
type RawErrorDetail struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// ErrorResponse is the failure schema of every endpoint.
type ErrorResponse struct {
	Errors []RawErrorDetail `json:"errors"`
}

// NewErrorResponse builds the wire failure body for the given codes.
func NewErrorResponse(details ...ErrorDetail) ErrorResponse {
	resp := ErrorResponse{Errors: make([]RawErrorDetail, 0, len(details))}
	for _, d := range details {
		resp.Errors = append(resp.Errors, RawErrorDetail{Code: int(d.Code), Description: d.Description})
	}
	return resp
}

// DecodeErrors maps wire entries onto the enumeration. It is total: unknown
// integers become ErrorCodeUnknown with the description kept verbatim, and
// an empty list still yields an API error.
func DecodeErrors(entries []RawErrorDetail) *TapError {
	details := make([]ErrorDetail, 0, len(entries))
	for _, e := range entries {
		details = append(details, ErrorDetail{
			Code:        CodeFromInt(e.Code),
			Description: e.Description,
			RawCode:     e.Code,
		})
	}
	return NewAPIError(details)
}

// DecodeErrorsJSON decodes the value of an "errors" member. Anything other
// than an array matching the entry schema, null included, yields the
// default unknown entry.
func DecodeErrorsJSON(raw json.RawMessage) *TapError {
	var entries []RawErrorDetail
	if err := json.Unmarshal(raw, &entries); err != nil || entries == nil || !wellFormedEntries(raw) {
		return NewAPIError([]ErrorDetail{{Code: ErrorCodeUnknown}})
	}
	return DecodeErrors(entries)
}

// wellFormedEntries checks every entry has an integer code and a string
// description.
func wellFormedEntries(raw json.RawMessage) bool {
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return false
	}
	for _, e := range entries {
		var code int
		if err := json.Unmarshal(e["code"], &code); err != nil {
			return false
		}
		var desc string
		if err := json.Unmarshal(e["description"], &desc); err != nil {
			return false
		}
	}
	return true
}
