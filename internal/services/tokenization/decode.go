package tokenization

import (
	"bytes"
	"encoding/json"

	tapErrors "gosell/internal/errors"
	"gosell/internal/models"
	"gosell/internal/transport"
)

// acceptFunc reports whether a decoded body matches the success schema of
// an operation. fields holds the top-level members of the body.
type acceptFunc[T any] func(fields map[string]json.RawMessage, v *T) bool

func acceptToken(_ map[string]json.RawMessage, t *models.Token) bool {
	return t.ID != ""
}

func acceptCardList(fields map[string]json.RawMessage, _ *models.CardList) bool {
	return isJSONArray(fields["cards"])
}

func acceptDeleteResult(fields map[string]json.RawMessage, r *models.DeleteCardResult) bool {
	raw := bytes.TrimSpace(fields["deleted"])
	return r.ID != "" && (bytes.Equal(raw, []byte("true")) || bytes.Equal(raw, []byte("false")))
}

func acceptSavedCard(_ map[string]json.RawMessage, card *models.SavedCard) bool {
	return card.ID != ""
}

// decodeResponse maps a raw response onto a value or a TapError. A body
// carrying "errors" is an API error whatever its status. Anything else must
// be a 2xx body matching the success schema.
func decodeResponse[T any](resp *transport.Response, accept acceptFunc[T]) (*T, *tapErrors.TapError) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &fields); err != nil {
		return nil, tapErrors.NewDecodingError("response is not a JSON object", err).WithStatus(resp.StatusCode)
	}

	if raw, ok := fields["errors"]; ok {
		return nil, tapErrors.DecodeErrorsJSON(raw).WithStatus(resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, tapErrors.NewDecodingError("unexpected response status", nil).WithStatus(resp.StatusCode)
	}

	value := new(T)
	if err := json.Unmarshal(resp.Body, value); err != nil {
		return nil, tapErrors.NewDecodingError("response does not match the expected schema", err).WithStatus(resp.StatusCode)
	}
	if !accept(fields, value) {
		return nil, tapErrors.NewDecodingError("response does not match the expected schema", nil).WithStatus(resp.StatusCode)
	}
	return value, nil
}

func marshalBody(v any) ([]byte, *tapErrors.TapError) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, tapErrors.NewSerializationError("request is not representable as JSON", err)
	}
	return body, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
