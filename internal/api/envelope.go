package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// unwrap strips the {success, data} envelope when present. A body with
// success=false is an application-level failure and becomes an APIError
// even though the HTTP status was 2xx. Bodies without a success key are
// returned unchanged.
func unwrap(endpoint string, raw json.RawMessage) (json.RawMessage, error) {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 || body[0] != '{' {
		return body, nil
	}

	var env struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message flexString      `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Endpoint: endpoint, Reason: "malformed envelope", Err: err}
	}
	if env.Success == nil {
		return body, nil
	}
	if !*env.Success {
		return nil, &APIError{
			Status:  http.StatusOK,
			Message: string(env.Message),
			Path:    endpoint,
		}
	}
	return bytes.TrimSpace(env.Data), nil
}

// decodeList decodes a collection that may arrive as a bare array, as
// {field: [...]}, or inside the success envelope in either form. A null
// or empty body is an empty collection.
func decodeList[W any](endpoint, field string, raw json.RawMessage) ([]W, error) {
	body, err := unwrap(endpoint, raw)
	if err != nil {
		return nil, err
	}
	if isNull(body) {
		return nil, nil
	}

	switch body[0] {
	case '[':
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, &DecodeError{Endpoint: endpoint, Reason: "malformed object", Err: err}
		}
		inner, ok := obj[field]
		if !ok {
			return nil, &DecodeError{
				Endpoint: endpoint,
				Reason:   fmt.Sprintf("object has no %q collection", field),
			}
		}
		body = bytes.TrimSpace(inner)
		if isNull(body) {
			return nil, nil
		}
		if body[0] != '[' {
			return nil, &DecodeError{
				Endpoint: endpoint,
				Reason:   fmt.Sprintf("%q is %s, not a list", field, kind(body)),
			}
		}
	default:
		return nil, &DecodeError{
			Endpoint: endpoint,
			Reason:   fmt.Sprintf("expected list, got %s", kind(body)),
		}
	}

	var items []W
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &DecodeError{Endpoint: endpoint, Reason: "malformed list item", Err: err}
	}
	return items, nil
}

// decodeObject decodes a single entity that may arrive bare, as
// {field: {...}}, or inside the success envelope in either form.
func decodeObject[W any](endpoint, field string, raw json.RawMessage) (W, error) {
	var out W

	body, err := unwrap(endpoint, raw)
	if err != nil {
		return out, err
	}
	if isNull(body) {
		return out, &DecodeError{Endpoint: endpoint, Reason: "empty body"}
	}
	if body[0] != '{' {
		return out, &DecodeError{
			Endpoint: endpoint,
			Reason:   fmt.Sprintf("expected object, got %s", kind(body)),
		}
	}

	if field != "" {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return out, &DecodeError{Endpoint: endpoint, Reason: "malformed object", Err: err}
		}
		if inner, ok := obj[field]; ok {
			inner = bytes.TrimSpace(inner)
			if len(inner) > 0 && inner[0] == '{' {
				body = inner
			}
		}
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, &DecodeError{Endpoint: endpoint, Reason: "malformed object", Err: err}
	}
	return out, nil
}

// mapList converts wire items to model values.
func mapList[W any, M any](items []W, conv func(W) M) []M {
	out := make([]M, 0, len(items))
	for _, w := range items {
		out = append(out, conv(w))
	}
	return out
}
