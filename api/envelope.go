// ABOUTME: Response envelope normalization for the sales API
// ABOUTME: Strips one or two levels of data nesting and locates list collections
package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/harperreed/salesdesk/models"
)

const maxNesting = 2

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// unwrap returns the payload inside {data: ...}, {data: {data: ...}} or the
// body itself when it carries no envelope.
func unwrap(raw json.RawMessage) json.RawMessage {
	for i := 0; i < maxNesting; i++ {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err != nil {
			return raw
		}
		data, ok := env["data"]
		if !ok || isNull(data) {
			return raw
		}
		raw = data
	}
	return raw
}

// decodeList finds the collection under any of keys (or a "data" array, or
// a bare array) and the pagination block that sits beside it.
func decodeList[T any](raw json.RawMessage, keys []string) (models.Page[T], error) {
	var page models.Page[T]

	for depth := 0; depth <= maxNesting; depth++ {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &page.Items); err != nil {
				return page, fmt.Errorf("failed to decode list: %w", err)
			}
			return finishPage(page, nil), nil
		}

		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return page, fmt.Errorf("failed to decode list envelope: %w", err)
		}

		var pag *models.Pagination
		if p, ok := env["pagination"]; ok && !isNull(p) {
			pag = &models.Pagination{}
			if err := json.Unmarshal(p, pag); err != nil {
				return page, fmt.Errorf("failed to decode pagination: %w", err)
			}
		}

		for _, key := range keys {
			items, ok := env[key]
			if !ok {
				continue
			}
			if !isNull(items) {
				if err := json.Unmarshal(items, &page.Items); err != nil {
					return page, fmt.Errorf("failed to decode %s: %w", key, err)
				}
			}
			return finishPage(page, pag), nil
		}

		data, ok := env["data"]
		if !ok || isNull(data) {
			break
		}
		if d := bytes.TrimSpace(data); len(d) > 0 && d[0] == '[' {
			if err := json.Unmarshal(d, &page.Items); err != nil {
				return page, fmt.Errorf("failed to decode list: %w", err)
			}
			return finishPage(page, pag), nil
		}
		raw = data
	}

	return page, fmt.Errorf("no collection found under %v", keys)
}

// finishPage fills in a single-page cursor when the server sent none.
func finishPage[T any](page models.Page[T], pag *models.Pagination) models.Page[T] {
	if page.Items == nil {
		page.Items = []T{}
	}
	if pag != nil {
		page.Pagination = *pag
		return page
	}
	n := len(page.Items)
	page.Pagination = models.Pagination{Page: 1, Limit: n, Total: n, TotalPages: 1}
	return page
}
