// ABOUTME: Tests for CRM data models
// ABOUTME: Validates id decoding, amount decoding, pagination bounds, and permission checks
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDDecodesNumbersAndStrings(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 42, "b": "abc-1", "c": null}`), &v))

	assert.Equal(t, ID("42"), v.A)
	assert.Equal(t, ID("abc-1"), v.B)
	assert.True(t, v.C.IsZero())
}

func TestIDMarshalKeepsNumericIDsNumeric(t *testing.T) {
	out, err := json.Marshal(map[string]ID{"n": "42", "s": "abc", "z": "007"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"n": 42, "s": "abc", "z": "007"}`, string(out))
}

func TestAmountAcceptsStringOrNumber(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "amount": "1250.50", "stage": "NEW", "probability": 40}`), &task))
	assert.InDelta(t, 1250.50, float64(task.Amount), 0.001)

	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "amount": 99}`), &task))
	assert.InDelta(t, 99.0, float64(task.Amount), 0.001)
}

func TestPaginationBounds(t *testing.T) {
	tests := []struct {
		name    string
		p       Pagination
		last    int
		hasNext bool
		hasPrev bool
	}{
		{"empty result", Pagination{Page: 1, TotalPages: 0}, 1, false, false},
		{"first of three", Pagination{Page: 1, TotalPages: 3}, 3, true, false},
		{"middle", Pagination{Page: 2, TotalPages: 3}, 3, true, true},
		{"last", Pagination{Page: 3, TotalPages: 3}, 3, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.last, tt.p.LastPage())
			assert.Equal(t, tt.hasNext, tt.p.HasNext())
			assert.Equal(t, tt.hasPrev, tt.p.HasPrev())
		})
	}
}

func TestUserPermissions(t *testing.T) {
	u := User{Email: "a@b.co", Permissions: []string{PermSalesRep}}

	assert.True(t, u.HasPermission(PermSalesRep))
	assert.False(t, u.HasPermission(PermAdmin))
	assert.True(t, u.HasAny(PermAdmin, PermSalesRep))
	assert.False(t, u.HasAny(PermAdmin, PermSuperAdmin))
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Ada L", User{FullName: "Ada L"}.DisplayName())
	assert.Equal(t, "Ada Lovelace", User{FirstName: "Ada", LastName: "Lovelace"}.DisplayName())
	assert.Equal(t, "ada@x.io", User{Email: "ada@x.io"}.DisplayName())
}

func TestActivityPrimaryLink(t *testing.T) {
	kind, id := Activity{TaskID: "7", OutletID: "9"}.PrimaryLink()
	assert.Equal(t, "task", kind)
	assert.Equal(t, ID("7"), id)

	kind, _ = Activity{}.PrimaryLink()
	assert.Empty(t, kind)
}

func TestStageLabel(t *testing.T) {
	assert.Equal(t, "Offer Sent", StageLabel(StageOfferSent))
	assert.Equal(t, "CUSTOM", StageLabel("CUSTOM"))
}
