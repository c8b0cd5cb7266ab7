package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("product", "abc-123")

	assert.Equal(t, "product with ID abc-123 not found", err.Error())
	assert.True(t, Is(err, ErrNotFound))
	assert.True(t, IsNotFound(err))
	assert.False(t, Is(err, ErrInvalidInput))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("org_id", "", "org scope is required")

	assert.Contains(t, err.Error(), "org_id")
	assert.True(t, Is(err, ErrInvalidInput))
	assert.True(t, IsValidationError(err))

	noField := NewValidationError("", nil, "something off")
	assert.Equal(t, "validation failed: something off", noField.Error())
}

func TestStoreError(t *testing.T) {
	cause := New("disk full")
	err := NewStoreError("insert", "sqlite", "rec-1", cause)

	assert.Contains(t, err.Error(), "insert")
	assert.Contains(t, err.Error(), "sqlite")
	assert.Contains(t, err.Error(), "rec-1")
	assert.True(t, Is(err, cause), "unwraps to the cause")
}

func TestMappingError(t *testing.T) {
	err := WrapMapping("org-1", "row 3", "empty row", ErrInvalidInput)

	assert.Contains(t, err.Error(), "row 3")
	assert.Contains(t, err.Error(), "org-1")
	assert.True(t, Is(err, ErrInvalidInput))
}

func TestAPIErrorRateLimited(t *testing.T) {
	limited := NewAPIError("shop.myshopify.com", 429, "slow down")
	assert.True(t, Is(limited, ErrRateLimited))
	assert.True(t, IsRateLimited(limited))

	notLimited := NewAPIError("shop.myshopify.com", 500, "boom")
	assert.False(t, Is(notLimited, ErrRateLimited))
}

func TestAPIErrorWrapping(t *testing.T) {
	cause := New("connection refused")
	err := WrapAPI("shop.myshopify.com", 0, cause)

	assert.True(t, Is(err, cause))
	assert.Contains(t, err.Error(), "shop.myshopify.com")
}

func TestReconcileError(t *testing.T) {
	cause := New("delete failed")
	err := &ReconcileError{OrgID: "org-1", ProductID: "mp-9", Err: cause}

	assert.Contains(t, err.Error(), "mp-9")
	assert.True(t, Is(err, cause))

	var target *ReconcileError
	assert.True(t, As(fmt.Errorf("sweep: %w", err), &target))
}

func TestWrapNilIsNil(t *testing.T) {
	assert.Nil(t, WrapStore("find", "memory", "", nil))
	assert.Nil(t, WrapMapping("org-1", "", "", nil))
	assert.Nil(t, WrapAPI("shop", 200, nil))
}
