package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowError(t *testing.T) {
	t.Run("with column", func(t *testing.T) {
		err := RowError{Row: 5, Column: "quantity", Code: ErrCodeUploadInvalidType, Message: "expected a whole number"}
		assert.Equal(t, "row 5, column 'quantity': expected a whole number", err.Error())
	})

	t.Run("without column", func(t *testing.T) {
		err := RowError{Row: 10, Code: ErrCodeUploadMalformedRow, Message: "bare quote"}
		assert.Equal(t, "row 10: bare quote", err.Error())
	})
}

func TestErrorCollection(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		ec := NewErrorCollection(10)
		ec.AddRequired(2, "sku")
		ec.AddType(3, "quantity", "a whole number", "abc")
		ec.AddRange(4, "quantity", "at least 0", "-1")

		assert.Equal(t, 3, ec.Count())
		assert.Equal(t, 3, ec.TotalCount())
		assert.True(t, ec.HasErrors())
		assert.False(t, ec.IsTruncated())

		errs := ec.Errors()
		assert.Equal(t, ErrCodeUploadRequiredField, errs[0].Code)
		assert.Equal(t, ErrCodeUploadInvalidType, errs[1].Code)
		assert.Equal(t, "abc", errs[1].Value)
		assert.Equal(t, ErrCodeUploadInvalidRange, errs[2].Code)
		assert.Equal(t, "row 2, column 'sku': sku is required", ec.Messages()[0])
	})

	t.Run("exceeding limit", func(t *testing.T) {
		ec := NewErrorCollection(3)
		for i := 1; i <= 5; i++ {
			ec.AddRequired(i, "sku")
		}
		assert.Equal(t, 3, ec.Count())
		assert.Equal(t, 5, ec.TotalCount())
		assert.True(t, ec.IsTruncated())
		assert.Contains(t, ec.String(), "5 error(s) found (showing first 3)")
	})

	t.Run("empty", func(t *testing.T) {
		ec := NewErrorCollection(0)
		assert.False(t, ec.HasErrors())
		assert.Equal(t, "no errors", ec.String())
	})
}
