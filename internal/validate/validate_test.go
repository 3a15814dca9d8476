package validate_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerbot/internal/validate"
)

func TestOrderID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"111-2233445-6677889", true},
		{" 111-2233445-6677889 ", true},
		{"111-223344-6677889", false},
		{"111-2233445-667788", false},
		{"1112233445-6677889", false},
		{"abc-2233445-6677889", false},
		{"111-2233445-6677889-1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := validate.OrderID(tt.in)
			if tt.want {
				assert.NoError(t, err)
				return
			}

			var invalid *validate.InvalidInputError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, validate.FieldOrderID, invalid.Field)
		})
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a@b.com", true},
		{"first.last@mail.example.es", true},
		{"no-at-sign.com", false},
		{"a@b", false},
		{"a @b.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := validate.Email(tt.in)
			if tt.want {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)
		})
	}
}

func TestReviewURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"customer review", "https://www.amazon.es/gp/customer-reviews/R1ABCDEF", true},
		{"review path", "https://www.amazon.com/review/R2XYZ", true},
		{"no scheme", "amazon.es/gp/customer-reviews/R1ABCDEF", true},
		{"short link", "https://amzn.eu/d/abc123", true},
		{"product page", "https://www.amazon.es/dp/B000000", false},
		{"other domain", "https://example.com/review/R1", false},
		{"lookalike domain", "https://notamazon.com/review/R1", false},
		{"not a link", "great product", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.ReviewURL(tt.in)
			if tt.want {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)
		})
	}
}

func TestReviewURL_Reasons(t *testing.T) {
	tests := []struct {
		in     string
		reason string
	}{
		{"https://shop.example.org/review/R1", "link is not from the marketplace"},
		{"https://www.amazon.es/dp/B000000", "link does not point at a review"},
		{"great product", "not a link"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var invalid *validate.InvalidInputError
			require.ErrorAs(t, validate.ReviewURL(tt.in), &invalid)
			assert.Equal(t, validate.FieldReviewURL, invalid.Field)
			assert.Equal(t, tt.reason, invalid.Reason)
		})
	}
}
