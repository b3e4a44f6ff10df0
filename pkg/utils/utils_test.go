package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mangareader/pkg/models"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		ok    bool
	}{
		{"reader@example.com", true},
		{"a.b+c@mail.example.org", true},
		{"", false},
		{"not-an-email", false},
		{"Name <reader@example.com>", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, models.ErrInvalidInput)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "reader@example.com", NormalizeEmail("  Reader@Example.COM "))
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("short"), models.ErrInvalidInput)
	assert.NoError(t, ValidatePassword("longenough"))
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("x", 73)), models.ErrInvalidInput)
}

func TestValidateMangaTitle(t *testing.T) {
	assert.ErrorIs(t, ValidateMangaTitle(" a "), models.ErrInvalidInput)
	assert.NoError(t, ValidateMangaTitle("One Piece"))
	assert.ErrorIs(t, ValidateMangaTitle(strings.Repeat("t", 256)), models.ErrInvalidInput)
}

func TestValidateRatingAndPrice(t *testing.T) {
	assert.NoError(t, ValidateRating(0))
	assert.NoError(t, ValidateRating(5))
	assert.Error(t, ValidateRating(5.1))
	assert.Error(t, ValidateRating(-1))
	assert.NoError(t, ValidatePrice(0))
	assert.ErrorIs(t, ValidatePrice(-1), models.ErrInvalidInput)
}

func TestIDs(t *testing.T) {
	id := NewID()
	assert.True(t, IsID(id))
	assert.NotEqual(t, id, NewID())
	assert.False(t, IsID("manga-123"))
}

func TestTimeAgo(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{90 * time.Minute, "1 hour ago"},
		{30 * time.Hour, "yesterday"},
		{3 * 24 * time.Hour, "3 days ago"},
		{8 * 24 * time.Hour, "1 week ago"},
		{21 * 24 * time.Hour, "3 weeks ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timeAgo(tt.d), tt.d.String())
	}
}

func TestFormatChapterNumber(t *testing.T) {
	assert.Equal(t, "12", FormatChapterNumber(12))
	assert.Equal(t, "10.5", FormatChapterNumber(10.5))
}

func TestIsContextError(t *testing.T) {
	assert.True(t, IsContextError(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.True(t, IsContextError(context.Canceled))
	assert.False(t, IsContextError(errors.New("boom")))
	assert.False(t, IsContextError(nil))
}
