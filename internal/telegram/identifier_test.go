package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/channel-stats/internal/ingest"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"golang_news", "golang_news"},
		{"@golang_news", "golang_news"},
		{"  @golang_news  ", "golang_news"},
		{"t.me/golang_news", "golang_news"},
		{"https://t.me/golang_news", "golang_news"},
		{"HTTPS://T.ME/Golang_News", "Golang_News"},
		{"http://www.t.me/golang_news/", "golang_news"},
		{"https://t.me/s/golang_news", "golang_news"},
		{"https://t.me/golang_news/1234", "golang_news"},
		{"https://t.me/golang_news?single", "golang_news"},
		{"telegram.me/golang_news", "golang_news"},
		{"t.me/@golang_news", "golang_news"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIdentifier(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIdentifier_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"empty", "", "is required"},
		{"blank", "   ", "is required"},
		{"invite hash", "https://t.me/+AbCdEf123", "invite links are not supported"},
		{"joinchat", "t.me/joinchat/AbCdEf", "invite links are not supported"},
		{"bare invite", "+AbCdEf", "invite links are not supported"},
		{"too short", "abc", "not a valid channel username"},
		{"starts with digit", "1golang", "not a valid channel username"},
		{"bad chars", "go-news", "not a valid channel username"},
		{"other host", "https://example.com/golang_news", "not a valid channel username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIdentifier(tt.input)

			var validErr *ingest.ValidationError
			require.ErrorAs(t, err, &validErr)
			assert.Equal(t, "identifier", validErr.Field)
			assert.Contains(t, validErr.Reason, tt.reason)
		})
	}
}
