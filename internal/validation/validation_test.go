package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	VideoURL string `validate:"required,videourl"`
	Slug     string `validate:"omitempty,slug"`
	Level    string `validate:"omitempty,oneof=beginner intermediate advanced"`
}

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	require.NoError(t, RegisterOn(v))
	return v
}

func TestCustomTags(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Struct(sample{VideoURL: "https://vimeo.com/76979871", Slug: "data-science"}))
	assert.NoError(t, v.Struct(sample{VideoURL: "https://youtu.be/dQw4w9WgXcQ"}))

	err := v.Struct(sample{VideoURL: "https://example.com/video.mp4"})
	require.Error(t, err)
	assert.Equal(t, "video_url must be a Vimeo or YouTube URL", Message(err))

	err = v.Struct(sample{VideoURL: "https://vimeo.com/76979871", Slug: "Data Science"})
	require.Error(t, err)
	assert.Contains(t, Message(err), "slug must be lowercase")
}

func TestMessage(t *testing.T) {
	v := newValidator(t)
	err := v.Struct(sample{Level: "expert"})
	require.Error(t, err)
	msg := Message(err)
	assert.Contains(t, msg, "video_url is required")
	assert.Contains(t, msg, "level must be one of [beginner intermediate advanced]")

	assert.Equal(t, "invalid request: EOF", Message(errors.New("EOF")))
}

func TestValidSlug(t *testing.T) {
	assert.True(t, ValidSlug("cs-101"))
	assert.False(t, ValidSlug("cs--101"))
	assert.False(t, ValidSlug("-cs"))
	assert.False(t, ValidSlug(""))
}

func TestRegister(t *testing.T) {
	assert.NoError(t, Register())
	assert.NoError(t, Register())
}
