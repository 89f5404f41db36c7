package s3infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStore_DefaultBaseURL(t *testing.T) {
	s := NewStore(nil, "media", "eu-west-1", "")
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com", s.baseURL)
}

func TestNewStore_CustomBaseURLTrimmed(t *testing.T) {
	s := NewStore(nil, "media", "eu-west-1", "https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com", s.baseURL)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".jpg", extension("image/jpeg"))
	assert.Equal(t, ".png", extension("image/png"))
	assert.Equal(t, "", extension("application/octet-stream"))
}
