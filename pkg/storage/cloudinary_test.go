package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPublicID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/raw/upload/v1712/resumes/abc/resume.pdf", "resumes/abc/resume.pdf"},
		{"https://res.cloudinary.com/demo/raw/upload/resumes/abc/resume.pdf", "resumes/abc/resume.pdf"},
		{"https://res.cloudinary.com/demo/raw/upload/vault/resume.pdf", "vault/resume.pdf"},
		{"https://example.com/no-upload-segment/file.pdf", ""},
		{"://bad", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractPublicID(tt.url), tt.url)
	}
}
