package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{name: "empty", parts: nil, want: "0"},
		{name: "single char", parts: []string{"a"}, want: "2p"},
		{name: "two chars", parts: []string{"ab"}, want: "2e9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Hash(tt.parts...))
		})
	}
}

func TestHash_Stable(t *testing.T) {
	attrs := Attributes{
		UserAgent:     "Mozilla/5.0",
		Language:      "en-US",
		Platform:      "Linux x86_64",
		ScreenSize:    "1920x1080x24",
		Timezone:      "Europe/Berlin",
		HardwareCores: 8,
		CanvasHash:    "c4nv4s",
		WebGLVendor:   "Intel",
		WebGLRenderer: "Mesa",
	}

	first := attrs.Hash()
	assert.Equal(t, first, attrs.Hash())
	assert.NotEmpty(t, first)

	attrs.HardwareCores = 4
	assert.NotEqual(t, first, attrs.Hash())
}
