package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeServerURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"http://localhost:8080", "http://localhost:8080"},
		{"localhost:8080", "http://localhost:8080"},
		{"imports.example.org/", "http://imports.example.org"},
		{"HTTPS://imports.example.org/api/", "https://imports.example.org/api"},
		{"  http://10.0.0.5:9000  ", "http://10.0.0.5:9000"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizeServerURL(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeServerURL_Rejects(t *testing.T) {
	for _, in := range []string{"", "ftp://host", "http://host/?a=1", "http://host/#x"} {
		t.Run(in, func(t *testing.T) {
			_, err := NormalizeServerURL(in)
			assert.Error(t, err)
		})
	}
}
