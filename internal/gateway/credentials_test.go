package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentials_Headers(t *testing.T) {
	h := Credentials{Token: " tok "}.Headers()
	assert.Equal(t, map[string]string{
		"Authorization": "Bearer tok",
		"apikey":        "tok",
		"token":         "tok",
	}, h)
}

func TestCredentials_HeadersEmptyToken(t *testing.T) {
	h := Credentials{Token: "  "}.Headers()
	assert.NotNil(t, h)
	assert.Empty(t, h)
}

func TestCredentials_BaseURL(t *testing.T) {
	assert.Equal(t, "https://api.example.com", Credentials{BaseURL: " https://api.example.com/// "}.baseURL())
	assert.Equal(t, "http://localhost:8080/v1", Credentials{BaseURL: "http://localhost:8080/v1"}.baseURL())
}
