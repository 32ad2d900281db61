package elevenlabs

import (
	"net/http"
	"strings"
)

type Config struct {
	url string

	token string
	model string

	client *http.Client
}

type Option func(*Config)

func WithClient(client *http.Client) Option {
	return func(c *Config) {
		c.client = client
	}
}

func WithToken(token string) Option {
	return func(c *Config) {
		c.token = token
	}
}

func (c *Config) baseURL() string {
	if c.url == "" {
		c.url = "https://api.elevenlabs.io"
	}

	return strings.TrimRight(c.url, "/")
}
