package config

import (
	"errors"
	"strings"

	"github.com/voxgate/voxgate/pkg/auth"
	"github.com/voxgate/voxgate/pkg/auth/header"
	"github.com/voxgate/voxgate/pkg/auth/oidc"
	"github.com/voxgate/voxgate/pkg/auth/policy"
	"github.com/voxgate/voxgate/pkg/auth/static"
)

type authorizerConfig struct {
	Type string `yaml:"type"`

	Token string `yaml:"token"`

	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`

	Path string `yaml:"path"`
}

func (c *Config) registerAuthorizer(f *configFile) error {
	for _, a := range f.Authorizers {
		authorizer, err := createAuthorizer(a)

		if err != nil {
			return err
		}

		c.Authorizers = append(c.Authorizers, authorizer)
	}

	return nil
}

func createAuthorizer(cfg authorizerConfig) (auth.Provider, error) {
	switch strings.ToLower(cfg.Type) {
	case "header":
		return header.New()

	case "static":
		if cfg.Token == "" {
			return nil, errors.New("static authorizer requires a token")
		}

		return static.New(cfg.Token)

	case "oidc":
		return oidc.New(cfg.Issuer, cfg.Audience)

	case "policy":
		if cfg.Path == "" {
			return nil, errors.New("policy authorizer requires a path")
		}

		return policy.New(cfg.Path)

	default:
		return nil, errors.New("invalid authorizer type: " + cfg.Type)
	}
}
