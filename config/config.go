package config

import (
	"bytes"
	"os"
	"slices"
	"strings"

	"github.com/voxgate/voxgate/pkg/auth"
	"github.com/voxgate/voxgate/pkg/pipeline"
	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/transcoder"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Address string

	Authorizers []auth.Provider

	Pipeline *pipeline.Pipeline

	models map[string]provider.Model

	synthesizer map[string]provider.Synthesizer

	transcoder transcoder.Provider
}

func Parse(path string) (*Config, error) {
	file, err := parseFile(path)

	if err != nil {
		return nil, err
	}

	c := &Config{
		Address: ":8080",
	}

	if file.Address != "" {
		c.Address = file.Address
	}

	if err := c.registerAuthorizer(file); err != nil {
		return nil, err
	}

	if err := c.registerProviders(file); err != nil {
		return nil, err
	}

	if err := c.registerTranscoder(file); err != nil {
		return nil, err
	}

	if err := c.registerPipeline(file); err != nil {
		return nil, err
	}

	return c, nil
}

func (cfg *Config) RegisterModel(id string) {
	if cfg.models == nil {
		cfg.models = make(map[string]provider.Model)
	}

	if id == "" {
		return
	}

	cfg.models[id] = provider.Model{ID: id}
}

func (cfg *Config) Models() []provider.Model {
	var result []provider.Model

	for _, m := range cfg.models {
		result = append(result, m)
	}

	slices.SortFunc(result, func(a, b provider.Model) int {
		return strings.Compare(a.ID, b.ID)
	})

	return result
}

type configFile struct {
	Address string `yaml:"address"`

	Authorizers []authorizerConfig `yaml:"authorizers"`

	Providers []providerConfig `yaml:"providers"`

	Transcoder *transcoderConfig `yaml:"transcoder"`

	Pipeline *pipelineConfig `yaml:"pipeline"`
}

func parseFile(path string) (*configFile, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	data = []byte(os.ExpandEnv(string(data)))

	var config configFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func createLimiter(limit *int) *rate.Limiter {
	if limit == nil {
		return nil
	}

	return rate.NewLimiter(rate.Limit(*limit), *limit)
}
