package config

import (
	"errors"
	"net/http"
	"strings"

	"github.com/voxgate/voxgate/pkg/limiter"
	"github.com/voxgate/voxgate/pkg/otel"
	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/provider/elevenlabs"
	"github.com/voxgate/voxgate/pkg/provider/google"
	"github.com/voxgate/voxgate/pkg/provider/openai"
	"github.com/voxgate/voxgate/pkg/provider/polly"
	"github.com/voxgate/voxgate/pkg/provider/replicate"
	"github.com/voxgate/voxgate/pkg/router/roundrobin"

	"golang.org/x/time/rate"
)

type providerConfig struct {
	Type string `yaml:"type"`

	URL   string `yaml:"url"`
	Token string `yaml:"token"`

	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`

	Proxy *proxyConfig `yaml:"proxy"`

	Limit *int `yaml:"limit"`

	Models map[string]modelConfig `yaml:"models"`
}

type modelConfig struct {
	ID string `yaml:"id"`

	Limit *int `yaml:"limit"`
}

type modelContext struct {
	ID string

	Client  *http.Client
	Limiter *rate.Limiter
}

func (cfg *Config) RegisterSynthesizer(id string, p provider.Synthesizer) {
	cfg.RegisterModel(id)

	if cfg.synthesizer == nil {
		cfg.synthesizer = make(map[string]provider.Synthesizer)
	}

	if _, ok := cfg.synthesizer[""]; !ok {
		cfg.synthesizer[""] = p
	}

	cfg.synthesizer[id] = p
}

func (cfg *Config) Synthesizer(id string) (provider.Synthesizer, error) {
	if cfg.synthesizer != nil {
		if s, ok := cfg.synthesizer[id]; ok {
			return s, nil
		}
	}

	return nil, errors.New("synthesizer not found: " + id)
}

func (cfg *Config) registerProviders(f *configFile) error {
	var ids []string

	groups := map[string][]provider.Synthesizer{}

	for _, p := range f.Providers {
		client, err := p.Proxy.proxyClient()

		if err != nil {
			return err
		}

		for id, m := range p.Models {
			limit := m.Limit

			if limit == nil {
				limit = p.Limit
			}

			model := modelContext{
				ID: m.ID,

				Client:  client,
				Limiter: createLimiter(limit),
			}

			synthesizer, err := createSynthesizer(p, model)

			if err != nil {
				return err
			}

			var result provider.Synthesizer = otel.NewSynthesizer(p.Type, id, synthesizer)

			if model.Limiter != nil {
				result = limiter.NewSynthesizer(model.Limiter, result)
			}

			if _, ok := groups[id]; !ok {
				ids = append(ids, id)
			}

			groups[id] = append(groups[id], result)
		}
	}

	for _, id := range ids {
		group := groups[id]

		synthesizer := group[0]

		if len(group) > 1 {
			router, err := roundrobin.NewSynthesizer(group...)

			if err != nil {
				return err
			}

			synthesizer = router
		}

		cfg.RegisterSynthesizer(id, synthesizer)
	}

	return nil
}

func createSynthesizer(cfg providerConfig, model modelContext) (provider.Synthesizer, error) {
	switch strings.ToLower(cfg.Type) {
	case "elevenlabs":
		return elevenlabsSynthesizer(cfg, model)

	case "openai", "openai-compatible":
		return openaiSynthesizer(cfg, model)

	case "google":
		return googleSynthesizer(cfg, model)

	case "polly", "aws":
		return pollySynthesizer(cfg, model)

	case "replicate":
		return replicateSynthesizer(cfg, model)

	default:
		return nil, errors.New("invalid provider type: " + cfg.Type)
	}
}

func elevenlabsSynthesizer(cfg providerConfig, model modelContext) (provider.Synthesizer, error) {
	if cfg.Token == "" {
		return nil, errors.New("elevenlabs provider requires a token")
	}

	options := []elevenlabs.Option{
		elevenlabs.WithToken(cfg.Token),
	}

	if model.Client != nil {
		options = append(options, elevenlabs.WithClient(model.Client))
	}

	return elevenlabs.NewSynthesizer(cfg.URL, model.ID, options...)
}

func openaiSynthesizer(cfg providerConfig, model modelContext) (provider.Synthesizer, error) {
	if cfg.Token == "" {
		return nil, errors.New("openai provider requires a token")
	}

	options := []openai.Option{
		openai.WithToken(cfg.Token),
	}

	if model.Client != nil {
		options = append(options, openai.WithClient(model.Client))
	}

	return openai.NewSynthesizer(cfg.URL, model.ID, options...)
}

func googleSynthesizer(cfg providerConfig, model modelContext) (provider.Synthesizer, error) {
	if cfg.Token == "" {
		return nil, errors.New("google provider requires a token")
	}

	options := []google.Option{
		google.WithToken(cfg.Token),
	}

	if model.Client != nil {
		options = append(options, google.WithClient(model.Client))
	}

	return google.NewSynthesizer(model.ID, options...)
}

func pollySynthesizer(cfg providerConfig, model modelContext) (provider.Synthesizer, error) {
	var options []polly.Option

	if cfg.Region != "" {
		options = append(options, polly.WithRegion(cfg.Region))
	}

	if cfg.AccessKey != "" {
		options = append(options, polly.WithCredentials(cfg.AccessKey, cfg.SecretKey))
	}

	if model.Client != nil {
		options = append(options, polly.WithClient(model.Client))
	}

	return polly.NewSynthesizer(model.ID, options...)
}

func replicateSynthesizer(cfg providerConfig, model modelContext) (provider.Synthesizer, error) {
	if cfg.Token == "" {
		return nil, errors.New("replicate provider requires a token")
	}

	return replicate.NewSynthesizer(model.ID, replicate.WithToken(cfg.Token))
}
