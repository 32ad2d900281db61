package config

import (
	"time"

	"github.com/voxgate/voxgate/pkg/pipeline"
)

type pipelineConfig struct {
	Timeout string `yaml:"timeout"`

	MaxInputLength *int `yaml:"max_input_length"`
}

func (cfg *Config) registerPipeline(f *configFile) error {
	var options []pipeline.Option

	if f.Pipeline != nil {
		if f.Pipeline.Timeout != "" {
			timeout, err := time.ParseDuration(f.Pipeline.Timeout)

			if err != nil {
				return err
			}

			options = append(options, pipeline.WithTimeout(timeout))
		}

		if f.Pipeline.MaxInputLength != nil {
			options = append(options, pipeline.WithMaxInputLength(*f.Pipeline.MaxInputLength))
		}
	}

	p, err := pipeline.New(cfg, cfg.transcoder, options...)

	if err != nil {
		return err
	}

	cfg.Pipeline = p

	return nil
}
