package openai

import (
	"errors"

	"github.com/voxgate/voxgate/pkg/provider"

	"github.com/openai/openai-go/v3"
)

func convertError(err error) error {
	var apierr *openai.Error

	if errors.As(err, &apierr) {
		return provider.ErrorFromStatus(apierr.StatusCode, apierr.Message)
	}

	return err
}
