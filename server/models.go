package server

// https://platform.openai.com/docs/api-reference/audio/createSpeech
type SpeechRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`

	Voice string   `json:"voice,omitempty"`
	Speed *float32 `json:"speed,omitempty"`

	Instructions string `json:"instructions,omitempty"`

	ResponseFormat string `json:"response_format,omitempty"`
}

type Model struct {
	Object string `json:"object"` // "model"

	ID string `json:"id"`
}

type ModelList struct {
	Object string `json:"object"` // "list"

	Models []Model `json:"data"`
}

type ErrorResponse struct {
	Error Error `json:"error,omitempty"`
}

type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}
