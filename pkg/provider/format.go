package provider

import (
	"strings"
)

const (
	FormatMP3  = "mp3"
	FormatWAV  = "wav"
	FormatOGG  = "ogg"
	FormatOpus = "opus"
	FormatFLAC = "flac"
	FormatAAC  = "aac"
	FormatPCM  = "pcm"
)

func FormatContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatMP3:
		return "audio/mpeg"

	case FormatWAV:
		return "audio/wav"

	case FormatOGG:
		return "audio/ogg"

	case FormatOpus:
		return "audio/opus"

	case FormatFLAC:
		return "audio/flac"

	case FormatAAC:
		return "audio/aac"

	case FormatPCM:
		return "audio/pcm"
	}

	return ""
}

func IsFormat(format string) bool {
	return FormatContentType(format) != ""
}
