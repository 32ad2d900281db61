package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/voxgate/voxgate/pkg/client"

	"github.com/google/uuid"
)

func main() {
	urlFlag := flag.String("url", "http://localhost:8080", "server url")
	tokenFlag := flag.String("token", "", "server token")
	modelFlag := flag.String("model", "", "model id")
	voiceFlag := flag.String("voice", "", "voice id")
	formatFlag := flag.String("format", "", "audio format")

	flag.Parse()

	ctx := context.Background()

	model := *modelFlag

	options := []client.RequestOption{}

	if *tokenFlag != "" {
		options = append(options, client.WithToken(*tokenFlag))
	}

	client := client.New(*urlFlag, options...)

	if model == "" {
		val, err := selectModel(ctx, client)

		if err != nil {
			panic(err)
		}

		model = val
	}

	synthesize(ctx, client, model, *voiceFlag, *formatFlag)
}

func selectModel(ctx context.Context, client *client.Client) (string, error) {
	reader := bufio.NewReader(os.Stdin)
	output := os.Stdout

	models, err := client.Models.List(ctx)

	if err != nil {
		return "", err
	}

	sort.SliceStable(models, func(i, j int) bool {
		return models[i].ID < models[j].ID
	})

	for i, m := range models {
		output.WriteString(fmt.Sprintf("%2d) ", i+1))
		output.WriteString(m.ID)
		output.WriteString("\n")
	}

	output.WriteString(" >  ")
	sel, err := reader.ReadString('\n')

	if err != nil {
		panic(err)
	}

	idx, err := strconv.Atoi(strings.TrimSpace(sel))

	if err != nil {
		panic(err)
	}

	output.WriteString("\n")

	model := models[idx-1].ID
	return model, nil
}

func synthesize(ctx context.Context, c *client.Client, model, voice, format string) {
	reader := bufio.NewReader(os.Stdin)
	output := os.Stdout

LOOP:
	for {
		output.WriteString(">>> ")
		input, err := reader.ReadString('\n')

		if err != nil {
			panic(err)
		}

		input = strings.TrimSpace(input)

		synthesis, err := c.Syntheses.New(ctx, client.SynthesizeRequest{
			Model: model,

			Input: input,

			SynthesizeOptions: client.SynthesizeOptions{
				Voice: voice,

				Format: format,
			},
		})

		if err != nil {
			output.WriteString(err.Error() + "\n")
			continue LOOP
		}

		name := uuid.New().String()

		if ext, _ := mime.ExtensionsByType(synthesis.ContentType); len(ext) > 0 {
			name += ext[0]
		} else {
			name += ".mp3"
		}

		os.WriteFile(name, synthesis.Content, 0600)
		fmt.Println("Saved: " + name)

		output.WriteString("\n")
	}
}
