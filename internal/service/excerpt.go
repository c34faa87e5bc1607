// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/render"
)

const (
	excerptTimeout   = 20 * time.Second
	excerptMaxTokens = 200
	excerptPrompt    = "You write short excerpts for a property guide website. " +
		"Summarize the content in one or two plain sentences of at most 300 characters. " +
		"Reply with the excerpt only, without quotes or markdown."
)

// ErrEmptyContent is returned when there is nothing to summarize.
var ErrEmptyContent = errors.New("content is empty")

// ExcerptService suggests page and update excerpts. Without an API key it
// derives the excerpt from the content's plain text.
type ExcerptService struct {
	client *openai.Client
	model  string
}

// NewExcerptService creates an excerpt service. An empty apiKey disables the
// AI suggestion. Extra options are passed to the OpenAI client.
func NewExcerptService(apiKey, modelName string, opts ...option.RequestOption) *ExcerptService {
	s := &ExcerptService{model: modelName}
	if apiKey != "" {
		opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
		c := openai.NewClient(opts...)
		s.client = &c
	}
	return s
}

// AIEnabled reports whether suggestions come from the language model.
func (s *ExcerptService) AIEnabled() bool {
	return s.client != nil
}

// Suggest returns an excerpt of at most model.MaxPageExcerptLength
// characters for Markdown content. Model failures fall back to the plain
// text excerpt.
func (s *ExcerptService) Suggest(ctx context.Context, title, content string) (string, error) {
	text := render.PlainText(content)
	if text == "" {
		return "", ErrEmptyContent
	}
	fallback := render.Truncate(text, model.MaxPageExcerptLength)
	if s.client == nil {
		return fallback, nil
	}

	ctx, cancel := context.WithTimeout(ctx, excerptTimeout)
	defer cancel()

	prompt := text
	if title != "" {
		prompt = "Title: " + title + "\n\n" + text
	}
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(excerptPrompt),
			openai.UserMessage(render.Truncate(prompt, 6000)),
		},
		MaxCompletionTokens: openai.Int(excerptMaxTokens),
	})
	if err != nil {
		slog.Warn("excerpt suggestion failed, using plain text", "error", err)
		return fallback, nil
	}
	if len(resp.Choices) == 0 {
		return fallback, nil
	}

	suggestion := strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"`)
	if suggestion == "" {
		return fallback, nil
	}
	return render.Truncate(suggestion, model.MaxPageExcerptLength), nil
}
