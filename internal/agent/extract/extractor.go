// Package extract derives structured fields (intent, location, date) from a
// raw user message. The three sub-extractions run concurrently against the
// extraction chat model; each one absorbs its own failures so a bad field
// degrades to absent without touching the other two.
package extract

import (
	"context"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/nir-assistant/server/internal/agent/model"
	logx "github.com/nir-assistant/server/pkg/logger"
)

// Extractor runs the extraction pipeline against one chat model.
type Extractor struct {
	chat einomodel.BaseChatModel
	cfg  model.ExtractionModelConfig
}

func New(chat einomodel.BaseChatModel, cfg model.ExtractionModelConfig) *Extractor {
	return &Extractor{chat: chat, cfg: cfg}
}

// Extract launches the three sub-extractions concurrently and composes the
// fields that succeeded. It never returns an error: extraction cannot fail
// the turn.
func (e *Extractor) Extract(ctx context.Context, message string) model.ExtractionResult {
	var (
		intent   model.Intent
		location string
		date     string
	)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		defer recoverSubExtraction("intent")
		intent = e.extractIntent(ctx, message)
	}()
	go func() {
		defer wg.Done()
		defer recoverSubExtraction("location")
		location = e.extractLocation(ctx, message)
	}()
	go func() {
		defer wg.Done()
		defer recoverSubExtraction("date")
		date = e.extractDate(ctx, message)
	}()

	wg.Wait()

	return model.ExtractionResult{
		Intent:   intent,
		Location: location,
		Date:     date,
	}
}

// generate issues one short structured-output request to the chat model.
func (e *Extractor) generate(ctx context.Context, prompt string) (string, error) {
	out, err := e.chat.Generate(ctx, promptMessages(prompt),
		einomodel.WithTemperature(e.cfg.Temperature),
		einomodel.WithMaxTokens(e.cfg.MaxTokens),
	)
	if err != nil {
		return "", err
	}
	return out.Content, nil
}

func promptMessages(prompt string) []*schema.Message {
	return []*schema.Message{schema.UserMessage(prompt)}
}

func recoverSubExtraction(field string) {
	if r := recover(); r != nil {
		logx.Error().Str("field", field).Msgf("sub-extraction panic recovered: %v", r)
	}
}
