package chat

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/rs/zerolog"

	"github.com/doctalk-ai/doctalk/pkg/llm"
	"github.com/doctalk-ai/doctalk/pkg/metrics"
	"github.com/doctalk-ai/doctalk/pkg/retrieval"
	"github.com/doctalk-ai/doctalk/pkg/vectorstore"
)

// FallbackAnswer is returned to the caller when the provider fails mid-call.
const FallbackAnswer = "I apologize, but I encountered an error while processing your question. Please try again."

// historyWindow is how many recent messages are rendered into the prompt.
const historyWindow = 6

const systemInstructions = `You are a helpful assistant that answers questions based on the provided document context.

Instructions:
1. Use ONLY the information from the provided context to answer the question.
2. If the context does not contain the information needed, state that explicitly.
3. Do not include inline citations or source references in the answer.
4. Write complete, properly punctuated sentences.`

// Length selects how long generated answers should be.
type Length string

// Supported answer lengths.
const (
	LengthBrief    Length = "brief"
	LengthBalanced Length = "balanced"
	LengthDetailed Length = "detailed"
)

// ParseLength maps a string to a Length, defaulting to balanced.
func ParseLength(s string) (Length, error) {
	switch Length(strings.ToLower(strings.TrimSpace(s))) {
	case LengthBrief:
		return LengthBrief, nil
	case LengthBalanced, "":
		return LengthBalanced, nil
	case LengthDetailed:
		return LengthDetailed, nil
	default:
		return "", fmt.Errorf("unknown response length %q", s)
	}
}

// maxTokens reports the output token ceiling for the length.
func (l Length) maxTokens() int {
	switch l {
	case LengthBrief:
		return 512
	case LengthDetailed:
		return 2048
	default:
		return 1024
	}
}

// instruction reports the prompt line describing the desired length.
func (l Length) instruction() string {
	switch l {
	case LengthBrief:
		return "Keep the answer brief and to the point."
	case LengthDetailed:
		return "Provide a thorough, detailed answer."
	default:
		return "Answer with a moderate amount of detail."
	}
}

// GeneratorConfig holds answer generator configuration.
type GeneratorConfig struct {
	// Temperature for response generation.
	Temperature float32

	// Optional structured logger.
	Logger zerolog.Logger

	// Optional metrics; nil records nothing.
	Metrics *metrics.Metrics
}

// GeneratorOption configures a Generator.
type GeneratorOption interface {
	Apply(*GeneratorConfig)
}

type generatorConfigOption struct{ config *GeneratorConfig }

func (o generatorConfigOption) Apply(config *GeneratorConfig) { *config = *o.config }

// WithGeneratorConfig sets custom generator configuration.
func WithGeneratorConfig(config *GeneratorConfig) GeneratorOption {
	return generatorConfigOption{config: config}
}

// Generator produces grounded answers from retrieved context and session
// history.
type Generator struct {
	client      llm.Client
	sessions    *Sessions
	temperature float32
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewGenerator creates an answer generator.
//
// Example:
//
//	gen, err := chat.NewGenerator(client, sessions)
//	answer := gen.Answer(ctx, id, "What is the deadline?", results, chat.LengthBalanced)
func NewGenerator(client llm.Client, sessions *Sessions, opts ...GeneratorOption) (*Generator, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}

	config := &GeneratorConfig{}
	for _, opt := range opts {
		opt.Apply(config)
	}
	if config.Temperature == 0 {
		config.Temperature = llm.DefaultTemperature
	}

	return &Generator{
		client:      client,
		sessions:    sessions,
		temperature: config.Temperature,
		logger:      config.Logger,
		metrics:     config.Metrics,
	}, nil
}

// Answer generates a complete response for the question. Provider failures
// degrade to the fixed fallback string; on success the question/answer pair
// is recorded in the session.
func (g *Generator) Answer(ctx context.Context, sessionID, question string, results []vectorstore.SearchResult, length Length) string {
	prompt, err := g.buildPrompt(sessionID, question, results, length)
	if err != nil {
		g.logger.Error().Err(err).Str("session", sessionID).Msg("prompt assembly failed")
		return FallbackAnswer
	}

	raw, err := g.client.Generate(ctx, prompt, llm.Options{
		MaxTokens:   length.maxTokens(),
		Temperature: g.temperature,
	})
	if err != nil {
		g.logger.Error().Err(err).Str("session", sessionID).Msg("generation failed")
		g.metrics.IncGenerationFailure()
		return FallbackAnswer
	}

	answer := CleanAnswer(raw)
	g.recordTurn(sessionID, question, answer)
	return answer
}

// StreamAnswer yields response fragments as the provider produces them. The
// question/answer pair is recorded only after the stream is fully consumed;
// an abandoned or failed stream leaves the session untouched.
func (g *Generator) StreamAnswer(ctx context.Context, sessionID, question string, results []vectorstore.SearchResult, length Length) iter.Seq[string] {
	return func(yield func(string) bool) {
		prompt, err := g.buildPrompt(sessionID, question, results, length)
		if err != nil {
			g.logger.Error().Err(err).Str("session", sessionID).Msg("prompt assembly failed")
			yield(FallbackAnswer)
			return
		}

		opts := llm.Options{
			MaxTokens:   length.maxTokens(),
			Temperature: g.temperature,
		}

		var full strings.Builder
		for delta, err := range g.client.Stream(ctx, prompt, opts) {
			if err != nil {
				g.logger.Error().Err(err).Str("session", sessionID).Msg("stream failed")
				g.metrics.IncGenerationFailure()
				yield(FallbackAnswer)
				return
			}
			if !yield(delta) {
				return
			}
			full.WriteString(delta)
		}

		g.recordTurn(sessionID, question, CleanAnswer(full.String()))
	}
}

func (g *Generator) recordTurn(sessionID, question, answer string) {
	if err := g.sessions.AppendTurn(sessionID, question, answer); err != nil {
		g.logger.Error().Err(err).Str("session", sessionID).Msg("recording turn failed")
	}
}

// buildPrompt assembles instructions, length guidance, context, recent
// history, and the question into a single prompt.
func (g *Generator) buildPrompt(sessionID, question string, results []vectorstore.SearchResult, length Length) (string, error) {
	history, err := g.sessions.History(sessionID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(systemInstructions)
	b.WriteString("\n")
	b.WriteString(length.instruction())
	b.WriteString("\n\nContext:\n")
	b.WriteString(retrieval.FormatContext(results))
	b.WriteString("\n\nPrevious conversation:\n")
	b.WriteString(formatHistory(history))
	b.WriteString("\n\nHuman: ")
	b.WriteString(question)
	b.WriteString("\nAssistant:")
	return b.String(), nil
}

// formatHistory renders the most recent messages as Human:/Assistant: lines.
func formatHistory(messages []Message) string {
	if len(messages) == 0 {
		return "No previous conversation."
	}
	if len(messages) > historyWindow {
		messages = messages[len(messages)-historyWindow:]
	}

	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			lines = append(lines, "Human: "+msg.Content)
		case RoleAssistant:
			lines = append(lines, "Assistant: "+msg.Content)
		}
	}
	return strings.Join(lines, "\n")
}
