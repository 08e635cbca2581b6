// Package llm talks to an OpenAI-compatible chat completions endpoint to
// generate quizzes, lesson summaries and tutor answers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/luminalearn/lumina/internal/llm/prompts"
	"github.com/luminalearn/lumina/internal/model"
)

const tutorSystemPrompt = "You are Lumina AI, a helpful teaching assistant. Be concise, clear, and encouraging."

// DefaultTimeout bounds a single request when the caller sets none.
const DefaultTimeout = 60 * time.Second

// ErrEmptyResponse is returned when the model produces no usable text.
var ErrEmptyResponse = errors.New("LLM returned an empty response")

// Options tunes quiz generation and request limits.
type Options struct {
	NumQuestions int
	Difficulty   prompts.Difficulty
	Timeout      time.Duration
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
	opts  Options
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string, opts Options) (*Client, error) {
	if modelName == "" {
		return nil, errors.New("model name is required")
	}
	if !prompts.IsValidDifficulty(string(opts.Difficulty)) {
		return nil, fmt.Errorf("invalid quiz difficulty %q", opts.Difficulty)
	}
	if err := prompts.Load(); err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
		opts:  opts,
	}, nil
}

// Ping checks that the endpoint is reachable and accepts the key.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// FetchQuiz generates a quiz for the lesson context. Responses that do not
// parse into a valid quiz are returned as errors.
func (c *Client) FetchQuiz(ctx context.Context, lessonContext string) (model.Quiz, error) {
	prompt, err := prompts.BuildQuizPrompt(lessonContext, c.opts.NumQuestions, c.opts.Difficulty)
	if err != nil {
		return model.Quiz{}, fmt.Errorf("build quiz prompt: %w", err)
	}

	raw, err := c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.4,
	})
	if err != nil {
		return model.Quiz{}, fmt.Errorf("LLM quiz call: %w", err)
	}
	slog.Debug("LLM quiz response", "raw", raw)

	quiz, err := model.ParseQuiz([]byte(raw))
	if err != nil {
		return model.Quiz{}, err
	}
	return quiz, nil
}

// Summarize produces a short bullet-point summary of lesson content.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	prompt, err := prompts.BuildSummaryPrompt(content)
	if err != nil {
		return "", fmt.Errorf("build summary prompt: %w", err)
	}
	out, err := c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: tutorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("LLM summary call: %w", err)
	}
	return out, nil
}

// AskTutor answers a student question in the context of a lesson.
func (c *Client) AskTutor(ctx context.Context, question, lessonContext string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", errors.New("question is empty")
	}
	prompt, err := prompts.BuildTutorPrompt(question, lessonContext)
	if err != nil {
		return "", fmt.Errorf("build tutor prompt: %w", err)
	}
	out, err := c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: tutorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.5,
	})
	if err != nil {
		return "", fmt.Errorf("LLM tutor call: %w", err)
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opts.Timeout)
}
