// Package assist wraps the remote generative model behind deterministic
// fallbacks: no call ever returns an error to its caller, a remote failure
// resolves to a fixed substitute for that request kind.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"
)

const (
	funFactPrompt  = "Tell me one interesting and surprising fun fact about science, history, or technology for a student audience. Keep it under 150 characters. Do not use Markdown formatting."
	studyTipPrompt = "Give me a quick, actionable study tip for a college student. Max 20 words. No Markdown."

	funFactEmptyFallback = "Did you know? Honey never spoils!"
	funFactErrFallback   = "The shortest war in history lasted only 38 minutes."

	studyTipEmptyFallback = "Use the Pomodoro technique: study for 25 minutes, then take a 5-minute break."
	studyTipErrFallback   = "Try explaining complex concepts to a rubber duck to find gaps in your knowledge."
)

// QuizQuestion is the structured result of a quiz generation request.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

// Generator is the low-level model client. GenerateJSON asks the model to
// constrain its output to the given schema; the returned text is still
// treated as untrusted and re-validated here.
type Generator interface {
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Service is the AI gateway. A nil generator means the gateway is not
// configured and every call takes its fallback path.
type Service struct {
	gen Generator
}

func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

// FunFact returns a short fun fact, or a fixed fallback on any failure.
func (s *Service) FunFact(ctx context.Context) string {
	if s.gen == nil {
		return funFactErrFallback
	}
	text, err := s.gen.GenerateText(ctx, funFactPrompt, 0.9)
	if err != nil {
		log.Printf("assist: fun fact request failed: %v", err)
		return funFactErrFallback
	}
	if t := strings.TrimSpace(text); t != "" {
		return t
	}
	return funFactEmptyFallback
}

// StudyTip returns a short study tip, or a fixed fallback on any failure.
func (s *Service) StudyTip(ctx context.Context) string {
	if s.gen == nil {
		return studyTipErrFallback
	}
	text, err := s.gen.GenerateText(ctx, studyTipPrompt, 0.8)
	if err != nil {
		log.Printf("assist: study tip request failed: %v", err)
		return studyTipErrFallback
	}
	if t := strings.TrimSpace(text); t != "" {
		return t
	}
	return studyTipEmptyFallback
}

// QuizQuestion generates a 4-option multiple-choice question about subject.
// Any failure (network, non-JSON text, shape mismatch) resolves to a fixed
// question for that subject with answer index 3.
func (s *Service) QuizQuestion(ctx context.Context, subject string) QuizQuestion {
	fallback := FallbackQuestion(subject)
	if s.gen == nil {
		return fallback
	}

	prompt := fmt.Sprintf("Generate a multiple choice question about %s with 4 options. Return strictly as valid JSON.", subject)
	raw, err := s.gen.GenerateJSON(ctx, prompt, quizSchema())
	if err != nil {
		log.Printf("assist: quiz request for %q failed: %v", subject, err)
		return fallback
	}

	question, err := parseQuizQuestion(raw)
	if err != nil {
		log.Printf("assist: quiz response for %q rejected: %v", subject, err)
		return fallback
	}
	return question
}

// FallbackQuestion is the deterministic substitute used when generation
// fails for subject.
func FallbackQuestion(subject string) QuizQuestion {
	return QuizQuestion{
		Question: fmt.Sprintf("What is a fundamental concept in %s?", subject),
		Options:  []string{"Consistency", "Scalability", "Reliability", "All of the above"},
		Answer:   3,
	}
}

// parseQuizQuestion normalizes and validates the model output: code fences
// are stripped, the remainder must parse as JSON and match the expected
// shape exactly.
func parseQuizQuestion(raw string) (QuizQuestion, error) {
	cleaned := stripCodeFence(raw)
	if cleaned == "" {
		return QuizQuestion{}, errors.New("empty response")
	}

	var q QuizQuestion
	if err := json.Unmarshal([]byte(cleaned), &q); err != nil {
		return QuizQuestion{}, fmt.Errorf("parse response: %w", err)
	}
	if strings.TrimSpace(q.Question) == "" {
		return QuizQuestion{}, errors.New("missing question")
	}
	if len(q.Options) != 4 {
		return QuizQuestion{}, fmt.Errorf("expected 4 options, got %d", len(q.Options))
	}
	if q.Answer < 0 || q.Answer > 3 {
		return QuizQuestion{}, fmt.Errorf("answer index %d out of range", q.Answer)
	}
	return q, nil
}

// stripCodeFence removes surrounding ``` markers (with or without a "json"
// tag) that models commonly wrap JSON output in.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

func quizSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question": {Type: genai.TypeString},
			"options":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"answer":   {Type: genai.TypeInteger, Description: "Index of the correct option (0-3)"},
		},
		Required: []string{"question", "options", "answer"},
	}
}
