package assist

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

type fakeGenerator struct {
	text    string
	jsonOut string
	err     error
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	return f.text, f.err
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	return f.jsonOut, f.err
}

func TestFunFactWithoutGenerator(t *testing.T) {
	s := NewService(nil)
	got := s.FunFact(context.Background())
	if got != "The shortest war in history lasted only 38 minutes." {
		t.Errorf("unexpected fallback: %q", got)
	}
}

func TestFunFactEmptyResponse(t *testing.T) {
	s := NewService(&fakeGenerator{text: "   "})
	got := s.FunFact(context.Background())
	if got != "Did you know? Honey never spoils!" {
		t.Errorf("unexpected fallback for empty response: %q", got)
	}
}

func TestFunFactPassesThroughText(t *testing.T) {
	s := NewService(&fakeGenerator{text: "Octopuses have three hearts."})
	got := s.FunFact(context.Background())
	if got != "Octopuses have three hearts." {
		t.Errorf("unexpected fact: %q", got)
	}
}

func TestStudyTipErrorFallback(t *testing.T) {
	s := NewService(&fakeGenerator{err: errors.New("quota exceeded")})
	got := s.StudyTip(context.Background())
	if got != "Try explaining complex concepts to a rubber duck to find gaps in your knowledge." {
		t.Errorf("unexpected fallback: %q", got)
	}
}

func TestQuizQuestionErrorFallback(t *testing.T) {
	s := NewService(&fakeGenerator{err: errors.New("model unavailable")})
	q := s.QuizQuestion(context.Background(), "Physics")

	if q.Question != "What is a fundamental concept in Physics?" {
		t.Errorf("unexpected question: %q", q.Question)
	}
	if len(q.Options) != 4 || q.Options[3] != "All of the above" {
		t.Errorf("unexpected options: %v", q.Options)
	}
	if q.Answer != 3 {
		t.Errorf("unexpected answer index: %d", q.Answer)
	}
}

func TestQuizQuestionParsesFencedJSON(t *testing.T) {
	raw := "```json\n{\"question\":\"What force pulls objects toward Earth?\",\"options\":[\"Gravity\",\"Friction\",\"Magnetism\",\"Inertia\"],\"answer\":0}\n```"
	s := NewService(&fakeGenerator{jsonOut: raw})
	q := s.QuizQuestion(context.Background(), "Physics")

	if q.Question != "What force pulls objects toward Earth?" {
		t.Errorf("fenced JSON was not parsed: %+v", q)
	}
	if q.Answer != 0 {
		t.Errorf("unexpected answer index: %d", q.Answer)
	}
}

func TestQuizQuestionRejectsBadShape(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "the answer is gravity"},
		{"missing question", `{"options":["a","b","c","d"],"answer":1}`},
		{"three options", `{"question":"q?","options":["a","b","c"],"answer":1}`},
		{"answer out of range", `{"question":"q?","options":["a","b","c","d"],"answer":4}`},
		{"negative answer", `{"question":"q?","options":["a","b","c","d"],"answer":-1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewService(&fakeGenerator{jsonOut: tc.raw})
			q := s.QuizQuestion(context.Background(), "Chemistry")
			if q.Question != FallbackQuestion("Chemistry").Question || q.Answer != 3 {
				t.Errorf("expected fallback for %s, got %+v", tc.name, q)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := stripCodeFence(tc.in); got != tc.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
