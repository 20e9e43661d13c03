package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/morvo/internal/llm"
)

// SynthesisAdapter сводит отчеты источников в возможности и проблемы одним вызовом LLM
type SynthesisAdapter struct {
	llm    llm.Client
	logger *zap.Logger
}

type synthesisAnswer struct {
	Opportunities []string `json:"opportunities"`
	PainPoints    []string `json:"pain_points"`
}

func NewSynthesisAdapter(client llm.Client, logger *zap.Logger) *SynthesisAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SynthesisAdapter{
		llm:    client,
		logger: logger.With(zap.String("specialist", string(DataSynthesis))),
	}
}

func (s *SynthesisAdapter) Name() Name { return DataSynthesis }

func (s *SynthesisAdapter) Invoke(ctx context.Context, in Input) Result {
	start := time.Now()

	var reports []Result
	for _, r := range in.Results {
		if r.Success && r.Payload != nil && r.Specialist.IsData() {
			reports = append(reports, r)
		}
	}
	if len(reports) == 0 {
		return Failed(DataSynthesis, &Failure{Kind: FailureNoInput, Err: ErrNoInput}, start)
	}

	prompt, err := buildSynthesisPrompt(in.Message, reports)
	if err != nil {
		return Failed(DataSynthesis, &Failure{Kind: FailureInternal, Err: err}, start)
	}

	content, err := s.llm.CompleteWithSystem(ctx, synthesisSystemPrompt, prompt)
	if err != nil {
		s.logger.Warn("synthesis call failed", zap.Error(err))
		return Failed(DataSynthesis, err, start)
	}

	answer, err := parseSynthesis(content)
	if err != nil {
		s.logger.Warn("unparseable synthesis", zap.Error(err))
		return Failed(DataSynthesis, &Failure{Kind: FailureParse, Err: err}, start)
	}

	return Succeeded(DataSynthesis, &Payload{
		Summary:         fmt.Sprintf("Synthesized %d specialist reports", len(reports)),
		Insights:        answer.PainPoints,
		Recommendations: answer.Opportunities,
		Data:            answer,
	}, start)
}

func (s *SynthesisAdapter) Close() error {
	if c, ok := s.llm.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func buildSynthesisPrompt(message string, reports []Result) (string, error) {
	var sb strings.Builder

	sb.WriteString("User question: ")
	sb.WriteString(message)
	sb.WriteString("\n\n")

	for _, r := range reports {
		raw, err := json.Marshal(r.Payload)
		if err != nil {
			return "", fmt.Errorf("marshal %s payload: %w", r.Specialist, err)
		}
		fmt.Fprintf(&sb, "[%s report]\n%s\n\n", r.Specialist, raw)
	}

	return sb.String(), nil
}

// parseSynthesis берет JSON от первой { до последней }, пустые пункты выкидывает
func parseSynthesis(content string) (*synthesisAnswer, error) {
	raw, err := llm.ExtractJSON(content)
	if err != nil {
		return nil, err
	}

	var a synthesisAnswer
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("decode synthesis: %w", err)
	}

	a.Opportunities = cleanItems(a.Opportunities, maxSynthesisItems)
	a.PainPoints = cleanItems(a.PainPoints, maxSynthesisItems)
	if len(a.Opportunities) == 0 && len(a.PainPoints) == 0 {
		return nil, fmt.Errorf("%w: synthesis has no items", llm.ErrEmptyResponse)
	}
	return &a, nil
}

func cleanItems(items []string, limit int) []string {
	var out []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
		if len(out) == limit {
			break
		}
	}
	return out
}
