package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/kitbuilder587/morvo/internal/domain"
	"github.com/kitbuilder587/morvo/internal/llm"
	"github.com/kitbuilder587/morvo/internal/perplexity"
	"github.com/kitbuilder587/morvo/internal/seranking"
)

var (
	ErrUnknownSpecialist = errors.New("unknown specialist")
	ErrNotConfigured     = errors.New("specialist is not configured")
	ErrNoInput           = errors.New("no successful specialist results to synthesize")
	ErrEmptyInput        = errors.New("empty specialist input")
	ErrPanic             = errors.New("specialist panicked")
)

// Name - закрытый набор ролей специалистов
type Name string

const (
	WebIntelligence    Name = "web_intelligence"
	Backlink           Name = "backlink"
	DataSynthesis      Name = "data_synthesis"
	CulturalAdaptation Name = "cultural_adaptation"
)

// AllNames в каноническом порядке: так же упорядочен provenance
var AllNames = []Name{WebIntelligence, Backlink, DataSynthesis, CulturalAdaptation}

func (n Name) IsValid() bool {
	switch n {
	case WebIntelligence, Backlink, DataSynthesis, CulturalAdaptation:
		return true
	}
	return false
}

// IsData - специалист ходит во внешний источник данных
func (n Name) IsData() bool {
	return n == WebIntelligence || n == Backlink
}

func (n Name) String() string { return string(n) }

func ParseName(s string) (Name, error) {
	n := Name(s)
	if !n.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSpecialist, s)
	}
	return n, nil
}

type NameSet map[Name]struct{}

func NewNameSet(names ...Name) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func (s NameSet) Add(n Name) {
	s[n] = struct{}{}
}

func (s NameSet) Has(n Name) bool {
	_, ok := s[n]
	return ok
}

// Sorted возвращает имена в каноническом порядке
func (s NameSet) Sorted() []Name {
	out := make([]Name, 0, len(s))
	for _, n := range AllNames {
		if s.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

func (s NameSet) DataNames() []Name {
	var out []Name
	for _, n := range s.Sorted() {
		if n.IsData() {
			out = append(out, n)
		}
	}
	return out
}

type FailureKind string

const (
	FailureTimeout      FailureKind = "timeout"
	FailureCanceled     FailureKind = "canceled"
	FailureNetwork      FailureKind = "network"
	FailureQuota        FailureKind = "quota"
	FailureAuth         FailureKind = "auth"
	FailureParse        FailureKind = "parse"
	FailureUpstream     FailureKind = "upstream"
	FailureInvalidInput FailureKind = "invalid_input"
	FailureNoInput      FailureKind = "no_input"
	FailureInternal     FailureKind = "internal"
)

// Failure - классифицированная причина неудачи специалиста
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return string(f.Kind) + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

func NewFailure(err error) *Failure {
	return &Failure{Kind: ClassifyError(err), Err: err}
}

// ClassifyError раскладывает ошибки клиентов по видам отказа
func ClassifyError(err error) FailureKind {
	var netErr net.Error
	switch {
	case err == nil:
		return FailureInternal
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, context.Canceled):
		return FailureCanceled
	case errors.Is(err, ErrNoInput):
		return FailureNoInput
	case errors.Is(err, llm.ErrRateLimit), errors.Is(err, perplexity.ErrRateLimit), errors.Is(err, seranking.ErrRateLimit):
		return FailureQuota
	case errors.Is(err, llm.ErrAuthFailed), errors.Is(err, perplexity.ErrUnauthorized), errors.Is(err, seranking.ErrUnauthorized):
		return FailureAuth
	case errors.Is(err, llm.ErrNoJSON), errors.Is(err, llm.ErrEmptyResponse),
		errors.Is(err, perplexity.ErrMalformed), errors.Is(err, perplexity.ErrEmptyResponse),
		errors.Is(err, seranking.ErrMalformed):
		return FailureParse
	case errors.Is(err, llm.ErrBadRequest), errors.Is(err, perplexity.ErrInvalidRequest),
		errors.Is(err, seranking.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidDomain):
		return FailureInvalidInput
	case errors.As(err, &netErr):
		return FailureNetwork
	case errors.Is(err, llm.ErrRequestFailed), errors.Is(err, perplexity.ErrRequestFailed),
		errors.Is(err, seranking.ErrRequestFailed), errors.Is(err, seranking.ErrNoData):
		return FailureUpstream
	}
	return FailureInternal
}

// Payload - структурированный вклад специалиста
type Payload struct {
	Summary         string   `json:"summary"`
	Insights        []string `json:"insights,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Data            any      `json:"data,omitempty"`
}

// Result: Payload есть только при Success, Err только при неудаче.
type Result struct {
	Specialist Name
	Success    bool
	Payload    *Payload
	Err        *Failure
	Elapsed    time.Duration
}

func Succeeded(name Name, p *Payload, start time.Time) Result {
	return Result{Specialist: name, Success: true, Payload: p, Elapsed: time.Since(start)}
}

func Failed(name Name, err error, start time.Time) Result {
	f, ok := err.(*Failure)
	if !ok {
		f = NewFailure(err)
	}
	return Result{Specialist: name, Err: f, Elapsed: time.Since(start)}
}

// Status для логов и метрик: success или вид отказа
func (r Result) Status() string {
	if r.Success {
		return "success"
	}
	if r.Err == nil {
		return string(FailureInternal)
	}
	return string(r.Err.Kind)
}

// Input - одно значение на вход специалисту. Results заполняется только для синтеза.
type Input struct {
	Message string
	URL     string
	Domain  string
	UserID  string
	Results []Result
}

// Adapter - специалист. Invoke не паникует и не возвращает error:
// любой отказ приходит как Result{Success: false}.
// Реализации обязаны быть безопасны для параллельного вызова.
type Adapter interface {
	Name() Name
	Invoke(ctx context.Context, in Input) Result
	Close() error
}

// Observer - куда координатор и адаптеры сообщают о вызовах. Реализует metrics.Metrics.
type Observer interface {
	ObserveSpecialist(name, status string, elapsed time.Duration)
	ObserveTotalFailure()
	ObserveRelevanceScore(score float64)
	ObserveCache(hit bool)
}

type nopObserver struct{}

func (nopObserver) ObserveSpecialist(string, string, time.Duration) {}
func (nopObserver) ObserveTotalFailure()                            {}
func (nopObserver) ObserveRelevanceScore(float64)                   {}
func (nopObserver) ObserveCache(bool)                               {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
