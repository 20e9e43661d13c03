package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/morvo/internal/cultural"
	"github.com/kitbuilder587/morvo/internal/domain"
)

type Phase string

const (
	PhaseClassifying        Phase = "classifying"
	PhaseFanningOut         Phase = "fanning_out"
	PhaseSynthesizing       Phase = "synthesizing"
	PhaseCulturallyAdapting Phase = "culturally_adapting"
	PhasePersisting         Phase = "persisting"
	PhaseDone               Phase = "done"
	PhaseFailed             Phase = "failed"
)

const (
	maxInsights        = 5
	maxRecommendations = 5
	summaryItems       = 3
)

const (
	fallbackSummary = `🤲 أعتذر، واجهت صعوبة في معالجة طلبك.

I apologize, I could not gather data for your request right now. I can still help with:

• Marketing strategy for Saudi Arabia
• Cultural insights and recommendations
• SEO and digital marketing guidance
• Market research and competitor analysis

Please try rephrasing your question, and I'll provide the best guidance possible.`

	introSummary = "I can help with SEO, competitor research, website analysis and marketing strategy for the Saudi market. " +
		"Share your website or ask a marketing question to get started."

	fallbackNote = "fallback response: no specialist could complete the request"
)

var fallbackRecommendations = []string{
	"Try rephrasing your question",
	"Ask about specific marketing topics",
	"Request Saudi market insights",
	"Inquire about cultural marketing best practices",
}

// ConversationStore - то, что координатору нужно от хранилища разговоров.
// Любая ошибка отсюда фатальна для хода.
type ConversationStore interface {
	GetOrCreateActiveSession(ctx context.Context, userID string) (*domain.ConversationSession, error)
	RecordTurn(ctx context.Context, session *domain.ConversationSession, turn *domain.Turn) (*domain.Turn, error)
	MergeProgress(ctx context.Context, sessionID string, specialists, outcomes []string) (*domain.ConversationSession, error)
	AdvanceStage(ctx context.Context, sessionID string, stage domain.Stage) error
}

// ProfileSource возвращает nil, nil если профиля нет
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (*domain.CulturalProfile, error)
}

// Analysis - итог одного прохода координатора
type Analysis struct {
	Summary         string
	Insights        []string
	Recommendations []string
	CulturalNotes   []string
	Contributors    []Name
	Style           cultural.Style
	Confidence      float64
	Fallback        bool
}

type Provenance struct {
	Specialist Name
	Success    bool
	Failure    *Failure
	Elapsed    time.Duration
}

type Outcome struct {
	ConversationID string
	Analysis       Analysis
	Provenance     []Provenance
	Stage          domain.Stage
	Phases         []Phase
	Elapsed        time.Duration
}

// Activated - все задействованные специалисты
func (o *Outcome) Activated() []string {
	out := make([]string, 0, len(o.Provenance))
	for _, p := range o.Provenance {
		out = append(out, string(p.Specialist))
	}
	return out
}

func (o *Outcome) Failed() []string {
	var out []string
	for _, p := range o.Provenance {
		if !p.Success {
			out = append(out, string(p.Specialist))
		}
	}
	return out
}

type CoordinatorConfig struct {
	SpecialistTimeout time.Duration
	TotalTimeout      time.Duration
	Observer          Observer
}

// Coordinator ведет один проход: classify -> fan-out -> synthesize -> adapt -> persist
type Coordinator struct {
	classifier *Classifier
	registry   *Registry
	adapter    *cultural.Adapter
	store      ConversationStore
	profiles   ProfileSource
	observer   Observer
	logger     *zap.Logger

	specialistTimeout time.Duration
	totalTimeout      time.Duration
}

func NewCoordinator(
	classifier *Classifier,
	registry *Registry,
	adapter *cultural.Adapter,
	store ConversationStore,
	profiles ProfileSource,
	cfg CoordinatorConfig,
	logger *zap.Logger,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SpecialistTimeout <= 0 {
		cfg.SpecialistTimeout = 25 * time.Second
	}
	if cfg.TotalTimeout <= 0 {
		cfg.TotalTimeout = 60 * time.Second
	}
	return &Coordinator{
		classifier:        classifier,
		registry:          registry,
		adapter:           adapter,
		store:             store,
		profiles:          profiles,
		observer:          observerOrNop(cfg.Observer),
		logger:            logger,
		specialistTimeout: cfg.SpecialistTimeout,
		totalTimeout:      cfg.TotalTimeout,
	}
}

// pass - состояние одного прохода
type pass struct {
	req      domain.ChatRequest
	key      string
	session  *domain.ConversationSession
	profile  *domain.CulturalProfile
	required NameSet
	input    Input
	results  map[Name]Result
	phases   []Phase
}

func (p *pass) enter(ph Phase) {
	p.phases = append(p.phases, ph)
}

// Process отвечает на сообщение. Ошибку возвращает только на невалидный ввод
// и на сбой хранилища, отказы специалистов превращаются в деградированный ответ.
func (c *Coordinator) Process(ctx context.Context, req domain.ChatRequest) (*Outcome, error) {
	start := time.Now()
	p := &pass{req: req, results: make(map[Name]Result)}

	p.enter(PhaseClassifying)
	p.req.Sanitize()
	if err := p.req.Validate(); err != nil {
		return nil, c.fail(c.logger, p, err)
	}
	p.key = p.req.ConversationKey()
	p.required = c.classifier.Classify(p.req.Message)

	logger := c.logger.With(zap.String("user_id", p.key))

	session, err := c.store.GetOrCreateActiveSession(ctx, p.key)
	if err != nil {
		return nil, c.fail(logger, p, err)
	}
	p.session = session
	logger = logger.With(zap.String("conversation_id", session.ID))

	userTurn := &domain.Turn{
		Role:     domain.RoleUser,
		Content:  p.req.Message,
		Language: domain.DetectLanguage(p.req.Message),
	}
	if _, err := c.store.RecordTurn(ctx, session, userTurn); err != nil {
		return nil, c.fail(logger, p, err)
	}

	p.profile = c.loadProfile(ctx, p.key, logger)
	p.input = c.buildInput(p.req)

	logger.Debug("specialists selected", zap.Strings("specialists", namesToStrings(p.required.Sorted())))

	workCtx, cancel := context.WithTimeout(ctx, c.totalTimeout)
	defer cancel()

	p.enter(PhaseFanningOut)
	c.fanOut(workCtx, p)

	if p.required.Has(DataSynthesis) {
		p.enter(PhaseSynthesizing)
		c.synthesize(workCtx, p)
	}

	p.enter(PhaseCulturallyAdapting)
	analysis := c.adapt(p)
	if analysis.Fallback {
		c.observer.ObserveTotalFailure()
		logger.Warn("all specialists failed, answering with fallback",
			zap.Strings("failed", namesToStrings(p.required.DataNames())))
	}

	p.enter(PhasePersisting)
	stage, err := c.persist(ctx, p, analysis, time.Since(start))
	if err != nil {
		return nil, c.fail(logger, p, err)
	}

	p.enter(PhaseDone)
	out := &Outcome{
		ConversationID: session.ID,
		Analysis:       analysis,
		Provenance:     c.provenance(p),
		Stage:          stage,
		Phases:         p.phases,
		Elapsed:        time.Since(start),
	}

	logger.Info("coordination done",
		zap.Strings("activated", out.Activated()),
		zap.Strings("failed", out.Failed()),
		zap.String("stage", string(stage)),
		zap.Duration("elapsed", out.Elapsed),
	)
	return out, nil
}

// fail переводит проход в failed и помечает ошибку фазой, где она случилась
func (c *Coordinator) fail(logger *zap.Logger, p *pass, err error) error {
	phase := p.phases[len(p.phases)-1]
	p.enter(PhaseFailed)
	logger.Warn("coordination failed", zap.String("phase", string(phase)), zap.Error(err))
	return fmt.Errorf("%s: %w", phase, err)
}

func (c *Coordinator) loadProfile(ctx context.Context, userID string, logger *zap.Logger) *domain.CulturalProfile {
	if c.profiles == nil {
		return nil
	}
	profile, err := c.profiles.GetProfile(ctx, userID)
	if err != nil {
		// без профиля отвечаем по умолчанию, ход не валим
		logger.Warn("profile lookup failed", zap.Error(err))
		return nil
	}
	return profile
}

func (c *Coordinator) buildInput(req domain.ChatRequest) Input {
	u := ExtractURL(req.Message)
	if u == "" {
		u = req.ContextString("website_url")
	}
	return Input{
		Message: req.Message,
		URL:     u,
		Domain:  DomainOf(u),
		UserID:  req.ConversationKey(),
	}
}

// fanOut стартует всех источников сразу и ждет всех, отказы не прерывают остальных
func (c *Coordinator) fanOut(ctx context.Context, p *pass) {
	names := p.required.DataNames()
	results := make([]Result, len(names))

	var g errgroup.Group
	for i, n := range names {
		g.Go(func() error {
			results[i] = c.invoke(ctx, n, p.input)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		p.results[r.Specialist] = r
	}
}

func (c *Coordinator) synthesize(ctx context.Context, p *pass) {
	in := p.input
	for _, n := range p.required.DataNames() {
		if r := p.results[n]; r.Success {
			in.Results = append(in.Results, r)
		}
	}

	// проваленные источники не передаем, а без входа синтез и не зовем
	if len(in.Results) == 0 {
		r := Result{Specialist: DataSynthesis, Err: &Failure{Kind: FailureNoInput, Err: ErrNoInput}}
		c.observer.ObserveSpecialist(string(DataSynthesis), r.Status(), 0)
		p.results[DataSynthesis] = r
		return
	}
	p.results[DataSynthesis] = c.invoke(ctx, DataSynthesis, in)
}

// invoke зовет адаптер с собственным таймаутом. Зависший адаптер не держит проход:
// по таймауту возвращаем отказ, горутина доработает сама (буфер на один результат).
func (c *Coordinator) invoke(ctx context.Context, n Name, in Input) Result {
	start := time.Now()

	a, ok := c.registry.Get(n)
	if !ok {
		r := Result{Specialist: n, Err: &Failure{Kind: FailureInternal, Err: fmt.Errorf("%w: %s", ErrNotConfigured, n)}}
		c.observer.ObserveSpecialist(string(n), r.Status(), 0)
		return r
	}

	ctx, cancel := context.WithTimeout(ctx, c.specialistTimeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- Result{Specialist: n, Err: &Failure{Kind: FailureInternal, Err: fmt.Errorf("%w: %v", ErrPanic, rec)}}
			}
		}()
		done <- a.Invoke(ctx, in)
	}()

	var r Result
	select {
	case r = <-done:
	case <-ctx.Done():
		r = Result{Specialist: n, Err: NewFailure(ctx.Err())}
	}

	r.Specialist = n
	r.Elapsed = time.Since(start)
	if !r.Success {
		r.Payload = nil
		if r.Err == nil {
			r.Err = &Failure{Kind: FailureInternal, Err: errors.New("adapter reported failure without reason")}
		}
	} else if r.Payload == nil {
		r.Payload = &Payload{}
	}

	c.observer.ObserveSpecialist(string(n), r.Status(), r.Elapsed)
	c.logger.Debug("specialist finished",
		zap.String("specialist", string(n)),
		zap.String("status", r.Status()),
		zap.Duration("elapsed", r.Elapsed),
	)
	return r
}

// adapt собирает черновик из результатов и прогоняет через культурную адаптацию
func (c *Coordinator) adapt(p *pass) Analysis {
	data := p.required.DataNames()

	var invoked, succeeded int
	var contributors []Name
	for _, n := range data {
		invoked++
		if p.results[n].Success {
			succeeded++
			contributors = append(contributors, n)
		}
	}

	var draft string
	var insights, recs []string
	fallback := invoked > 0 && succeeded == 0

	switch {
	case fallback:
		recs = append([]string(nil), fallbackRecommendations...)
	case invoked > 0:
		var insightLists, recLists [][]string
		// синтез первым: его выводы уже сводят источники
		for _, n := range append([]Name{DataSynthesis}, data...) {
			r, ok := p.results[n]
			if !ok || !r.Success {
				continue
			}
			if n == DataSynthesis {
				contributors = append(contributors, n)
			}
			insightLists = append(insightLists, r.Payload.Insights)
			recLists = append(recLists, r.Payload.Recommendations)
		}
		insights = interleave(insightLists, maxInsights)
		recs = interleave(recLists, maxRecommendations)
	}

	// текст собираем из уже отфильтрованных рекомендаций
	recs, recNotes := c.adapter.Recommendations(recs, p.profile)

	switch {
	case fallback:
		draft = fallbackSummary
	case invoked == 0:
		draft = introSummary
	default:
		draft = composeSummary(p.req.Message, insights, recs)
	}

	adapted := c.adapter.Frame(draft, p.profile)
	notes := append(adapted.Notes, recNotes...)
	if fallback {
		notes = append(notes, fallbackNote)
	}

	return Analysis{
		Summary:         adapted.Text,
		Insights:        insights,
		Recommendations: recs,
		CulturalNotes:   notes,
		Contributors:    append(contributors, CulturalAdaptation),
		Style:           adapted.Style,
		Confidence:      confidence(invoked, succeeded),
		Fallback:        fallback,
	}
}

func (c *Coordinator) persist(ctx context.Context, p *pass, a Analysis, elapsed time.Duration) (domain.Stage, error) {
	ms := elapsed.Milliseconds()
	agentTurn := &domain.Turn{
		Role:                      domain.RoleAgent,
		Content:                   a.Summary,
		Specialist:                string(turnSpecialist(p)),
		Language:                  domain.DetectLanguage(a.Summary),
		ProcessingTimeMs:          &ms,
		CulturalAdaptationApplied: true,
	}
	if _, err := c.store.RecordTurn(ctx, p.session, agentTurn); err != nil {
		return "", err
	}

	var outcomes []string
	if !a.Fallback {
		outcomes = a.Recommendations
	}
	session, err := c.store.MergeProgress(ctx, p.session.ID, namesToStrings(a.Contributors), outcomes)
	if err != nil {
		return "", err
	}

	next := nextStage(session.Stage, dataSucceeded(p), len(outcomes) > 0)
	if next != session.Stage {
		if err := c.store.AdvanceStage(ctx, session.ID, next); err != nil {
			return "", err
		}
	}
	return next, nil
}

func (c *Coordinator) provenance(p *pass) []Provenance {
	var out []Provenance
	for _, n := range p.required.Sorted() {
		if n == CulturalAdaptation {
			out = append(out, Provenance{Specialist: n, Success: true})
			continue
		}
		r := p.results[n]
		out = append(out, Provenance{Specialist: n, Success: r.Success, Failure: r.Err, Elapsed: r.Elapsed})
	}
	return out
}

// nextStage двигает этап не больше чем на шаг за проход
func nextStage(current domain.Stage, dataOK, hasRecommendations bool) domain.Stage {
	switch {
	case current == domain.StageDiscovery && dataOK:
		return domain.StageAnalysis
	case current == domain.StageAnalysis && dataOK && hasRecommendations:
		return domain.StageRecommendation
	}
	return current
}

// turnSpecialist - от чьего имени записываем ход агента
func turnSpecialist(p *pass) Name {
	var ok []Name
	for _, n := range p.required.DataNames() {
		if p.results[n].Success {
			ok = append(ok, n)
		}
	}
	switch {
	case len(ok) == 1:
		return ok[0]
	case p.results[DataSynthesis].Success:
		return DataSynthesis
	}
	return CulturalAdaptation
}

func dataSucceeded(p *pass) bool {
	for _, n := range p.required.DataNames() {
		if p.results[n].Success {
			return true
		}
	}
	return false
}

// confidence: 0 при полном отказе, 0.5 когда источники не нужны,
// иначе 0.5 + 0.5 * доля успешных
func confidence(invoked, succeeded int) float64 {
	switch {
	case invoked == 0:
		return 0.5
	case succeeded == 0:
		return 0
	}
	return 0.5 + 0.5*float64(succeeded)/float64(invoked)
}

func composeSummary(message string, insights, recs []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🇸🇦 Saudi market analysis for \"%s\"\n", shorten(message, 50))

	if len(insights) > 0 {
		sb.WriteString("\nKey insights:\n")
		for i, s := range capList(insights, summaryItems) {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, s)
		}
	}
	if len(recs) > 0 {
		sb.WriteString("\nRecommended actions:\n")
		for i, s := range capList(recs, summaryItems) {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, s)
		}
	}

	sb.WriteString("\nI can dive deeper into any of these or analyze your website and competitors in detail.")
	return sb.String()
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// interleave берет по одному пункту от каждого источника по кругу,
// чтобы в топ попал каждый. Дубли без учета регистра выкидываются.
func interleave(lists [][]string, n int) []string {
	var out []string
	seen := make(map[string]struct{})
	for i := 0; len(out) < n; i++ {
		more := false
		for _, l := range lists {
			if i >= len(l) {
				continue
			}
			more = true
			it := strings.TrimSpace(l[i])
			key := strings.ToLower(it)
			if _, dup := seen[key]; dup || it == "" {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, it)
			if len(out) == n {
				break
			}
		}
		if !more {
			break
		}
	}
	return out
}

func capList(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func namesToStrings(names []Name) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
