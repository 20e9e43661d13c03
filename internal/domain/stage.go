package domain

// Stage - этап разговора. Двигается только вперед.
type Stage string

const (
	StageDiscovery      Stage = "discovery"
	StageAnalysis       Stage = "analysis"
	StageRecommendation Stage = "recommendation"
	StageImplementation Stage = "implementation"
	StageComplete       Stage = "complete"
)

var stageRank = map[Stage]int{
	StageDiscovery:      0,
	StageAnalysis:       1,
	StageRecommendation: 2,
	StageImplementation: 3,
	StageComplete:       4,
}

func (s Stage) IsValid() bool {
	_, ok := stageRank[s]
	return ok
}

func (s Stage) Rank() int {
	r, ok := stageRank[s]
	if !ok {
		return -1
	}
	return r
}

func (s Stage) IsTerminal() bool {
	return s == StageComplete
}

// CanAdvanceTo разрешает оставаться на месте или идти вперед.
func (s Stage) CanAdvanceTo(next Stage) error {
	if !s.IsValid() || !next.IsValid() {
		return ErrInvalidStage
	}
	if next.Rank() < s.Rank() {
		return ErrStageRegression
	}
	return nil
}

// Before возвращает все этапы строго раньше s.
// Используется в условных UPDATE, чтобы параллельные записи не откатили этап.
func (s Stage) Before() []Stage {
	var out []Stage
	for _, st := range AllStages() {
		if st.Rank() < s.Rank() {
			out = append(out, st)
		}
	}
	return out
}

func AllStages() []Stage {
	return []Stage{StageDiscovery, StageAnalysis, StageRecommendation, StageImplementation, StageComplete}
}

func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if !st.IsValid() {
		return "", ErrInvalidStage
	}
	return st, nil
}

var nextActions = map[Stage]string{
	StageDiscovery:      "Share your website or main competitors so I can analyze your market position.",
	StageAnalysis:       "Ask for a prioritized action plan based on these findings.",
	StageRecommendation: "Pick one recommendation and I will help you plan its implementation.",
	StageImplementation: "Tell me how the rollout is going and I will suggest adjustments.",
}

// NextAction - подсказка пользователю, что делать на этом этапе. Пусто для complete.
func (s Stage) NextAction() string {
	return nextActions[s]
}
