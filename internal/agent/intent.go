package agent

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kitbuilder587/morvo/internal/domain"
)

//go:embed keywords.yaml
var defaultKeywords []byte

var ErrInvalidKeywords = errors.New("invalid keyword groups")

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)
	domainPattern = regexp.MustCompile(`\b(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}\b`)
)

type KeywordGroup struct {
	Name        string   `yaml:"name"`
	Specialists []Name   `yaml:"specialists"`
	Keywords    []string `yaml:"keywords"`
}

type keywordFile struct {
	Groups []KeywordGroup `yaml:"groups"`
}

// Classifier решает, каких специалистов звать. Чистый, без I/O после создания.
type Classifier struct {
	groups []KeywordGroup
}

// NewClassifier собирает классификатор на встроенных группах ключевых слов
func NewClassifier() *Classifier {
	c, err := ParseKeywordGroups(defaultKeywords)
	if err != nil {
		panic(fmt.Sprintf("embedded keywords.yaml: %v", err))
	}
	return c
}

// LoadClassifier читает группы из файла. Пустой путь = встроенные группы.
func LoadClassifier(path string) (*Classifier, error) {
	if path == "" {
		return NewClassifier(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}
	return ParseKeywordGroups(data)
}

func ParseKeywordGroups(data []byte) (*Classifier, error) {
	var f keywordFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeywords, err)
	}
	if len(f.Groups) == 0 {
		return nil, fmt.Errorf("%w: no groups", ErrInvalidKeywords)
	}

	for i := range f.Groups {
		g := &f.Groups[i]
		if len(g.Keywords) == 0 || len(g.Specialists) == 0 {
			return nil, fmt.Errorf("%w: group %q needs keywords and specialists", ErrInvalidKeywords, g.Name)
		}
		for _, n := range g.Specialists {
			if !n.IsData() {
				return nil, fmt.Errorf("%w: group %q routes to %q", ErrInvalidKeywords, g.Name, n)
			}
		}
		for j, kw := range g.Keywords {
			g.Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	return &Classifier{groups: f.Groups}, nil
}

// Classify: культурная адаптация есть всегда, первая совпавшая группа
// добавляет своих специалистов, синтез нужен при двух и более источниках.
func (c *Classifier) Classify(message string) NameSet {
	set := NewNameSet(CulturalAdaptation)

	if g, ok := c.Match(message); ok {
		for _, n := range g.Specialists {
			set.Add(n)
		}
	}

	if len(set.DataNames()) > 1 {
		set.Add(DataSynthesis)
	}
	return set
}

// Match возвращает первую совпавшую группу
func (c *Classifier) Match(message string) (KeywordGroup, bool) {
	lower := strings.ToLower(message)
	for _, g := range c.groups {
		for _, kw := range g.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				return g, true
			}
		}
	}
	return KeywordGroup{}, false
}

// ExtractURL ищет первую ссылку, иначе первый голый домен (дописывая https://)
func ExtractURL(message string) string {
	if u := urlPattern.FindString(message); u != "" {
		return strings.TrimRight(u, ".,;:!?)")
	}
	if d := domainPattern.FindString(strings.ToLower(message)); d != "" {
		return "https://" + d
	}
	return ""
}

// DomainOf достает нормализованный хост из ссылки
func DomainOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return domain.NormalizeDomain(rawURL)
	}
	return domain.NormalizeDomain(u.Hostname())
}
