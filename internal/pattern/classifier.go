package pattern

import (
	"strings"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
)

// Classifier tags free-text user input with named behavioral patterns.
// The keyword implementation below is a deliberately cheap, explainable
// heuristic; a model-backed classifier can replace it behind this
// interface without touching callers.
type Classifier interface {
	Classify(text string) []models.PatternHit
}

// rule is one entry in the ordered rule list. A rule fires when any of
// its keywords appears as a case-insensitive substring of the input, and
// contributes at most one hit regardless of how many keywords match.
type rule struct {
	name       string
	rtype      string
	keywords   []string
	confidence float64
}

var defaultRules = []rule{
	{
		name:       "success_sabotage",
		rtype:      "self_protective",
		keywords:   []string{"sabotage", "ruin it", "mess it up", "don't deserve", "blow it"},
		confidence: 0.75,
	},
	{
		name:       "freeze_response",
		rtype:      "avoidance",
		keywords:   []string{"frozen", "paralyzed", "stuck", "can't move", "shut down"},
		confidence: 0.70,
	},
	{
		name:       "comparison_catastrophe",
		rtype:      "external_validation",
		keywords:   []string{"everyone else", "better than me", "falling behind", "comparing myself"},
		confidence: 0.70,
	},
	{
		name:       "motivation_collapse",
		rtype:      "avoidance",
		keywords:   []string{"what's the point", "why bother", "gave up", "no energy", "can't be bothered"},
		confidence: 0.72,
	},
	{
		name:       "performance_liability",
		rtype:      "self_protective",
		keywords:   []string{"letting everyone down", "liability", "dragging the team", "holding everyone back"},
		confidence: 0.68,
	},
	{
		name:       "perfection_paralysis",
		rtype:      "avoidance",
		keywords:   []string{"not good enough", "has to be perfect", "never ready", "one more revision"},
		confidence: 0.65,
	},
}

type keywordClassifier struct {
	rules []rule
}

// NewKeywordClassifier returns a Classifier backed by the built-in rule list.
func NewKeywordClassifier() Classifier {
	return &keywordClassifier{rules: defaultRules}
}

// Classify returns the union of hits across all rules, in rule order.
// Distinct rules may all fire on the same input.
func (c *keywordClassifier) Classify(text string) []models.PatternHit {
	lowered := strings.ToLower(text)

	var hits []models.PatternHit
	for _, r := range c.rules {
		for _, kw := range r.keywords {
			if strings.Contains(lowered, kw) {
				hits = append(hits, models.PatternHit{
					Name:       r.name,
					Type:       r.rtype,
					Confidence: r.confidence,
				})
				break
			}
		}
	}
	return hits
}
