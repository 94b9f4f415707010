// Package retarget maps detector blendshape scores onto avatar morph-target weights.
package retarget

import (
	"strings"
	"sync"

	"github.com/ayusman/abhinaya/internal/detector"
)

// DefaultGain is the multiplier applied to blendshapes matching no rule.
const DefaultGain = 1.0

// Rule binds a blendshape name category to a gain multiplier. A blendshape
// belongs to a category when the category appears as a case-insensitive
// substring of its name.
type Rule struct {
	Category string  `json:"category"`
	Gain     float64 `json:"gain"`
}

// DefaultRules returns the built-in gain table, evaluated in order with the
// first match winning. Mouth, jaw and tongue shapes are boosted harder than
// eyes and brows: raw detector scores under-drive visible mouth motion.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "mouth", Gain: 2.2},
		{Category: "jaw", Gain: 2.0},
		{Category: "tongue", Gain: 2.0},
		{Category: "eye", Gain: 1.2},
		{Category: "brow", Gain: 1.2},
	}
}

// Retargeter converts per-frame blendshape scores into morph-target weights.
// The rule table may be replaced while the pipeline is retargeting frames.
type Retargeter struct {
	mu    sync.RWMutex
	rules []Rule
}

// New creates a Retargeter with the given ordered rule list.
// A nil or empty rule list falls back to DefaultRules.
func New(rules []Rule) *Retargeter {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Retargeter{rules: rules}
}

// Rules returns a copy of the active rule list.
func (r *Retargeter) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// SetRules replaces the rule list. An empty list restores DefaultRules.
func (r *Retargeter) SetRules(rules []Rule) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = rules
}

// Gain returns the multiplier for the named blendshape: the gain of the first
// rule whose category is a substring of the lower-cased name, or DefaultGain.
func (r *Retargeter) Gain(name string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gain(name)
}

// gain looks up the multiplier; callers hold at least a read lock.
func (r *Retargeter) gain(name string) float64 {
	lower := strings.ToLower(name)
	for _, rule := range r.rules {
		if strings.Contains(lower, strings.ToLower(rule.Category)) {
			return rule.Gain
		}
	}
	return DefaultGain
}

// Retarget maps a frame's blendshape scores to morph-target weights.
// Each weight is min(1, score×gain), clamped to [0,1]. An empty or nil score
// list produces an empty map. Later duplicates of a name overwrite earlier ones.
func (r *Retargeter) Retarget(scores []detector.Blendshape) map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	weights := make(map[string]float64, len(scores))
	for _, s := range scores {
		w := s.Score * r.gain(s.Name)
		if w > 1 {
			w = 1
		}
		if w < 0 {
			w = 0
		}
		weights[s.Name] = w
	}
	return weights
}
