// Package trigger evaluates expression threshold rules against per-frame
// retargeted weights and reports which rules fired.
package trigger

import (
	"sync"
	"time"
)

// Rule describes one expression trigger: the named blendshape's weight must
// stay at or above Threshold for HoldFrames consecutive frames, and a rule
// cannot fire again until Cooldown has elapsed.
type Rule struct {
	ID         string
	Name       string
	Blendshape string
	Threshold  float64
	HoldFrames int
	Cooldown   time.Duration
}

// Firing reports a rule that fired during evaluation.
type Firing struct {
	Rule   *Rule
	Weight float64
}

// Evaluator tracks per-rule hold and cooldown state across frames. The rule
// set may be replaced while the pipeline is evaluating.
type Evaluator struct {
	mu        sync.Mutex
	rules     []*Rule
	held      map[string]int
	lastFired map[string]time.Time
	now       func() time.Time
}

// NewEvaluator creates an Evaluator with no rules.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		held:      make(map[string]int),
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetRules replaces the rule set and clears hold state for removed rules.
func (e *Evaluator) SetRules(rules []*Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = rules

	keep := make(map[string]bool, len(rules))
	for _, r := range rules {
		keep[r.ID] = true
	}
	for id := range e.held {
		if !keep[id] {
			delete(e.held, id)
		}
	}
	for id := range e.lastFired {
		if !keep[id] {
			delete(e.lastFired, id)
		}
	}
}

// Rules returns the active rule set.
func (e *Evaluator) Rules() []*Rule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rules
}

// Evaluate advances every rule by one frame of weights and returns the rules
// that fired. A frame without the rule's blendshape counts as below threshold.
func (e *Evaluator) Evaluate(weights map[string]float64) []Firing {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firings []Firing

	for _, rule := range e.rules {
		w, ok := weights[rule.Blendshape]
		if !ok || w < rule.Threshold {
			e.held[rule.ID] = 0
			continue
		}

		e.held[rule.ID]++

		holdFrames := rule.HoldFrames
		if holdFrames < 1 {
			holdFrames = 1
		}
		if e.held[rule.ID] < holdFrames {
			continue
		}

		if last, fired := e.lastFired[rule.ID]; fired && e.now().Sub(last) < rule.Cooldown {
			continue
		}

		e.lastFired[rule.ID] = e.now()
		// Reset hold so the expression must be released and re-held.
		e.held[rule.ID] = 0
		firings = append(firings, Firing{Rule: rule, Weight: w})
	}

	return firings
}
