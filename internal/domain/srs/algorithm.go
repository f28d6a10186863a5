package srs

import (
	"math"
	"time"

	"github.com/phrazzld/kanjidrill/internal/domain"
)

const day = 24 * time.Hour

// model holds the weights plus the constants derived from them.
type model struct {
	w      [WeightCount]float64
	decay  float64 // -w[20]
	factor float64 // 0.9^(1/decay) - 1
}

func newModel(w [WeightCount]float64) model {
	decay := -w[20]
	return model{
		w:      w,
		decay:  decay,
		factor: math.Pow(0.9, 1.0/decay) - 1.0,
	}
}

// retrievability computes R(t, S) = (1 + factor*t/S)^decay, the probability of recall
// t days after the last review.
func (m *model) retrievability(elapsedDays, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	return math.Pow(1+m.factor*elapsedDays/stability, m.decay)
}

// initStability returns S0(G) = w[G-1].
func (m *model) initStability(r domain.Rating) float64 {
	return clampStability(m.w[r-1])
}

// initDifficulty returns D0(G) = w4 - e^(w5*(G-1)) + 1.
func (m *model) initDifficulty(r domain.Rating, clamp bool) float64 {
	d := m.w[4] - math.Exp(m.w[5]*float64(r-1)) + 1
	if clamp {
		return clampDifficulty(d)
	}
	return d
}

// nextInterval returns the whole number of days until recall probability
// falls to the desired retention, clamped to [1, maxInterval].
func (m *model) nextInterval(stability, desiredRetention float64, maxInterval int) int {
	ivl := stability / m.factor * (math.Pow(desiredRetention, 1.0/m.decay) - 1)
	days := int(math.Round(ivl))
	if days < 1 {
		days = 1
	}
	if days > maxInterval {
		days = maxInterval
	}
	return days
}

// shortTermStability handles reviews less than a day apart.
// Good and Easy never lower stability.
func (m *model) shortTermStability(stability float64, r domain.Rating) float64 {
	inc := math.Exp(m.w[17]*(float64(r)-3+m.w[18])) * math.Pow(stability, -m.w[19])
	if r == domain.RatingGood || r == domain.RatingEasy {
		inc = math.Max(inc, 1.0)
	}
	return clampStability(stability * inc)
}

// nextDifficulty applies linear damping and mean reversion towards D0(Easy).
func (m *model) nextDifficulty(difficulty float64, r domain.Rating) float64 {
	delta := -m.w[6] * (float64(r) - 3)
	damped := difficulty + (10-difficulty)*delta/9
	target := m.initDifficulty(domain.RatingEasy, false)
	return clampDifficulty(m.w[7]*target + (1-m.w[7])*damped)
}

func (m *model) nextStability(d, s, r float64, rating domain.Rating) float64 {
	if rating == domain.RatingAgain {
		return m.nextForgetStability(d, s, r)
	}
	return m.nextRecallStability(d, s, r, rating)
}

func (m *model) nextRecallStability(d, s, r float64, rating domain.Rating) float64 {
	hardPenalty := 1.0
	if rating == domain.RatingHard {
		hardPenalty = m.w[15]
	}
	easyBonus := 1.0
	if rating == domain.RatingEasy {
		easyBonus = m.w[16]
	}
	return clampStability(s * (1 + math.Exp(m.w[8])*
		(11-d)*
		math.Pow(s, -m.w[9])*
		(math.Exp((1-r)*m.w[10])-1)*
		hardPenalty*easyBonus))
}

// nextForgetStability is capped by S/e^(w17*w18), so a lapse always lowers stability.
func (m *model) nextForgetStability(d, s, r float64) float64 {
	long := m.w[11] *
		math.Pow(d, -m.w[12]) *
		(math.Pow(s+1, m.w[13]) - 1) *
		math.Exp((1-r)*m.w[14])
	short := s / math.Exp(m.w[17]*m.w[18])
	return clampStability(math.Min(long, short))
}

func clampStability(s float64) float64 {
	return math.Max(s, 0.001)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}

// calculateNextCard is the pure update f(card, rating, now) -> card'.
// The input card is never modified.
func calculateNextCard(
	card domain.Card,
	rating domain.Rating,
	now time.Time,
	params *Params,
	m *model,
) domain.Card {
	next := card.Clone()
	mem := &next.Memory

	var elapsedDays float64
	if mem.LastReviewedAt != nil {
		elapsedDays = math.Max(now.Sub(*mem.LastReviewedAt).Hours()/24.0, 0)
	}

	firstReview := mem.State == domain.StateNew || mem.Stability <= 0
	if mem.State == domain.StateNew {
		mem.State = domain.StateLearning
		step := 0
		mem.Step = &step
	}

	// Memory update
	switch {
	case firstReview:
		mem.Stability = m.initStability(rating)
		mem.Difficulty = m.initDifficulty(rating, true)
	case elapsedDays < 1:
		mem.Stability = m.shortTermStability(mem.Stability, rating)
		mem.Difficulty = m.nextDifficulty(mem.Difficulty, rating)
	default:
		r := m.retrievability(elapsedDays, mem.Stability)
		mem.Stability = m.nextStability(mem.Difficulty, mem.Stability, r, rating)
		mem.Difficulty = m.nextDifficulty(mem.Difficulty, rating)
	}

	if mem.State == domain.StateReview && rating == domain.RatingAgain {
		mem.Lapses++
	}

	interval := transition(mem, rating, params, m)
	if params.EnableFuzz && mem.State == domain.StateReview {
		days := int(interval / day)
		if days > 0 {
			fuzzed := applyFuzz(days, params.MaximumInterval, fuzzSeed(next, now))
			interval = time.Duration(fuzzed) * day
		}
	}

	mem.Due = now.Add(interval)
	mem.ScheduledDays = int(interval / day)
	mem.ElapsedDays = int(math.Floor(elapsedDays))
	mem.Reps++
	reviewedAt := now
	mem.LastReviewedAt = &reviewedAt

	return next
}

// transition applies the state machine and returns the interval until the next review.
func transition(mem *domain.MemoryState, rating domain.Rating, params *Params, m *model) time.Duration {
	switch mem.State {
	case domain.StateLearning:
		return transitionSteps(mem, rating, params.LearningSteps, params, m)
	case domain.StateRelearning:
		return transitionSteps(mem, rating, params.RelearningSteps, params, m)
	default:
		if rating == domain.RatingAgain && len(params.RelearningSteps) > 0 {
			mem.State = domain.StateRelearning
			step := 0
			mem.Step = &step
			return params.RelearningSteps[0]
		}
		mem.Step = nil
		return time.Duration(m.nextInterval(mem.Stability, params.DesiredRetention, params.MaximumInterval)) * day
	}
}

// transitionSteps walks the learning or relearning steps: Again restarts them,
// Hard repeats the current one, Good advances and Easy graduates.
func transitionSteps(
	mem *domain.MemoryState,
	rating domain.Rating,
	steps []time.Duration,
	params *Params,
	m *model,
) time.Duration {
	step := 0
	if mem.Step != nil {
		step = *mem.Step
	}

	if len(steps) == 0 || (step >= len(steps) && rating != domain.RatingAgain) {
		return graduate(mem, params, m)
	}

	switch rating {
	case domain.RatingAgain:
		first := 0
		mem.Step = &first
		return steps[0]
	case domain.RatingHard:
		if step == 0 && len(steps) == 1 {
			return time.Duration(float64(steps[0]) * 1.5)
		}
		if step == 0 {
			return (steps[0] + steps[1]) / 2
		}
		return steps[step]
	case domain.RatingGood:
		nextStep := step + 1
		if nextStep >= len(steps) {
			return graduate(mem, params, m)
		}
		mem.Step = &nextStep
		return steps[nextStep]
	default:
		return graduate(mem, params, m)
	}
}

func graduate(mem *domain.MemoryState, params *Params, m *model) time.Duration {
	mem.State = domain.StateReview
	mem.Step = nil
	return time.Duration(m.nextInterval(mem.Stability, params.DesiredRetention, params.MaximumInterval)) * day
}
