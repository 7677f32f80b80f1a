package scoring

import (
	"math"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
)

// ModuleScore is the percentage of a module's questions answered correctly,
// counting MCQ only. It is nil when the module has no questions or the
// attempt has no response to any of them.
func ModuleScore(module models.Module, responses []models.Response) *int {
	if len(module.Questions) == 0 {
		return nil
	}

	questions := make(map[uint]models.Question, len(module.Questions))
	for _, q := range module.Questions {
		questions[q.ID] = q
	}

	matched := 0
	correct := 0
	for _, r := range responses {
		q, ok := questions[r.QuestionID]
		if !ok {
			continue
		}
		matched++
		if q.Type != models.QuestionMCQ {
			continue
		}
		if r.Option != nil && len(q.Options) == 0 {
			if r.Option.IsCorrect {
				correct++
			}
			continue
		}
		if IsCorrect(Answer{Question: q, OptionID: r.OptionID}) {
			correct++
		}
	}

	if matched == 0 {
		return nil
	}

	score := int(math.Round(float64(correct) / float64(len(module.Questions)) * 100))
	return &score
}

// ModuleResult is the points-weighted performance on one module.
type ModuleResult struct {
	Module     models.Module
	Obtained   float64
	Possible   float64
	Percentage float64
}

// ModulePerformance groups answers by the match key of their question's module
// and computes 100 * obtained / possible. Modules sharing a code, or a title
// when uncoded, form one group reported under the first of them. Groups
// without any answer are omitted.
func ModulePerformance(modules []models.Module, answers []Answer) []ModuleResult {
	keyOf := make(map[uint]string, len(modules))
	byKey := make(map[string]*ModuleResult, len(modules))
	var order []string
	for _, m := range modules {
		key := m.MatchKey(true)
		keyOf[m.ID] = key
		if _, ok := byKey[key]; !ok {
			byKey[key] = &ModuleResult{Module: m}
			order = append(order, key)
		}
	}

	answered := make(map[string]bool)
	for _, a := range answers {
		key, ok := keyOf[a.Question.ModuleID]
		if !ok {
			continue
		}
		answered[key] = true
		res := byKey[key]
		points := float64(a.Question.PointsOrZero())
		res.Possible += points
		if IsCorrect(a) {
			res.Obtained += points
		}
	}

	results := make([]ModuleResult, 0, len(answered))
	for _, key := range order {
		if !answered[key] {
			continue
		}
		res := *byKey[key]
		if res.Possible > 0 {
			res.Percentage = res.Obtained / res.Possible * 100
		}
		results = append(results, res)
	}
	return results
}

// WeakModules returns the modules scoring strictly below threshold.
func WeakModules(results []ModuleResult, threshold float64) []models.Module {
	var weak []models.Module
	for _, r := range results {
		if r.Percentage < threshold {
			weak = append(weak, r.Module)
		}
	}
	return weak
}

// MatchModules pairs weak modules with candidate modules. A pair matches on
// code when both carry one, otherwise on exact title. Unmatched weak modules
// are dropped.
func MatchModules(weak, candidates []models.Module) []uint {
	var ids []uint
	for _, c := range candidates {
		for _, w := range weak {
			if sameModule(w, c) {
				ids = append(ids, c.ID)
				break
			}
		}
	}
	return ids
}

func sameModule(a, b models.Module) bool {
	hasCode := func(m models.Module) bool { return m.Code != nil && *m.Code != "" }
	if hasCode(a) && hasCode(b) {
		return a.MatchKey(true) == b.MatchKey(true)
	}
	return a.Title == b.Title
}

// Distribution bucket labels, highest first.
const (
	Bucket90 = "90–100"
	Bucket80 = "80–89"
	Bucket70 = "70–79"
	Bucket60 = "60–69"
	BucketLT = "< 60"
)

// Distribution counts scores into fixed buckets and reports each bucket as a
// rounded percentage of all scores.
func Distribution(scores []int) []models.DistributionBucket {
	labels := []string{Bucket90, Bucket80, Bucket70, Bucket60, BucketLT}
	counts := make([]int, len(labels))
	for _, s := range scores {
		switch {
		case s >= 90:
			counts[0]++
		case s >= 80:
			counts[1]++
		case s >= 70:
			counts[2]++
		case s >= 60:
			counts[3]++
		default:
			counts[4]++
		}
	}

	total := max(1, len(scores))
	buckets := make([]models.DistributionBucket, len(labels))
	for i, l := range labels {
		buckets[i] = models.DistributionBucket{
			Label: l,
			Pct:   int(math.Round(float64(counts[i]) / float64(total) * 100)),
		}
	}
	return buckets
}

// Average returns the rounded mean of scores, or nil for an empty slice.
func Average(scores []int) *int {
	if len(scores) == 0 {
		return nil
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	avg := int(math.Round(float64(sum) / float64(len(scores))))
	return &avg
}
