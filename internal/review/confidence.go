// Package review drives extracted field sets through the human review
// state machine, classifies field confidence, and produces profile
// auto-populate suggestions from approved documents.
package review

import (
	"strings"
	"unicode"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/entity"
)

// NormalizeKey folds case and strips non-alphanumeric runes so that
// label variants like "Cert. Number" and "cert_number" address the same
// logical field. Field-label mismatches silently drop confidence
// annotations, so this contract stays small and unit-tested.
func NormalizeKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Thresholds holds the tier boundaries on the [0,100] confidence scale.
type Thresholds struct {
	High   float64
	Medium float64
}

// Classify buckets a confidence score. Fields below Medium need human
// attention but never block approval on their own.
func (t Thresholds) Classify(confidence float64) constants.ConfidenceTier {
	switch {
	case confidence >= t.High:
		return constants.TierHigh
	case confidence >= t.Medium:
		return constants.TierMedium
	default:
		return constants.TierLow
	}
}

// DedupeFields collapses duplicate detections of the same logical key,
// keeping the highest-confidence one, in first-seen order. Raw
// detections are preserved separately for audit.
func DedupeFields(fields []entity.ExtractedField) []entity.ExtractedField {
	best := make(map[string]int)
	var out []entity.ExtractedField

	for _, f := range fields {
		k := NormalizeKey(f.Key)
		if i, seen := best[k]; seen {
			if f.Confidence > out[i].Confidence {
				out[i] = f
			}
			continue
		}
		best[k] = len(out)
		out = append(out, f)
	}
	return out
}
