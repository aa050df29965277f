// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"
	"sort"

	"github.com/dennisfleischmann/fs-bafa-check/internal/normalize"
)

// BundleDiff summarises what changed between two compiled bundles.
type BundleDiff struct {
	AddedMeasures     []string `yaml:"added_measures" json:"added_measures"`
	RemovedMeasures   []string `yaml:"removed_measures" json:"removed_measures"`
	ChangedThresholds []string `yaml:"changed_thresholds" json:"changed_thresholds"`
}

// RequiresHumanReview reports whether the diff needs sign-off before the new
// bundle replaces the active one. Added measures roll out without review;
// removed measures and moved thresholds do not.
func (d BundleDiff) RequiresHumanReview() bool {
	return len(d.ChangedThresholds) > 0 || len(d.RemovedMeasures) > 0
}

// DiffBundles compares two compiled bundles: which measures appeared or
// disappeared, and which threshold conditions changed their value. Threshold
// entries are keyed "measure_id:field:op", sorted for stable output.
func DiffBundles(previous, current Bundle) BundleDiff {
	var diff BundleDiff
	for id := range current.Measures {
		if _, ok := previous.Measures[id]; !ok {
			diff.AddedMeasures = append(diff.AddedMeasures, id)
		}
	}
	for id := range previous.Measures {
		if _, ok := current.Measures[id]; !ok {
			diff.RemovedMeasures = append(diff.RemovedMeasures, id)
		}
	}
	sort.Strings(diff.AddedMeasures)
	sort.Strings(diff.RemovedMeasures)

	prevIdx := thresholdIndex(previous)
	currIdx := thresholdIndex(current)
	keys := make([]string, 0, len(prevIdx)+len(currIdx))
	for key := range prevIdx {
		keys = append(keys, key)
	}
	for key := range currIdx {
		if _, ok := prevIdx[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		prevValue, prevOK := prevIdx[key]
		currValue, currOK := currIdx[key]
		if prevOK && currOK && thresholdValuesEqual(prevValue, currValue) {
			continue
		}
		diff.ChangedThresholds = append(diff.ChangedThresholds,
			fmt.Sprintf("%s: %v -> %v", key, prevValue, currValue))
	}
	return diff
}

// thresholdIndex flattens a bundle's threshold conditions into one
// "measure_id:field:op" -> value map.
func thresholdIndex(b Bundle) map[string]any {
	index := make(map[string]any)
	for measureID, spec := range b.Measures {
		for _, threshold := range spec.TechnicalRequirements.Thresholds {
			cond := threshold.Condition
			index[fmt.Sprintf("%s:%s:%s", measureID, cond.Field, cond.Op)] = cond.Value
		}
	}
	return index
}

// thresholdValuesEqual treats numerically equal values as unchanged even
// when a YAML round trip shifted the Go type.
func thresholdValuesEqual(left, right any) bool {
	lf, lok := normalize.ParseFloat(left)
	rf, rok := normalize.ParseFloat(right)
	if lok && rok {
		return lf == rf
	}
	return normalize.CanonicalAny(left) == normalize.CanonicalAny(right)
}
