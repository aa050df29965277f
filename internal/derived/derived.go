// SPDX-License-Identifier: Apache-2.0

// Package derived computes thermal transmittance from layered material data
// and turns the results into PASS/FAIL/CLARIFY decisions. Missing or
// implausible layer data always yields "no value", never zero: callers must
// treat that as insufficient evidence, not as a numeric result.
package derived

import (
	"github.com/dennisfleischmann/fs-bafa-check/internal/normalize"
	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
)

// Fixed surface resistances per DIN EN ISO 6946.
const (
	RSi = 0.13
	RSe = 0.04
)

// roofWoodFractions are the plausible rafter wood fractions the bandwidth
// analysis sweeps over.
var roofWoodFractions = []float64{0.07, 0.10, 0.15}

// Layer is one material layer: thickness in meters and thermal conductivity.
type Layer struct {
	Thickness    float64 `yaml:"d_m" json:"d_m"`
	Conductivity float64 `yaml:"lambda" json:"lambda"`
	Material     string  `yaml:"material,omitempty" json:"material,omitempty"`
}

// UValueFromLayers computes transmittance 1/R from an ordered layer stack
// plus the fixed surface resistances. The second return is false when the
// stack is empty or any layer has non-positive thickness or conductivity.
func UValueFromLayers(layers []Layer) (float64, bool) {
	if len(layers) == 0 {
		return 0, false
	}
	resistance := RSi + RSe
	for _, layer := range layers {
		if layer.Thickness <= 0 || layer.Conductivity <= 0 {
			return 0, false
		}
		resistance += layer.Thickness / layer.Conductivity
	}
	if resistance <= 0 {
		return 0, false
	}
	return 1.0 / resistance, true
}

// BandValue is one weighted blend of the insulation and wood paths.
type BandValue struct {
	Fraction float64 `json:"f"`
	U        float64 `json:"u"`
}

// Bandwidth is the result of a roof wood-fraction sweep.
type Bandwidth struct {
	OK     bool        `json:"ok"`
	Reason string      `json:"reason"`
	Values []BandValue `json:"values"`
}

// RoofBandwidth computes f*U_wood + (1-f)*U_insulation for each plausible
// wood fraction, from separate layer stacks for the insulation path and the
// rafter path.
func RoofBandwidth(insulation, wood []Layer) Bandwidth {
	uIns, okIns := UValueFromLayers(insulation)
	uWood, okWood := UValueFromLayers(wood)
	if !okIns || !okWood {
		return Bandwidth{OK: false, Reason: "invalid_layers"}
	}
	values := make([]BandValue, 0, len(roofWoodFractions))
	for _, f := range roofWoodFractions {
		values = append(values, BandValue{Fraction: f, U: f*uWood + (1.0-f)*uIns})
	}
	return Bandwidth{OK: true, Reason: "bandwidth", Values: values}
}

// Decision is a derived-value verdict with optional guidance questions.
type Decision struct {
	Status    rules.DecisionStatus `json:"status"`
	Reason    string               `json:"reason"`
	UUpper    *float64             `json:"u_upper,omitempty"`
	Questions []string             `json:"questions,omitempty"`
}

// AsMap flattens a decision for the dotted-path context namespace.
func (d Decision) AsMap() map[string]any {
	out := map[string]any{"status": string(d.Status), "reason": d.Reason}
	if d.UUpper != nil {
		out["u_upper"] = *d.UUpper
	}
	if len(d.Questions) > 0 {
		out["questions"] = d.Questions
	}
	return out
}

// RoofDecision commits to PASS or FAIL only when the threshold lies outside
// the entire blended bandwidth. A threshold inside the band means the real
// wood fraction decides, so the system asks instead of guessing.
func RoofDecision(uThreshold float64, bandwidth Bandwidth) Decision {
	if !bandwidth.OK {
		return Decision{
			Status: rules.StatusClarify,
			Reason: "missing_or_invalid_wood_fraction_data",
			Questions: []string{
				"Bitte Sparrenbreite und Sparrenabstand angeben.",
				"Alternativ U-Wert-Nachweis nach Sanierung senden.",
			},
		}
	}
	if len(bandwidth.Values) == 0 {
		return Decision{Status: rules.StatusClarify, Reason: "missing_bandwidth_values"}
	}
	minU, maxU := bandwidth.Values[0].U, bandwidth.Values[0].U
	for _, v := range bandwidth.Values[1:] {
		if v.U < minU {
			minU = v.U
		}
		if v.U > maxU {
			maxU = v.U
		}
	}
	if maxU <= uThreshold {
		return Decision{Status: rules.StatusPass, Reason: "roof_bandwidth_pass"}
	}
	if minU > uThreshold {
		return Decision{Status: rules.StatusFail, Reason: "roof_bandwidth_fail"}
	}
	return Decision{
		Status: rules.StatusClarify,
		Reason: "roof_bandwidth_uncertain",
		Questions: []string{
			"Bitte Sparrenbreite und Sparrenabstand angeben.",
			"Ist zusaetzliche Aufsparrendaemmung vorhanden?",
		},
	}
}

// WallWorstCaseU is the upper transmittance bound when only the new
// insulation layers are known. The existing wall contributes nothing to the
// bound, so the result is conservative.
func WallWorstCaseU(newLayers []Layer) (float64, bool) {
	return UValueFromLayers(newLayers)
}

// WallDecision compares a direct post-renovation U-value straight against
// the threshold. Without one it falls back to the worst-case bound; a
// worst-case breach is CLARIFY, never FAIL, because the bound may be
// conservative.
func WallDecision(uThreshold float64, directU *float64, newLayers []Layer) Decision {
	if directU != nil {
		status := rules.StatusPass
		if *directU > uThreshold {
			status = rules.StatusFail
		}
		return Decision{Status: status, Reason: "wall_direct_u"}
	}

	worstCase, ok := WallWorstCaseU(newLayers)
	if !ok {
		return Decision{
			Status: rules.StatusClarify,
			Reason: "missing_wall_layers",
			Questions: []string{
				"Bitte U-Wert nach Sanierung ODER Daemmstaerke + Material (lambda) + Wandaufbau nachreichen.",
			},
		}
	}

	if worstCase <= uThreshold {
		return Decision{Status: rules.StatusPass, Reason: "wall_worst_case_pass", UUpper: &worstCase}
	}
	return Decision{
		Status: rules.StatusClarify,
		Reason: "wall_worst_case_uncertain",
		UUpper: &worstCase,
		Questions: []string{
			"Bitte Bestandswandaufbau (Material + Dicke) nachreichen.",
			"Oder Daemmstaerke erhoehen und neue Berechnung senden.",
		},
	}
}

// LayersFromAny converts decoded layer maps into typed layers. Layers with
// unparseable values come back with zero fields and fail the positivity
// check downstream.
func LayersFromAny(raw any) []Layer {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	layers := make([]Layer, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			layers = append(layers, Layer{})
			continue
		}
		var layer Layer
		if d, ok := normalize.ParseFloat(m["d_m"]); ok {
			layer.Thickness = d
		}
		if l, ok := normalize.ParseFloat(m["lambda"]); ok {
			layer.Conductivity = l
		}
		if mat, ok := m["material"].(string); ok {
			layer.Material = mat
		}
		layers = append(layers, layer)
	}
	return layers
}

// Default fallback thresholds when the engine has no configured value for
// the component.
const (
	defaultWallThreshold = 0.20
	defaultRoofThreshold = 0.14
)

// DeriveMeasure computes the derived namespace for one offer measure: the
// target U-value (direct, from layers, or the window Uw), the wall decision
// for exterior walls, and the bandwidth decision for roofs that supply
// separate insulation and rafter layer stacks. Thresholds are keyed by
// component.
func DeriveMeasure(measure map[string]any, thresholds map[string]float64) map[string]any {
	out := map[string]any{"calculated": false}
	component, _ := measure["component_type"].(string)
	values, _ := measure["values"].(map[string]any)

	valueOf := func(key string) *float64 {
		payload, ok := values[key].(map[string]any)
		if !ok {
			return nil
		}
		f, ok := normalize.ParseFloat(payload["value"])
		if !ok {
			return nil
		}
		return &f
	}

	if component == "fenster" {
		uw := valueOf("uw")
		if uw != nil {
			out["uw"] = *uw
			out["u_value_target"] = *uw
			out["calculated"] = true
		}
		return out
	}

	inputMode, _ := measure["input_mode"].(string)
	if inputMode == "layers" {
		if u, ok := UValueFromLayers(LayersFromAny(measure["layers"])); ok {
			out["u_value_target"] = u
			out["calculated"] = true
		}
	} else if direct := valueOf("u_value_target"); direct != nil {
		out["u_value_target"] = *direct
		out["calculated"] = true
	}

	if component == "aussenwand" {
		threshold, ok := thresholds["aussenwand"]
		if !ok {
			threshold = defaultWallThreshold
		}
		decision := WallDecision(threshold, valueOf("u_value_target"), LayersFromAny(measure["layers"]))
		out["wall_decision"] = decision.AsMap()
	}

	if component == "dach" {
		if woodLayers := LayersFromAny(measure["layers_wood"]); len(woodLayers) > 0 {
			threshold, ok := thresholds["dach"]
			if !ok {
				threshold = defaultRoofThreshold
			}
			bandwidth := RoofBandwidth(LayersFromAny(measure["layers"]), woodLayers)
			out["roof_decision"] = RoofDecision(threshold, bandwidth).AsMap()
		}
	}

	return out
}
