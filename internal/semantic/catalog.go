// SPDX-License-Identifier: Apache-2.0

package semantic

import "strings"

// IntentEntry is one hand-curated catalog entry. Aliases carry the compound
// nouns and common misspellings offers actually use for the item.
type IntentEntry struct {
	ItemCode  string
	Component string
	MeasureID string
	Category  string
	Aliases   []string
}

// EmbeddingText is the concatenated alias text an embedding provider sees
// for this entry.
func (e IntentEntry) EmbeddingText() string {
	return e.ItemCode + " " + e.Component + " " + strings.Join(e.Aliases, " ")
}

// Catalog is the fixed, versioned intent table. It is loaded once and never
// mutated at runtime; matchers receive it at construction.
var Catalog = []IntentEntry{
	{
		ItemCode:  "fenster_element",
		Component: "fenster",
		MeasureID: "envelope_fenster",
		Category:  "material",
		Aliases: []string{
			"fenster",
			"fenstertausch",
			"uw wert",
			"dreifachglas",
			"waermeschutzglas",
		},
	},
	{
		ItemCode:  "einbaufuge_daemmung",
		Component: "fenster",
		MeasureID: "envelope_fenster",
		Category:  "material",
		Aliases: []string{
			"daemmung der einbaufuge",
			"einbaufuge",
			"anschlussfuge",
			"fensteranschlussfuge",
			"fensteranschlussfugen",
			"pu schaum",
		},
	},
	{
		ItemCode:  "fugen_abdichtung",
		Component: "fenster",
		MeasureID: "envelope_fenster",
		Category:  "montage",
		Aliases: []string{
			"abdichtung der fugen",
			"fugenabdichtung",
			"fugendichtheit",
			"kompriband",
			"versiegelung",
			"schlagregendichter anschluss",
			"schlagregendicht",
			"anschluss aussen",
		},
	},
	{
		ItemCode:  "absturzsicherung_fenster",
		Component: "fenster",
		MeasureID: "envelope_fenster",
		Category:  "montage",
		Aliases: []string{
			"absturzsicherung in bestehende fensterfassade",
			"absturzsicherung fenster",
			"absturzsicherung",
		},
	},
	{
		ItemCode:  "fensterbank",
		Component: "fenster",
		MeasureID: "envelope_fenster",
		Category:  "material",
		Aliases: []string{
			"fensterbank",
			"fensterbaenke",
			"fensterbank liefern und montieren",
		},
	},
	{
		ItemCode:  "aussenwand_daemmung",
		Component: "aussenwand",
		MeasureID: "envelope_aussenwand",
		Category:  "material",
		Aliases: []string{
			"aussenwanddaemmung",
			"fassadendaemmung",
			"wdvs",
			"wanddaemmung",
			"fassade",
		},
	},
}
