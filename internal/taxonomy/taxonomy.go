// SPDX-License-Identifier: Apache-2.0

// Package taxonomy maps free-text phrases from offers and requirement
// snippets onto the canonical component and cost category vocabulary.
package taxonomy

import "strings"

// entry binds a canonical category to the synonyms an offer or Infoblatt
// uses for it. Entries are evaluated in order; the first match wins.
type entry struct {
	key      string
	synonyms []string
}

var componentTaxonomy = []entry{
	{key: "aussenwand", synonyms: []string{"aussenwand", "fassade", "wdvs", "wanddaemmung"}},
	{key: "dach", synonyms: []string{"dach", "steildach", "flachdach", "aufsparrendaemmung"}},
	{key: "ogd", synonyms: []string{"oberste geschossdecke", "ogd"}},
	{key: "fenster", synonyms: []string{"fenster", "uw", "fenstertausch"}},
	{key: "kellerdecke", synonyms: []string{"kellerdecke", "bodenplatte"}},
}

var costTaxonomy = []entry{
	{key: "material", synonyms: []string{"material", "daemmung", "platten", "profil"}},
	{key: "montage", synonyms: []string{"montage", "einbau", "installation", "arbeit"}},
	{key: "geruest", synonyms: []string{"geruest", "geruestbau"}},
	{key: "entsorgung", synonyms: []string{"entsorgung", "abtransport"}},
	{key: "planung", synonyms: []string{"planung", "beratung"}},
	{key: "wartung", synonyms: []string{"wartung", "service"}},
	{key: "finanzierung", synonyms: []string{"kredit", "zinsen", "finanzierung"}},
	{key: "eigenleistung", synonyms: []string{"eigenleistung", "selbstleistung"}},
}

// Components returns the component taxonomy as synonym lists keyed by
// canonical component, for export into the compiled bundle.
func Components() map[string][]string { return tableToMap(componentTaxonomy) }

// CostCategories returns the cost category taxonomy as synonym lists keyed
// by canonical category.
func CostCategories() map[string][]string { return tableToMap(costTaxonomy) }

func tableToMap(table []entry) map[string][]string {
	out := make(map[string][]string, len(table))
	for _, e := range table {
		out[e.key] = append([]string(nil), e.synonyms...)
	}
	return out
}

// NormalizeToken lowercases a term and collapses inner whitespace.
func NormalizeToken(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(value))), " ")
}

func mapTerm(term string, table []entry) string {
	token := NormalizeToken(term)
	for _, e := range table {
		if token == e.key {
			return e.key
		}
		for _, synonym := range e.synonyms {
			if strings.Contains(token, synonym) {
				return e.key
			}
		}
	}
	return ""
}

// MapComponent resolves a term to a canonical building component, or ""
// when nothing matches.
func MapComponent(term string) string {
	return mapTerm(term, componentTaxonomy)
}

// MapCostCategory resolves a term to a canonical cost category, or "".
func MapCostCategory(term string) string {
	return mapTerm(term, costTaxonomy)
}
