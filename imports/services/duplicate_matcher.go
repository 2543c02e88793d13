package services

import (
	"fmt"
	"strings"

	"business-directory-backend/db/models"
)

type MatchMode string

const (
	StrictMatch MatchMode = "strict"
	LooseMatch  MatchMode = "loose"
	NoMatch     MatchMode = "none"
)

func ParseMatchMode(s string) MatchMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return StrictMatch
	case "loose":
		return LooseMatch
	default:
		return NoMatch
	}
}

// strictIdentifiers are the fields where a single exact collision is enough
// to call two records duplicates.
var strictIdentifiers = []string{"phone", "email", "abn"}

// MatchResult identifies the first colliding record and why it collided, so
// operators can audit the flag.
type MatchResult struct {
	Matched    *models.Business
	Reason     string
	Confidence models.DuplicateConfidence
}

// BusinessMatcherStore is the slice of the record store the matcher needs:
// indexed identifier lookups only.
type BusinessMatcherStore interface {
	FindByExactIdentifier(field, value string) (*models.Business, error)
	FindLooseMatch(name, suburb string) (*models.Business, error)
}

// DuplicateMatcher runs the deterministic duplicate rules for one matching
// mode against both in-batch records and the persisted store.
type DuplicateMatcher struct {
	mode  MatchMode
	store BusinessMatcherStore
}

func NewDuplicateMatcher(mode MatchMode, store BusinessMatcherStore) *DuplicateMatcher {
	return &DuplicateMatcher{mode: mode, store: store}
}

// Match checks a candidate record against rows already accepted earlier in
// the same import, then against the store. Two duplicate rows inside one file
// are caught, not just row-vs-database.
func (m *DuplicateMatcher) Match(record map[string]string, accepted []*models.Business) (*MatchResult, error) {
	if m.mode == NoMatch {
		return nil, nil
	}

	for _, existing := range accepted {
		if ok, reason := m.recordMatches(record, existing); ok {
			return &MatchResult{
				Matched:    existing,
				Reason:     reason + " (earlier row in this import)",
				Confidence: m.confidence(),
			}, nil
		}
	}

	return m.matchStore(record)
}

func (m *DuplicateMatcher) matchStore(record map[string]string) (*MatchResult, error) {
	switch m.mode {
	case StrictMatch:
		for _, field := range strictIdentifiers {
			value := strings.TrimSpace(record[field])
			if value == "" {
				continue
			}
			existing, err := m.store.FindByExactIdentifier(field, value)
			if err != nil {
				return nil, fmt.Errorf("duplicate lookup on %s: %w", field, err)
			}
			if existing != nil {
				return &MatchResult{
					Matched:    existing,
					Reason:     fmt.Sprintf("Existing business shares the same %s", field),
					Confidence: models.HighConfidence,
				}, nil
			}
		}
	case LooseMatch:
		name := strings.TrimSpace(record["name"])
		suburb := strings.TrimSpace(record["suburb"])
		if name == "" || suburb == "" {
			return nil, nil
		}
		existing, err := m.store.FindLooseMatch(name, suburb)
		if err != nil {
			return nil, fmt.Errorf("loose duplicate lookup: %w", err)
		}
		if existing != nil {
			return &MatchResult{
				Matched:    existing,
				Reason:     "Existing business with a similar name in the same suburb",
				Confidence: models.MediumConfidence,
			}, nil
		}
	}
	return nil, nil
}

func (m *DuplicateMatcher) confidence() models.DuplicateConfidence {
	if m.mode == StrictMatch {
		return models.HighConfidence
	}
	return models.MediumConfidence
}

func (m *DuplicateMatcher) recordMatches(record map[string]string, existing *models.Business) (bool, string) {
	switch m.mode {
	case StrictMatch:
		for _, field := range strictIdentifiers {
			value := strings.TrimSpace(record[field])
			if value != "" && value == existing.Attribute(field) {
				return true, fmt.Sprintf("Record shares the same %s", field)
			}
		}
	case LooseMatch:
		if NamesSimilar(record["name"], existing.Name) && SuburbsEqual(record["suburb"], existing.Attribute("suburb")) {
			return true, "Record has a similar name in the same suburb"
		}
	}
	return false, ""
}

// BusinessesMatch applies the same rules to two stored records. Used by the
// duplicate-group builder when clustering the existing directory.
func BusinessesMatch(mode MatchMode, a, b *models.Business) (bool, string) {
	switch mode {
	case StrictMatch:
		for _, field := range strictIdentifiers {
			av, bv := a.Attribute(field), b.Attribute(field)
			if av != "" && av == bv {
				return true, fmt.Sprintf("Businesses share the same %s", field)
			}
		}
	case LooseMatch:
		if NamesSimilar(a.Name, b.Name) && SuburbsEqual(a.Attribute("suburb"), b.Attribute("suburb")) {
			return true, "Similar name in the same suburb"
		}
	}
	return false, ""
}

// NamesSimilar is the loose-mode name rule: case-insensitive substring in
// either direction. Deliberately a heuristic; thresholds live here so they
// can change without touching callers.
func NamesSimilar(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func SuburbsEqual(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
