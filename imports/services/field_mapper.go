package services

import (
	"fmt"
	"strings"
)

// CanonicalFields is the fixed set of business attributes a CSV column can
// map onto.
var CanonicalFields = []string{
	"name", "email", "phone", "website", "address", "suburb",
	"postcode", "category", "bio", "abn", "abn_status", "source",
}

// defaultSynonyms maps a canonical attribute to the header spellings we have
// seen in operator uploads. First match wins; ties are not re-scored.
var defaultSynonyms = map[string][]string{
	"name":       {"business_name", "business", "company", "company_name", "trading_name", "title"},
	"email":      {"email_address", "e_mail", "contact_email", "mail"},
	"phone":      {"phone_number", "mobile", "telephone", "tel", "contact_number", "contact_phone"},
	"website":    {"url", "web", "site", "web_address", "homepage"},
	"address":    {"street", "street_address", "address_line", "location"},
	"suburb":     {"city", "town", "locality"},
	"postcode":   {"post_code", "zip", "zip_code", "postal_code"},
	"category":   {"industry", "type", "business_type", "sector"},
	"bio":        {"description", "about", "summary", "profile"},
	"abn":        {"a_b_n", "abn_number", "tax_id", "business_number", "acn"},
	"abn_status": {"abn_state", "tax_id_status", "gst_status"},
	"source":     {"origin", "lead_source", "referral_source"},
}

// FieldMapper infers header-to-attribute mappings. The synonym table is
// injectable so matching rules can grow without touching the orchestrator.
type FieldMapper struct {
	synonyms map[string][]string
}

func NewFieldMapper() *FieldMapper {
	return &FieldMapper{synonyms: defaultSynonyms}
}

func NewFieldMapperWithSynonyms(synonyms map[string][]string) *FieldMapper {
	return &FieldMapper{synonyms: synonyms}
}

// normalizeHeader lowercases and collapses separators so "Business Name",
// "business-name" and "BUSINESS_NAME" all compare equal.
func normalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.ReplaceAll(h, "-", "_")
	h = strings.ReplaceAll(h, " ", "_")
	for strings.Contains(h, "__") {
		h = strings.ReplaceAll(h, "__", "_")
	}
	return h
}

// MapHeaders builds the final header→attribute map. Exact matches against the
// canonical set are tried first, then the synonym table. Operator overrides
// are merged last and always win. Returns the mapping plus human-readable
// rationales for UI display.
func (m *FieldMapper) MapHeaders(headers []string, overrides map[string]string) (map[string]string, []string) {
	mapping := make(map[string]string)
	var rationales []string

	canonical := make(map[string]struct{}, len(CanonicalFields))
	for _, f := range CanonicalFields {
		canonical[f] = struct{}{}
	}

	for _, header := range headers {
		normalized := normalizeHeader(header)

		if _, ok := canonical[normalized]; ok {
			mapping[header] = normalized
			rationales = append(rationales, fmt.Sprintf("Mapped '%s' to '%s' (exact match)", header, normalized))
			continue
		}

		if field, ok := m.fuzzyMatch(normalized); ok {
			mapping[header] = field
			rationales = append(rationales, fmt.Sprintf("Mapped '%s' to '%s' based on similarity", header, field))
			continue
		}

		rationales = append(rationales, fmt.Sprintf("Column '%s' not recognised and will be ignored", header))
	}

	for header, field := range overrides {
		if field == "" {
			delete(mapping, header)
			rationales = append(rationales, fmt.Sprintf("Column '%s' unmapped by operator override", header))
			continue
		}
		mapping[header] = field
		rationales = append(rationales, fmt.Sprintf("Mapped '%s' to '%s' (operator override)", header, field))
	}

	return mapping, rationales
}

func (m *FieldMapper) fuzzyMatch(normalized string) (string, bool) {
	for _, field := range CanonicalFields {
		for _, synonym := range m.synonyms[field] {
			if normalized == synonym {
				return field, true
			}
		}
	}
	return "", false
}

// ApplyMapping turns one raw CSV row into a candidate record: attribute →
// trimmed value, only for mapped columns with a non-empty cell.
func ApplyMapping(headers []string, row []string, mapping map[string]string) map[string]string {
	record := make(map[string]string)
	for i, header := range headers {
		if i >= len(row) {
			break
		}
		field, ok := mapping[header]
		if !ok {
			continue
		}
		value := strings.TrimSpace(row[i])
		if value == "" {
			continue
		}
		record[field] = value
	}
	return record
}
