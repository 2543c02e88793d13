package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapHeadersExactMatch(t *testing.T) {
	mapper := NewFieldMapper()

	mapping, _ := mapper.MapHeaders([]string{"name", "email", "phone"}, nil)

	assert.Equal(t, "name", mapping["name"])
	assert.Equal(t, "email", mapping["email"])
	assert.Equal(t, "phone", mapping["phone"])
}

func TestMapHeadersNormalizesSeparatorsAndCase(t *testing.T) {
	mapper := NewFieldMapper()

	mapping, _ := mapper.MapHeaders([]string{"Business Name", "E-Mail", "POST_CODE"}, nil)

	assert.Equal(t, "name", mapping["Business Name"])
	assert.Equal(t, "email", mapping["E-Mail"])
	assert.Equal(t, "postcode", mapping["POST_CODE"])
}

func TestMapHeadersSynonyms(t *testing.T) {
	mapper := NewFieldMapper()

	mapping, rationales := mapper.MapHeaders(
		[]string{"company", "telephone", "city", "industry", "description"}, nil)

	assert.Equal(t, "name", mapping["company"])
	assert.Equal(t, "phone", mapping["telephone"])
	assert.Equal(t, "suburb", mapping["city"])
	assert.Equal(t, "category", mapping["industry"])
	assert.Equal(t, "bio", mapping["description"])
	assert.Len(t, rationales, 5)
}

func TestMapHeadersUnknownColumnIgnored(t *testing.T) {
	mapper := NewFieldMapper()

	mapping, rationales := mapper.MapHeaders([]string{"name", "internal_notes"}, nil)

	_, mapped := mapping["internal_notes"]
	assert.False(t, mapped)
	require.Len(t, rationales, 2)
	assert.Contains(t, rationales[1], "ignored")
}

func TestMapHeadersOverridesWin(t *testing.T) {
	mapper := NewFieldMapper()

	mapping, _ := mapper.MapHeaders(
		[]string{"company", "notes"},
		map[string]string{"company": "bio", "notes": "name"},
	)

	assert.Equal(t, "bio", mapping["company"])
	assert.Equal(t, "name", mapping["notes"])
}

func TestMapHeadersEmptyOverrideUnmapsColumn(t *testing.T) {
	mapper := NewFieldMapper()

	mapping, _ := mapper.MapHeaders([]string{"name"}, map[string]string{"name": ""})

	_, mapped := mapping["name"]
	assert.False(t, mapped)
}

func TestApplyMapping(t *testing.T) {
	headers := []string{"company", "telephone", "ignored"}
	mapping := map[string]string{"company": "name", "telephone": "phone"}

	record := ApplyMapping(headers, []string{"  Joe's Plumbing  ", "0355550000", "x"}, mapping)

	assert.Equal(t, "Joe's Plumbing", record["name"])
	assert.Equal(t, "0355550000", record["phone"])
	_, present := record["ignored"]
	assert.False(t, present)
}

func TestApplyMappingShortRowAndEmptyCells(t *testing.T) {
	headers := []string{"name", "email", "phone"}
	mapping := map[string]string{"name": "name", "email": "email", "phone": "phone"}

	record := ApplyMapping(headers, []string{"Acme", "   "}, mapping)

	assert.Equal(t, "Acme", record["name"])
	_, hasEmail := record["email"]
	assert.False(t, hasEmail)
	_, hasPhone := record["phone"]
	assert.False(t, hasPhone)
}
