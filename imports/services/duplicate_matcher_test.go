package services

import (
	"errors"
	"testing"

	"business-directory-backend/db/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMatcherStore struct {
	byIdentifier map[string]*models.Business // "field:value" -> record
	looseMatch   *models.Business
	err          error
}

func (s *stubMatcherStore) FindByExactIdentifier(field, value string) (*models.Business, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byIdentifier[field+":"+value], nil
}

func (s *stubMatcherStore) FindLooseMatch(name, suburb string) (*models.Business, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.looseMatch, nil
}

func strPtr(s string) *string { return &s }

func TestParseMatchMode(t *testing.T) {
	assert.Equal(t, StrictMatch, ParseMatchMode(" Strict "))
	assert.Equal(t, LooseMatch, ParseMatchMode("loose"))
	assert.Equal(t, NoMatch, ParseMatchMode("none"))
	assert.Equal(t, NoMatch, ParseMatchMode("anything else"))
}

func TestMatchNoneModeNeverMatches(t *testing.T) {
	store := &stubMatcherStore{err: errors.New("store must not be called")}
	matcher := NewDuplicateMatcher(NoMatch, store)

	match, err := matcher.Match(map[string]string{"name": "Acme", "phone": "0355550123"}, nil)

	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestMatchStrictFindsStoreCollision(t *testing.T) {
	existing := &models.Business{ID: uuid.New(), Name: "Acme", Phone: strPtr("0355550123")}
	store := &stubMatcherStore{byIdentifier: map[string]*models.Business{
		"phone:0355550123": existing,
	}}
	matcher := NewDuplicateMatcher(StrictMatch, store)

	match, err := matcher.Match(map[string]string{"name": "Acme Trading", "phone": "0355550123"}, nil)

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, existing.ID, match.Matched.ID)
	assert.Equal(t, models.HighConfidence, match.Confidence)
	assert.Contains(t, match.Reason, "phone")
}

func TestMatchStrictPrefersInBatchRecord(t *testing.T) {
	inBatch := &models.Business{ID: uuid.New(), Name: "Acme", Email: strPtr("joe@acme.com")}
	store := &stubMatcherStore{err: errors.New("store must not be reached")}
	matcher := NewDuplicateMatcher(StrictMatch, store)

	match, err := matcher.Match(
		map[string]string{"name": "Acme Two", "email": "joe@acme.com"},
		[]*models.Business{inBatch},
	)

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, inBatch.ID, match.Matched.ID)
	assert.Contains(t, match.Reason, "earlier row in this import")
}

func TestMatchStrictIgnoresEmptyIdentifiers(t *testing.T) {
	store := &stubMatcherStore{}
	matcher := NewDuplicateMatcher(StrictMatch, store)

	// two records with no shared identifiers are not duplicates
	match, err := matcher.Match(
		map[string]string{"name": "Acme"},
		[]*models.Business{{ID: uuid.New(), Name: "Other"}},
	)

	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestMatchLooseRequiresNameAndSuburb(t *testing.T) {
	store := &stubMatcherStore{looseMatch: &models.Business{ID: uuid.New(), Name: "Acme"}}
	matcher := NewDuplicateMatcher(LooseMatch, store)

	match, err := matcher.Match(map[string]string{"name": "Acme"}, nil)

	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestMatchLooseStoreMatch(t *testing.T) {
	existing := &models.Business{ID: uuid.New(), Name: "Joe's Plumbing", Suburb: strPtr("Richmond")}
	store := &stubMatcherStore{looseMatch: existing}
	matcher := NewDuplicateMatcher(LooseMatch, store)

	match, err := matcher.Match(map[string]string{"name": "Joes Plumbing", "suburb": "Richmond"}, nil)

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, models.MediumConfidence, match.Confidence)
}

func TestMatchStoreErrorPropagates(t *testing.T) {
	store := &stubMatcherStore{err: errors.New("connection refused")}
	matcher := NewDuplicateMatcher(StrictMatch, store)

	_, err := matcher.Match(map[string]string{"name": "Acme", "phone": "0355550123"}, nil)

	assert.Error(t, err)
}

func TestBusinessesMatchStrict(t *testing.T) {
	a := &models.Business{Name: "Acme", Phone: strPtr("0355550123")}
	b := &models.Business{Name: "Completely Different", Phone: strPtr("0355550123")}
	c := &models.Business{Name: "Acme", Phone: strPtr("0399990000")}

	ok, reason := BusinessesMatch(StrictMatch, a, b)
	assert.True(t, ok)
	assert.Contains(t, reason, "phone")

	ok, _ = BusinessesMatch(StrictMatch, a, c)
	assert.False(t, ok)
}

func TestBusinessesMatchLoose(t *testing.T) {
	a := &models.Business{Name: "Joe's Plumbing", Suburb: strPtr("Richmond")}
	b := &models.Business{Name: "joe's plumbing pty ltd", Suburb: strPtr("richmond")}
	c := &models.Business{Name: "Joe's Plumbing", Suburb: strPtr("Fitzroy")}

	ok, _ := BusinessesMatch(LooseMatch, a, b)
	assert.True(t, ok)

	ok, _ = BusinessesMatch(LooseMatch, a, c)
	assert.False(t, ok)
}

func TestNamesSimilar(t *testing.T) {
	assert.True(t, NamesSimilar("Acme", "ACME Pty Ltd"))
	assert.True(t, NamesSimilar("Acme Pty Ltd", "acme"))
	assert.False(t, NamesSimilar("Acme", "Apex"))
	assert.False(t, NamesSimilar("", "Acme"))
}
