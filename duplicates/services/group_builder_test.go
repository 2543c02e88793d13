package services

import (
	"errors"
	"testing"

	"business-directory-backend/db/models"
	imports "business-directory-backend/imports/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWindow struct {
	active   []models.Business
	absorbed []models.Business
	err      error
}

func (s *stubWindow) GetBusinessesForDuplicateScan(_ map[string]string, _ int) ([]models.Business, error) {
	return s.active, s.err
}

func (s *stubWindow) GetAbsorbedBusinesses() ([]models.Business, error) {
	return s.absorbed, s.err
}

func (s *stubWindow) GetBusinessByID(id uuid.UUID) (*models.Business, error) {
	for i := range s.active {
		if s.active[i].ID == id {
			return &s.active[i], nil
		}
	}
	return nil, errors.New("not found")
}

func strPtr(s string) *string { return &s }

func business(name, phone, suburb string) models.Business {
	b := models.Business{ID: uuid.New(), Name: name}
	if phone != "" {
		b.Phone = strPtr(phone)
	}
	if suburb != "" {
		b.Suburb = strPtr(suburb)
	}
	return b
}

func TestBuildGroupsStrictClustersByIdentifier(t *testing.T) {
	window := &stubWindow{active: []models.Business{
		business("Acme", "0355550123", "Richmond"),
		business("Acme Trading", "0355550123", "Fitzroy"),
		business("Unrelated", "0399990000", "Carlton"),
	}}
	builder := NewGroupBuilder(window)

	groups, stats, err := builder.BuildGroups(imports.StrictMatch, nil, "")

	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Businesses, 2)
	assert.Equal(t, models.HighConfidence, groups[0].Confidence)
	assert.False(t, groups[0].Resolved)
	assert.Equal(t, 1, stats.TotalGroups)
	assert.Equal(t, 1, stats.UnresolvedGroups)
	assert.Equal(t, 2, stats.RecordsAffected)
}

func TestBuildGroupsTransitiveMatchesFormOneGroup(t *testing.T) {
	// A matches B on phone, B matches C on email; all three land together
	a := business("Alpha", "0355550123", "")
	b := business("Beta", "0355550123", "")
	b.Email = strPtr("shared@example.com")
	c := business("Gamma", "0399990000", "")
	c.Email = strPtr("shared@example.com")

	window := &stubWindow{active: []models.Business{a, b, c}}
	builder := NewGroupBuilder(window)

	groups, _, err := builder.BuildGroups(imports.StrictMatch, nil, "unresolved")

	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Businesses, 3)
	assert.GreaterOrEqual(t, len(groups[0].Reasons), 1)
}

func TestBuildGroupsKeepsReasonsWhenClusterRootChanges(t *testing.T) {
	// The phone edge links records 0 and 2 first; the later email edge
	// between 1 and 2 re-roots that cluster. Both reasons must survive.
	a := business("Alpha", "0355550123", "")
	b := business("Beta", "", "")
	b.Email = strPtr("shared@example.com")
	c := business("Gamma", "0355550123", "")
	c.Email = strPtr("shared@example.com")

	window := &stubWindow{active: []models.Business{a, b, c}}
	builder := NewGroupBuilder(window)

	groups, _, err := builder.BuildGroups(imports.StrictMatch, nil, "unresolved")

	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Businesses, 3)
	require.Len(t, groups[0].Reasons, 2)
	assert.Contains(t, groups[0].Reasons, "Businesses share the same phone")
	assert.Contains(t, groups[0].Reasons, "Businesses share the same email")
}

func TestBuildGroupsLooseMode(t *testing.T) {
	window := &stubWindow{active: []models.Business{
		business("Joe's Plumbing", "", "Richmond"),
		business("Joe's Plumbing Pty Ltd", "", "richmond"),
		business("Joe's Plumbing", "", "Fitzroy"),
	}}
	builder := NewGroupBuilder(window)

	groups, _, err := builder.BuildGroups(imports.LooseMatch, nil, "unresolved")

	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Businesses, 2)
	assert.Equal(t, models.MediumConfidence, groups[0].Confidence)
}

func TestBuildGroupsSingletonsExcluded(t *testing.T) {
	window := &stubWindow{active: []models.Business{
		business("Alone", "0355550123", "Richmond"),
	}}
	builder := NewGroupBuilder(window)

	groups, stats, err := builder.BuildGroups(imports.StrictMatch, nil, "")

	require.NoError(t, err)
	assert.Empty(t, groups)
	assert.Equal(t, 0, stats.TotalGroups)
}

func TestBuildGroupsResolvedComeFromBackReferences(t *testing.T) {
	primary := business("Survivor", "0355550123", "Richmond")
	absorbed := business("Absorbed", "0355550123", "Richmond")
	absorbed.DuplicateOf = &primary.ID

	window := &stubWindow{
		active:   []models.Business{primary},
		absorbed: []models.Business{absorbed},
	}
	builder := NewGroupBuilder(window)

	groups, stats, err := builder.BuildGroups(imports.NoMatch, nil, "resolved")

	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].Resolved)
	require.NotNil(t, groups[0].ResolvedInto)
	assert.Equal(t, primary.ID, *groups[0].ResolvedInto)
	// survivor plus the absorbed record
	assert.Len(t, groups[0].Businesses, 2)
	assert.Equal(t, 1, stats.ResolvedGroups)
}

func TestBuildGroupsStoreErrorPropagates(t *testing.T) {
	window := &stubWindow{err: errors.New("connection refused")}
	builder := NewGroupBuilder(window)

	_, _, err := builder.BuildGroups(imports.StrictMatch, nil, "")

	assert.Error(t, err)
}
