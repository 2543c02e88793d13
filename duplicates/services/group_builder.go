package services

import (
	"sort"

	"business-directory-backend/db/models"
	imports "business-directory-backend/imports/services"

	"github.com/google/uuid"
)

// DuplicateGroupMember is the summary of one business inside a group.
type DuplicateGroupMember struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Suburb    string    `json:"suburb"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	ABN       string    `json:"abn"`
	CreatedAt string    `json:"created_at"`
}

// DuplicateGroup aggregates all businesses transitively linked by a positive
// match. Resolved groups point at the record that survived the merge.
type DuplicateGroup struct {
	Businesses   []DuplicateGroupMember     `json:"businesses"`
	MatchType    imports.MatchMode          `json:"match_type"`
	Confidence   models.DuplicateConfidence `json:"confidence"`
	Reasons      []string                   `json:"reasons"`
	Resolved     bool                       `json:"resolved"`
	ResolvedInto *uuid.UUID                 `json:"resolved_into,omitempty"`
}

type GroupStats struct {
	TotalGroups      int `json:"total_groups"`
	UnresolvedGroups int `json:"unresolved_groups"`
	ResolvedGroups   int `json:"resolved_groups"`
	RecordsAffected  int `json:"records_affected"`
}

// BusinessWindow is the slice of the record store the builder scans over.
type BusinessWindow interface {
	GetBusinessesForDuplicateScan(filters map[string]string, limit int) ([]models.Business, error)
	GetAbsorbedBusinesses() ([]models.Business, error)
	GetBusinessByID(id uuid.UUID) (*models.Business, error)
}

const defaultScanLimit = 2000

// GroupBuilder clusters the directory into duplicate groups. Matching is
// pairwise over a bounded window; transitivity comes from union-find over the
// positive edges rather than ad-hoc re-matching.
type GroupBuilder struct {
	store     BusinessWindow
	scanLimit int
}

func NewGroupBuilder(store BusinessWindow) *GroupBuilder {
	return &GroupBuilder{store: store, scanLimit: defaultScanLimit}
}

// unionFind over window indices.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]] // path halving
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}

// BuildGroups computes unresolved duplicate groups for the given matching
// mode and filters, derives resolved groups from merge back-references, and
// returns aggregate stats. resolvedFilter is "resolved", "unresolved" or ""
// for both.
func (g *GroupBuilder) BuildGroups(mode imports.MatchMode, filters map[string]string, resolvedFilter string) ([]DuplicateGroup, GroupStats, error) {
	var groups []DuplicateGroup

	if resolvedFilter != "resolved" && mode != imports.NoMatch {
		unresolved, err := g.buildUnresolved(mode, filters)
		if err != nil {
			return nil, GroupStats{}, err
		}
		groups = append(groups, unresolved...)
	}

	if resolvedFilter != "unresolved" {
		resolved, err := g.buildResolved()
		if err != nil {
			return nil, GroupStats{}, err
		}
		groups = append(groups, resolved...)
	}

	stats := GroupStats{TotalGroups: len(groups)}
	for _, group := range groups {
		if group.Resolved {
			stats.ResolvedGroups++
		} else {
			stats.UnresolvedGroups++
		}
		stats.RecordsAffected += len(group.Businesses)
	}

	return groups, stats, nil
}

func (g *GroupBuilder) buildUnresolved(mode imports.MatchMode, filters map[string]string) ([]DuplicateGroup, error) {
	window, err := g.store.GetBusinessesForDuplicateScan(filters, g.scanLimit)
	if err != nil {
		return nil, err
	}

	uf := newUnionFind(len(window))

	type matchEdge struct {
		node   int
		reason string
	}
	var edges []matchEdge

	for i := 0; i < len(window); i++ {
		for j := i + 1; j < len(window); j++ {
			matched, reason := imports.BusinessesMatch(mode, &window[i], &window[j])
			if !matched {
				continue
			}
			uf.union(i, j)
			edges = append(edges, matchEdge{node: i, reason: reason})
		}
	}

	// Roots can change as later unions land, so reasons are keyed by the
	// final root only after all edges are in.
	reasons := make(map[int][]string)
	for _, edge := range edges {
		root := uf.find(edge.node)
		reasons[root] = appendUnique(reasons[root], edge.reason)
	}

	clusters := make(map[int][]int)
	for i := range window {
		root := uf.find(i)
		clusters[root] = append(clusters[root], i)
	}

	confidence := models.MediumConfidence
	if mode == imports.StrictMatch {
		confidence = models.HighConfidence
	}

	var groups []DuplicateGroup
	for root, members := range clusters {
		if len(members) < 2 {
			continue
		}
		group := DuplicateGroup{
			MatchType:  mode,
			Confidence: confidence,
			Reasons:    reasons[root],
		}
		for _, idx := range members {
			group.Businesses = append(group.Businesses, memberSummary(&window[idx]))
		}
		groups = append(groups, group)
	}

	// Map iteration order is random; keep output stable for pagination.
	sort.Slice(groups, func(a, b int) bool {
		return groups[a].Businesses[0].ID.String() < groups[b].Businesses[0].ID.String()
	})

	return groups, nil
}

func (g *GroupBuilder) buildResolved() ([]DuplicateGroup, error) {
	absorbed, err := g.store.GetAbsorbedBusinesses()
	if err != nil {
		return nil, err
	}

	byPrimary := make(map[uuid.UUID][]models.Business)
	for _, b := range absorbed {
		if b.DuplicateOf == nil {
			continue
		}
		byPrimary[*b.DuplicateOf] = append(byPrimary[*b.DuplicateOf], b)
	}

	primaries := make([]uuid.UUID, 0, len(byPrimary))
	for id := range byPrimary {
		primaries = append(primaries, id)
	}
	sort.Slice(primaries, func(a, b int) bool { return primaries[a].String() < primaries[b].String() })

	var groups []DuplicateGroup
	for _, primaryID := range primaries {
		resolvedInto := primaryID
		group := DuplicateGroup{
			Resolved:     true,
			ResolvedInto: &resolvedInto,
		}
		if primary, err := g.store.GetBusinessByID(primaryID); err == nil {
			group.Businesses = append(group.Businesses, memberSummary(primary))
		}
		for i := range byPrimary[primaryID] {
			group.Businesses = append(group.Businesses, memberSummary(&byPrimary[primaryID][i]))
		}
		groups = append(groups, group)
	}

	return groups, nil
}

func memberSummary(b *models.Business) DuplicateGroupMember {
	return DuplicateGroupMember{
		ID:        b.ID,
		Name:      b.Name,
		Suburb:    b.Attribute("suburb"),
		Phone:     b.Attribute("phone"),
		Email:     b.Attribute("email"),
		ABN:       b.Attribute("abn"),
		CreatedAt: b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
