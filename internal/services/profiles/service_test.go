package profiles

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
	"github.com/ternarybob/persona/internal/storage/badger"
)

func newTestService(t *testing.T) (*Service, interfaces.StorageManager) {
	t.Helper()
	logger := arbor.NewLogger()
	manager, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err, "Failed to open test storage")
	t.Cleanup(func() { manager.Close() })
	return NewService(manager, logger), manager
}

func storedProfile(t *testing.T, storage interfaces.StorageManager, name, company string) *models.Profile {
	t.Helper()
	p := models.NewProfile()
	p.FullName = name
	p.CurrentCompany = company
	p.LinkedInURL = fmt.Sprintf("https://www.linkedin.com/in/%s/", name)
	normalized, err := common.NormalizeURL(p.LinkedInURL)
	require.NoError(t, err)
	p.LinkedInURLNormalized = normalized
	require.NoError(t, storage.ProfileStorage().SaveProfile(context.Background(), p))
	return p
}

func TestGetProfile_WithLinkedOrganizations(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	profile := storedProfile(t, storage, "jane-doe", "Initech")

	org := models.NewOrganization()
	org.Name = "Initech"
	require.NoError(t, storage.OrganizationStorage().SaveOrganization(ctx, org))

	// Two stints at the same company collapse to one organization.
	first := models.NewProfileOrganization(profile.ID, org.ID, models.Experience{Title: "Engineer", StartYear: 2015})
	second := models.NewProfileOrganization(profile.ID, org.ID, models.Experience{Title: "VP Engineering", StartYear: 2021, IsCurrent: true})
	require.NoError(t, storage.EdgeStorage().SaveEdge(ctx, first))
	require.NoError(t, storage.EdgeStorage().SaveEdge(ctx, second))

	enriched, err := svc.GetProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, enriched.Profile.ID)
	require.Len(t, enriched.Organizations, 1)
	assert.Equal(t, org.ID, enriched.Organizations[0].ID)

	_, err = svc.GetProfile(ctx, "missing")
	assert.True(t, models.IsNotFound(err))
}

func TestListProfiles_FiltersAndPagination(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		storedProfile(t, storage, fmt.Sprintf("engineer-%d", i), "Acme")
		time.Sleep(2 * time.Millisecond)
	}
	storedProfile(t, storage, "someone-else", "Initech")

	page, err := svc.ListProfiles(ctx, &models.ProfileListQuery{Company: "acme", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Profiles, 2)
	assert.Equal(t, 5, page.Pagination.Total)
	assert.True(t, page.Pagination.HasMore)

	page, err = svc.ListProfiles(ctx, &models.ProfileListQuery{Company: "acme", Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page.Profiles, 1)
	assert.False(t, page.Pagination.HasMore)

	// Exact URL filter, normalized before matching.
	page, err = svc.ListProfiles(ctx, &models.ProfileListQuery{
		LinkedInURL: "https://WWW.LinkedIn.com/in/someone-else/",
		Limit:       10,
	})
	require.NoError(t, err)
	require.Len(t, page.Profiles, 1)
	assert.Equal(t, "someone-else", page.Profiles[0].FullName)
}

func TestListProfiles_ZeroLimitIsCountProbe(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	storedProfile(t, storage, "a", "Acme")
	storedProfile(t, storage, "b", "Acme")

	page, err := svc.ListProfiles(ctx, &models.ProfileListQuery{Limit: 0})
	require.NoError(t, err)
	assert.Empty(t, page.Profiles)
	assert.Equal(t, 2, page.Pagination.Total)
	assert.True(t, page.Pagination.HasMore)

	page, err = svc.ListProfiles(ctx, &models.ProfileListQuery{Limit: 0, Offset: 2})
	require.NoError(t, err)
	assert.False(t, page.Pagination.HasMore)
}

func TestListProfiles_SortAliases(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	storedProfile(t, storage, "bob", "Zeta")
	storedProfile(t, storage, "alice", "Acme")

	page, err := svc.ListProfiles(ctx, &models.ProfileListQuery{SortBy: "name", Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Profiles, 2)
	assert.Equal(t, "alice", page.Profiles[0].FullName)

	// company aliases the denormalized current company name.
	page, err = svc.ListProfiles(ctx, &models.ProfileListQuery{SortBy: "company", SortDir: "desc", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "Zeta", page.Profiles[0].CurrentCompany)
}

func TestListProfiles_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query *models.ProfileListQuery
		field string
	}{
		{"unknown sort key", &models.ProfileListQuery{SortBy: "shoe_size", Limit: 10}, "sort_by"},
		{"bad sort order", &models.ProfileListQuery{SortBy: "name", SortDir: "sideways", Limit: 10}, "sort_order"},
		{"limit above cap", &models.ProfileListQuery{Limit: 101}, "limit"},
		{"negative limit", &models.ProfileListQuery{Limit: -1}, "limit"},
		{"negative offset", &models.ProfileListQuery{Limit: 10, Offset: -1}, "offset"},
		{"bad url filter", &models.ProfileListQuery{LinkedInURL: "://", Limit: 10}, "linkedin_url"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ListProfiles(ctx, tc.query)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	// The cap itself is accepted.
	_, err := svc.ListProfiles(ctx, &models.ProfileListQuery{Limit: 100})
	assert.NoError(t, err)
}

func TestDeleteProfile_Cascades(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	profile := storedProfile(t, storage, "jane-doe", "Initech")
	keep := storedProfile(t, storage, "john-roe", "Initech")

	org := models.NewOrganization()
	org.Name = "Initech"
	require.NoError(t, storage.OrganizationStorage().SaveOrganization(ctx, org))

	edge := models.NewProfileOrganization(profile.ID, org.ID, models.Experience{Title: "VP", StartYear: 2021})
	require.NoError(t, storage.EdgeStorage().SaveEdge(ctx, edge))
	keepEdge := models.NewProfileOrganization(keep.ID, org.ID, models.Experience{Title: "CTO", StartYear: 2019})
	require.NoError(t, storage.EdgeStorage().SaveEdge(ctx, keepEdge))

	job := models.NewScoringJob(profile.ID, "score it")
	require.NoError(t, storage.ScoringJobStorage().SaveJob(ctx, job))

	require.NoError(t, svc.DeleteProfile(ctx, profile.ID))

	_, err := storage.ProfileStorage().GetProfile(ctx, profile.ID)
	assert.True(t, models.IsNotFound(err))

	edges, err := storage.EdgeStorage().GetEdgesByProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Empty(t, edges)

	_, err = storage.ScoringJobStorage().GetJob(ctx, job.ID)
	assert.True(t, models.IsNotFound(err))

	// The shared organization and the other profile's edge survive.
	_, err = storage.OrganizationStorage().GetOrganization(ctx, org.ID)
	assert.NoError(t, err)
	kept, err := storage.EdgeStorage().GetEdgesByProfile(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	assert.True(t, models.IsNotFound(svc.DeleteProfile(ctx, profile.ID)))
}

func TestGetOrganization_CountsDistinctProfiles(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	org := models.NewOrganization()
	org.Name = "Acme"
	require.NoError(t, storage.OrganizationStorage().SaveOrganization(ctx, org))

	jane := storedProfile(t, storage, "jane-doe", "Acme")
	john := storedProfile(t, storage, "john-roe", "Acme")

	// Jane held two roles at Acme; she still counts once.
	require.NoError(t, storage.EdgeStorage().SaveEdge(ctx, models.NewProfileOrganization(jane.ID, org.ID, models.Experience{StartYear: 2015})))
	require.NoError(t, storage.EdgeStorage().SaveEdge(ctx, models.NewProfileOrganization(jane.ID, org.ID, models.Experience{StartYear: 2020})))
	require.NoError(t, storage.EdgeStorage().SaveEdge(ctx, models.NewProfileOrganization(john.ID, org.ID, models.Experience{StartYear: 2018})))

	detail, err := svc.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, detail.Organization.ID)
	assert.Equal(t, 2, detail.LinkedProfiles)

	_, err = svc.GetOrganization(ctx, "missing")
	assert.True(t, models.IsNotFound(err))
}
