package resources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/01moynul/projectforge-golang/internal/models"
	"github.com/01moynul/projectforge-golang/internal/plans"
	"github.com/01moynul/projectforge-golang/internal/quota"
	"github.com/01moynul/projectforge-golang/internal/research"
	"github.com/01moynul/projectforge-golang/internal/store"
	"github.com/01moynul/projectforge-golang/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubResearcher struct {
	text  string
	calls int
	err   error
}

func (s *stubResearcher) Research(context.Context, string) (string, int, error) {
	s.calls++
	return s.text, 42, s.err
}

func newService(t *testing.T, r research.Researcher) (*Service, *store.Store, string) {
	t.Helper()
	st := storetest.New(t)
	catalog := plans.Default()
	free := catalog.Free()
	a := storetest.SeedAdmin(t, st, free.Entitlement(time.Now().UTC()))
	now := time.Now().UTC()
	_, err := st.UpsertSubscription(context.Background(), &models.Subscription{
		AdminID: a.ID, PlanID: free.ID, Status: models.StatusActive,
		StartDate: now, EndDate: now.AddDate(100, 0, 0),
	})
	require.NoError(t, err)
	return NewService(st, quota.NewGate(st, catalog), r), st, a.ID
}

func TestCreateProjectsUntilQuotaRunsOut(t *testing.T) {
	svc, st, adminID := newService(t, nil)
	ctx := context.Background()

	var slugs []string
	for i := 0; i < 3; i++ {
		p, err := svc.CreateProject(ctx, adminID, "Website Launch", "")
		require.NoError(t, err)
		slugs = append(slugs, p.Slug)
	}
	assert.Equal(t, []string{"website-launch", "website-launch-2", "website-launch-3"}, slugs)

	_, err := svc.CreateProject(ctx, adminID, "One more", "")
	assert.ErrorIs(t, err, quota.ErrQuotaExceeded)

	projects, err := svc.ListProjects(ctx, adminID)
	require.NoError(t, err)
	assert.Len(t, projects, 3)

	a, err := st.GetAdmin(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, 0, a.RemainingProjectLimit)
}

func TestCreateEmployeeHashesPassword(t *testing.T) {
	svc, _, adminID := newService(t, nil)
	ctx := context.Background()

	e, err := svc.CreateEmployee(ctx, adminID, EmployeeInput{
		FullName: "Asha Rao", Email: " Asha@Example.com ", JobTitle: "Designer", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", e.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte("s3cret-pass")))

	_, err = svc.CreateEmployee(ctx, adminID, EmployeeInput{FullName: "Dup", Email: "asha@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrEmployeeExists)
}

func TestTasksDoNotConsumeQuota(t *testing.T) {
	svc, st, adminID := newService(t, nil)
	ctx := context.Background()
	p, err := svc.CreateProject(ctx, adminID, "Ops", "")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := svc.CreateTask(ctx, adminID, p.ID, "task", nil)
		require.NoError(t, err)
	}
	tasks, err := svc.ListTasks(ctx, adminID, p.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 10)

	_, err = svc.CreateTask(ctx, adminID, "missing", "task", nil)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	a, err := st.GetAdmin(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, 2, a.RemainingProjectLimit)
}

func TestCreateDocumentChecksProject(t *testing.T) {
	svc, _, adminID := newService(t, nil)
	ctx := context.Background()

	missing := "missing"
	_, err := svc.CreateDocument(ctx, adminID, &missing, "Spec", "# Spec")
	assert.ErrorIs(t, err, ErrProjectNotFound)

	d, err := svc.CreateDocument(ctx, adminID, nil, "Notes", "hello")
	require.NoError(t, err)
	assert.Nil(t, d.ProjectID)
}

func TestRunResearchConsumesDailyQuota(t *testing.T) {
	r := &stubResearcher{text: "findings"}
	svc, _, adminID := newService(t, r)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := svc.RunResearch(ctx, adminID, "market size")
		require.NoError(t, err)
		assert.Equal(t, 42, res.TokensUsed)
	}
	_, err := svc.RunResearch(ctx, adminID, "one more")
	assert.ErrorIs(t, err, quota.ErrQuotaExceeded)
	assert.Equal(t, 3, r.calls, "denied queries never reach the researcher")

	list, err := svc.ListResearch(ctx, adminID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestRunResearchFailureKeepsQuota(t *testing.T) {
	r := &stubResearcher{err: errors.New("upstream down")}
	svc, st, adminID := newService(t, r)
	ctx := context.Background()

	_, err := svc.RunResearch(ctx, adminID, "q")
	assert.Error(t, err)

	a, err := st.GetAdmin(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, 3, a.RemainingResearchLimit)
}

func TestResearchDisabledByDefault(t *testing.T) {
	svc, _, adminID := newService(t, nil)
	_, err := svc.RunResearch(context.Background(), adminID, "q")
	assert.ErrorIs(t, err, research.ErrNotConfigured)
}
