package grievance

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grievance/backend/internal/assignment"
	"grievance/backend/internal/classifier"
	"grievance/backend/internal/duplicate"
	"grievance/backend/internal/embedding"
	"grievance/backend/internal/metrics"
	"grievance/backend/internal/models"
	"grievance/backend/internal/sentiment"
	"grievance/backend/internal/storage"
)

var fixedNow = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

type stubEmbedder struct {
	vec []float64
}

func (e stubEmbedder) Embed(context.Context, string) embedding.Result {
	if e.vec == nil {
		return embedding.Unavailable(errors.New("model offline"))
	}
	return embedding.Embedded(e.vec)
}

type blockingEmbedder struct{}

func (blockingEmbedder) Embed(ctx context.Context, _ string) embedding.Result {
	<-ctx.Done()
	return embedding.Unavailable(ctx.Err())
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	ctx       context.Context
	store     *storage.Memory
	publisher *recordingPublisher
	metrics   *metrics.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		ctx:       context.Background(),
		store:     storage.NewMemory(),
		publisher: &recordingPublisher{},
		metrics:   metrics.New(),
	}
}

func (h *harness) service(t *testing.T, emb embedding.Embedder, dups DuplicateFinder) *Service {
	t.Helper()
	primary, err := assignment.New(assignment.LoadAware, h.store, nil)
	require.NoError(t, err)
	fallback, err := assignment.New(assignment.RandomFallback, h.store, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	if dups == nil {
		dups = duplicate.NewDetector(h.store)
	}
	return NewService(Dependencies{
		Store:        h.store,
		Classifier:   classifier.NewDefault(),
		Embedder:     emb,
		Duplicates:   dups,
		Primary:      primary,
		Fallback:     fallback,
		Sentiment:    sentiment.NewDefaultLexicon(),
		Publisher:    h.publisher,
		Metrics:      h.metrics,
		EmbedTimeout: 50 * time.Millisecond,
		Now:          func() time.Time { return fixedNow },
	})
}

func (h *harness) user(t *testing.T, name string, role models.Role, dept *models.Department) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Role: role}
	if dept != nil {
		u.DepartmentID = &dept.ID
	}
	require.NoError(t, h.store.CreateUser(h.ctx, u))
	return u
}

func (h *harness) department(t *testing.T, name string) *models.Department {
	t.Helper()
	d := &models.Department{Name: name}
	require.NoError(t, h.store.CreateDepartment(h.ctx, d))
	return d
}

func garbage(citizenID string) SubmitInput {
	return SubmitInput{Title: "Garbage not collected", Description: "trash piling up for a week", CitizenID: citizenID}
}

func TestSubmit_NoEmbedding_FallbackAssigns(t *testing.T) {
	h := newHarness(t)
	dept := h.department(t, "Sanitation")
	officer := h.user(t, "ravi", models.RoleOfficer, dept)
	require.NoError(t, h.store.SetCategoryOfficers(h.ctx, dept.ID, "sanitation", []string{officer.ID}))

	out, err := h.service(t, embedding.Disabled{}, nil).Submit(h.ctx, garbage("citizen-1"))

	require.NoError(t, err)
	assert.Equal(t, OutcomeAssigned, out.Kind)
	g := out.Grievance
	assert.Equal(t, "sanitation", g.Category)
	assert.Equal(t, models.PriorityMedium, g.Priority)
	assert.Equal(t, 72, g.SLAHours)
	assert.Equal(t, models.StatusAssigned, g.Status)
	assert.Equal(t, officer.ID, *g.AssignedOfficerID)
	assert.Equal(t, dept.ID, *g.DepartmentID)
	assert.False(t, g.HasEmbedding())
	assert.Equal(t, models.KindOriginal, g.Kind)
	require.NotNil(t, g.ExpectedResolutionAt)
	assert.Equal(t, fixedNow.Add(72*time.Hour), *g.ExpectedResolutionAt)
	assert.Regexp(t, `^G-\d{8}-\d{3}$`, g.GrievanceID)

	stored, err := h.store.GetGrievance(h.ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.GrievanceID, stored.GrievanceID)

	assert.Equal(t, []models.EventType{models.EventSubmitted, models.EventAssigned}, h.publisher.types())
}

func TestSubmit_NoOfficers_StaysSubmitted(t *testing.T) {
	h := newHarness(t)

	out, err := h.service(t, embedding.Disabled{}, nil).Submit(h.ctx, garbage("citizen-1"))

	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, out.Kind)
	assert.Equal(t, models.StatusSubmitted, out.Grievance.Status)
	assert.Nil(t, out.Grievance.AssignedOfficerID)
	assert.Equal(t, []models.EventType{models.EventSubmitted}, h.publisher.types())
}

func TestSubmit_EmbedTimeoutFallsBack(t *testing.T) {
	h := newHarness(t)
	officer := h.user(t, "ravi", models.RoleOfficer, nil)

	start := time.Now()
	out, err := h.service(t, blockingEmbedder{}, nil).Submit(h.ctx, garbage("citizen-1"))

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, OutcomeAssigned, out.Kind)
	assert.Equal(t, officer.ID, *out.Grievance.AssignedOfficerID)
}

func TestSubmit_LoadAwareWhenEmbedded(t *testing.T) {
	h := newHarness(t)
	dept := h.department(t, "Sanitation")
	busy := h.user(t, "busy", models.RoleOfficer, dept)
	idle := h.user(t, "idle", models.RoleOfficer, dept)
	require.NoError(t, h.store.SetCategoryOfficers(h.ctx, dept.ID, "sanitation", []string{busy.ID, idle.ID}))
	for i := 0; i < 3; i++ {
		require.NoError(t, h.store.CreateGrievance(h.ctx, &models.Grievance{
			Title: "open", CitizenID: "x", Status: models.StatusAssigned, AssignedOfficerID: &busy.ID,
		}))
	}

	out, err := h.service(t, stubEmbedder{vec: []float64{0, 1}}, nil).Submit(h.ctx, garbage("citizen-1"))

	require.NoError(t, err)
	assert.Equal(t, OutcomeAssigned, out.Kind)
	assert.Equal(t, idle.ID, *out.Grievance.AssignedOfficerID)
	assert.Equal(t, []float64{0, 1}, []float64(out.Grievance.Embedding))
}

func TestSubmit_Duplicate(t *testing.T) {
	h := newHarness(t)
	h.user(t, "ravi", models.RoleOfficer, nil)
	svc := h.service(t, stubEmbedder{vec: []float64{1, 0, 0}}, nil)

	first, err := svc.Submit(h.ctx, garbage("citizen-1"))
	require.NoError(t, err)
	require.Equal(t, OutcomeAssigned, first.Kind)

	second, err := svc.Submit(h.ctx, garbage("citizen-2"))

	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, second.Kind)
	require.NotNil(t, second.Duplicate)
	assert.Equal(t, first.Grievance.ID, second.Duplicate.MatchedID)
	assert.Equal(t, first.Grievance.GrievanceID, second.Duplicate.MatchedDisplayID)
	assert.InDelta(t, 1.0, second.Duplicate.Score, 1e-9)

	g := second.Grievance
	assert.True(t, g.IsDuplicate())
	assert.Equal(t, first.Grievance.ID, *g.DuplicateOfID)
	assert.Equal(t, models.StatusSubmitted, g.Status)
	assert.Nil(t, g.AssignedOfficerID, "no assignment is attempted for duplicates")

	n, err := h.store.CountGrievances(h.ctx, storage.GrievanceFilter{Kinds: []models.Kind{models.KindDuplicate}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "the duplicate is still persisted")
	assert.Contains(t, h.publisher.types(), models.EventDuplicate)
}

type failingFinder struct{}

func (failingFinder) FindDuplicate(context.Context, []float64, float64) (*duplicate.Match, error) {
	return nil, errors.New("read timeout")
}

func TestSubmit_DuplicateReadFailureFallsBack(t *testing.T) {
	h := newHarness(t)
	officer := h.user(t, "ravi", models.RoleOfficer, nil)

	out, err := h.service(t, stubEmbedder{vec: []float64{1, 0}}, failingFinder{}).Submit(h.ctx, garbage("citizen-1"))

	require.NoError(t, err)
	assert.Equal(t, OutcomeAssigned, out.Kind)
	assert.Equal(t, officer.ID, *out.Grievance.AssignedOfficerID)
}

func TestSubmit_Validation(t *testing.T) {
	h := newHarness(t)
	svc := h.service(t, embedding.Disabled{}, nil)

	for _, in := range []SubmitInput{
		{Title: "", Description: "desc", CitizenID: "c"},
		{Title: "title", Description: "   ", CitizenID: "c"},
		{Title: "title", Description: "desc"},
	} {
		_, err := svc.Submit(h.ctx, in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	n, err := h.store.CountGrievances(h.ctx, storage.GrievanceFilter{})
	require.NoError(t, err)
	assert.Zero(t, n, "nothing is persisted on validation failure")
}

type failingCreateStore struct{ *storage.Memory }

func (failingCreateStore) CreateGrievance(context.Context, *models.Grievance) error {
	return errors.New("disk full")
}

func TestSubmit_PersistenceFailureIsReturned(t *testing.T) {
	h := newHarness(t)
	svc := h.service(t, embedding.Disabled{}, nil)
	svc.store = failingCreateStore{h.store}

	_, err := svc.Submit(h.ctx, garbage("citizen-1"))

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, h.publisher.types())
}

func TestSubmit_PriorityDrivesSLA(t *testing.T) {
	h := newHarness(t)
	out, err := h.service(t, embedding.Disabled{}, nil).Submit(h.ctx, SubmitInput{
		Title: "Transformer sparks", Description: "there is a fire near the school", CitizenID: "c",
	})

	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, out.Grievance.Priority)
	assert.Equal(t, 48, out.Grievance.SLAHours)
}

func assigned(t *testing.T, h *harness, svc *Service, officer *models.User) *models.Grievance {
	t.Helper()
	g := &models.Grievance{Title: "t", Description: "d", CitizenID: "citizen-1", Status: models.StatusAssigned,
		AssignedOfficerID: &officer.ID, SLAHours: 72}
	require.NoError(t, h.store.CreateGrievance(h.ctx, g))
	return g
}

func TestUpdateStatus(t *testing.T) {
	h := newHarness(t)
	svc := h.service(t, embedding.Disabled{}, nil)
	officer := h.user(t, "ravi", models.RoleOfficer, nil)
	other := h.user(t, "meera", models.RoleOfficer, nil)
	g := assigned(t, h, svc, officer)

	_, err := svc.UpdateStatus(h.ctx, other.ID, g.ID, models.StatusResolved, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateStatus(h.ctx, officer.ID, g.ID, "closed", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := svc.UpdateStatus(h.ctx, officer.ID, g.ID, models.StatusInProgress, "crew dispatched")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, "crew dispatched", updated.LastNote)
	assert.Nil(t, updated.ResolvedAt)

	updated, err = svc.UpdateStatus(h.ctx, officer.ID, g.GrievanceID, models.StatusResolved, "")
	require.NoError(t, err)
	require.NotNil(t, updated.ResolvedAt)
	assert.Equal(t, fixedNow, *updated.ResolvedAt)
	assert.Equal(t, "crew dispatched", updated.LastNote, "an empty note keeps the previous one")

	_, err = svc.UpdateStatus(h.ctx, officer.ID, g.ID, models.StatusInProgress, "")
	assert.ErrorIs(t, err, ErrInvalidInput, "resolved is terminal for officers")

	_, err = svc.UpdateStatus(h.ctx, officer.ID, "missing", models.StatusResolved, "")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateStatus_EscalatedCanBeResolved(t *testing.T) {
	h := newHarness(t)
	svc := h.service(t, embedding.Disabled{}, nil)
	officer := h.user(t, "ravi", models.RoleOfficer, nil)
	g := assigned(t, h, svc, officer)
	g.Escalate()
	require.NoError(t, h.store.UpdateGrievance(h.ctx, g))

	updated, err := svc.UpdateStatus(h.ctx, officer.ID, g.ID, models.StatusResolved, "done")

	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, updated.Status)
	assert.Equal(t, 1, updated.EscalationCount)
}

func TestAssign(t *testing.T) {
	h := newHarness(t)
	svc := h.service(t, embedding.Disabled{}, nil)
	roads := h.department(t, "Roads")
	water := h.department(t, "Water")
	officer := h.user(t, "ravi", models.RoleOfficer, roads)
	citizen := h.user(t, "asha", models.RoleCitizen, nil)
	g := &models.Grievance{Title: "t", Description: "d", CitizenID: citizen.ID, Status: models.StatusSubmitted}
	require.NoError(t, h.store.CreateGrievance(h.ctx, g))

	_, err := svc.Assign(h.ctx, g.ID, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Assign(h.ctx, g.ID, "ghost", "")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.Assign(h.ctx, g.ID, citizen.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := svc.Assign(h.ctx, g.ID, officer.ID, water.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, updated.Status)
	assert.Equal(t, officer.ID, *updated.AssignedOfficerID)
	assert.Equal(t, roads.ID, *updated.DepartmentID, "officer assignment inherits the officer's department")

	updated, err = svc.Assign(h.ctx, g.ID, "", water.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedOfficerID)
	assert.Equal(t, water.ID, *updated.DepartmentID)
	assert.Equal(t, models.StatusAssigned, updated.Status)

	_, err = svc.Assign(h.ctx, g.ID, "", "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFeedback(t *testing.T) {
	h := newHarness(t)
	svc := h.service(t, embedding.Disabled{}, nil)
	officer := h.user(t, "ravi", models.RoleOfficer, nil)
	g := assigned(t, h, svc, officer)
	g.Status = models.StatusResolved
	require.NoError(t, h.store.UpdateGrievance(h.ctx, g))

	_, err := svc.Feedback(h.ctx, "someone-else", g.ID, "great", true)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Feedback(h.ctx, "citizen-1", g.ID, "Great work, thanks!", true)
	require.NoError(t, err)
	assert.Equal(t, "Great work, thanks!", updated.Feedback)
	require.NotNil(t, updated.Sentiment)
	assert.Equal(t, sentiment.LabelPositive, *updated.Sentiment)
	assert.Equal(t, 5, *updated.SentimentScore)
	assert.True(t, updated.ClosedByCitizen)
	assert.Equal(t, models.StatusResolved, updated.Status, "closing never changes status")
}

type panickingAnalyzer struct{}

func (panickingAnalyzer) Analyze(string) sentiment.Score { panic("lexicon missing") }

func TestFeedback_SentimentFailureIsSwallowed(t *testing.T) {
	h := newHarness(t)
	svc := h.service(t, embedding.Disabled{}, nil)
	svc.sentiment = panickingAnalyzer{}
	officer := h.user(t, "ravi", models.RoleOfficer, nil)
	g := assigned(t, h, svc, officer)

	updated, err := svc.Feedback(h.ctx, "citizen-1", g.ID, "slow response", false)

	require.NoError(t, err)
	assert.Equal(t, "slow response", updated.Feedback)
	assert.Nil(t, updated.Sentiment)
	assert.False(t, updated.ClosedByCitizen)
}

func TestListAndGet_Visibility(t *testing.T) {
	h := newHarness(t)
	svc := h.service(t, embedding.Disabled{}, nil)
	roads := h.department(t, "Roads")
	officer := h.user(t, "ravi", models.RoleOfficer, roads)
	stranger := h.user(t, "meera", models.RoleOfficer, nil)
	citizen := h.user(t, "asha", models.RoleCitizen, nil)
	admin := h.user(t, "root", models.RoleAdmin, nil)

	mine := &models.Grievance{Title: "mine", CitizenID: citizen.ID, Status: models.StatusAssigned, AssignedOfficerID: &officer.ID}
	dept := &models.Grievance{Title: "dept", CitizenID: "other", Status: models.StatusAssigned, DepartmentID: &roads.ID, Priority: models.PriorityHigh}
	unrelated := &models.Grievance{Title: "unrelated", CitizenID: "other", Status: models.StatusSubmitted}
	for _, g := range []*models.Grievance{mine, dept, unrelated} {
		require.NoError(t, h.store.CreateGrievance(h.ctx, g))
	}

	titles := func(list []models.Grievance) []string {
		out := []string{}
		for _, g := range list {
			out = append(out, g.Title)
		}
		return out
	}

	list, err := svc.List(h.ctx, citizen, ListFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mine"}, titles(list))

	list, err = svc.List(h.ctx, officer, ListFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mine", "dept"}, titles(list))

	list, err = svc.List(h.ctx, admin, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 3)

	list, err = svc.List(h.ctx, admin, ListFilter{Priority: models.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, []string{"dept"}, titles(list))

	list, err = svc.List(h.ctx, admin, ListFilter{Status: models.StatusSubmitted})
	require.NoError(t, err)
	assert.Equal(t, []string{"unrelated"}, titles(list))

	_, err = svc.Get(h.ctx, stranger, dept.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	got, err := svc.Get(h.ctx, officer, dept.ID)
	require.NoError(t, err)
	assert.Equal(t, "dept", got.Title)
	_, err = svc.Get(h.ctx, citizen, unrelated.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSuggest_DoesNotPersist(t *testing.T) {
	h := newHarness(t)
	officer := h.user(t, "ravi", models.RoleOfficer, nil)
	svc := h.service(t, stubEmbedder{vec: []float64{1, 0}}, nil)

	p, err := svc.Suggest(h.ctx, "Pothole on Main St", "large pothole causing damage")

	require.NoError(t, err)
	assert.Equal(t, "roads", p.Classification.Category)
	assert.Equal(t, 72, p.SLAHours)
	assert.True(t, p.Embedded)
	assert.Nil(t, p.Duplicate)
	require.NotNil(t, p.Suggestion)
	assert.Equal(t, officer.ID, p.Suggestion.Officer.ID)

	n, err := h.store.CountGrievances(h.ctx, storage.GrievanceFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.Suggest(h.ctx, " ", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
