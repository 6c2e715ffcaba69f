package storage

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"grievance/backend/internal/models"
)

// Memory is an in-process Store used by tests and local runs without PostgreSQL.
// Records are copied on the way in and out.
type Memory struct {
	mu          sync.RWMutex
	seq         int64
	grievances  map[string]*models.Grievance
	departments map[string]*models.Department
	users       map[string]*models.User
	order       map[string]int64
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		grievances:  map[string]*models.Grievance{},
		departments: map[string]*models.Department{},
		users:       map[string]*models.User{},
		order:       map[string]int64{},
	}
}

func (m *Memory) next(id string) {
	m.seq++
	m.order[id] = m.seq
}

func (m *Memory) CreateGrievance(_ context.Context, g *models.Grievance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := g.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	g.Prepare(now)
	if _, exists := m.grievances[g.ID]; exists {
		return ErrDuplicateKey
	}
	for _, other := range m.grievances {
		if other.GrievanceID == g.GrievanceID {
			return ErrDuplicateKey
		}
	}
	g.UpdatedAt = now
	m.grievances[g.ID] = cloneGrievance(g)
	m.next(g.ID)
	return nil
}

func (m *Memory) GetGrievance(_ context.Context, id string) (*models.Grievance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.grievances[id]; ok {
		return cloneGrievance(g), nil
	}
	for _, g := range m.grievances {
		if g.GrievanceID == id {
			return cloneGrievance(g), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindGrievances(_ context.Context, f GrievanceFilter) ([]models.Grievance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Grievance
	for _, g := range m.grievances {
		if f.Matches(g) {
			out = append(out, *cloneGrievance(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return m.order[out[i].ID] > m.order[out[j].ID]
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) CountGrievances(_ context.Context, f GrievanceFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, g := range m.grievances {
		if f.Matches(g) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) UpdateGrievance(_ context.Context, g *models.Grievance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.grievances[g.ID]; !ok {
		return ErrNotFound
	}
	g.UpdatedAt = time.Now()
	m.grievances[g.ID] = cloneGrievance(g)
	return nil
}

func (m *Memory) CreateDepartment(_ context.Context, d *models.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	for _, other := range m.departments {
		if other.Name == d.Name || other.ID == d.ID {
			return ErrDuplicateKey
		}
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.UpdatedAt = d.CreatedAt
	for i := range d.CategoryAssignments {
		d.CategoryAssignments[i].DepartmentID = d.ID
	}
	m.departments[d.ID] = cloneDepartment(d)
	m.next(d.ID)
	return nil
}

func (m *Memory) GetDepartment(_ context.Context, id string) (*models.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.departments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDepartment(d), nil
}

func (m *Memory) ListDepartments(_ context.Context) ([]models.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Department, 0, len(m.departments))
	for _, d := range m.departments {
		out = append(out, *cloneDepartment(d))
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] < m.order[out[j].ID] })
	return out, nil
}

func (m *Memory) DepartmentsForCategory(ctx context.Context, category string) ([]models.Department, error) {
	all, err := m.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Department
	for _, d := range all {
		entry := d.Assignment(category)
		if entry == nil {
			continue
		}
		d.CategoryAssignments = []models.CategoryAssignment{*entry}
		out = append(out, d)
	}
	return out, nil
}

func (m *Memory) UpdateDepartment(_ context.Context, d *models.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.departments[d.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name = d.Name
	cur.Description = d.Description
	cur.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) SetCategoryOfficers(_ context.Context, departmentID, category string, officerIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.departments[departmentID]
	if !ok {
		return ErrNotFound
	}
	d.SetAssignment(category, slices.Clone(officerIDs))
	return nil
}

func (m *Memory) DeleteDepartment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.departments[id]; !ok {
		return ErrNotFound
	}
	delete(m.departments, id)
	return nil
}

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = models.RoleCitizen
	}
	for _, other := range m.users {
		if other.Email == u.Email || other.ID == u.ID {
			return ErrDuplicateKey
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	m.next(u.ID)
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindUsers(_ context.Context, f UserFilter) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.User
	for _, u := range m.users {
		if f.Matches(u) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] < m.order[out[j].ID] })
	return out, nil
}

func (m *Memory) UpdateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	u.UpdatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// Analytics computes the same summary as the SQL implementation.
func (m *Memory) Analytics(_ context.Context, now time.Time) (*models.Analytics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := &models.Analytics{
		ByStatus:       map[string]int64{},
		ByCategory:     map[string]int64{},
		RepeatedTitles: []models.TitleCount{},
		Officers:       []models.OfficerStats{},
	}
	titles := map[string]int64{}
	officers := map[string]*models.OfficerStats{}
	var resolvedHours float64
	var resolved int

	for _, g := range m.grievances {
		out.ByStatus[string(g.Status)]++
		out.ByCategory[g.Category]++
		titles[g.Title]++
		if g.Priority == models.PriorityHigh {
			out.HighPriority++
		}
		if g.IsOverdue(now) {
			out.SLAViolations++
		}
		if g.Status == models.StatusResolved && g.ResolvedAt != nil {
			resolvedHours += g.ResolvedAt.Sub(g.CreatedAt).Hours()
			resolved++
		}
		if g.AssignedOfficerID != nil {
			st, ok := officers[*g.AssignedOfficerID]
			if !ok {
				st = &models.OfficerStats{OfficerID: *g.AssignedOfficerID}
				if u, found := m.users[*g.AssignedOfficerID]; found {
					st.Name = u.Name
				}
				officers[*g.AssignedOfficerID] = st
			}
			st.Total++
			if g.Status == models.StatusResolved {
				st.Resolved++
			}
		}
	}
	if resolved > 0 {
		out.AvgResolutionHours = resolvedHours / float64(resolved)
	}

	for title, n := range titles {
		if n > 1 {
			out.RepeatedTitles = append(out.RepeatedTitles, models.TitleCount{Title: title, Count: n})
		}
	}
	sort.Slice(out.RepeatedTitles, func(i, j int) bool {
		a, b := out.RepeatedTitles[i], out.RepeatedTitles[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Title < b.Title
	})
	if len(out.RepeatedTitles) > models.MaxRepeatedTitles {
		out.RepeatedTitles = out.RepeatedTitles[:models.MaxRepeatedTitles]
	}

	for _, st := range officers {
		out.Officers = append(out.Officers, *st)
	}
	sort.Slice(out.Officers, func(i, j int) bool {
		if out.Officers[i].Total != out.Officers[j].Total {
			return out.Officers[i].Total > out.Officers[j].Total
		}
		return out.Officers[i].OfficerID < out.Officers[j].OfficerID
	})
	return out, nil
}

func cloneGrievance(g *models.Grievance) *models.Grievance {
	cp := *g
	cp.Embedding = slices.Clone(g.Embedding)
	cp.Images = slices.Clone(g.Images)
	cp.Explanation.MatchedCategory = slices.Clone(g.Explanation.MatchedCategory)
	cp.Explanation.MatchedPriority = slices.Clone(g.Explanation.MatchedPriority)
	cp.AssignedOfficerID = clonePtr(g.AssignedOfficerID)
	cp.DepartmentID = clonePtr(g.DepartmentID)
	cp.SuggestedOfficerID = clonePtr(g.SuggestedOfficerID)
	cp.DuplicateOfID = clonePtr(g.DuplicateOfID)
	cp.Sentiment = clonePtr(g.Sentiment)
	cp.SentimentScore = clonePtr(g.SentimentScore)
	cp.ExpectedResolutionAt = clonePtr(g.ExpectedResolutionAt)
	cp.ResolvedAt = clonePtr(g.ResolvedAt)
	return &cp
}

func cloneDepartment(d *models.Department) *models.Department {
	cp := *d
	cp.CategoryAssignments = make([]models.CategoryAssignment, len(d.CategoryAssignments))
	for i, a := range d.CategoryAssignments {
		a.OfficerIDs = slices.Clone(a.OfficerIDs)
		cp.CategoryAssignments[i] = a
	}
	return &cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
