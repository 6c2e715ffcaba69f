package storage

import (
	"context"
	"fmt"
	"time"

	"grievance/backend/internal/models"
)

type groupCount struct {
	Label string
	Count int64
}

// Analytics aggregates the dashboard summary in the database.
func (s *Service) Analytics(ctx context.Context, now time.Time) (*models.Analytics, error) {
	db := s.DB.WithContext(ctx)
	out := &models.Analytics{
		ByStatus:       map[string]int64{},
		ByCategory:     map[string]int64{},
		RepeatedTitles: []models.TitleCount{},
		Officers:       []models.OfficerStats{},
	}

	groups := []struct {
		column string
		target map[string]int64
	}{
		{"status", out.ByStatus},
		{"category", out.ByCategory},
	}
	for _, g := range groups {
		var rows []groupCount
		err := db.Model(&models.Grievance{}).
			Select(g.column + " AS label, COUNT(*) AS count").
			Group(g.column).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("count by %s: %w", g.column, err)
		}
		for _, r := range rows {
			g.target[r.Label] = r.Count
		}
	}

	var avg struct{ Hours float64 }
	err := db.Model(&models.Grievance{}).
		Select("COALESCE(AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600), 0) AS hours").
		Where("status = ? AND resolved_at IS NOT NULL", models.StatusResolved).
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("average resolution: %w", err)
	}
	out.AvgResolutionHours = avg.Hours

	err = db.Model(&models.Grievance{}).
		Where("status NOT IN ? AND expected_resolution_at < ?", models.TerminalStatuses, now).
		Count(&out.SLAViolations).Error
	if err != nil {
		return nil, fmt.Errorf("sla violations: %w", err)
	}

	err = db.Model(&models.Grievance{}).
		Where("priority = ?", models.PriorityHigh).
		Count(&out.HighPriority).Error
	if err != nil {
		return nil, fmt.Errorf("high priority: %w", err)
	}

	err = db.Model(&models.Grievance{}).
		Select("title, COUNT(*) AS count").
		Group("title").
		Having("COUNT(*) > 1").
		Order("count DESC").
		Limit(models.MaxRepeatedTitles).
		Scan(&out.RepeatedTitles).Error
	if err != nil {
		return nil, fmt.Errorf("repeated titles: %w", err)
	}

	err = db.Table("grievances").
		Select(`grievances.assigned_officer_id AS officer_id, COALESCE(users.name, '') AS name,
			COUNT(*) AS total, COUNT(*) FILTER (WHERE grievances.status = ?) AS resolved`, models.StatusResolved).
		Joins("LEFT JOIN users ON users.id = grievances.assigned_officer_id").
		Where("grievances.assigned_officer_id IS NOT NULL").
		Group("grievances.assigned_officer_id, users.name").
		Order("total DESC").
		Scan(&out.Officers).Error
	if err != nil {
		return nil, fmt.Errorf("officer stats: %w", err)
	}

	return out, nil
}
