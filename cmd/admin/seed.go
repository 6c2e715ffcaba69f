package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"grievance/backend/internal/auth"
	"grievance/backend/internal/config"
	"grievance/backend/internal/models"
	"grievance/backend/internal/storage"
)

const demoPassword = "password123"

type demoDepartment struct {
	name        string
	description string
	categories  []string
}

var demoDepartments = []demoDepartment{
	{name: "Public Works", description: "Roads, utilities, maintenance", categories: []string{"roads", "water", "electricity"}},
	{name: "Health", description: "Health and sanitation", categories: []string{"sanitation"}},
}

type demoUser struct {
	name       string
	email      string
	role       models.Role
	department int
}

var demoUsers = []demoUser{
	{name: "Admin User", email: "admin@example.com", role: models.RoleAdmin, department: -1},
	{name: "Officer User", email: "officer@example.com", role: models.RoleOfficer, department: 0},
	{name: "Health Officer", email: "health.officer@example.com", role: models.RoleOfficer, department: 1},
	{name: "Citizen User", email: "citizen@example.com", role: models.RoleCitizen, department: -1},
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create demo departments and one account per role",
		Long: "Creates demo departments with category routing and admin, officer and citizen accounts " +
			"(password " + demoPassword + "). Existing records with the same name or email are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			if err := e.store.AutoMigrate(); err != nil {
				return err
			}
			return seed(cmd.Context(), e.store, auth.NewService(e.store, e.cfg.Auth.JWTSecret, e.cfg.Auth.TokenTTL), cmd.OutOrStdout())
		},
	}
}

// seedStore is the storage surface the seeder needs.
type seedStore interface {
	storage.DepartmentStore
	storage.UserStore
}

func seed(ctx context.Context, s seedStore, a *auth.Service, out io.Writer) error {
	existing, err := s.ListDepartments(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]models.Department, len(existing))
	for _, d := range existing {
		byName[d.Name] = d
	}

	depts := make([]models.Department, len(demoDepartments))
	for i, dd := range demoDepartments {
		if d, ok := byName[dd.name]; ok {
			depts[i] = d
			continue
		}
		d := models.Department{Name: dd.name, Description: dd.description}
		if err := s.CreateDepartment(ctx, &d); err != nil {
			return fmt.Errorf("create department %s: %w", dd.name, err)
		}
		depts[i] = d
		fmt.Fprintf(out, "Created department %s\n", d.Name)
	}

	officers := make(map[int][]string)
	for _, du := range demoUsers {
		u, err := s.GetUserByEmail(ctx, du.email)
		if errors.Is(err, storage.ErrNotFound) {
			in := auth.NewUserInput{Name: du.name, Email: du.email, Password: demoPassword, Role: du.role}
			if du.department >= 0 {
				in.DepartmentID = depts[du.department].ID
			}
			if u, err = a.CreateUser(ctx, in); err != nil {
				return fmt.Errorf("create user %s: %w", du.email, err)
			}
			fmt.Fprintf(out, "Created %s %s\n", u.Role, u.Email)
		} else if err != nil {
			return err
		}
		if du.role == models.RoleOfficer && du.department >= 0 {
			officers[du.department] = append(officers[du.department], u.ID)
		}
	}

	for i, dd := range demoDepartments {
		for _, category := range dd.categories {
			if err := s.SetCategoryOfficers(ctx, depts[i].ID, category, officers[i]); err != nil {
				return fmt.Errorf("route %s to %s: %w", category, dd.name, err)
			}
		}
	}
	fmt.Fprintf(out, "Seed complete. SLA windows: high %dh, medium %dh, low %dh.\n",
		config.SLAHoursHigh, config.SLAHoursMedium, config.SLAHoursLow)
	return nil
}
