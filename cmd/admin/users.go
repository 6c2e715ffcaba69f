package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"grievance/backend/internal/models"
	"grievance/backend/internal/storage"
)

func usersCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := models.Role(role)
			if r != "" && !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			users, err := e.store.FindUsers(cmd.Context(), storage.UserFilter{Role: r})
			if err != nil {
				return err
			}
			renderUsers(cmd.OutOrStdout(), users)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "only list users with this role (citizen, officer, admin)")
	return cmd
}

func renderUsers(out io.Writer, users []models.User) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Email", "Role", "Department", "Telegram"})
	for _, u := range users {
		dept := "-"
		if u.DepartmentID != nil {
			dept = *u.DepartmentID
		}
		chat := "-"
		if u.TelegramChatID != 0 {
			chat = fmt.Sprint(u.TelegramChatID)
		}
		t.AppendRow(table.Row{u.ID, u.Name, u.Email, u.Role, dept, chat})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(users)})
	t.Render()
}
