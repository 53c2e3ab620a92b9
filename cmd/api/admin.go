package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func newAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative account tools",
	}
	cmd.AddCommand(newAdminCreateCommand())
	return cmd
}

func newAdminCreateCommand() *cobra.Command {
	var in service.AdminInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a department admin",
		Long:  `Create an ADMIN account bound to one department. Admins cannot register through the API.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			if rt.pg.PoolHandle() == nil {
				return errors.New("POSTGRES_DSN is required to create an admin")
			}

			store := rt.pg.Store()
			authService := service.NewAuthService(rt.cfg.Auth, service.AuthDependencies{
				UserRepo:   store.Users(),
				Dispatcher: events.NewInMemoryDispatcher(),
				Logger:     rt.logger,
			})
			user, err := authService.CreateAdmin(cmd.Context(), in)
			if err != nil {
				return describeError(err)
			}

			rt.logger.Info("admin created", zap.Int64("user_id", user.ID), zap.String("department", string(user.Department)))
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %d <%s> in %s\n", user.ID, user.Email, user.Department)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "Initial password (min 8 characters)")
	cmd.Flags().StringVar(&in.Department, "department", "", "MARKETING, FINANCIAL or TECHNICAL")
	for _, flag := range []string{"name", "email", "password", "department"} {
		_ = cmd.MarkFlagRequired(flag)
	}
	return cmd
}

// describeError flattens validation messages for terminal output.
func describeError(err error) error {
	domainErr := apperrors.ToDomainError(err)
	if domainErr.Code != apperrors.CodeValidation {
		return err
	}
	msg := domainErr.Message
	for field, messages := range domainErr.Fields {
		for _, m := range messages {
			msg += fmt.Sprintf("\n  %s: %s", field, m)
		}
	}
	return errors.New(msg)
}
