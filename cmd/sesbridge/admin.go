package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/sesbridge/sesbridge/internal/adapter/postgres"
	"github.com/sesbridge/sesbridge/internal/config"
	"github.com/sesbridge/sesbridge/internal/domain/company"
	"github.com/sesbridge/sesbridge/internal/domain/user"
	"github.com/sesbridge/sesbridge/internal/port/database"
	"github.com/sesbridge/sesbridge/internal/service"
)

// runAdmin dispatches admin subcommands. These operate directly against
// the store, outside the HTTP authorization pipeline, for bootstrap and
// operator recovery.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-company":
		return runAdminCreateCompany(args[1:])
	case "create-user":
		return runAdminCreateUser(args[1:])
	case "reset-password":
		return runAdminResetPassword(args[1:])
	case "list-users":
		return runAdminListUsers(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: sesbridge admin <command> [options]

Commands:
  create-company   Register a company (type ses or end)
  create-user      Create a user in a company
  reset-password   Reset a user's password
  list-users       List the users of a company
  help             Show this help message

Examples:
  sesbridge admin create-company --name "Acme Staffing" --type ses
  sesbridge admin create-user --company <id> --email admin@acme.example --name "Admin" --role admin
  sesbridge admin reset-password --email admin@acme.example
  sesbridge admin list-users --company <id>
`)
}

func loadAdminDeps() (database.Store, *service.AuthService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	store := postgres.NewStore(pool)
	authSvc := service.NewAuthService(store, &cfg.Auth)

	cleanup := func() {
		pool.Close()
	}
	return store, authSvc, cleanup, nil
}

func runAdminCreateCompany(args []string) error {
	fs := flag.NewFlagSet("create-company", flag.ContinueOnError)
	name := fs.String("name", "", "company name (required)")
	typ := fs.String("type", "", "company type: ses or end (required)")
	domain := fs.String("domain", "", "company domain")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	if !company.ValidTypes[company.Type(*typ)] {
		return fmt.Errorf("--type must be ses or end")
	}

	store, _, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	now := time.Now()
	c := &company.Company{
		ID:        uuid.NewString(),
		Name:      *name,
		Domain:    *domain,
		Type:      company.Type(*typ),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateCompany(context.Background(), c); err != nil {
		return fmt.Errorf("create company: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Company created: %s (id=%s, type=%s)\n", c.Name, c.ID, c.Type)
	return nil
}

func runAdminCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	companyID := fs.String("company", "", "company id (required)")
	email := fs.String("email", "", "user email address (required)")
	name := fs.String("name", "", "user display name (required)")
	role := fs.String("role", string(user.RoleMember), "role: admin, manager, or member")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *companyID == "" {
		return fmt.Errorf("--company is required")
	}
	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	if !user.ValidRoles[user.Role(*role)] {
		return fmt.Errorf("--role must be admin, manager, or member")
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if pass != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	store, authSvc, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	if _, err := store.GetCompany(ctx, *companyID); err != nil {
		return fmt.Errorf("company %s: %w", *companyID, err)
	}

	hash, err := authSvc.HashPassword(pass)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.NewString(),
		CompanyID:    *companyID,
		Email:        *email,
		Name:         *name,
		PasswordHash: hash,
		Role:         user.Role(*role),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(ctx, u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(os.Stderr, "User created: %s (id=%s, role=%s)\n", u.Email, u.ID, u.Role)
	return nil
}

func runAdminResetPassword(args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	email := fs.String("email", "", "user email address (required)")
	password := fs.String("password", "", "new password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	newPass := *password
	if newPass == "" {
		var err error
		newPass, err = promptPassword("New password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if newPass != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	store, authSvc, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	u, err := store.GetUserByEmail(ctx, *email)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	hash, err := authSvc.HashPassword(newPass)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
	if err := store.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	// Existing sessions die with the old password.
	if err := store.DeleteRefreshTokensForUser(ctx, u.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Password reset successfully for %s\n", *email)
	return nil
}

func runAdminListUsers(args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	companyID := fs.String("company", "", "company id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *companyID == "" {
		return fmt.Errorf("--company is required")
	}

	store, _, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	users, err := store.ListUsers(context.Background(), *companyID)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tACTIVE")
	for i := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
			users[i].ID, users[i].Email, users[i].Name, users[i].Role, users[i].Active)
	}
	return w.Flush()
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
