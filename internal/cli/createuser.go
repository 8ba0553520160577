package cli

import (
	"flag"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/akulov/elib/internal/auth"
	"github.com/akulov/elib/internal/config"
	"github.com/akulov/elib/internal/database"
	"github.com/akulov/elib/internal/database/users"
	"github.com/akulov/elib/internal/entities"
)

// CreateUserCommand creates an account from the command line. Used to
// bootstrap the first administrator.
type CreateUserCommand struct {
	Username   string
	Password   string
	Role       string
	LastName   string
	FirstName  string
	MiddleName string
}

// NewCreateUserCommand creates a new CreateUserCommand
func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

// ParseFlags parses command line flags
func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("createuser", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Account name (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password, at least 8 characters (required)")
	fs.StringVar(&cmd.Role, "role", "User", "Role: Admin, Moderator or User")
	fs.StringVar(&cmd.LastName, "last-name", "", "Last name")
	fs.StringVar(&cmd.FirstName, "first-name", "", "First name")
	fs.StringVar(&cmd.MiddleName, "middle-name", "", "Middle name")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s createuser [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an account in the configured database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s createuser -username admin -password secret123 -role Admin\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" || cmd.Password == "" {
		fs.Usage()
		return fmt.Errorf("both -username and -password are required")
	}

	return nil
}

// Run executes the createuser command
func (cmd *CreateUserCommand) Run() error {
	cfg := config.NewConfig()

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	service := auth.NewService(users.NewRepository(db.DB), cfg.App)

	var user *entities.User
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		created, err := service.CreateUser(
			tx,
			cmd.Username,
			cmd.Password,
			entities.RoleName(cmd.Role),
			cmd.LastName,
			cmd.FirstName,
			cmd.MiddleName,
		)
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created user %q (id=%d, role=%s)\n", user.Username, user.ID, user.Role.Name)
	return nil
}
