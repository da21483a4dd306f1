package cli

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mrlokans/bookrank/internal/auth"
	"github.com/mrlokans/bookrank/internal/config"
	"github.com/mrlokans/bookrank/internal/database"
	"github.com/mrlokans/bookrank/internal/database/users"
)

// CreateUserCommand registers a new account from the command line,
// bypassing the HTTP registration endpoint.
type CreateUserCommand struct {
	Username     string
	Password     string
	DatabasePath string
}

// NewCreateUserCommand creates a new CreateUserCommand
func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

// ParseFlags parses command line flags
func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("createuser", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username for the new account (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password for the new account (prompted if omitted)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s createuser [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a user account directly in the database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s createuser -username alice\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s createuser -username alice -password s3cret -db ./bookrank.db\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		fs.Usage()
		return fmt.Errorf("-username is required")
	}

	return nil
}

// Run executes the createuser command
func (cmd *CreateUserCommand) Run() error {
	if cmd.Password == "" {
		fmt.Printf("Password for %s: ", cmd.Username)
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		cmd.Password = strings.TrimRight(line, "\r\n")
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()
	service := auth.NewService(users.NewRepository(db.DB), cfg.Auth)

	user, err := service.Register(cmd.Username, cmd.Password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created user %q (id %d)\n", user.Username, user.ID)
	return nil
}
