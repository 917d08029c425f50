package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/frahmantamala/expenseflow/internal/user"
	userPostgres "github.com/frahmantamala/expenseflow/internal/user/postgres"
	"github.com/frahmantamala/expenseflow/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Provision and manage user accounts",
	Long:  `Accounts, profiles and roles are read-only through the API; this is where they are written.`,
}

var addUserCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user with a profile and a role",
	RunE:  runAddUser,
}

var deactivateUserCmd = &cobra.Command{
	Use:   "deactivate [email]",
	Short: "Block a user from signing in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserActive(cmd, args[0], false)
	},
}

var activateUserCmd = &cobra.Command{
	Use:   "activate [email]",
	Short: "Allow a deactivated user to sign in again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserActive(cmd, args[0], true)
	},
}

var (
	newUserEmail     string
	newUserPassword  string
	newUserFirstName string
	newUserLastName  string
	newUserCompanyID int64
	newUserRole      string
)

func init() {
	addUserCmd.Flags().StringVar(&newUserEmail, "email", "", "login email")
	addUserCmd.Flags().StringVar(&newUserPassword, "password", "", "password; prompted for when omitted")
	addUserCmd.Flags().StringVar(&newUserFirstName, "first-name", "", "first name")
	addUserCmd.Flags().StringVar(&newUserLastName, "last-name", "", "last name")
	addUserCmd.Flags().Int64Var(&newUserCompanyID, "company-id", 0, "company the profile belongs to; 0 for none")
	addUserCmd.Flags().StringVar(&newUserRole, "role", "employee", "admin, manager or employee")
	_ = addUserCmd.MarkFlagRequired("email")
	_ = addUserCmd.MarkFlagRequired("first-name")

	userCmd.AddCommand(addUserCmd)
	userCmd.AddCommand(deactivateUserCmd)
	userCmd.AddCommand(activateUserCmd)
}

func newUserService() (*user.Service, func() error, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	svc := user.NewService(userPostgres.NewUserRepository(db.Gorm), cfg.Security.BCryptCost, logger.LoggerWrapper())
	return svc, db.Close, nil
}

func runAddUser(cmd *cobra.Command, _ []string) error {
	password := newUserPassword
	if password == "" {
		var err error
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	svc, closeDB, err := newUserService()
	if err != nil {
		return err
	}
	defer closeDB()

	dto := user.NewAccountDTO{
		Email:     newUserEmail,
		Password:  password,
		FirstName: newUserFirstName,
		LastName:  newUserLastName,
		Role:      newUserRole,
	}
	if newUserCompanyID > 0 {
		companyID := newUserCompanyID
		dto.CompanyID = &companyID
	}

	account, err := svc.Create(cmd.Context(), dto)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s) with role %s\n", account.UserID, account.Email, account.Role)
	return nil
}

func setUserActive(cmd *cobra.Command, email string, active bool) error {
	svc, closeDB, err := newUserService()
	if err != nil {
		return err
	}
	defer closeDB()

	if active {
		err = svc.Activate(cmd.Context(), email)
	} else {
		err = svc.Deactivate(cmd.Context(), email)
	}
	if errors.Is(err, user.ErrNotFound) {
		return fmt.Errorf("no user with email %s", email)
	}
	if err != nil {
		return err
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", state, email)
	return nil
}

// promptPassword reads the password twice from the terminal without echo.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(os.Stderr, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
