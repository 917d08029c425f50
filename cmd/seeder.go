package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	companyDatamodel "github.com/frahmantamala/expenseflow/internal/core/datamodel/company"
	currencyPostgres "github.com/frahmantamala/expenseflow/internal/currency/postgres"
	"github.com/frahmantamala/expenseflow/internal/user"
	userPostgres "github.com/frahmantamala/expenseflow/internal/user/postgres"
	"github.com/frahmantamala/expenseflow/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const seedPassword = "password123"

var clearData bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed companies, users with roles and exchange rates for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		s := &seeder{
			db:     db.Gorm,
			users:  user.NewService(userPostgres.NewUserRepository(db.Gorm), cfg.Security.BCryptCost, logger.LoggerWrapper()),
			rates:  currencyPostgres.NewRateRepository(db.Gorm),
			logger: logger.LoggerWrapper(),
		}
		return s.run(cmd.Context(), clearData)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
}

type seedCompany struct {
	Name     string
	Currency string
}

type seedUser struct {
	Email     string
	FirstName string
	LastName  string
	Company   string
	Role      string
}

type seedRate struct {
	Base  string
	Quote string
	Rate  float64
}

var (
	seedCompanies = []seedCompany{
		{Name: "Acme Corp", Currency: "USD"},
		{Name: "Nusantara Digital", Currency: "IDR"},
	}

	seedUsers = []seedUser{
		{Email: "admin@acme.test", FirstName: "Alya", LastName: "Admin", Company: "Acme Corp", Role: "admin"},
		{Email: "manager@acme.test", FirstName: "Bima", LastName: "Manager", Company: "Acme Corp", Role: "manager"},
		{Email: "employee@acme.test", FirstName: "Citra", LastName: "Employee", Company: "Acme Corp", Role: "employee"},
		{Email: "manager@nusantara.test", FirstName: "Dewi", LastName: "Manager", Company: "Nusantara Digital", Role: "manager"},
		{Email: "employee@nusantara.test", FirstName: "Eko", LastName: "Employee", Company: "Nusantara Digital", Role: "employee"},
		{Email: "drifter@acme.test", FirstName: "Fajar", LastName: "Unassigned", Role: "employee"},
	}

	seedRates = []seedRate{
		{Base: "USD", Quote: "IDR", Rate: 16000},
		{Base: "EUR", Quote: "USD", Rate: 1.08},
		{Base: "EUR", Quote: "IDR", Rate: 17300},
		{Base: "SGD", Quote: "IDR", Rate: 12000},
		{Base: "SGD", Quote: "USD", Rate: 0.74},
	}

	// seedRatesEffective predates any expense a developer is likely to enter.
	seedRatesEffective = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	// clearOrder deletes children before parents.
	clearOrder = []string{"expenses", "sessions", "user_roles", "profiles", "users", "exchange_rates", "companies"}
)

type seeder struct {
	db     *gorm.DB
	users  *user.Service
	rates  *currencyPostgres.RateRepository
	logger *slog.Logger
}

func (s *seeder) run(ctx context.Context, clear bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if clear {
		if err := s.clear(ctx); err != nil {
			return err
		}
	}

	companyIDs := make(map[string]int64, len(seedCompanies))
	for _, c := range seedCompanies {
		row := companyDatamodel.Company{Name: c.Name, CurrencyCode: c.Currency}
		if err := s.db.WithContext(ctx).Where("name = ?", c.Name).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("seed company %s: %w", c.Name, err)
		}
		companyIDs[c.Name] = row.ID
		s.logger.Info("seeded company", "name", c.Name, "id", row.ID, "currency", c.Currency)
	}

	for _, u := range seedUsers {
		dto := user.NewAccountDTO{
			Email:     u.Email,
			Password:  seedPassword,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      u.Role,
		}
		if id, ok := companyIDs[u.Company]; ok {
			dto.CompanyID = &id
		}

		account, err := s.users.Create(ctx, dto)
		if errors.Is(err, user.ErrEmailTaken) {
			s.logger.Info("user already exists, skipping", "email", u.Email)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		s.logger.Info("seeded user", "email", account.Email, "role", account.Role)
	}

	for _, r := range seedRates {
		if err := s.rates.Upsert(ctx, r.Base, r.Quote, r.Rate, seedRatesEffective); err != nil {
			return fmt.Errorf("seed rate %s/%s: %w", r.Base, r.Quote, err)
		}
	}
	s.logger.Info("seeded exchange rates", "count", len(seedRates))

	fmt.Printf("Seed complete. Every seeded user signs in with password %q\n", seedPassword)
	return nil
}

func (s *seeder) clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range clearOrder {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
			s.logger.Info("cleared table", "table", table)
		}
		return nil
	})
}
