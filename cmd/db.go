package cmd

import (
	"fmt"

	"github.com/frahmantamala/expenseflow/internal"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const dbDriver = "pgx"

// database holds one pgx pool shared by the sqlx readers and the gorm
// repositories.
type database struct {
	SQL  *sqlx.DB
	Gorm *gorm.DB
}

func (d *database) Close() error {
	return d.SQL.Close()
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*database, error) {
	dbConn, err := sqlx.Connect(dbDriver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to open gorm over pool: %w", err)
	}

	return &database{SQL: dbConn, Gorm: gormDB}, nil
}
