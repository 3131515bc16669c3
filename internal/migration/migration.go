package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/smallbiznis/orgkeeper/internal/event"
	invitedomain "github.com/smallbiznis/orgkeeper/internal/invite/domain"
	memberdomain "github.com/smallbiznis/orgkeeper/internal/membership/domain"
	orgdomain "github.com/smallbiznis/orgkeeper/internal/organization/domain"
	settingsdomain "github.com/smallbiznis/orgkeeper/internal/orgsettings/domain"
	ssodomain "github.com/smallbiznis/orgkeeper/internal/sso/domain"
	userdomain "github.com/smallbiznis/orgkeeper/internal/user/domain"
	"github.com/smallbiznis/orgkeeper/pkg/db"
	"gorm.io/gorm"
)

// Models lists every table owned by the module, parents first.
func Models() []any {
	return []any{
		&orgdomain.Organization{},
		&userdomain.User{},
		&memberdomain.Member{},
		&invitedomain.Invite{},
		&settingsdomain.Settings{},
		&ssodomain.ClientConfig{},
		&event.Event{},
	}
}

// Migrate brings the schema up to date. PostgreSQL runs the embedded SQL migrations;
// SQLite derives the same tables and partial indexes from the models.
func Migrate(conn *gorm.DB, dbType string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if dbType == db.TypeSQLite {
		return AutoMigrate(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}
