package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"hirocks/internal/middleware"

	"gorm.io/gorm"
)

// MigrationLog records an applied migration.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the database table name for MigrationLog.
func (MigrationLog) TableName() string {
	return "migration_logs"
}

const ensureMigrationLogTableSQL = `CREATE TABLE IF NOT EXISTS migration_logs (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// MigrationStatus describes where a database stands against the shipped migrations.
type MigrationStatus struct {
	Applied []int
	Pending []Migration
}

// RunMigrations applies every pending shipped migration in version order.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	set, err := Migrations()
	if err != nil {
		return err
	}
	return runMigrations(ctx, db, set)
}

func runMigrations(ctx context.Context, db *gorm.DB, set []Migration) error {
	status, err := migrationStatus(ctx, db, set)
	if err != nil {
		return err
	}
	if len(status.Pending) == 0 {
		middleware.Logger.Info("Schema is up to date", slog.Int("applied", len(status.Applied)))
		return nil
	}

	for _, m := range status.Pending {
		middleware.Logger.Info("Applying migration", slog.Int("version", m.Version), slog.String("name", m.Name))
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.UpScript).Error; err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", m.String(), err)
			}
			if err := tx.Create(&MigrationLog{Version: m.Version, Name: m.Name}).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", m.String(), err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// GetMigrationStatus reports applied and pending shipped migrations.
func GetMigrationStatus(ctx context.Context, db *gorm.DB) (*MigrationStatus, error) {
	set, err := Migrations()
	if err != nil {
		return nil, err
	}
	return migrationStatus(ctx, db, set)
}

func migrationStatus(ctx context.Context, db *gorm.DB, set []Migration) (*MigrationStatus, error) {
	if err := db.WithContext(ctx).Exec(ensureMigrationLogTableSQL).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure migration logs table: %w", err)
	}

	var applied []int
	if err := db.WithContext(ctx).Model(&MigrationLog{}).Order("version ASC").Pluck("version", &applied).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	if err := validateAppliedVersions(applied, set); err != nil {
		return nil, err
	}

	status := &MigrationStatus{Applied: applied}
	for _, m := range set {
		if !slices.Contains(applied, m.Version) {
			status.Pending = append(status.Pending, m)
		}
	}
	return status, nil
}

// validateAppliedVersions rejects databases migrated by a newer build.
func validateAppliedVersions(applied []int, registered []Migration) error {
	var unknown []string
	for _, version := range applied {
		if findMigration(registered, version) == nil {
			unknown = append(unknown, fmt.Sprintf("%06d", version))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return fmt.Errorf("migration_logs contains unknown versions not present in code: %s", strings.Join(unknown, ", "))
}

// RollbackMigration runs the down script of an applied migration.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	set, err := Migrations()
	if err != nil {
		return err
	}
	return rollbackMigration(ctx, db, set, version)
}

func rollbackMigration(ctx context.Context, db *gorm.DB, set []Migration, version int) error {
	m := findMigration(set, version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	status, err := migrationStatus(ctx, db, set)
	if err != nil {
		return err
	}
	if !slices.Contains(status.Applied, version) {
		return fmt.Errorf("migration %d has not been applied", version)
	}

	middleware.Logger.Info("Rolling back migration", slog.Int("version", version), slog.String("name", m.Name))
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("failed to run rollback SQL for migration %s: %w", m.String(), err)
		}
		if err := tx.Where("version = ?", version).Delete(&MigrationLog{}).Error; err != nil {
			return fmt.Errorf("failed to remove migration record %d: %w", version, err)
		}
		return nil
	})
}
