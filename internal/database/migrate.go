// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationStatus はスキーマの適用状況を表す。
// Versionが0の場合はマイグレーションが一度も適用されていない。
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

// migrateLogger はgolang-migrateのログをslogへ流す。
type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrate"))
}

func (l migrateLogger) Verbose() bool {
	return false
}

// NewMigrator はマイグレーション実行用のmigrateインスタンスを生成する。
// loggerがnilの場合、golang-migrateのログは出力しない。
func NewMigrator(databaseURL string, logger *slog.Logger) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	if logger != nil {
		m.Log = migrateLogger{logger: logger}
	}

	return m, nil
}

// RunMigrations は未適用のマイグレーションをすべて適用し、適用後の状態を返す。
// すでに最新の場合はエラーなしで返る。
func RunMigrations(databaseURL string, logger *slog.Logger) (MigrationStatus, error) {
	m, err := NewMigrator(databaseURL, logger)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationStatus{}, fmt.Errorf("failed to run migrations: %w", err)
	}
	return status(m)
}

// RollbackMigration は直近のマイグレーションを1つ戻す。
// 何も適用されていない場合はエラーなしで返る。
func RollbackMigration(databaseURL string, logger *slog.Logger) (MigrationStatus, error) {
	m, err := NewMigrator(databaseURL, logger)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil && !isNothingToRollback(err) {
		return MigrationStatus{}, fmt.Errorf("failed to roll back migration: %w", err)
	}
	return status(m)
}

// CurrentStatus は現在のスキーマバージョンを返す。
func CurrentStatus(databaseURL string) (MigrationStatus, error) {
	m, err := NewMigrator(databaseURL, nil)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer m.Close()

	return status(m)
}

func status(m *migrate.Migrate) (MigrationStatus, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, nil
	}
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to read migration version: %w", err)
	}
	return MigrationStatus{Version: version, Dirty: dirty}, nil
}

// isNothingToRollback は未適用状態でSteps(-1)を呼んだ場合のエラーかを判定する。
// golang-migrateは戻す対象が足りない場合にErrShortLimitを返す。
func isNothingToRollback(err error) bool {
	if errors.Is(err, migrate.ErrNoChange) {
		return true
	}
	var short migrate.ErrShortLimit
	return errors.As(err, &short)
}
