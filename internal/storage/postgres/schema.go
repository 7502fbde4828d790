package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type schemaStep struct {
	name string
	sql  string
	// bestEffort steps need role-management privileges that managed databases may withhold.
	bestEffort bool
}

func ensureRole(role string) string {
	return fmt.Sprintf(`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = '%[1]s') THEN CREATE ROLE %[1]s; END IF;
	END $$;`, role)
}

func ensurePolicy(name, body string) string {
	return fmt.Sprintf(`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_policy WHERE polname = '%[1]s' AND polrelid = 'currencies'::regclass) THEN
			CREATE POLICY %[1]s ON currencies %[2]s;
		END IF;
	END $$;`, name, body)
}

var schemaSteps = []schemaStep{
	{name: "role admin", sql: ensureRole("admin"), bestEffort: true},
	{name: "role manager", sql: ensureRole("manager"), bestEffort: true},
	{name: "role member", sql: ensureRole("member"), bestEffort: true},
	{name: "users", sql: `CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT,
		full_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('admin', 'manager', 'member')),
		email_verified BOOLEAN NOT NULL DEFAULT false,
		reset_token TEXT,
		reset_token_expires TIMESTAMPTZ,
		last_login TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{name: "users reset token index", sql: `CREATE INDEX IF NOT EXISTS users_reset_token_idx ON users (reset_token) WHERE reset_token IS NOT NULL`},
	{name: "user_sessions", sql: `CREATE TABLE IF NOT EXISTS user_sessions (
		token TEXT PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{name: "user_sessions user index", sql: `CREATE INDEX IF NOT EXISTS user_sessions_user_id_idx ON user_sessions (user_id)`},
	{name: "currencies", sql: `CREATE TABLE IF NOT EXISTS currencies (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		code VARCHAR(3) NOT NULL UNIQUE,
		name VARCHAR(50) NOT NULL,
		symbol VARCHAR(3) NOT NULL,
		decimal_digits INTEGER NOT NULL DEFAULT 2,
		is_default BOOLEAN NOT NULL DEFAULT false,
		ratio DECIMAL(18, 8) NOT NULL DEFAULT 1.0 CHECK (ratio > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{name: "currencies ratio column", sql: `ALTER TABLE currencies ADD COLUMN IF NOT EXISTS ratio DECIMAL(18, 8) NOT NULL DEFAULT 1.0`},
	{name: "currencies code index", sql: `CREATE INDEX IF NOT EXISTS currencies_code_idx ON currencies (code)`},
	// Deferred so the single-statement default swap is checked once, after every row moved.
	{name: "currencies single default", sql: `ALTER TABLE currencies ADD CONSTRAINT currencies_single_default
		EXCLUDE USING btree (is_default WITH =) WHERE (is_default) DEFERRABLE INITIALLY DEFERRED`},
	{name: "currencies rls", sql: `ALTER TABLE currencies ENABLE ROW LEVEL SECURITY`, bestEffort: true},
	{name: "policy admin_all_currencies", sql: ensurePolicy("admin_all_currencies", "FOR ALL TO admin USING (true)"), bestEffort: true},
	{name: "policy manager_view_currencies", sql: ensurePolicy("manager_view_currencies", "FOR SELECT TO manager USING (true)"), bestEffort: true},
	{name: "policy member_view_currencies", sql: ensurePolicy("member_view_currencies", "FOR SELECT TO member USING (true)"), bestEffort: true},
	{name: "loft_owners", sql: `CREATE TABLE IF NOT EXISTS loft_owners (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		address TEXT,
		ownership_type TEXT NOT NULL DEFAULT 'third_party' CHECK (ownership_type IN ('company', 'third_party')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{name: "zone_areas", sql: `CREATE TABLE IF NOT EXISTS zone_areas (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{name: "lofts", sql: `CREATE TABLE IF NOT EXISTS lofts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		description TEXT,
		address TEXT NOT NULL,
		price_per_month NUMERIC(12, 2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'occupied', 'maintenance')),
		owner_id UUID NOT NULL REFERENCES loft_owners(id),
		company_percentage NUMERIC(5, 2) NOT NULL DEFAULT 0,
		owner_percentage NUMERIC(5, 2) NOT NULL DEFAULT 0,
		zone_area_id UUID REFERENCES zone_areas(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{name: "lofts zone area column", sql: `ALTER TABLE lofts ADD COLUMN IF NOT EXISTS zone_area_id UUID REFERENCES zone_areas(id) ON DELETE SET NULL`},
	{name: "categories", sql: `CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		description TEXT,
		type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{name: "teams", sql: `CREATE TABLE IF NOT EXISTS teams (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		description TEXT,
		created_by UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{name: "tasks", sql: `CREATE TABLE IF NOT EXISTS tasks (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'todo' CHECK (status IN ('todo', 'in_progress', 'completed')),
		due_date DATE,
		assigned_to UUID REFERENCES users(id) ON DELETE SET NULL,
		team_id UUID REFERENCES teams(id) ON DELETE SET NULL,
		loft_id UUID REFERENCES lofts(id) ON DELETE SET NULL,
		created_by UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{name: "transactions", sql: `CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		amount NUMERIC(18, 2) NOT NULL CHECK (amount > 0),
		transaction_type TEXT NOT NULL CHECK (transaction_type IN ('income', 'expense')),
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'failed')),
		description TEXT NOT NULL DEFAULT '',
		date DATE NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{name: "transactions currency column", sql: `ALTER TABLE transactions ADD COLUMN IF NOT EXISTS currency_id UUID REFERENCES currencies(id)`},
	{name: "transactions loft column", sql: `ALTER TABLE transactions ADD COLUMN IF NOT EXISTS loft_id UUID REFERENCES lofts(id)`},
	{name: "transactions ratio column", sql: `ALTER TABLE transactions ADD COLUMN IF NOT EXISTS ratio_at_transaction DECIMAL(18, 8)`},
	{name: "transactions equivalent column", sql: `ALTER TABLE transactions ADD COLUMN IF NOT EXISTS equivalent_amount_default_currency DECIMAL(18, 2)`},
	{name: "transactions date index", sql: `CREATE INDEX IF NOT EXISTS transactions_date_idx ON transactions (date DESC)`},
}

// EnsureSchema creates every role, table, index and policy the application needs.
// Every step is idempotent, so repeated or concurrent calls are safe; "already exists"
// races between concurrent callers count as success.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, step := range schemaSteps {
		_, err := s.pool.Exec(ctx, step.sql)
		switch {
		case err == nil, isAlreadyExists(err):
			continue
		case step.bestEffort && isPrivilegeError(err):
			s.log.Warn("schema step skipped", zap.String("step", step.name), zap.Error(err))
			continue
		default:
			return fmt.Errorf("ensure schema (%s): %w", step.name, err)
		}
	}
	s.log.Info("schema ready", zap.Int("steps", len(schemaSteps)))
	return nil
}

func isAlreadyExists(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "42P07", // duplicate_table
		"42710", // duplicate_object
		"42701", // duplicate_column
		"42P06": // duplicate_schema
		return true
	case codeUniqueViolation:
		// concurrent CREATE ... IF NOT EXISTS collides on the system catalogs
		return pgErr.SchemaName == "pg_catalog" || pgErr.TableName == "pg_type" ||
			pgErr.ConstraintName == "pg_type_typname_nsp_index" || pgErr.ConstraintName == "pg_authid_rolname_index"
	}
	return false
}

func isPrivilegeError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// insufficient_privilege, undefined_object (policy on a role that could not be created)
	return pgErr.Code == "42501" || pgErr.Code == "42704"
}
