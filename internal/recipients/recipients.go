// Package recipients provides read-only access to the recipient
// configuration store.
//
// Configurations are owned and maintained by the portal's CRUD surface;
// this engine only reads them. A configuration is unique per (role,
// department); only the HOD role carries a department.
package recipients

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Role is a recipient class for attendance reports.
type Role string

const (
	RoleDean                  Role = "DEAN"
	RoleMedicalSuperintendent Role = "MEDICAL_SUPERINTENDENT"
	RoleDeputyMS              Role = "DEPUTY_MEDICAL_SUPERINTENDENT"
	RoleMedicalDirector       Role = "MEDICAL_DIRECTOR"
	RoleMedicalRepresentative Role = "MEDICAL_REPRESENTATIVE"
	RoleHRHead                Role = "HR_HEAD"
	RoleHOD                   Role = "HOD"
)

// Config is one recipient configuration row.
type Config struct {
	ID         string
	Role       Role
	Department string // set only for RoleHOD
	Emails     []string
	Active     bool
}

// Store is the read interface consumed by the dispatch rules.
type Store interface {
	// ByRoles returns the active configurations for the given roles, in the
	// order the roles were requested. Roles without an active configuration
	// are simply absent from the result.
	ByRoles(ctx context.Context, roles ...Role) ([]Config, error)

	// ActiveHODs returns every active HOD configuration.
	ActiveHODs(ctx context.Context) ([]Config, error)
}

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PGStore reads recipient configurations from Postgres.
type PGStore struct {
	db DBTX
}

// NewPGStore creates a store over the given connection pool.
func NewPGStore(db DBTX) *PGStore {
	return &PGStore{db: db}
}

// ByRoles implements Store.
func (s *PGStore) ByRoles(ctx context.Context, roles ...Role) ([]Config, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, role, COALESCE(department, ''), emails, is_active
		FROM recipient_configs
		WHERE role = ANY($1) AND is_active
		ORDER BY array_position($1, role)
	`, names)
	if err != nil {
		return nil, fmt.Errorf("query recipient configs: %w", err)
	}
	defer rows.Close()

	return scanConfigs(rows)
}

// ActiveHODs implements Store.
func (s *PGStore) ActiveHODs(ctx context.Context) ([]Config, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, role, COALESCE(department, ''), emails, is_active
		FROM recipient_configs
		WHERE role = $1 AND is_active AND department IS NOT NULL
		ORDER BY department
	`, string(RoleHOD))
	if err != nil {
		return nil, fmt.Errorf("query hod configs: %w", err)
	}
	defer rows.Close()

	return scanConfigs(rows)
}

func scanConfigs(rows pgx.Rows) ([]Config, error) {
	var configs []Config
	for rows.Next() {
		var c Config
		var role string
		if err := rows.Scan(&c.ID, &role, &c.Department, &c.Emails, &c.Active); err != nil {
			return nil, fmt.Errorf("scan recipient config: %w", err)
		}
		c.Role = Role(role)
		if len(c.Emails) == 0 {
			// non-empty email list is a store invariant; skip rows that
			// violate it rather than dispatching an empty mail
			continue
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// MergeEmails returns the deduplicated union of the email lists of the
// given configurations, preserving first-seen order.
func MergeEmails(configs []Config) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range configs {
		for _, e := range c.Emails {
			if e == "" || seen[e] {
				continue
			}
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}
