// Package userdump logs every row of the users table through a redacting logger.
package userdump

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	LoggerName   = "user_data"
	DefaultTable = "users"
)

// ErrInvalidTable is returned for table names that are not plain identifiers.
var ErrInvalidTable = errors.New("userdump: invalid table name")

var tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// UserPIIFields are the users columns masked in addition to the configured fields.
var UserPIIFields = []string{"email", "password_hash", "first_name", "last_name", "reset_token"}

// Dump logs each row of table as "column=value; " pairs and returns the row count.
func Dump(ctx context.Context, conn *gorm.DB, table string, log *zap.Logger) (int, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		table = DefaultTable
	}
	if !tablePattern.MatchString(table) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}

	rows, err := conn.WithContext(ctx).Table(table).Rows()
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return 0, err
	}

	count := 0
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return count, err
		}
		log.Info(FormatRow(columns, values))
		count++
	}
	return count, rows.Err()
}

// FormatRow renders a row the way the redacting core expects to find it.
// NULL values render as "None".
func FormatRow(columns []string, values []sql.NullString) string {
	var b strings.Builder
	for i, col := range columns {
		value := "None"
		if i < len(values) && values[i].Valid {
			value = values[i].String
		}
		b.WriteString(col)
		b.WriteByte('=')
		b.WriteString(value)
		b.WriteString("; ")
	}
	return strings.TrimSpace(b.String())
}

// PIIFields merges the configured fields with UserPIIFields.
func PIIFields(configured []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(configured)+len(UserPIIFields))
	for _, f := range append(append([]string{}, configured...), UserPIIFields...) {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
