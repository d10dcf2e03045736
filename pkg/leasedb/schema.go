package leasedb

import (
	"fmt"
	"strings"
	"time"

	"github.com/xhad/brikmate/internal/models"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultTableName = "leases"
)

// sqliteTimeLayout sorts lexically in time order, unlike RFC3339Nano which
// trims trailing zeros.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type dialect struct {
	timestampType string
	placeholder   func(n int) string
}

var (
	postgresDialect = dialect{
		timestampType: "TIMESTAMPTZ",
		placeholder:   func(n int) string { return fmt.Sprintf("$%d", n) },
	}
	sqliteDialect = dialect{
		timestampType: "TEXT",
		placeholder:   func(int) string { return "?" },
	}
)

// columns lists every column in insert and select order.
func columns() []string {
	cols := []string{"id", "created_at", "question_set_version", "source_filename"}
	for _, f := range models.Fields {
		cols = append(cols, f.Column)
	}
	return cols
}

func createTableSQL(table string, d dialect) []string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", table)
	b.WriteString("\tid TEXT PRIMARY KEY,\n")
	fmt.Fprintf(&b, "\tcreated_at %s NOT NULL,\n", d.timestampType)
	b.WriteString("\tquestion_set_version TEXT NOT NULL,\n")
	b.WriteString("\tsource_filename TEXT NOT NULL DEFAULT ''")
	for _, f := range models.Fields {
		fmt.Fprintf(&b, ",\n\t%s TEXT NOT NULL DEFAULT ''", f.Column)
	}
	b.WriteString("\n)")

	return []string{
		b.String(),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_created_at_idx ON %s (created_at)", table, table),
	}
}

func insertSQL(table string, d dialect) string {
	cols := columns()
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func selectSQL(table string) string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns(), ", "), table)
}

// values returns the insert arguments for l. createdAt is passed separately
// because each driver stores timestamps differently.
func values(l *models.Lease, createdAt any) []any {
	args := []any{l.ID, createdAt, l.QuestionSetVersion, l.SourceFilename}
	for _, f := range models.Fields {
		args = append(args, *f.Value(l))
	}
	return args
}

func scanTargets(l *models.Lease, createdAt any) []any {
	dest := []any{&l.ID, createdAt, &l.QuestionSetVersion, &l.SourceFilename}
	for _, f := range models.Fields {
		dest = append(dest, f.Value(l))
	}
	return dest
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, s)
}
