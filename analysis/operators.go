package analysis

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// OperatorDB is a read-only SQLite lookup of mobile-operator ownership by
// number prefix, table prefixes(prefix TEXT, operator TEXT). Optional: when
// no database is configured the Operator column is simply absent.
type OperatorDB struct {
	db *sql.DB
}

func OpenOperatorDB(path string) (*OperatorDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("open operator DB at %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open operator DB at %s: %w", path, err)
	}
	return &OperatorDB{db: db}, nil
}

func (o *OperatorDB) Close() error { return o.db.Close() }

// Lookup returns the operator owning the longest prefix of a canonical
// number.
func (o *OperatorDB) Lookup(canonical string) (string, bool) {
	if canonical == "" {
		return "", false
	}
	const q = `
        SELECT operator
          FROM prefixes
         WHERE ? LIKE prefix || '%'
         ORDER BY LENGTH(prefix) DESC
         LIMIT 1`
	var operator string
	if err := o.db.QueryRow(q, canonical).Scan(&operator); err != nil {
		return "", false
	}
	return operator, true
}

// Annotate fills the Operator field of each record that has a match.
func (o *OperatorDB) Annotate(records []Record) {
	for i := range records {
		if op, ok := o.Lookup(records[i].Canonical); ok {
			records[i].Operator = op
		}
	}
}
