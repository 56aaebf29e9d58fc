// Package datarecording stores simulation statistics in SQLite databases.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a new table whose columns are the fields of the
	// sample entry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all the tables, sorted.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()

	// Close flushes and closes the database.
	Close() error
}

const defaultBatchSize = 100000

// New creates a DataRecorder that writes into path.sqlite3. An empty path
// picks a unique file name.
func New(path string) DataRecorder {
	db, err := createDB(path)
	if err != nil {
		panic(fmt.Sprintf("DataRecorder.New: %v", err))
	}

	return NewWithDB(db)
}

// NewWithDB creates a new DataRecorder with a given database.
func NewWithDB(db *sql.DB) DataRecorder {
	r := &sqliteRecorder{
		db:        db,
		batchSize: defaultBatchSize,
		tables:    make(map[string]*tableBuffer),
	}

	atexit.Register(func() { r.Flush() })

	return r
}

func createDB(path string) (*sql.DB, error) {
	if path == "" {
		path = "attila_stats_" + xid.New().String()
	}

	filename := path + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	return db, nil
}

// tableBuffer holds the entries of a table that are not written yet.
type tableBuffer struct {
	schema  *tableSchema
	pending []any
}

type sqliteRecorder struct {
	db        *sql.DB
	tables    map[string]*tableBuffer
	batchSize int
	buffered  int
}

func (r *sqliteRecorder) CreateTable(tableName string, sampleEntry any) {
	if err := r.createTable(tableName, sampleEntry); err != nil {
		panic(fmt.Sprintf("DataRecorder.CreateTable: %v", err))
	}
}

func (r *sqliteRecorder) createTable(name string, sample any) error {
	if _, exists := r.tables[name]; exists {
		return fmt.Errorf("table %s already exists", name)
	}

	schema, err := newTableSchema(name, sample)
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(schema.createSQL()); err != nil {
		return fmt.Errorf("creating table %s: %w", name, err)
	}

	r.tables[name] = &tableBuffer{schema: schema}

	return nil
}

func (r *sqliteRecorder) InsertData(tableName string, entry any) {
	buf, exists := r.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("DataRecorder.InsertData: table %s does not exist",
			tableName))
	}

	if !buf.schema.matches(entry) {
		panic(fmt.Sprintf("DataRecorder.InsertData: entry of type %T "+
			"does not match table %s", entry, tableName))
	}

	buf.pending = append(buf.pending, entry)

	r.buffered++
	if r.buffered >= r.batchSize {
		r.Flush()
	}
}

func (r *sqliteRecorder) ListTables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *sqliteRecorder) Flush() {
	if err := r.flush(); err != nil {
		panic(fmt.Sprintf("DataRecorder.Flush: %v", err))
	}
}

// flush writes every pending entry in one transaction. Nothing is written if
// any insert fails.
func (r *sqliteRecorder) flush() error {
	if r.buffered == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	for _, name := range r.ListTables() {
		if err := writeTable(tx, r.tables[name]); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	for _, buf := range r.tables {
		buf.pending = nil
	}

	r.buffered = 0

	return nil
}

func writeTable(tx *sql.Tx, buf *tableBuffer) error {
	if len(buf.pending) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(buf.schema.insertSQL())
	if err != nil {
		return fmt.Errorf("preparing insert into %s: %w", buf.schema.name, err)
	}
	defer stmt.Close()

	for _, entry := range buf.pending {
		if _, err := stmt.Exec(structs.Values(entry)...); err != nil {
			return fmt.Errorf("inserting into %s: %w", buf.schema.name, err)
		}
	}

	return nil
}

func (r *sqliteRecorder) Close() error {
	if err := r.flush(); err != nil {
		return err
	}

	return r.db.Close()
}
