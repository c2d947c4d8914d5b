// Package datarecording stores what happens during a coupled run in SQLite
// databases: progress records of the coupling schemes and checkpoints of
// their state.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DefaultBatchSize is the number of buffered rows that triggers a flush.
const DefaultBatchSize = 10000

// DataRecorder buffers rows of flat structs and writes them in batches into
// the tables of a SQLite database.
type DataRecorder interface {
	// CreateTable creates a table with one typed column per field of the
	// sample entry. It panics if the entry cannot be stored as a row.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table created before. It panics if
	// the entry does not fit the table.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all tables, sorted.
	ListTables() []string

	// Flush writes all buffered rows in one transaction.
	Flush() error

	// Close flushes and closes the database.
	Close() error
}

// Open creates a recorder that writes to path.sqlite3. An empty path picks a
// unique name. An existing file is never appended to.
func Open(path string) (DataRecorder, error) {
	if path == "" {
		path = "couple_recording_" + xid.New().String()
	}

	filename := path + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("datarecording: file %s already exists",
			filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("datarecording: open %s: %w", filename, err)
	}

	return NewWithDB(db), nil
}

// NewWithDB creates a recorder on an open database. The recorder flushes at
// exit unless it has been closed.
func NewWithDB(db *sql.DB) DataRecorder {
	r := &sqliteRecorder{
		db:        db,
		batchSize: DefaultBatchSize,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { r.Flush() })

	return r
}

// columnTypes maps the field kinds that can be recorded to SQLite column
// types.
var columnTypes = map[reflect.Kind]string{
	reflect.Bool:    "BOOLEAN",
	reflect.Int:     "INTEGER",
	reflect.Int8:    "INTEGER",
	reflect.Int16:   "INTEGER",
	reflect.Int32:   "INTEGER",
	reflect.Int64:   "INTEGER",
	reflect.Uint8:   "INTEGER",
	reflect.Uint16:  "INTEGER",
	reflect.Uint32:  "INTEGER",
	reflect.Float32: "REAL",
	reflect.Float64: "REAL",
	reflect.String:  "TEXT",
}

type table struct {
	entryType reflect.Type
	insert    string
	rows      [][]any
}

type sqliteRecorder struct {
	db *sql.DB

	tables    map[string]*table
	batchSize int
	pending   int
	err       error
	closed    bool
}

// tableSchema returns the column definitions for the entry type.
func tableSchema(entry any) ([]string, error) {
	if reflect.TypeOf(entry).Kind() != reflect.Struct {
		return nil, fmt.Errorf("entry of type %T is not a struct", entry)
	}

	var columns []string

	// Unexported fields are skipped by structs, both here and in Values.
	for _, f := range structs.Fields(entry) {
		sqlType, ok := columnTypes[f.Kind()]
		if !ok {
			return nil, fmt.Errorf("field %s of kind %s cannot be recorded",
				f.Name(), f.Kind())
		}

		columns = append(columns, f.Name()+" "+sqlType)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("entry of type %T has no exported fields",
			entry)
	}

	return columns, nil
}

func (r *sqliteRecorder) CreateTable(tableName string, sampleEntry any) {
	if _, exists := r.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	columns, err := tableSchema(sampleEntry)
	if err != nil {
		panic(fmt.Errorf("table %s: %w", tableName, err))
	}

	createSQL := "CREATE TABLE " + tableName +
		" (\n\t" + strings.Join(columns, ",\n\t") + "\n);"
	if _, err := r.db.Exec(createSQL); err != nil {
		panic(fmt.Errorf("create table %s: %w", tableName, err))
	}

	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", len(columns)), ", ")

	r.tables[tableName] = &table{
		entryType: reflect.TypeOf(sampleEntry),
		insert: "INSERT INTO " + tableName +
			" VALUES (" + placeholders + ")",
	}
}

func (r *sqliteRecorder) InsertData(tableName string, entry any) {
	t, exists := r.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.entryType {
		panic(fmt.Sprintf("entry of type %T does not fit table %s",
			entry, tableName))
	}

	t.rows = append(t.rows, structs.Values(entry))

	r.pending++
	if r.pending >= r.batchSize && r.err == nil {
		r.err = r.Flush()
	}
}

func (r *sqliteRecorder) ListTables() []string {
	tables := make([]string, 0, len(r.tables))
	for name := range r.tables {
		tables = append(tables, name)
	}

	sort.Strings(tables)

	return tables
}

// Flush writes the buffered rows. A failed flush keeps the rows for the next
// one. After a failed automatic flush, rows are only written by explicit
// calls to Flush or Close.
func (r *sqliteRecorder) Flush() error {
	if r.pending == 0 || r.closed {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("datarecording: begin flush: %w", err)
	}

	for _, name := range r.ListTables() {
		if err := r.flushTable(tx, name); err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("datarecording: commit flush: %w", err)
	}

	for _, t := range r.tables {
		t.rows = nil
	}

	r.pending = 0
	r.err = nil

	return nil
}

func (r *sqliteRecorder) flushTable(tx *sql.Tx, name string) error {
	t := r.tables[name]
	if len(t.rows) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(t.insert)
	if err != nil {
		return fmt.Errorf("datarecording: prepare insert into %s: %w",
			name, err)
	}
	defer stmt.Close()

	for _, row := range t.rows {
		if _, err := stmt.Exec(row...); err != nil {
			return fmt.Errorf("datarecording: insert into %s: %w", name, err)
		}
	}

	return nil
}

func (r *sqliteRecorder) Close() error {
	if r.closed {
		return nil
	}

	err := r.Flush()
	r.closed = true

	return errors.Join(err, r.db.Close())
}
