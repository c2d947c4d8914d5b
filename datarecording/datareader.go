package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sort"
)

// QueryParams narrows down the rows returned by a query.
type QueryParams struct {
	// Where holds the WHERE clause without the "WHERE" keyword, for example
	// "Participant = ? AND Timestep > ?".
	Where string

	// Args holds the arguments for the placeholders in Where.
	Args []any

	// Limit is the maximum number of rows to return. 0 means no limit.
	Limit int

	// Offset is the number of rows to skip. Only used together with Limit.
	Offset int

	// OrderBy is the sort clause without the "ORDER BY" keywords.
	OrderBy string
}

// DataReader reads tables written by a DataRecorder back into structs.
type DataReader interface {
	// MapTable binds a table to the struct type of the sample entry. A table
	// must be mapped before it can be queried.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the mapped tables in sorted order.
	ListTables() []string

	// Query returns pointers to the decoded rows and the number of rows that
	// match the filter regardless of the limit.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	Close() error
}

type sqliteReader struct {
	*sql.DB

	typeMap map[string]reflect.Type
}

// NewReader opens the recording stored in dbFilename.
func NewReader(dbFilename string) (DataReader, error) {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		return nil, fmt.Errorf("datarecording: open %s: %w", dbFilename, err)
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB creates a DataReader over an open database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		DB:      db,
		typeMap: make(map[string]reflect.Type),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	t := reflect.TypeOf(sampleEntry)
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("cannot map table %s to %T", tableName, sampleEntry))
	}

	r.typeMap[tableName] = t
}

func (r *sqliteReader) ListTables() []string {
	tables := make([]string, 0, len(r.typeMap))
	for table := range r.typeMap {
		tables = append(tables, table)
	}

	sort.Strings(tables)

	return tables
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	structType, ok := r.typeMap[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("no mapping found for table: %s", tableName)
	}

	query := "SELECT * FROM " + tableName

	if params.Where != "" {
		query += " WHERE " + params.Where
	}

	if params.OrderBy != "" {
		query += " ORDER BY " + params.OrderBy
	}

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)
		if params.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", params.Offset)
		}
	}

	totalCount, err := r.queryTotalCount(ctx, tableName, params)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx, query, params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err := scanRows(rows, structType)
	if err != nil {
		return nil, 0, fmt.Errorf("datarecording: read %s: %w", tableName, err)
	}

	return results, totalCount, nil
}

func (r *sqliteReader) queryTotalCount(
	ctx context.Context,
	tableName string,
	params QueryParams,
) (int, error) {
	var totalCount int

	countQuery := "SELECT COUNT(*) FROM " + tableName

	if params.Where != "" {
		countQuery += " WHERE " + params.Where
	}

	err := r.DB.QueryRowContext(ctx, countQuery, params.Args...).
		Scan(&totalCount)
	if err != nil {
		return 0, err
	}

	return totalCount, nil
}

// scanRows decodes every row into a new struct. Columns without a matching
// field are discarded.
func scanRows(rows *sql.Rows, structType reflect.Type) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fieldMap := make(map[string]int)
	for i := 0; i < structType.NumField(); i++ {
		fieldMap[structType.Field(i).Name] = i
	}

	var results []any

	for rows.Next() {
		structPtr := reflect.New(structType)
		structVal := structPtr.Elem()
		scanTargets := make([]any, len(columns))

		for i, colName := range columns {
			if fieldIdx, ok := fieldMap[colName]; ok {
				scanTargets[i] = structVal.Field(fieldIdx).Addr().Interface()
			} else {
				var placeholder any
				scanTargets[i] = &placeholder
			}
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}

		results = append(results, structPtr.Interface())
	}

	return results, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.DB.Close()
}
