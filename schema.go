package paranoia

import (
	"fmt"
	"reflect"
	"strings"
)

// ColumnType represents SQL column data types.
type ColumnType string

const (
	ColumnTypeInteger   ColumnType = "INTEGER"
	ColumnTypeBigInt    ColumnType = "BIGINT"
	ColumnTypeText      ColumnType = "TEXT"
	ColumnTypeBoolean   ColumnType = "BOOLEAN"
	ColumnTypeTimestamp ColumnType = "TIMESTAMP"
	ColumnTypeFloat     ColumnType = "FLOAT8"
)

// ColumnDef defines a table column.
type ColumnDef struct {
	Name         string
	Type         ColumnType
	PrimaryKey   bool
	NotNull      bool
	Unique       bool
	DefaultValue string
}

// IndexDef defines a table index.
type IndexDef struct {
	Name    string
	Columns []string
	Unique  bool
	Where   string // partial index condition
}

// TableDef defines a complete table schema.
type TableDef struct {
	Name    string
	Columns []ColumnDef
	Indexes []IndexDef
}

// InferTableDef infers a table definition from record type T. The marker
// column named by cfg is forced to the shape its scheme requires: a nullable
// TIMESTAMP, or a BOOLEAN defaulting to false. A partial index over the live
// rows is added, since live-only is the scope nearly every query uses.
func InferTableDef[T any](tableName string, cfg Config) (*TableDef, error) {
	typ := typeOf[T]()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("type must be a struct")
	}

	tableDef := &TableDef{Name: tableName}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		dbTag := field.Tag.Get("db")
		if dbTag == "" || dbTag == "-" {
			continue
		}

		colDef := ColumnDef{
			Name:       dbTag,
			Type:       inferColumnType(field.Type),
			PrimaryKey: i == 0, // first tagged field is assumed to be primary key
			NotNull:    true,
		}

		if field.Tag.Get("unique") == "true" {
			colDef.Unique = true
		}
		if field.Tag.Get("nullable") == "true" {
			colDef.NotNull = false
		}
		if defaultVal := field.Tag.Get("default"); defaultVal != "" {
			colDef.DefaultValue = defaultVal
		}

		if dbTag == cfg.Column {
			colDef = markerColumnDef(cfg)
		}

		tableDef.Columns = append(tableDef.Columns, colDef)
	}

	tableDef.Indexes = append(tableDef.Indexes, liveIndexDef(tableName, cfg))

	return tableDef, nil
}

// markerColumnDef returns the column shape the marker scheme requires.
func markerColumnDef(cfg Config) ColumnDef {
	if cfg.ColumnType == SchemeFlag {
		return ColumnDef{
			Name:         cfg.Column,
			Type:         ColumnTypeBoolean,
			NotNull:      true,
			DefaultValue: "false",
		}
	}
	return ColumnDef{
		Name:    cfg.Column,
		Type:    ColumnTypeTimestamp,
		NotNull: false,
	}
}

// liveIndexDef builds a partial index covering only live rows.
func liveIndexDef(tableName string, cfg Config) IndexDef {
	where := fmt.Sprintf(`"%s" IS NULL`, cfg.Column)
	if cfg.ColumnType == SchemeFlag {
		where = fmt.Sprintf(`NOT "%s"`, cfg.Column)
	}
	return IndexDef{
		Name:    fmt.Sprintf("idx_%s_live", tableName),
		Columns: []string{cfg.Column},
		Where:   where,
	}
}

// inferColumnType maps Go types to SQL column types.
func inferColumnType(t reflect.Type) ColumnType {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int32:
		return ColumnTypeInteger
	case reflect.Int64:
		return ColumnTypeBigInt
	case reflect.String:
		return ColumnTypeText
	case reflect.Bool:
		return ColumnTypeBoolean
	case reflect.Float32, reflect.Float64:
		return ColumnTypeFloat
	default:
		if t.String() == "time.Time" {
			return ColumnTypeTimestamp
		}
		return ColumnTypeText
	}
}

// GenerateCreateTableSQL generates CREATE TABLE SQL from a table definition.
func GenerateCreateTableSQL(def *TableDef) string {
	var parts []string

	for _, col := range def.Columns {
		colDef := fmt.Sprintf(`"%s" %s`, col.Name, col.Type)

		if col.PrimaryKey {
			colDef += " PRIMARY KEY"
		}
		if col.NotNull && !col.PrimaryKey {
			colDef += " NOT NULL"
		}
		if col.Unique && !col.PrimaryKey {
			colDef += " UNIQUE"
		}
		if col.DefaultValue != "" {
			colDef += " DEFAULT " + col.DefaultValue
		}

		parts = append(parts, colDef)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS \"%s\" (\n  %s\n)",
		def.Name,
		strings.Join(parts, ",\n  "),
	)
}

// GenerateCreateIndexSQL generates CREATE INDEX SQL from an index definition.
func GenerateCreateIndexSQL(tableName string, idx *IndexDef) string {
	uniqueClause := ""
	if idx.Unique {
		uniqueClause = "UNIQUE "
	}

	columns := make([]string, len(idx.Columns))
	for i, col := range idx.Columns {
		columns[i] = fmt.Sprintf(`"%s"`, col)
	}

	sql := fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS \"%s\" ON \"%s\" (%s)",
		uniqueClause,
		idx.Name,
		tableName,
		strings.Join(columns, ", "),
	)

	if idx.Where != "" {
		sql += " WHERE " + idx.Where
	}

	return sql
}

// GenerateDropTableSQL generates DROP TABLE SQL.
func GenerateDropTableSQL(tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS \"%s\" CASCADE", tableName)
}
