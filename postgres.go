package paranoia

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConnector is a PostgreSQL/CockroachDB implementation of the
// Repository interface over pgx. Columns are inferred from db struct tags;
// the first tagged field is the primary key. When the context carries a
// transaction opened by TransactionManager, statements run inside it.
type PostgresConnector[T any, ID comparable] struct {
	pool      *pgxpool.Pool
	tableName string
	getID     func(*T) ID
	columns   []string
}

// NewPostgresConnPool opens a pgx connection pool.
func NewPostgresConnPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, dsn)
}

func sanitizeIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_') {
			return fmt.Errorf("invalid character in identifier: %c", r)
		}
	}
	return nil
}

func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

// NewPostgresConnector builds a connector for table tableName.
func NewPostgresConnector[T any, ID comparable](pool *pgxpool.Pool, tableName string, getID func(*T) ID) (*PostgresConnector[T, ID], error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	if getID == nil {
		return nil, fmt.Errorf("getID function cannot be nil")
	}
	if err := sanitizeIdentifier(tableName); err != nil {
		return nil, fmt.Errorf("invalid table name: %w", err)
	}

	columns, err := getColumns[T]()
	if err != nil {
		return nil, err
	}

	for _, col := range columns {
		if err := sanitizeIdentifier(col); err != nil {
			return nil, fmt.Errorf("invalid column name '%s': %w", col, err)
		}
	}

	return &PostgresConnector[T, ID]{
		pool:      pool,
		tableName: tableName,
		getID:     getID,
		columns:   columns,
	}, nil
}

func getColumns[T any]() ([]string, error) {
	typ := typeOf[T]()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("record type must be a struct")
	}

	var columns []string
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("db")
		if tag != "" && tag != "-" {
			columns = append(columns, tag)
		}
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns found")
	}

	return columns, nil
}

func joinQuotedColumns(columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdentifier(col)
	}
	return strings.Join(quoted, ", ")
}

func buildPlaceholders(n int) string {
	placeholders := make([]string, n)
	for i := 0; i < n; i++ {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(placeholders, ", ")
}

// q returns the transaction carried by the context, or the pool.
func (r *PostgresConnector[T, ID]) q(ctx context.Context) Queryable {
	if tx, ok := getTxFromContext(ctx); ok {
		return tx
	}
	return r.pool
}

func (r *PostgresConnector[T, ID]) getValues(item *T) ([]any, error) {
	v := reflect.ValueOf(item).Elem()
	typ := v.Type()
	var values []any
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("db")
		if tag != "" && tag != "-" {
			values = append(values, v.Field(i).Interface())
		}
	}
	if len(values) != len(r.columns) {
		return nil, fmt.Errorf("number of values does not match the number of columns")
	}

	return values, nil
}

func (r *PostgresConnector[T, ID]) getScanDestinations(ptr *T) ([]any, error) {
	v := reflect.ValueOf(ptr).Elem()
	typ := v.Type()
	var dests []any
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("db")
		if tag != "" && tag != "-" {
			dests = append(dests, v.Field(i).Addr().Interface())
		}
	}
	if len(dests) != len(r.columns) {
		return nil, fmt.Errorf("number of values does not match the number of columns")
	}
	return dests, nil
}

func (r *PostgresConnector[T, ID]) Create(ctx context.Context, item *T) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}
	values, err := r.getValues(item)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(r.tableName),
		joinQuotedColumns(r.columns),
		buildPlaceholders(len(r.columns)),
	)
	_, err = r.q(ctx).Exec(ctx, query, values...)
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return ErrItemAlreadyExists
	}
	return err
}

func (r *PostgresConnector[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	var item T
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		joinQuotedColumns(r.columns),
		quoteIdentifier(r.tableName),
		quoteIdentifier(r.columns[0]),
	)
	row := r.q(ctx).QueryRow(ctx, query, id)
	dests, err := r.getScanDestinations(&item)
	if err != nil {
		return nil, err
	}

	if err := row.Scan(dests...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	return &item, nil
}

func (r *PostgresConnector[T, ID]) Query(ctx context.Context, filter *Filter) ([]T, error) {
	query, args, err := r.queryBuilder(filter)
	if err != nil {
		return nil, err
	}
	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		var item T
		dests, err := r.getScanDestinations(&item)
		if err != nil {
			return nil, err
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	return results, rows.Err()
}

func (r *PostgresConnector[T, ID]) Update(ctx context.Context, item *T) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}
	values, err := r.getValues(item)
	if err != nil {
		return err
	}

	var setClause []string
	numCols := len(r.columns)
	for i := 1; i < numCols; i++ {
		setClause = append(setClause, fmt.Sprintf("%s = $%d", quoteIdentifier(r.columns[i]), i))
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		quoteIdentifier(r.tableName),
		strings.Join(setClause, ", "),
		quoteIdentifier(r.columns[0]),
		numCols,
	)

	id := r.getID(item)
	args := append(values[1:], id)
	ct, err := r.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		return err
	}

	if ct.RowsAffected() == 0 {
		return ErrNoUpdateItem
	}

	return nil
}

// UpdateField writes a single column. This is the statement the soft delete
// engine issues for every marker change.
func (r *PostgresConnector[T, ID]) UpdateField(ctx context.Context, id ID, column string, value any) error {
	if err := sanitizeIdentifier(column); err != nil {
		return fmt.Errorf("invalid column name '%s': %w", column, err)
	}

	query := fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s = $2",
		quoteIdentifier(r.tableName),
		quoteIdentifier(column),
		quoteIdentifier(r.columns[0]),
	)

	ct, err := r.q(ctx).Exec(ctx, query, value, id)
	if err != nil {
		return err
	}

	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (r *PostgresConnector[T, ID]) Delete(ctx context.Context, id ID) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		quoteIdentifier(r.tableName),
		quoteIdentifier(r.columns[0]),
	)

	ct, err := r.q(ctx).Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if ct.RowsAffected() == 0 {
		return ErrNoDeleteItem
	}

	return nil
}

func (r *PostgresConnector[T, ID]) Count(ctx context.Context, filter *Filter) (int64, error) {
	whereClause, args, err := buildWhereClause(filter)
	if err != nil {
		return 0, err
	}

	query := "SELECT COUNT(*) FROM " + quoteIdentifier(r.tableName) + whereClause

	var count int64
	err = r.q(ctx).QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *PostgresConnector[T, ID]) Exists(ctx context.Context, id ID) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1)",
		quoteIdentifier(r.tableName),
		quoteIdentifier(r.columns[0]),
	)

	var exists bool
	err := r.q(ctx).QueryRow(ctx, query, id).Scan(&exists)
	return exists, err
}

func (r *PostgresConnector[T, ID]) queryBuilder(filter *Filter) (string, []any, error) {
	whereClause, args, err := buildWhereClause(filter)
	if err != nil {
		return "", nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s",
		joinQuotedColumns(r.columns),
		quoteIdentifier(r.tableName),
		whereClause,
	)

	return query, args, nil
}

// buildWhereClause renders filter conditions into SQL. Unary null operators
// consume no placeholder; binary operators are numbered by argument position.
func buildWhereClause(filter *Filter) (string, []any, error) {
	if filter == nil || len(filter.Conditions) == 0 {
		return "", nil, nil
	}

	var parts []string
	var args []any
	for _, condition := range filter.Conditions {
		if err := sanitizeIdentifier(condition.Field); err != nil {
			return "", nil, fmt.Errorf("invalid column name '%s': %w", condition.Field, err)
		}
		switch condition.Operator {
		case OpIsNull, OpIsNotNull:
			parts = append(parts, fmt.Sprintf("%s %s", quoteIdentifier(condition.Field), condition.Operator))
		case OpEqual, OpNotEqual, OpGreaterThan, OpLessThan, OpGreaterThanEqual, OpLessThanEqual:
			args = append(args, condition.Value)
			parts = append(parts, fmt.Sprintf("%s %s $%d", quoteIdentifier(condition.Field), condition.Operator, len(args)))
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", condition.Operator)
		}
	}

	return " WHERE " + strings.Join(parts, " AND "), args, nil
}
