package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// identPattern limits model and field names to plain SQL identifiers. Ops are
// built from code, not user input, but identifiers are interpolated into SQL
// and must never carry anything else.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PGExecutor translates ops into SQL against a pgx pool. It is the terminal
// stage of the client pipeline.
type PGExecutor struct {
	pool *pgxpool.Pool
}

func NewPGExecutor(pool *pgxpool.Pool) *PGExecutor {
	return &PGExecutor{pool: pool}
}

func (e *PGExecutor) Exec(ctx context.Context, op *Op) (Rows, error) {
	if !identPattern.MatchString(op.Model) {
		return nil, fmt.Errorf("store: invalid model name %q", op.Model)
	}

	switch op.Action {
	case ActionFindMany:
		return e.find(ctx, op, 0)
	case ActionFindOne:
		return e.find(ctx, op, 1)
	case ActionCreate:
		return e.create(ctx, op)
	case ActionUpdate:
		return e.update(ctx, op)
	case ActionDelete:
		return e.delete(ctx, op)
	case ActionUpsert:
		return e.upsert(ctx, op)
	}
	return nil, fmt.Errorf("store: unknown action %q", op.Action)
}

func (e *PGExecutor) find(ctx context.Context, op *Op, limit int) (Rows, error) {
	where, args, err := whereClause(op.Filter, 1)
	if err != nil {
		return nil, err
	}

	sql := "SELECT * FROM " + op.Model + where
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := e.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("store: %s %s: %w", op.Action, op.Model, err)
	}
	return collectRows(rows)
}

func (e *PGExecutor) create(ctx context.Context, op *Op) (Rows, error) {
	cols, placeholders, args, err := insertColumns(op.Data, 1)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		op.Model, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	rows, err := e.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("store: create %s: %w", op.Model, err)
	}
	return collectRows(rows)
}

func (e *PGExecutor) update(ctx context.Context, op *Op) (Rows, error) {
	if len(op.Data) == 0 {
		return nil, fmt.Errorf("store: update %s: empty payload", op.Model)
	}

	sets := make([]string, 0, len(op.Data))
	args := make([]any, 0, len(op.Data)+len(op.Filter))
	n := 1
	for _, col := range sortedKeys(op.Data) {
		if !identPattern.MatchString(col) {
			return nil, fmt.Errorf("store: invalid field name %q", col)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, op.Data[col])
		n++
	}

	where, whereArgs, err := whereClause(op.Filter, n)
	if err != nil {
		return nil, err
	}
	args = append(args, whereArgs...)

	sql := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", op.Model, strings.Join(sets, ", "), where)

	rows, err := e.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("store: update %s: %w", op.Model, err)
	}
	return collectRows(rows)
}

func (e *PGExecutor) delete(ctx context.Context, op *Op) (Rows, error) {
	where, args, err := whereClause(op.Filter, 1)
	if err != nil {
		return nil, err
	}

	_, err = e.pool.Exec(ctx, "DELETE FROM "+op.Model+where, args...)
	if err != nil {
		return nil, fmt.Errorf("store: delete %s: %w", op.Model, err)
	}
	return nil, nil
}

// upsert inserts filter and payload columns together; the filter keys double
// as the conflict target, so they must form a unique constraint on the model.
func (e *PGExecutor) upsert(ctx context.Context, op *Op) (Rows, error) {
	if len(op.Filter) == 0 {
		return nil, fmt.Errorf("store: upsert %s: empty conflict target", op.Model)
	}

	merged := make(map[string]any, len(op.Filter)+len(op.Data))
	for k, v := range op.Filter {
		merged[k] = v
	}
	for k, v := range op.Data {
		merged[k] = v
	}

	cols, placeholders, args, err := insertColumns(merged, 1)
	if err != nil {
		return nil, err
	}

	conflictCols := sortedKeys(op.Filter)
	updates := make([]string, 0, len(op.Data))
	for _, col := range sortedKeys(op.Data) {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s RETURNING *",
		op.Model,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(conflictCols, ", "),
		strings.Join(updates, ", "))

	rows, err := e.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("store: upsert %s: %w", op.Model, err)
	}
	return collectRows(rows)
}

// whereClause builds "WHERE a = $n AND b = $n+1" in sorted key order, or ""
// for an empty filter.
func whereClause(filter map[string]any, firstArg int) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	conds := make([]string, 0, len(filter))
	args := make([]any, 0, len(filter))
	n := firstArg
	for _, col := range sortedKeys(filter) {
		if !identPattern.MatchString(col) {
			return "", nil, fmt.Errorf("store: invalid field name %q", col)
		}
		conds = append(conds, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, filter[col])
		n++
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func insertColumns(data map[string]any, firstArg int) (cols, placeholders []string, args []any, err error) {
	if len(data) == 0 {
		return nil, nil, nil, fmt.Errorf("store: empty payload")
	}

	n := firstArg
	for _, col := range sortedKeys(data) {
		if !identPattern.MatchString(col) {
			return nil, nil, nil, fmt.Errorf("store: invalid field name %q", col)
		}
		cols = append(cols, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", n))
		args = append(args, data[col])
		n++
	}
	return cols, placeholders, args, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func collectRows(rows pgx.Rows) (Rows, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out Rows
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("store: read row: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate rows: %w", err)
	}
	return out, nil
}
