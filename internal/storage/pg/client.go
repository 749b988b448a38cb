package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"prikaz/internal/storage"
)

// Client — Postgres-реализация storage.Client. Таблица на сущность:
// типизированные системные колонки + бизнес-payload в data jsonb.
// Уникальность арбитрирует сам индекс: 23505 маппится в UniqueError.
type Client struct {
	db  *sql.DB
	log *logrus.Entry
}

func NewClient(db *sql.DB) *Client {
	return &Client{db: db, log: logrus.WithField("component", "pg.client")}
}

const selectCols = `"id", "tenant_id", "is_active", "created_at", "updated_at", "created_by", "updated_by", "data"`

func (c *Client) Create(ctx context.Context, entity string, data map[string]any) (map[string]any, error) {
	tbl := tableName(entity)
	now := time.Now().UTC()

	payload, tenantID, isActive, createdBy, updatedBy := splitSystem(data)
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("pg create %s: marshal payload: %w", entity, err)
	}

	q := fmt.Sprintf(`insert into %s (id, tenant_id, is_active, created_at, updated_at, created_by, updated_by, data)
values ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
returning %s`, sqlIdent(tbl), selectCols)

	row := c.db.QueryRowContext(ctx, q,
		ulid.Make().String(), tenantID, isActive, now, now, createdBy, updatedBy, string(raw))
	rec, err := scanRecord(row)
	if err != nil {
		return nil, c.mapErr(tbl, err)
	}
	return rec, nil
}

func (c *Client) FindFirst(ctx context.Context, entity string, where storage.Where) (map[string]any, error) {
	tbl := tableName(entity)
	var args []any
	cond, err := whereSQL(where, &args)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`select %s from %s where %s order by created_at asc, id asc limit 1`,
		selectCols, sqlIdent(tbl), cond)

	rec, err := scanRecord(c.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pg find %s: %w", entity, err)
	}
	return rec, nil
}

func (c *Client) FindMany(ctx context.Context, entity string, query storage.Query) ([]map[string]any, error) {
	tbl := tableName(entity)
	var args []any
	cond, err := whereSQL(query.Where, &args)
	if err != nil {
		return nil, err
	}

	order := "created_at asc, id asc"
	if query.OrderBy != "" {
		expr, err := fieldExpr(query.OrderBy)
		if err != nil {
			return nil, err
		}
		dir := "asc"
		if query.Desc {
			dir = "desc"
		}
		order = fmt.Sprintf("%s %s nulls last, id asc", expr, dir)
	}

	q := fmt.Sprintf(`select %s from %s where %s order by %s`, selectCols, sqlIdent(tbl), cond, order)
	if query.Take > 0 {
		q += " limit " + strconv.Itoa(query.Take)
	}
	if query.Skip > 0 {
		q += " offset " + strconv.Itoa(query.Skip)
	}

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pg list %s: %w", entity, err)
	}
	defer rows.Close()

	out := make([]map[string]any, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("pg list %s: %w", entity, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (c *Client) Update(ctx context.Context, entity string, id string, data map[string]any) (map[string]any, error) {
	tbl := tableName(entity)

	payload, _, _, _, updatedBy := splitSystem(data)
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("pg update %s: marshal payload: %w", entity, err)
	}

	// isActive — единственное системное поле, которое меняется после
	// создания (мягкое удаление); nil оставляет колонку как есть
	var isActive any
	if v, ok := data["isActive"].(bool); ok {
		isActive = v
	}

	q := fmt.Sprintf(`update %s set
  data = data || $1::jsonb,
  is_active = coalesce($2, is_active),
  updated_by = coalesce($3, updated_by),
  updated_at = $4
where id = $5
returning %s`, sqlIdent(tbl), selectCols)

	row := c.db.QueryRowContext(ctx, q, string(raw), isActive, updatedBy, time.Now().UTC(), id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, c.mapErr(tbl, err)
	}
	return rec, nil
}

func (c *Client) Count(ctx context.Context, entity string, where storage.Where) (int64, error) {
	tbl := tableName(entity)
	var args []any
	cond, err := whereSQL(where, &args)
	if err != nil {
		return 0, err
	}
	var n int64
	q := fmt.Sprintf(`select count(*) from %s where %s`, sqlIdent(tbl), cond)
	if err := c.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("pg count %s: %w", entity, err)
	}
	return n, nil
}

// mapErr переводит нарушение уникального индекса в UniqueError; имя поля
// восстанавливаем из имени индекса <table>_<field>_uq.
func (c *Client) mapErr(tbl string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		field := strings.TrimSuffix(strings.TrimPrefix(pgErr.ConstraintName, tbl+"_"), "_uq")
		return &storage.UniqueError{Field: field}
	}
	return err
}

// ==== построение записи ====

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (map[string]any, error) {
	var (
		id                             string
		tenantID, createdBy, updatedBy sql.NullString
		isActive                       bool
		createdAt, updatedAt           time.Time
		raw                            []byte
	)
	if err := row.Scan(&id, &tenantID, &isActive, &createdAt, &updatedAt, &createdBy, &updatedBy, &raw); err != nil {
		return nil, err
	}

	rec := make(map[string]any)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal data: %w", err)
		}
	}
	rec["id"] = id
	rec["isActive"] = isActive
	rec["createdAt"] = createdAt.UTC().Format(time.RFC3339)
	rec["updatedAt"] = updatedAt.UTC().Format(time.RFC3339)
	rec["tenantId"] = nullable(tenantID)
	rec["createdBy"] = nullable(createdBy)
	rec["updatedBy"] = nullable(updatedBy)
	return rec, nil
}

func nullable(s sql.NullString) any {
	if s.Valid {
		return s.String
	}
	return nil
}

// splitSystem отделяет системные ключи записи от бизнес-payload'а.
func splitSystem(data map[string]any) (payload map[string]any, tenantID, isActive, createdBy, updatedBy any) {
	payload = make(map[string]any, len(data))
	isActive = true
	for k, v := range data {
		switch k {
		case "id", "createdAt", "updatedAt":
			// управляются клиентом хранилища
		case "tenantId":
			tenantID = v
		case "isActive":
			if b, ok := v.(bool); ok {
				isActive = b
			}
		case "createdBy":
			createdBy = v
		case "updatedBy":
			updatedBy = v
		default:
			payload[k] = v
		}
	}
	return payload, tenantID, isActive, createdBy, updatedBy
}

// ==== where → SQL ====

// fieldExpr: системные поля — типизированные колонки, остальное — data->>'f'.
// Имена полей приходят из зарегистрированных схем, но на всякий случай
// пропускаем только безопасные идентификаторы.
func fieldExpr(field string) (string, error) {
	switch field {
	case "id":
		return `"id"`, nil
	case "tenantId":
		return `"tenant_id"`, nil
	case "isActive":
		return `"is_active"`, nil
	case "createdAt":
		return `"created_at"`, nil
	case "updatedAt":
		return `"updated_at"`, nil
	case "createdBy":
		return `"created_by"`, nil
	case "updatedBy":
		return `"updated_by"`, nil
	}
	if !identOK(field) {
		return "", fmt.Errorf("unsafe field name %q", field)
	}
	return fmt.Sprintf("data->>'%s'", field), nil
}

func isDataExpr(expr string) bool { return strings.HasPrefix(expr, "data->>") }

func whereSQL(where storage.Where, args *[]any) (string, error) {
	if len(where) == 0 {
		return "true", nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conds []string
	for _, key := range keys {
		cond := where[key]
		if key == "OR" {
			subs, ok := cond.([]storage.Where)
			if !ok {
				return "", fmt.Errorf("OR condition must hold []Where")
			}
			var parts []string
			for _, sub := range subs {
				s, err := whereSQL(sub, args)
				if err != nil {
					return "", err
				}
				parts = append(parts, "("+s+")")
			}
			if len(parts) > 0 {
				conds = append(conds, "("+strings.Join(parts, " or ")+")")
			}
			continue
		}

		expr, err := fieldExpr(key)
		if err != nil {
			return "", err
		}

		if ops, isOps := cond.(map[string]any); isOps {
			opSQL, err := opsSQL(expr, ops, args)
			if err != nil {
				return "", fmt.Errorf("field %s: %w", key, err)
			}
			conds = append(conds, opSQL...)
			continue
		}

		if cond == nil {
			conds = append(conds, expr+" is null")
			continue
		}
		conds = append(conds, expr+" = "+placeholder(args, argValue(expr, cond)))
	}
	return strings.Join(conds, " and "), nil
}

func opsSQL(expr string, ops map[string]any, args *[]any) ([]string, error) {
	names := make([]string, 0, len(ops))
	for op := range ops {
		names = append(names, op)
	}
	sort.Strings(names)

	var out []string
	for _, op := range names {
		want := ops[op]
		switch op {
		case "contains":
			s, _ := want.(string)
			out = append(out, expr+" ilike "+placeholder(args, "%"+s+"%"))
		case "in":
			items, err := toSlice(want)
			if err != nil {
				return nil, err
			}
			if len(items) == 0 {
				out = append(out, "false")
				continue
			}
			ph := make([]string, 0, len(items))
			for _, it := range items {
				ph = append(ph, placeholder(args, argValue(expr, it)))
			}
			out = append(out, expr+" in ("+strings.Join(ph, ", ")+")")
		case "not":
			if want == nil {
				out = append(out, expr+" is not null")
				continue
			}
			out = append(out, expr+" <> "+placeholder(args, argValue(expr, want)))
		case "gt", "gte", "lt", "lte":
			sym := map[string]string{"gt": ">", "gte": ">=", "lt": "<", "lte": "<="}[op]
			// числовые сравнения по jsonb-полю требуют numeric-каста
			if f, ok := toFloat(want); ok && isDataExpr(expr) {
				out = append(out, "("+expr+")::numeric "+sym+" "+placeholder(args, f))
				continue
			}
			out = append(out, expr+" "+sym+" "+placeholder(args, argValue(expr, want)))
		default:
			return nil, fmt.Errorf("unknown operator %q", op)
		}
	}
	return out, nil
}

func placeholder(args *[]any, v any) string {
	*args = append(*args, v)
	return "$" + strconv.Itoa(len(*args))
}

// argValue приводит значение к форме сравнения: jsonb ->> отдаёт текст,
// поэтому для data-полей аргумент тоже текстовый.
func argValue(expr string, v any) any {
	if !isDataExpr(expr) {
		return v
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func toSlice(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case []string:
		out := make([]any, 0, len(t))
		for _, s := range t {
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("'in' expects a list, got %T", v)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}
