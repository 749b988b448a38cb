package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"prikaz/internal/schema"
)

var reserved = map[string]struct{}{
	"user": {}, "select": {}, "table": {}, "insert": {}, "update": {}, "delete": {},
	"where": {}, "join": {}, "group": {}, "order": {}, "limit": {}, "offset": {},
	"primary": {}, "foreign": {}, "key": {}, "constraint": {}, "default": {},
	"from": {}, "into": {}, "values": {}, "unique": {}, "index": {}, "create": {},
	"drop": {}, "alter": {}, "schema": {}, "grant": {}, "revoke": {},
}

func isReserved(s string) bool { _, ok := reserved[strings.ToLower(s)]; return ok }

// tableName: ключ сущности в нижнем регистре, keyword'ы защищаем префиксом
func tableName(entity string) string {
	t := strings.ToLower(entity)
	if isReserved(t) {
		t = "e_" + t
	}
	return t
}

func sqlIdent(s string) string { return `"` + strings.ToLower(s) + `"` }

// GenerateDDL возвращает карту table -> idempotent SQL DDL.
// Раскладка: типизированные системные колонки + бизнес-payload в data jsonb.
// Уникальные ограничения — частичные expression-индексы по активным записям,
// в скоупе тенанта (nil-тенант участвует как пустая строка).
func GenerateDDL(defs []*schema.EntityDefinition) (map[string]string, error) {
	out := make(map[string]string, len(defs))

	for _, def := range defs {
		if def == nil || def.Name == "" {
			return nil, fmt.Errorf("ddl: definition without a name")
		}
		tbl := tableName(def.StorageKey())
		var sb strings.Builder

		fmt.Fprintf(&sb, "create table if not exists %s (\n", sqlIdent(tbl))
		sb.WriteString(`  "id" text primary key,` + "\n")
		sb.WriteString(`  "tenant_id" text null,` + "\n")
		sb.WriteString(`  "is_active" boolean not null default true,` + "\n")
		sb.WriteString(`  "created_at" timestamp with time zone not null,` + "\n")
		sb.WriteString(`  "updated_at" timestamp with time zone not null,` + "\n")
		sb.WriteString(`  "created_by" text null,` + "\n")
		sb.WriteString(`  "updated_by" text null,` + "\n")
		sb.WriteString(`  "data" jsonb not null default '{}'::jsonb` + "\n")
		sb.WriteString(");\n")

		fmt.Fprintf(&sb, "create index if not exists %s_tenant_ix on %s (coalesce(tenant_id, ''));\n",
			tbl, sqlIdent(tbl))

		for _, field := range def.TenantRules.UniqueConstraints {
			f := def.FieldByName(field)
			if f == nil {
				return nil, fmt.Errorf("ddl %s: unique constraint on undeclared field %q", def.Name, field)
			}
			if !identOK(field) {
				return nil, fmt.Errorf("ddl %s: unsafe field name %q", def.Name, field)
			}
			fmt.Fprintf(&sb,
				"create unique index if not exists %s_%s_uq on %s ((data->>'%s'), coalesce(tenant_id, '')) where is_active;\n",
				tbl, strings.ToLower(field), sqlIdent(tbl), field)
		}

		out[tbl] = sb.String()
	}
	return out, nil
}

// ApplyDDL выполняет map[table]sql в стабильном порядке. DDL idempotent
// (create ... if not exists); duplicate_object (42710) пропускаем.
func ApplyDDL(db *sql.DB, ddl map[string]string) error {
	keys := make([]string, 0, len(ddl))
	for k := range ddl {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log := logrus.WithField("component", "pg.ddl")
	for _, k := range keys {
		sqlText := strings.TrimSpace(ddl[k])
		if sqlText == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, sqlText); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "42710" {
				log.WithField("object", pgErr.ConstraintName).Info("DDL skipped, already exists")
				continue
			}
			return fmt.Errorf("DDL apply failed for %s: %w", k, err)
		}
		log.WithField("table", k).Debug("DDL applied")
	}
	return nil
}

func identOK(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		ok := r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return false
		}
	}
	return true
}
