package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Memory — in-memory реализация Client: карты под RWMutex, ULID-идентификаторы,
// мягкое удаление через isActive. Декларированные unique-ограничения
// проверяются под write-lock — как уникальный индекс в БД.
type Memory struct {
	mu      sync.RWMutex
	data    map[string]map[string]map[string]any // entity -> id -> record
	order   map[string][]string                  // entity -> ids в порядке вставки
	unique  map[string][]string                  // entity -> поля с unique
	entropy io.Reader
}

func NewMemory() *Memory {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Memory{
		data:    make(map[string]map[string]map[string]any),
		order:   make(map[string][]string),
		unique:  make(map[string][]string),
		entropy: ulid.Monotonic(src, 0),
	}
}

// DeclareUnique объявляет поля с ограничением уникальности (в рамках тенанта,
// среди активных записей).
func (m *Memory) DeclareUnique(entity string, fields ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unique[strings.ToLower(entity)] = append(m.unique[strings.ToLower(entity)], fields...)
}

func (m *Memory) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), m.entropy).String()
}

func (m *Memory) Create(_ context.Context, entity string, data map[string]any) (map[string]any, error) {
	entity = strings.ToLower(entity)
	now := time.Now().UTC().Format(time.RFC3339)

	rec := make(map[string]any, len(data)+4)
	for k, v := range data {
		rec[k] = v
	}
	rec["id"] = m.newID()
	rec["createdAt"] = now
	rec["updatedAt"] = now
	if _, ok := rec["isActive"]; !ok {
		rec["isActive"] = true
	}
	if _, ok := rec["tenantId"]; !ok {
		rec["tenantId"] = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if f := m.uniqueClashLocked(entity, rec, ""); f != "" {
		return nil, &UniqueError{Field: f}
	}
	if m.data[entity] == nil {
		m.data[entity] = make(map[string]map[string]any)
	}
	id := rec["id"].(string)
	m.data[entity][id] = rec
	m.order[entity] = append(m.order[entity], id)
	return copyRecord(rec), nil
}

func (m *Memory) FindFirst(_ context.Context, entity string, where Where) (map[string]any, error) {
	entity = strings.ToLower(entity)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order[entity] {
		rec := m.data[entity][id]
		if rec != nil && matchWhere(rec, where) {
			return copyRecord(rec), nil
		}
	}
	return nil, nil
}

func (m *Memory) FindMany(_ context.Context, entity string, q Query) ([]map[string]any, error) {
	entity = strings.ToLower(entity)
	m.mu.RLock()
	matched := make([]map[string]any, 0)
	for _, id := range m.order[entity] {
		rec := m.data[entity][id]
		if rec != nil && matchWhere(rec, q.Where) {
			matched = append(matched, copyRecord(rec))
		}
	}
	m.mu.RUnlock()

	if q.OrderBy != "" {
		sortRecords(matched, q.OrderBy, q.Desc)
	}

	start := q.Skip
	if start < 0 {
		start = 0
	}
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if q.Take > 0 && start+q.Take < end {
		end = start + q.Take
	}
	return matched[start:end], nil
}

func (m *Memory) Update(_ context.Context, entity string, id string, data map[string]any) (map[string]any, error) {
	entity = strings.ToLower(entity)
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.data[entity][id]
	if rec == nil {
		return nil, ErrNotFound
	}

	// проверка unique на объединённой записи, исключая саму запись
	merged := copyRecord(rec)
	for k, v := range data {
		merged[k] = v
	}
	if f := m.uniqueClashLocked(entity, merged, id); f != "" {
		return nil, &UniqueError{Field: f}
	}

	for k, v := range data {
		if k == "id" || k == "createdAt" {
			continue
		}
		rec[k] = v
	}
	rec["updatedAt"] = time.Now().UTC().Format(time.RFC3339)
	return copyRecord(rec), nil
}

func (m *Memory) Count(_ context.Context, entity string, where Where) (int64, error) {
	entity = strings.ToLower(entity)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, rec := range m.data[entity] {
		if matchWhere(rec, where) {
			n++
		}
	}
	return n, nil
}

// uniqueClashLocked возвращает имя поля с конфликтом либо "".
// Область действия — тенант; неактивные записи не участвуют.
func (m *Memory) uniqueClashLocked(entity string, cand map[string]any, excludeID string) string {
	fields := m.unique[entity]
	if len(fields) == 0 {
		return ""
	}
	for _, f := range fields {
		v, ok := cand[f]
		if !ok || v == nil {
			continue
		}
		for id, rec := range m.data[entity] {
			if id == excludeID {
				continue
			}
			if active, _ := rec["isActive"].(bool); !active {
				continue
			}
			if stringify(rec["tenantId"]) != stringify(cand["tenantId"]) {
				continue
			}
			if stringify(rec[f]) == stringify(v) {
				return f
			}
		}
	}
	return ""
}

// ==== сопоставление where ====

func matchWhere(rec map[string]any, where Where) bool {
	for key, cond := range where {
		if key == "OR" {
			subs, ok := cond.([]Where)
			if !ok {
				return false
			}
			hit := false
			for _, sub := range subs {
				if matchWhere(rec, sub) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
			continue
		}
		got, has := rec[key]
		if ops, isOps := cond.(map[string]any); isOps {
			if !matchOps(got, has, ops) {
				return false
			}
			continue
		}
		// равенство; nil сопоставляется с отсутствующим/nil значением
		if cond == nil {
			if has && got != nil {
				return false
			}
			continue
		}
		if !has || stringify(got) != stringify(cond) {
			return false
		}
	}
	return true
}

func matchOps(got any, has bool, ops map[string]any) bool {
	for op, want := range ops {
		switch op {
		case "contains":
			s, _ := want.(string)
			if !has || !strings.Contains(strings.ToLower(stringify(got)), strings.ToLower(s)) {
				return false
			}
		case "in":
			if !has || !inSet(got, want) {
				return false
			}
		case "not":
			if has && stringify(got) == stringify(want) {
				return false
			}
		case "gt", "gte", "lt", "lte":
			if !has || !compareOrdered(got, op, want) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func inSet(got, want any) bool {
	gs := stringify(got)
	switch arr := want.(type) {
	case []any:
		for _, it := range arr {
			if stringify(it) == gs {
				return true
			}
		}
	case []string:
		for _, it := range arr {
			if it == gs {
				return true
			}
		}
	}
	return false
}

// числа сравниваем численно, остальное — строково (RFC3339 сортируется
// лексикографически корректно)
func compareOrdered(got any, op string, want any) bool {
	gf, gok := toFloat(got)
	wf, wok := toFloat(want)
	var rel int
	if gok && wok {
		switch {
		case gf < wf:
			rel = -1
		case gf > wf:
			rel = +1
		}
	} else {
		rel = strings.Compare(stringify(got), stringify(want))
	}
	switch op {
	case "gt":
		return rel > 0
	case "gte":
		return rel >= 0
	case "lt":
		return rel < 0
	case "lte":
		return rel <= 0
	}
	return false
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
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func sortRecords(recs []map[string]any, key string, desc bool) {
	sort.SliceStable(recs, func(i, j int) bool {
		va, oka := recs[i][key]
		vb, okb := recs[j][key]
		na := !oka || va == nil
		nb := !okb || vb == nil
		if na != nb {
			return nb // nulls last
		}
		if na && nb {
			return false
		}
		var less bool
		fa, faok := toFloat(va)
		fb, fbok := toFloat(vb)
		if faok && fbok {
			less = fa < fb
		} else {
			less = stringify(va) < stringify(vb)
		}
		if desc {
			return !less && stringify(va) != stringify(vb)
		}
		return less
	})
}

func copyRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
