package api

import (
	"net/url"
	"strconv"
	"strings"

	"prikaz/internal/service"
)

// ==== Парсинг query-параметров листинга ====

// Зарезервированные ключи; всё остальное трактуется как фильтр по полю.
// Операторные фильтры пишутся суффиксом: price.gt=10, status.in=a,b,
// name.contains=foo. Голый ключ — равенство; повторённый — принадлежность.
func parseListQuery(q url.Values) (service.ListQuery, []service.FieldError) {
	var errs []service.FieldError
	out := service.ListQuery{Filters: make(map[string]any)}

	if v := strings.TrimSpace(q.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, service.FieldError{
				Code: service.ErrOutOfRange, Field: "page",
				Message: "Field 'page' must be a positive integer",
			})
		} else {
			out.Page = n
		}
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			errs = append(errs, service.FieldError{
				Code: service.ErrOutOfRange, Field: "limit",
				Message: "Field 'limit' must be between 1 and 100",
			})
		} else {
			out.Limit = n
		}
	}
	out.Search = strings.TrimSpace(q.Get("search"))
	out.SortBy = strings.TrimSpace(q.Get("sortBy"))
	out.SortOrder = strings.TrimSpace(q.Get("sortOrder"))

	for key, vals := range q {
		switch key {
		case "page", "limit", "search", "sortBy", "sortOrder":
			continue
		}
		clean := make([]string, 0, len(vals))
		for _, v := range vals {
			if strings.TrimSpace(v) != "" {
				clean = append(clean, v)
			}
		}
		if len(clean) == 0 {
			continue
		}

		field, op := key, ""
		if i := strings.LastIndexByte(key, '.'); i > 0 {
			field, op = key[:i], key[i+1:]
		}

		merged := true
		switch op {
		case "":
			if _, exists := out.Filters[field]; exists {
				merged = false
				break
			}
			if len(clean) > 1 {
				out.Filters[field] = map[string]any{"in": toAnySlice(clean)}
			} else {
				out.Filters[field] = filterValue(field, clean[0])
			}
		case "in":
			merged = mergeOp(out.Filters, field, "in", toAnySlice(strings.Split(clean[0], ",")))
		case "contains", "not":
			merged = mergeOp(out.Filters, field, op, clean[0])
		case "gt", "gte", "lt", "lte":
			merged = mergeOp(out.Filters, field, op, rangeValue(clean[0]))
		default:
			errs = append(errs, service.FieldError{
				Code: service.ErrTypeMismatch, Field: key,
				Message: "Unknown filter operator '" + op + "'",
			})
		}
		if !merged {
			errs = append(errs, service.FieldError{
				Code: service.ErrTypeMismatch, Field: field,
				Message: "Field '" + field + "' mixes equality and operator filters",
			})
		}
	}
	return out, errs
}

// mergeOp дописывает оператор к фильтру поля. false — поле уже занято
// фильтром-равенством: смешение форм не принимаем, а не молча перетираем.
func mergeOp(filters map[string]any, field, op string, v any) bool {
	if existing, ok := filters[field]; ok {
		ops, isOps := existing.(map[string]any)
		if !isOps {
			return false
		}
		ops[op] = v
		return true
	}
	filters[field] = map[string]any{op: v}
	return true
}

// isActive — единственная типизированная колонка среди фильтруемых полей
func filterValue(field, raw string) any {
	if field == "isActive" {
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return raw
}

// числовые границы передаём числами, чтобы хранилище сравнивало численно
func rangeValue(raw string) any {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func toAnySlice(vals []string) []any {
	out := make([]any, 0, len(vals))
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
