package storage

import (
	"context"
	"errors"
	"fmt"
)

// Where — вложенная конвенция условий:
//
//	{"name": "x"}                      — равенство
//	{"name": {"contains": "x"}}        — регистронезависимая подстрока
//	{"status": {"in": [...]}}          — принадлежность
//	{"price": {"gt": 10, "lte": 99}}   — диапазоны
//	{"id": {"not": "..."}}             — неравенство
//	{"OR": [Where, Where, ...]}        — дизъюнкция подусловий
type Where map[string]any

// Query — параметры выборки.
type Query struct {
	Where   Where
	OrderBy string
	Desc    bool
	Skip    int
	Take    int
}

// Client — непрозрачная способность хранения, ключуется именем сущности
// (нижний регистр). Записи — map[string]any с системными ключами
// id/tenantId/isActive/createdAt/updatedAt.
type Client interface {
	Create(ctx context.Context, entity string, data map[string]any) (map[string]any, error)
	// FindFirst возвращает (nil, nil), если ничего не найдено.
	FindFirst(ctx context.Context, entity string, where Where) (map[string]any, error)
	FindMany(ctx context.Context, entity string, q Query) ([]map[string]any, error)
	Update(ctx context.Context, entity string, id string, data map[string]any) (map[string]any, error)
	Count(ctx context.Context, entity string, where Where) (int64, error)
}

// ErrNotFound — запись не существует (Update по несуществующему id).
var ErrNotFound = errors.New("record not found")

// UniqueError — нарушение декларированного ограничения уникальности.
// Хранилище — авторитетный арбитр: advisory-предпроверка сервиса может
// пропустить гонку, этот отказ — нет.
type UniqueError struct {
	Field string
}

func (e *UniqueError) Error() string {
	return fmt.Sprintf("unique constraint violated on field %q", e.Field)
}
