package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"

	"prikaz/internal/schema"
	"prikaz/internal/storage"
)

// Service — CRUD-фасад, связанный с одной сущностью: валидация, правила
// тенанта, lifecycle-хуки, делегирование персистентности клиенту хранилища.
// Состояния между запросами не держит.
//
// Двухфазная конструкция: клиент может быть nil — тогда все операции с
// данными падают до его привязки через BindClient.
type Service struct {
	def      *schema.EntityDefinition
	builder  *schema.Builder
	client   storage.Client
	patterns map[string]*regexp.Regexp
	log      *logrus.Entry
}

func New(def *schema.EntityDefinition, client storage.Client) *Service {
	return &Service{
		def:      def,
		builder:  schema.NewBuilder(def),
		client:   client,
		patterns: compilePatterns(def),
		log:      logrus.WithField("entity", def.Name),
	}
}

func (s *Service) Definition() *schema.EntityDefinition { return s.def }

// BindClient привязывает клиента хранилища (вторая фаза конструирования).
func (s *Service) BindClient(c storage.Client) { s.client = c }

var errNoClient = errors.New("storage client is not bound")

func (s *Service) storageKey() string { return s.def.StorageKey() }

// tenantWhere — скоуп тенанта. nil-тенант означает отсутствие скоупа.
func tenantWhere(tenantID *string) storage.Where {
	if tenantID == nil {
		return storage.Where{}
	}
	return storage.Where{"tenantId": *tenantID}
}

// Create: правила тенанта → BeforeCreate → валидация схемы → дефолты →
// предпроверка unique → запись с инъекцией tenantId → AfterCreate.
func (s *Service) Create(ctx context.Context, data map[string]any, tenantID *string) (map[string]any, error) {
	if s.client == nil {
		return nil, errNoClient
	}
	if data == nil {
		data = map[string]any{}
	}

	if errs := s.applyTenantRules(data); len(errs) > 0 {
		return nil, NewValidationError(errs...)
	}

	if s.def.Hooks != nil {
		if err := s.def.Hooks.BeforeCreate(ctx, data, tenantID); err != nil {
			return nil, asBusiness(err)
		}
	}

	// хук мог мутировать payload — валидируем после него
	if errs := s.validatePayload(data, false); len(errs) > 0 {
		return nil, NewValidationError(errs...)
	}
	s.applyDefaults(data)

	if err := s.uniquePrecheck(ctx, data, tenantID, ""); err != nil {
		return nil, err
	}

	payload := make(map[string]any, len(data)+2)
	for k, v := range data {
		payload[k] = v
	}
	if tenantID != nil {
		payload["tenantId"] = *tenantID
	} else {
		payload["tenantId"] = nil
	}
	payload["isActive"] = true

	rec, err := s.client.Create(ctx, s.storageKey(), payload)
	if err != nil {
		return nil, s.mapStorageErr(err)
	}

	if s.def.Hooks != nil {
		if err := s.def.Hooks.AfterCreate(ctx, rec, tenantID); err != nil {
			return nil, asBusiness(err)
		}
	}
	s.log.WithField("id", rec["id"]).Debug("record created")
	return rec, nil
}

// GetByID — выборка с проверкой принадлежности тенанту.
func (s *Service) GetByID(ctx context.Context, id string, tenantID *string) (map[string]any, error) {
	if s.client == nil {
		return nil, errNoClient
	}
	rec, err := s.client.FindFirst(ctx, s.storageKey(), storage.Where{"id": id})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, storage.ErrNotFound
	}
	if err := s.checkTenant(rec, tenantID); err != nil {
		return nil, err
	}
	return rec, nil
}

// Update — частичное обновление: опущенные поля не трогаем.
func (s *Service) Update(ctx context.Context, id string, data map[string]any, tenantID *string) (map[string]any, error) {
	if s.client == nil {
		return nil, errNoClient
	}
	if data == nil {
		data = map[string]any{}
	}

	if errs := s.applyTenantRules(data); len(errs) > 0 {
		return nil, NewValidationError(errs...)
	}

	if s.def.Hooks != nil {
		if err := s.def.Hooks.BeforeUpdate(ctx, id, data, tenantID); err != nil {
			return nil, asBusiness(err)
		}
	}

	if errs := s.validatePayload(data, true); len(errs) > 0 {
		return nil, NewValidationError(errs...)
	}

	// существование и тенант — до записи
	if _, err := s.GetByID(ctx, id, tenantID); err != nil {
		return nil, err
	}

	if err := s.uniquePrecheck(ctx, data, tenantID, id); err != nil {
		return nil, err
	}

	rec, err := s.client.Update(ctx, s.storageKey(), id, data)
	if err != nil {
		return nil, s.mapStorageErr(err)
	}

	if s.def.Hooks != nil {
		if err := s.def.Hooks.AfterUpdate(ctx, rec, tenantID); err != nil {
			return nil, asBusiness(err)
		}
	}
	return rec, nil
}

// Delete — мягкое удаление (isActive=false), физическое удаление этим слоем
// не выполняется. BeforeDelete может наложить вето: вернётся (false, nil).
// Повторное удаление идемпотентно.
func (s *Service) Delete(ctx context.Context, id string, tenantID *string) (bool, error) {
	if s.client == nil {
		return false, errNoClient
	}
	if _, err := s.GetByID(ctx, id, tenantID); err != nil {
		return false, err
	}

	if s.def.Hooks != nil {
		proceed, err := s.def.Hooks.BeforeDelete(ctx, id, tenantID)
		if err != nil {
			return false, asBusiness(err)
		}
		if !proceed {
			s.log.WithField("id", id).Debug("delete vetoed by hook")
			return false, nil
		}
	}

	if _, err := s.client.Update(ctx, s.storageKey(), id, map[string]any{"isActive": false}); err != nil {
		return false, s.mapStorageErr(err)
	}

	if s.def.Hooks != nil {
		if err := s.def.Hooks.AfterDelete(ctx, id, tenantID); err != nil {
			return false, asBusiness(err)
		}
	}
	s.log.WithField("id", id).Info("record soft-deleted")
	return true, nil
}

// ==== листинг ====

type ListQuery struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
	Filters   map[string]any // по заявленным filterable-полям
}

type ListResult struct {
	Items      []map[string]any `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int64            `json:"totalPages"`
}

// validateListQuery: вне диапазона — отказ валидации, а не молчаливый clamp.
func (s *Service) validateListQuery(q *ListQuery) []FieldError {
	var errs []FieldError
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Page < 1 {
		errs = append(errs, ferr(ErrOutOfRange, "page", "Field 'page' must be a positive integer"))
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Limit < 1 || q.Limit > 100 {
		errs = append(errs, ferr(ErrOutOfRange, "limit", "Field 'limit' must be between 1 and 100"))
	}
	if q.SortBy == "" {
		q.SortBy = "createdAt"
	}
	if !s.def.HasField(q.SortBy) {
		errs = append(errs, ferr(ErrTypeMismatch, "sortBy", "Unknown sort field '"+q.SortBy+"'"))
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
	if q.SortOrder != "asc" && q.SortOrder != "desc" {
		errs = append(errs, ferr(ErrEnumInvalid, "sortOrder", "Field 'sortOrder' must be asc or desc"))
	}
	for name := range q.Filters {
		if name == "isActive" {
			continue
		}
		f := s.def.FieldByName(name)
		if f == nil || !f.Filterable {
			errs = append(errs, ferr(ErrTypeMismatch, name, "Field '"+name+"' is not filterable"))
		}
	}
	return errs
}

// List: скоуп тенанта + свободный поиск OR-ом по текстовым полям +
// равенства/диапазоны по объявленным фильтрам.
func (s *Service) List(ctx context.Context, q ListQuery, tenantID *string) (*ListResult, error) {
	if s.client == nil {
		return nil, errNoClient
	}
	if errs := s.validateListQuery(&q); len(errs) > 0 {
		return nil, NewValidationError(errs...)
	}

	where := tenantWhere(tenantID)
	if q.Search != "" {
		var or []storage.Where
		for _, f := range s.builder.CreateFields() {
			if f.Type == schema.TypeText {
				or = append(or, storage.Where{f.Name: map[string]any{"contains": q.Search}})
			}
		}
		if len(or) > 0 {
			where["OR"] = or
		}
	}
	for name, cond := range q.Filters {
		where[name] = cond
	}

	total, err := s.client.Count(ctx, s.storageKey(), where)
	if err != nil {
		return nil, err
	}

	items, err := s.client.FindMany(ctx, s.storageKey(), storage.Query{
		Where:   where,
		OrderBy: q.SortBy,
		Desc:    q.SortOrder == "desc",
		Skip:    (q.Page - 1) * q.Limit,
		Take:    q.Limit,
	})
	if err != nil {
		return nil, err
	}

	totalPages := total / int64(q.Limit)
	if total%int64(q.Limit) != 0 {
		totalPages++
	}
	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages,
	}, nil
}

type Stats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

// Stats — агрегаты в скоупе тенанта.
func (s *Service) Stats(ctx context.Context, tenantID *string) (*Stats, error) {
	if s.client == nil {
		return nil, errNoClient
	}
	total, err := s.client.Count(ctx, s.storageKey(), tenantWhere(tenantID))
	if err != nil {
		return nil, err
	}
	active, err := s.client.Count(ctx, s.storageKey(), func() storage.Where {
		w := tenantWhere(tenantID)
		w["isActive"] = true
		return w
	}())
	if err != nil {
		return nil, err
	}
	return &Stats{Total: total, Active: active, Inactive: total - active}, nil
}

// ==== внутреннее ====

func (s *Service) checkTenant(rec map[string]any, tenantID *string) error {
	if tenantID == nil {
		return nil // без скоупа видно всё
	}
	got, _ := rec["tenantId"].(string)
	if got != *tenantID {
		return NewTenantError("tenantId", "record belongs to another tenant")
	}
	return nil
}

// uniquePrecheck — advisory-проверка "check-then-create". Гонку двух
// конкурентных create она не закрывает: авторитетен уникальный индекс
// хранилища, его отказ маппится в такую же пополевую ошибку.
func (s *Service) uniquePrecheck(ctx context.Context, data map[string]any, tenantID *string, excludeID string) error {
	for _, field := range s.def.TenantRules.UniqueConstraints {
		v, ok := data[field]
		if !ok || v == nil {
			continue
		}
		// nil-тенант — собственная группа уникальности, не весь набор
		where := storage.Where{field: v, "isActive": true}
		if tenantID != nil {
			where["tenantId"] = *tenantID
		} else {
			where["tenantId"] = nil
		}
		if excludeID != "" {
			where["id"] = map[string]any{"not": excludeID}
		}
		existing, err := s.client.FindFirst(ctx, s.storageKey(), where)
		if err != nil {
			return err
		}
		if existing != nil {
			return NewValidationError(ferr(ErrUniqueViolation, field,
				fmt.Sprintf("Field '%s' must be unique", field)))
		}
	}
	return nil
}

func (s *Service) mapStorageErr(err error) error {
	var ue *storage.UniqueError
	if errors.As(err, &ue) {
		return NewValidationError(ferr(ErrUniqueViolation, ue.Field,
			fmt.Sprintf("Field '%s' must be unique", ue.Field)))
	}
	return err
}
