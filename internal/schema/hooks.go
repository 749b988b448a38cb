package schema

import "context"

// Hooks — замкнутый набор lifecycle-событий сущности.
// Каждый метод вызывается ровно один раз на операцию; порядок относительно
// хуков других сущностей не гарантируется.
type Hooks interface {
	// BeforeCreate может мутировать payload (дефолты, нормализация) либо
	// вернуть ошибку и прервать операцию.
	BeforeCreate(ctx context.Context, data map[string]any, tenantID *string) error
	AfterCreate(ctx context.Context, record map[string]any, tenantID *string) error

	BeforeUpdate(ctx context.Context, id string, data map[string]any, tenantID *string) error
	AfterUpdate(ctx context.Context, record map[string]any, tenantID *string) error

	// BeforeDelete возвращает false — вето: операция превращается в no-op,
	// это не ошибка.
	BeforeDelete(ctx context.Context, id string, tenantID *string) (bool, error)
	AfterDelete(ctx context.Context, id string, tenantID *string) error
}

// NoopHooks — встраиваемая база: переопределяй только нужные события.
type NoopHooks struct{}

func (NoopHooks) BeforeCreate(context.Context, map[string]any, *string) error { return nil }
func (NoopHooks) AfterCreate(context.Context, map[string]any, *string) error  { return nil }
func (NoopHooks) BeforeUpdate(context.Context, string, map[string]any, *string) error {
	return nil
}
func (NoopHooks) AfterUpdate(context.Context, map[string]any, *string) error { return nil }
func (NoopHooks) BeforeDelete(context.Context, string, *string) (bool, error) {
	return true, nil
}
func (NoopHooks) AfterDelete(context.Context, string, *string) error { return nil }

// HasBusinessLogic — есть ли у определения свои хуки (не пустышка).
func HasBusinessLogic(d *EntityDefinition) bool {
	if d.Hooks == nil {
		return false
	}
	_, noop := d.Hooks.(NoopHooks)
	return !noop
}
