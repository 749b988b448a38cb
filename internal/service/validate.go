package service

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"prikaz/internal/schema"
)

// applyTenantRules прогоняет ValidationRules тенанта по присутствующим
// полям payload'а. Форму/тип значения здесь не проверяем — это дело
// validatePayload.
func (s *Service) applyTenantRules(data map[string]any) []FieldError {
	var errs []FieldError
	for name, rule := range s.def.TenantRules.ValidationRules {
		v, ok := data[name]
		if !ok || v == nil {
			continue
		}
		if str, isStr := v.(string); isStr {
			if rule.MinLength != nil && len(str) < *rule.MinLength {
				errs = append(errs, ferr(ErrMinLength, name,
					fmt.Sprintf("Field '%s' must be at least %d characters", name, *rule.MinLength)))
			}
			if rule.MaxLength != nil && len(str) > *rule.MaxLength {
				errs = append(errs, ferr(ErrMaxLength, name,
					fmt.Sprintf("Field '%s' must be at most %d characters", name, *rule.MaxLength)))
			}
			if rule.Pattern != "" {
				if re := s.patterns[name]; re != nil && !re.MatchString(str) {
					errs = append(errs, ferr(ErrPatternMismatch, name,
						"Field '"+name+"' does not match required pattern"))
				}
			}
		}
		if rule.Min != nil || rule.Max != nil {
			if f, ok := numeric(v); ok {
				if rule.Min != nil && f < *rule.Min {
					errs = append(errs, ferr(ErrOutOfRange, name,
						fmt.Sprintf("Field '%s' must be >= %v", name, *rule.Min)))
				}
				if rule.Max != nil && f > *rule.Max {
					errs = append(errs, ferr(ErrOutOfRange, name,
						fmt.Sprintf("Field '%s' must be <= %v", name, *rule.Max)))
				}
			}
		}
		if rule.Custom != nil {
			if err := rule.Custom(v); err != nil {
				errs = append(errs, ferr(ErrCustom, name, err.Error()))
			}
		}
	}
	return errs
}

// validatePayload валидирует и НОРМАЛИЗУЕТ payload под схему сущности.
// partial=true — update-вариант: required не проверяем, валидируем только
// переданные поля. Системные поля от клиента не принимаются.
func (s *Service) validatePayload(data map[string]any, partial bool) []FieldError {
	var errs []FieldError

	for _, sys := range schema.SystemFields {
		if _, ok := data[sys]; ok {
			errs = append(errs, ferr(ErrReadOnly, sys, "Field '"+sys+"' is read-only"))
		}
	}

	if !partial {
		for _, f := range s.builder.CreateFields() {
			if !f.Required && !contains(s.def.TenantRules.RequiredFields, f.Name) {
				continue
			}
			if v, ok := data[f.Name]; !ok || v == nil {
				errs = append(errs, ferr(ErrRequired, f.Name, "Field '"+f.Name+"' is required"))
			}
		}
	}

	for name, val := range data {
		f := s.def.FieldByName(name)
		if f == nil || schema.IsSystemField(name) {
			// неизвестные поля игнорируем, системные уже отклонены выше
			continue
		}
		if val == nil {
			continue
		}
		norm, err := coerceValue(*f, val)
		if err != nil {
			errs = append(errs, ferr(ErrTypeMismatch, name, "Field '"+name+"' "+err.Error()))
			continue
		}
		data[name] = norm
	}
	return errs
}

// applyDefaults подставляет Default для отсутствующих полей (только create).
func (s *Service) applyDefaults(data map[string]any) {
	for _, f := range s.builder.CreateFields() {
		if f.Default == nil {
			continue
		}
		if _, exists := data[f.Name]; exists {
			continue
		}
		data[f.Name] = f.Default
	}
}

// coerceValue — строгая проверка типа с лёгкой нормализацией.
func coerceValue(f schema.Field, v any) (any, error) {
	switch f.Type {
	case schema.TypeText:
		s, ok := v.(string)
		if !ok {
			return nil, errors.New("must be string")
		}
		return s, nil
	case schema.TypeNumber:
		switch t := v.(type) {
		case float64:
			return t, nil
		case int:
			return float64(t), nil
		case int64:
			return float64(t), nil
		case string:
			fv, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err != nil {
				return nil, errors.New("must be number")
			}
			return fv, nil
		default:
			return nil, errors.New("must be number")
		}
	case schema.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, errors.New("must be boolean")
		}
		return b, nil
	case schema.TypeTimestamp:
		s, ok := v.(string)
		if !ok {
			return nil, errors.New("must be RFC3339 datetime")
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return nil, errors.New("must be RFC3339 datetime")
		}
		return s, nil
	case schema.TypeEnum:
		s, ok := v.(string)
		if !ok {
			return nil, errors.New("must be string")
		}
		for _, ev := range f.Enum {
			if s == ev {
				return s, nil
			}
		}
		return nil, fmt.Errorf("value '%s' is not allowed", s)
	case schema.TypeObject:
		if _, ok := v.(map[string]any); !ok {
			return nil, errors.New("must be object")
		}
		return v, nil
	case schema.TypeArray:
		if _, ok := v.([]any); !ok {
			return nil, errors.New("must be array")
		}
		return v, nil
	default:
		// неизвестный тип дескриптора — пропускаем как есть
		return v, nil
	}
}

func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func contains(set []string, s string) bool {
	for _, it := range set {
		if it == s {
			return true
		}
	}
	return false
}

func compilePatterns(def *schema.EntityDefinition) map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)
	for name, rule := range def.TenantRules.ValidationRules {
		if rule.Pattern == "" {
			continue
		}
		if re, err := regexp.Compile(rule.Pattern); err == nil {
			out[name] = re
		}
	}
	return out
}
