package entities

import (
	"fmt"

	"prikaz/internal/registry"
	"prikaz/internal/storage"
)

// RegisterAll регистрирует штатный набор сущностей. Клиент хранилища нужен
// хукам с доступом к данным (вето удаления категории).
func RegisterAll(reg *registry.Registry, client storage.Client) error {
	defs := []func() error{
		func() error { return reg.Register(Organization()) },
		func() error { return reg.Register(Store()) },
		func() error { return reg.Register(Category(client)) },
		func() error { return reg.Register(ItemAttribute()) },
		func() error { return reg.Register(Item()) },
		func() error { return reg.Register(User()) },
	}
	for _, register := range defs {
		if err := register(); err != nil {
			return fmt.Errorf("register entities: %w", err)
		}
	}
	return nil
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }
