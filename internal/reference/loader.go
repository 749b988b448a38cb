package reference

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDir читает все *.yaml/*.yml из каталога в Set. Имя справочника —
// из поля name файла, иначе из имени файла без расширения.
// Отсутствующий каталог — не ошибка: возвращается пустой Set.
func LoadDir(dir string) (*Set, error) {
	set := NewSet()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, fmt.Errorf("read catalogs dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		cat, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		set.Add(cat)
	}
	return set, nil
}

func loadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if cat.Name == "" {
		base := filepath.Base(path)
		cat.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if len(cat.Options) == 0 {
		return nil, fmt.Errorf("catalog %s: no options declared", cat.Name)
	}
	seen := make(map[string]bool, len(cat.Options))
	for _, o := range cat.Options {
		if o.Code == "" {
			return nil, fmt.Errorf("catalog %s: option with empty code", cat.Name)
		}
		if seen[o.Code] {
			return nil, fmt.Errorf("catalog %s: duplicate option code %q", cat.Name, o.Code)
		}
		seen[o.Code] = true
	}
	return &cat, nil
}
