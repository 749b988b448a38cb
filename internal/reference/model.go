package reference

// Option — один элемент справочника: код для хранения, подпись для UI.
type Option struct {
	Code        string `yaml:"code" json:"code"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Catalog — именованный справочник опций.
type Catalog struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Options     []Option `yaml:"options" json:"options"`
}

// Codes возвращает коды опций в порядке объявления.
func (c *Catalog) Codes() []string {
	out := make([]string, 0, len(c.Options))
	for _, o := range c.Options {
		out = append(out, o.Code)
	}
	return out
}

// Set — загруженная коллекция справочников, ключ — имя каталога.
type Set struct {
	catalogs map[string]*Catalog
}

func NewSet() *Set {
	return &Set{catalogs: make(map[string]*Catalog)}
}

func (s *Set) Add(c *Catalog) {
	s.catalogs[c.Name] = c
}

// Get возвращает nil для неизвестного имени.
func (s *Set) Get(name string) *Catalog {
	if s == nil {
		return nil
	}
	return s.catalogs[name]
}

func (s *Set) Names() []string {
	out := make([]string, 0, len(s.catalogs))
	for name := range s.catalogs {
		out = append(out, name)
	}
	return out
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.catalogs)
}
