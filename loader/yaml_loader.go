package loader

import (
	"fmt"
	"os"

	"github.com/propstack/reconcilo/catalog"
	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Entities []yamlEntity `yaml:"entities"`
	Indexes  []yamlIndex  `yaml:"indexes"`
	Policies []yamlPolicy `yaml:"policies"`
}

type yamlEntity struct {
	Name    string       `yaml:"name"`
	Columns []yamlColumn `yaml:"columns"`
}

type yamlColumn struct {
	Name       string         `yaml:"name"`
	Type       string         `yaml:"type"`
	Element    string         `yaml:"element"`
	Primary    bool           `yaml:"primary"`
	Unique     bool           `yaml:"unique"`
	NotNull    bool           `yaml:"not_null"`
	Default    *string        `yaml:"default"`
	Check      string         `yaml:"check"`
	References *yamlReference `yaml:"references"`
}

type yamlReference struct {
	Entity   string `yaml:"entity"`
	Column   string `yaml:"column"`
	OnDelete string `yaml:"on_delete"`
}

type yamlIndex struct {
	Name       string   `yaml:"name"`
	Entity     string   `yaml:"entity"`
	Kind       string   `yaml:"kind"`
	Columns    []string `yaml:"columns"`
	Expression string   `yaml:"expression"`
	Where      string   `yaml:"where"`
	Unique     bool     `yaml:"unique"`
	Method     string   `yaml:"method"`
}

type yamlPolicy struct {
	Name      string `yaml:"name"`
	Entity    string `yaml:"entity"`
	Operation string `yaml:"operation"`
	Using     string `yaml:"using"`
	WithCheck string `yaml:"with_check"`
}

// LoadCatalog reads a declaration file and returns the validated
// catalog. Any validation failure blocks loading entirely.
func LoadCatalog(filename string) (*catalog.Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a validated catalog from raw YAML.
func ParseCatalog(data []byte) (*catalog.Catalog, error) {
	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}

	var entities []catalog.Entity
	for _, e := range yf.Entities {
		entity := catalog.Entity{Name: e.Name}
		for _, c := range e.Columns {
			col := catalog.Column{
				Name:    c.Name,
				Type:    catalog.ColumnType(c.Type),
				Element: catalog.ColumnType(c.Element),
				Primary: c.Primary,
				Unique:  c.Unique,
				NotNull: c.NotNull,
				Default: c.Default,
				Check:   c.Check,
			}
			if c.References != nil {
				col.References = &catalog.Reference{
					Entity:   c.References.Entity,
					Column:   c.References.Column,
					OnDelete: c.References.OnDelete,
				}
			}
			entity.Columns = append(entity.Columns, col)
		}
		entities = append(entities, entity)
	}

	var indexes []catalog.Index
	for _, i := range yf.Indexes {
		indexes = append(indexes, catalog.Index{
			Name:       i.Name,
			Entity:     i.Entity,
			Kind:       catalog.IndexKind(i.Kind),
			Columns:    i.Columns,
			Expression: i.Expression,
			Where:      i.Where,
			Unique:     i.Unique,
			Method:     i.Method,
		})
	}

	var policies []catalog.Policy
	for _, p := range yf.Policies {
		policies = append(policies, catalog.Policy{
			Name:      p.Name,
			Entity:    p.Entity,
			Operation: catalog.Operation(p.Operation),
			Using:     p.Using,
			WithCheck: p.WithCheck,
		})
	}

	cat, err := catalog.New(entities, indexes, policies)
	if err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}
	return cat, nil
}
