package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/magiconair/properties"
)

//go:embed db-queries.properties
var defaultQueries string

// Query identifies one logical statement the store can run.
type Query string

const (
	CreatePagesTable Query = "create-pages-table"
	AllPages         Query = "all-pages"
	GetPage          Query = "get-page"
	CreatePage       Query = "create-page"
	SavePage         Query = "save-page"
	DeletePage       Query = "delete-page"
)

// Queries returns every identifier a catalog must define.
func Queries() []Query {
	return []Query{CreatePagesTable, AllPages, GetPage, CreatePage, SavePage, DeletePage}
}

// Catalog holds the SQL text for each Query.
type Catalog struct {
	source string
	sql    map[Query]string
}

// Load reads the catalog from path, or from the built-in SQLite queries
// when path is empty.
func Load(path string) (*Catalog, error) {
	var (
		props  *properties.Properties
		err    error
		source = path
	)
	if strings.TrimSpace(path) == "" {
		source = "builtin"
		props, err = properties.LoadString(defaultQueries)
	} else {
		props, err = properties.LoadFile(path, properties.UTF8)
	}
	if err != nil {
		return nil, fmt.Errorf("load queries from %s: %w", source, err)
	}
	return fromProperties(source, props)
}

// Parse builds a catalog from properties text. Used for in-memory overrides.
func Parse(text string) (*Catalog, error) {
	props, err := properties.LoadString(text)
	if err != nil {
		return nil, fmt.Errorf("parse queries: %w", err)
	}
	return fromProperties("inline", props)
}

func fromProperties(source string, props *properties.Properties) (*Catalog, error) {
	c := &Catalog{source: source, sql: make(map[Query]string, len(Queries()))}
	for _, q := range Queries() {
		text, ok := props.Get(string(q))
		if !ok || strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("queries from %s: missing required key %q", source, q)
		}
		c.sql[q] = strings.TrimSpace(text)
	}
	return c, nil
}

// SQL returns the statement text for q. Unknown identifiers yield "".
func (c *Catalog) SQL(q Query) string {
	return c.sql[q]
}

// Source names where the catalog was loaded from ("builtin" for defaults).
func (c *Catalog) Source() string {
	return c.source
}
