package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/roach88/wikidb/internal/catalog"
)

// Page is one stored wiki article.
type Page struct {
	ID      int64
	Name    string
	Content string
}

// ListPageNames returns every page name in ascending byte order.
// Sorting happens here rather than in SQL so results do not depend on the
// backend's collation. Returns an empty slice (not nil) when there are no pages.
func (s *Store) ListPageNames(ctx context.Context) ([]string, error) {
	names := []string{}
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, s.queries.SQL(catalog.AllPages))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			names = append(names, name)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	slices.Sort(names)
	return names, nil
}

// GetPage looks a page up by name. found is false, and Page is zero, when no
// row matches. Only the first row is used if the backend returns several.
func (s *Store) GetPage(ctx context.Context, name string) (page Page, found bool, err error) {
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, s.queries.SQL(catalog.GetPage), name)
		if err != nil {
			return err
		}
		defer rows.Close()

		if !rows.Next() {
			return rows.Err()
		}

		var content sql.NullString
		if err := rows.Scan(&page.ID, &content); err != nil {
			return err
		}
		page.Name = name
		page.Content = content.String
		found = true
		return nil
	})
	if err != nil {
		return Page{}, false, fmt.Errorf("get page %q: %w", name, err)
	}
	return page, found, nil
}

// CreatePage inserts a new page. A duplicate or empty name is reported as the
// backend's constraint error.
func (s *Store) CreatePage(ctx context.Context, name, content string) error {
	if err := s.exec(ctx, catalog.CreatePage, name, content); err != nil {
		return fmt.Errorf("create page %q: %w", name, err)
	}
	return nil
}

// SavePage replaces the content of the page with the given id.
// An unknown id is not an error.
func (s *Store) SavePage(ctx context.Context, id int64, content string) error {
	if err := s.exec(ctx, catalog.SavePage, content, id); err != nil {
		return fmt.Errorf("save page %d: %w", id, err)
	}
	return nil
}

// DeletePage removes the page with the given id.
// An unknown id is not an error.
func (s *Store) DeletePage(ctx context.Context, id int64) error {
	if err := s.exec(ctx, catalog.DeletePage, id); err != nil {
		return fmt.Errorf("delete page %d: %w", id, err)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, q catalog.Query, args ...any) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, s.queries.SQL(q), args...)
		return err
	})
}
