package store

import (
	"database/sql"
	"sync"

	_ "github.com/glebarez/go-sqlite"
)

// Page is a single piece of servable content.
type Page struct {
	Path        string
	ContentType string
	Body        []byte
}

// ContentProvider is an interface for origin content storage.
// It stores and retrieves pages by their request path.
//
// Implementations must be thread-safe!
type ContentProvider interface {
	// Get returns the page stored under the given path, if it exists.
	// It also returns a boolean indicating whether the page was found.
	Get(path string) (Page, bool, error)
	// Put stores the given page under its path,
	// replacing any previous content.
	Put(page Page) error
	// Paths returns the paths of all stored pages.
	Paths() ([]string, error)
}

type MemStore struct {
	mutex *sync.RWMutex
	pages map[string]Page
}

func NewMemStore() MemStore {
	return MemStore{
		mutex: &sync.RWMutex{},
		pages: make(map[string]Page),
	}
}

func (m MemStore) Get(path string) (Page, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	page, ok := m.pages[path]
	return page, ok, nil
}

func (m MemStore) Put(page Page) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.pages[page.Path] = page
	return nil
}

func (m MemStore) Paths() ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	paths := make([]string, 0, len(m.pages))
	for path := range m.pages {
		paths = append(paths, path)
	}
	return paths, nil
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(filename string) (SQLiteStore, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return SQLiteStore{}, err
	}
	_, err = db.Exec("CREATE TABLE IF NOT EXISTS pages (path TEXT PRIMARY KEY, content_type TEXT, body BLOB)")
	if err != nil {
		return SQLiteStore{}, err
	}
	return SQLiteStore{db: db}, nil
}

func (s SQLiteStore) Get(path string) (Page, bool, error) {
	page := Page{Path: path}
	err := s.db.QueryRow("SELECT content_type, body FROM pages WHERE path = ?", path).
		Scan(&page.ContentType, &page.Body)
	if err == sql.ErrNoRows {
		return Page{}, false, nil
	}
	if err != nil {
		return Page{}, false, err
	}
	return page, true, nil
}

func (s SQLiteStore) Put(page Page) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO pages (path, content_type, body) VALUES (?, ?, ?)",
		page.Path, page.ContentType, page.Body)
	return err
}

func (s SQLiteStore) Paths() ([]string, error) {
	rows, err := s.db.Query("SELECT path FROM pages ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}
