// Package database owns the process-wide Postgres handle: it is opened
// lazily on first use, shared by every repository and migrated on open.
package database

import (
	"context"
	"database/sql"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Conn hands out the shared database handle.
type Conn interface {
	DB(ctx context.Context) (*sql.DB, error)
}

// OpenFunc opens, checks and prepares a new handle.
type OpenFunc func(ctx context.Context) (*sql.DB, error)

// Cache opens the handle at most once per successful attempt. Callers that
// arrive while an open is in flight wait for it instead of starting their own.
// A failed open is not remembered, so the next caller tries again.
type Cache struct {
	open  OpenFunc
	group singleflight.Group

	mu sync.RWMutex
	db *sql.DB
}

func NewCache(open OpenFunc) *Cache {
	return &Cache{open: open}
}

func (c *Cache) DB(ctx context.Context) (*sql.DB, error) {
	if db := c.cached(); db != nil {
		return db, nil
	}

	ch := c.group.DoChan("db", func() (any, error) {
		if db := c.cached(); db != nil {
			return db, nil
		}
		// the open outlives the caller that happened to trigger it
		db, err := c.open(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.db = db
		c.mu.Unlock()
		return db, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*sql.DB), nil
	}
}

// Close closes the handle if it was ever opened.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *Cache) cached() *sql.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Static wraps an already opened handle.
func Static(db *sql.DB) Conn {
	return staticConn{db: db}
}

type staticConn struct {
	db *sql.DB
}

func (s staticConn) DB(context.Context) (*sql.DB, error) {
	return s.db, nil
}
