package user

import (
	"context"
	"database/sql"
	"errors"
)

type failingConn struct{}

func (failingConn) DB(context.Context) (*sql.DB, error) {
	return nil, errors.New("database unavailable")
}
