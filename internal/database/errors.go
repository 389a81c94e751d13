package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"
)

// pqClassConnection is the SQLSTATE class for connection exceptions.
const pqClassConnection pq.ErrorClass = "08"

// IsConnectionError reports whether err means the store could not be reached,
// as opposed to a failed statement on a healthy connection.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == pqClassConnection
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
