//go:build !cgo_sqlite

package sqlite

import (
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// dsn appends pragmas to path in the modernc.org/sqlite form
// _pragma=key(value).
func dsn(path string, pragmas [][2]string) string {
	s := path
	for i, p := range pragmas {
		sep := "&"
		if i == 0 {
			sep = "?"
		}
		s += sep
		s += "_pragma=" + p[0] + "(" + p[1] + ")"
	}
	return s
}
