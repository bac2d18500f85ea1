package dbutil

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// gendry builds MySQL-flavored SQL: `?` placeholders and `LIMIT offset, count`.
var mysqlLimit = regexp.MustCompile(`(?i)LIMIT\s+\?\s*,\s*\?`)

// Finalize converts a gendry-built query into postgres form: the LIMIT
// clause is rewritten to LIMIT/OFFSET (swapping the two bound args to
// match) and placeholders are rebound to $N.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	if loc := mysqlLimit.FindStringIndex(query); loc != nil {
		offsetIdx := strings.Count(query[:loc[0]], "?")
		if offsetIdx+1 < len(args) {
			args[offsetIdx], args[offsetIdx+1] = args[offsetIdx+1], args[offsetIdx]
			query = mysqlLimit.ReplaceAllString(query, "LIMIT ? OFFSET ?")
		}
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}

// IsConflict reports whether err is a postgres unique violation.
func IsConflict(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
