package repository

import "database/sql"

type nullString struct {
	sql.NullString
}

func (n nullString) ptr() *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

func fromPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
