// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
// Every filter is bound as a parameter; identifiers that cannot be bound
// (catalog views and columns) are bracket-quoted.
package repository

import (
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/grupotelles/comercial/internal/database"
)

// SearchLimit caps the free-text search views.
const SearchLimit = 100

// like is a LIKE filter that is skipped when value is empty.
type like struct {
	column string
	value  string
}

func whereLike(q squirrel.SelectBuilder, filters ...like) squirrel.SelectBuilder {
	for _, f := range filters {
		if f.value == "" {
			continue
		}
		q = q.Where(f.column+" LIKE ?", contains(f.value))
	}
	return q
}

func contains(v string) string {
	return "%" + v + "%"
}

// QuoteIdent returns name as a bracketed SQL Server identifier. A
// schema-qualified name (dbo.View) quotes each part.
func QuoteIdent(name string) string {
	name = strings.Trim(strings.TrimSpace(name), "[]")
	parts := strings.Split(name, "].[")
	if len(parts) == 1 {
		parts = strings.Split(name, ".")
	}
	for i, p := range parts {
		p = strings.Trim(p, "[]")
		parts[i] = "[" + strings.ReplaceAll(p, "]", "]]") + "]"
	}
	return strings.Join(parts, ".")
}

// top returns SELECT TOP n * FROM table; SQL Server has no LIMIT.
func top(n int, table string) squirrel.SelectBuilder {
	return database.Builder.Select("*").Options("TOP " + itoa(n)).From(table)
}

// rawAtP rewrites ? placeholders of a hand written statement to @pN.
func rawAtP(query string) (string, error) {
	return squirrel.AtP.ReplacePlaceholders(query)
}
