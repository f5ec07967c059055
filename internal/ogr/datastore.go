// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package ogr

import (
	"strconv"
	"strings"
)

// Datastore holds the destination PostGIS connection parameters. Values
// come from configuration only.
type Datastore struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Schema   string
	SSLMode  string
}

// ConnectionString renders the GDAL PostgreSQL data source name:
//
//	PG:dbname='geo' host='db' port='5432' user='geo' password='secret'
func (d Datastore) ConnectionString() string {
	return d.render(d.Password)
}

// RedactedConnectionString is ConnectionString with the password masked.
func (d Datastore) RedactedConnectionString() string {
	if d.Password == "" {
		return d.render("")
	}
	return d.render("***")
}

func (d Datastore) render(password string) string {
	var b strings.Builder
	b.WriteString("PG:")
	pairs := [][2]string{
		{"dbname", d.DBName},
		{"host", d.Host},
		{"port", portString(d.Port)},
		{"user", d.User},
		{"password", password},
		{"sslmode", d.SSLMode},
	}
	if d.Schema != "" {
		pairs = append(pairs, [2]string{"active_schema", d.Schema})
	}
	first := true
	for _, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		if !first {
			b.WriteByte(' ')
		}
		first = false
		b.WriteString(kv[0])
		b.WriteString("='")
		b.WriteString(quoteConnValue(kv[1]))
		b.WriteByte('\'')
	}
	return b.String()
}

func portString(port int) string {
	if port <= 0 {
		return ""
	}
	return strconv.Itoa(port)
}

// quoteConnValue escapes a libpq keyword value for use inside single quotes.
func quoteConnValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}
