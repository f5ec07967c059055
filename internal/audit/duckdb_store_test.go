// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

func newDuckDBStore(t *testing.T) *DuckDBStore {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewDuckDBStore(context.Background(), db)
	if err != nil {
		t.Fatalf("NewDuckDBStore: %v", err)
	}
	return s
}

func TestDuckDBStoreRoundTrip(t *testing.T) {
	t.Parallel()
	s := newDuckDBStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []*Event{
		{ID: "e1", Timestamp: base, Type: EventTypeSubmitted, Outcome: OutcomeSuccess,
			Actor: Actor{Name: "alice", Role: "editor"}, Action: "upload", ExecutionID: "exec-1",
			HandlerID: "shapefile", Description: "submission accepted", SourceIP: "10.0.0.1", RequestID: "req-1"},
		{ID: "e2", Timestamp: base.Add(time.Minute), Type: EventTypeRejected, Outcome: OutcomeFailure,
			Actor: Actor{Name: "bob"}, Action: "upload", Category: "quota", Description: "limit reached"},
		{ID: "e3", Timestamp: base.Add(2 * time.Minute), Type: EventTypeCancelled, Outcome: OutcomeSuccess,
			Actor: Actor{Name: "alice", Role: "editor"}, Action: "cancel", ExecutionID: "exec-1", Description: "execution cancelled"},
	}
	for _, e := range events {
		if err := s.Save(ctx, e); err != nil {
			t.Fatalf("Save(%s): %v", e.ID, err)
		}
	}
	if err := s.Save(ctx, nil); err == nil {
		t.Error("Save(nil) succeeded")
	}

	all, err := s.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 3 || all[0].ID != "e3" || all[2].ID != "e1" {
		t.Fatalf("Query order = %v, want e3 e2 e1", ids(all))
	}
	first := all[2]
	if first.Actor.Role != "editor" || first.HandlerID != "shapefile" || first.RequestID != "req-1" || first.SourceIP != "10.0.0.1" {
		t.Errorf("e1 fields lost: %+v", first)
	}
	if !first.Timestamp.Equal(base) {
		t.Errorf("e1 timestamp = %v, want %v", first.Timestamp, base)
	}
	if all[1].Actor.Role != "" || all[1].Category != "quota" {
		t.Errorf("e2 = %+v", all[1])
	}

	since := base.Add(30 * time.Second)
	tests := []struct {
		name   string
		filter QueryFilter
		want   []string
	}{
		{name: "actor", filter: QueryFilter{Actor: "alice"}, want: []string{"e3", "e1"}},
		{name: "execution", filter: QueryFilter{ExecutionID: "exec-1", Types: []EventType{EventTypeSubmitted}}, want: []string{"e1"}},
		{name: "types", filter: QueryFilter{Types: []EventType{EventTypeRejected, EventTypeCancelled}}, want: []string{"e3", "e2"}},
		{name: "since", filter: QueryFilter{Since: &since}, want: []string{"e3", "e2"}},
		{name: "limit", filter: QueryFilter{Limit: 1}, want: []string{"e3"}},
	}
	for _, tt := range tests {
		got, err := s.Query(ctx, tt.filter)
		if err != nil {
			t.Fatalf("%s: Query: %v", tt.name, err)
		}
		if g := ids(got); len(g) != len(tt.want) || (len(g) > 0 && g[0] != tt.want[0]) {
			t.Errorf("%s: got %v, want %v", tt.name, g, tt.want)
		}
	}

	n, err := s.Delete(ctx, base.Add(90*time.Second))
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 2 {
		t.Errorf("Delete removed %d, want 2", n)
	}
	left, _ := s.Query(ctx, QueryFilter{})
	if len(left) != 1 || left[0].ID != "e3" {
		t.Errorf("after Delete = %v, want [e3]", ids(left))
	}
}

func TestNewDuckDBStoreIsIdempotent(t *testing.T) {
	t.Parallel()
	s := newDuckDBStore(t)
	if _, err := NewDuckDBStore(context.Background(), s.db); err != nil {
		t.Fatalf("second NewDuckDBStore: %v", err)
	}
}

func ids(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}
