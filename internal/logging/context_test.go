// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	a := GenerateCorrelationID()
	b := GenerateCorrelationID()
	if len(a) != 8 {
		t.Errorf("len(GenerateCorrelationID()) = %d, want 8", len(a))
	}
	if a == b {
		t.Errorf("expected unique IDs, got %q twice", a)
	}
}

func TestContextIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" ||
		ExecutionIDFromContext(ctx) != "" || StepFromContext(ctx) != "" {
		t.Fatal("expected empty IDs on background context")
	}

	ctx = ContextWithCorrelationID(ctx, "corr")
	ctx = ContextWithRequestID(ctx, "req")
	ctx = ContextWithExecutionID(ctx, "exec")
	ctx = ContextWithStep(ctx, "import_resource")

	if got := CorrelationIDFromContext(ctx); got != "corr" {
		t.Errorf("CorrelationIDFromContext = %q", got)
	}
	if got := RequestIDFromContext(ctx); got != "req" {
		t.Errorf("RequestIDFromContext = %q", got)
	}
	if got := ExecutionIDFromContext(ctx); got != "exec" {
		t.Errorf("ExecutionIDFromContext = %q", got)
	}
	if got := StepFromContext(ctx); got != "import_resource" {
		t.Errorf("StepFromContext = %q", got)
	}
}

func TestContextWithNewCorrelationID(t *testing.T) {
	t.Parallel()

	ctx := ContextWithNewCorrelationID(context.Background())
	if CorrelationIDFromContext(ctx) == "" {
		t.Error("expected generated correlation ID")
	}
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	ctx := ContextWithExecutionID(context.Background(), "exec-42")
	ctx = ContextWithStep(ctx, "publish_resource")
	Ctx(ctx).Info().Msg("step done")

	out := buf.String()
	for _, want := range []string{`"execution_id":"exec-42"`, `"step":"publish_resource"`, "step done"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output: %s", want, out)
		}
	}
	if strings.Contains(out, "correlation_id") {
		t.Errorf("unexpected correlation_id in output: %s", out)
	}
}

func TestCtxWith(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	ctx := ContextWithRequestID(context.Background(), "req-7")
	l := CtxWith(ctx).Str("handler", "shapefile").Logger()
	l.Info().Msg("matched")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-7"`) || !strings.Contains(out, `"handler":"shapefile"`) {
		t.Errorf("unexpected output: %s", out)
	}
}
