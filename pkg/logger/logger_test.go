package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/blossomshop/cart-client/pkg/errors"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithProfileID(ctx, "profile-123")
	ctx = log.WithFlowerID(ctx, "flower-9")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte("\"profile_id\"")) {
		t.Fatalf("expected profile_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"flower_id\"")) {
		t.Fatalf("expected flower_id to be preserved; entry=%s", buf.String())
	}
}

func TestLoggerMutationField(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})
	ctx := log.WithMutation(context.Background(), "add_item")
	log.Info(ctx, "applied")
	if !bytes.Contains(buf.Bytes(), []byte("\"mutation\":\"add_item\"")) {
		t.Fatalf("expected mutation field; entry=%s", buf.String())
	}
}

func TestLoggerErrorAttachesDumpChain(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	err := pkgerrors.Wrap(pkgerrors.CodeUnreachable, errors.New("dial tcp: connection refused"), "calling marketplace")
	log.Error(context.Background(), "push failed", err)

	if !bytes.Contains(buf.Bytes(), []byte("\"error_dump\"")) {
		t.Fatalf("expected flattened error dump; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("connection refused")) {
		t.Fatalf("expected cause to appear in the chain; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("UNREACHABLE")) {
		t.Fatalf("expected error code in the dump; entry=%s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl.String() != "info" {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl.String() != "info" {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
}
