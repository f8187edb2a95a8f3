package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/messagely/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// recordingLogger keeps Debug calls for assertions.
type recordingLogger struct {
	logging.Nop
	msgs []string
	args [][]any
}

func (r *recordingLogger) Debug(_ context.Context, msg string, args ...any) {
	r.msgs = append(r.msgs, msg)
	r.args = append(r.args, args)
}

func (r *recordingLogger) With(...any) logging.Logger { return r }

func argValue(args []any, key string) any {
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == key {
			return args[i+1]
		}
	}
	return nil
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	rec := &recordingLogger{}
	s := NewGRPCServer("", rec)

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	handlerCalled := false

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.loggingInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
	if len(rec.msgs) != 1 {
		t.Fatalf("expected one log line, got %d", len(rec.msgs))
	}
	if got := argValue(rec.args[0], "method"); got != info.FullMethod {
		t.Fatalf("method = %v", got)
	}
	if got := argValue(rec.args[0], "code"); got != codes.OK.String() {
		t.Fatalf("code = %v", got)
	}
}

func TestLoggingInterceptor_LogsErrorCode(t *testing.T) {
	rec := &recordingLogger{}
	s := NewGRPCServer("", rec)

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	wantErr := status.Error(codes.NotFound, "unknown service")

	_, err := s.loggingInterceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if got := argValue(rec.args[0], "code"); got != codes.NotFound.String() {
		t.Fatalf("code = %v", got)
	}
}
