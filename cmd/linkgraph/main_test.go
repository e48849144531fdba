package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		message string
	}{
		{"success", nil, 0, ""},
		{"interrupted", fmt.Errorf("render: %w", context.Canceled), 130, ""},
		{"failure", errors.New("bad document"), 1, "linkgraph: bad document\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := exitCode(&buf, tt.err); got != tt.want {
				t.Errorf("exitCode = %d, want %d", got, tt.want)
			}
			if buf.String() != tt.message {
				t.Errorf("message = %q, want %q", buf.String(), tt.message)
			}
		})
	}
}
