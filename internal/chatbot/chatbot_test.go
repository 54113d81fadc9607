package chatbot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    string
		wantErr error
	}{
		{
			name: "single line",
			out:  "CHATBOT_RESPONSE: Open 6AM to 10PM\n",
			want: "Open 6AM to 10PM",
		},
		{
			name: "noise before and continuation lines after",
			out:  "Connecting to registry\r\nCHATBOT_RESPONSE: Plans:\r\n  Standard\r\n\r\nPremium  \r\n",
			want: "Plans:\nStandard\nPremium",
		},
		{
			name:    "error line",
			out:     "CHATBOT_ERROR: registry unreachable\n",
			wantErr: ErrBridge,
		},
		{
			name: "response wins over error",
			out:  "CHATBOT_ERROR: retrying\nCHATBOT_RESPONSE: ok\n",
			want: "ok",
		},
		{
			name:    "garbage",
			out:     "Exception in thread main\n",
			wantErr: ErrInvalidResponse,
		},
		{
			name:    "empty",
			out:     "",
			wantErr: ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutput(tt.out)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("answer = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBridgeErrorMessage(t *testing.T) {
	_, err := ParseOutput("CHATBOT_ERROR: registry unreachable")
	if err == nil || !strings.Contains(err.Error(), "registry unreachable") {
		t.Fatalf("error = %v", err)
	}
}

// helperBridge re-runs the test binary as the chatbot process.
func helperBridge(mode string, timeout time.Duration) *Bridge {
	return &Bridge{
		Command: os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess", "--"},
		Env:     []string{"GO_WANT_HELPER_PROCESS=1", "CHATBOT_HELPER_MODE=" + mode},
		Timeout: timeout,
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	question := ""
	if len(args) > 1 {
		question = args[len(args)-1]
	}

	switch os.Getenv("CHATBOT_HELPER_MODE") {
	case "echo":
		fmt.Printf("Looking up registry\nCHATBOT_RESPONSE: You asked: %s\n", question)
	case "fail":
		fmt.Println("CHATBOT_ERROR: no answer")
		os.Exit(1)
	case "sleep":
		time.Sleep(10 * time.Second)
	}
	os.Exit(0)
}

func TestAskRunsProcess(t *testing.T) {
	b := helperBridge("echo", 5*time.Second)

	got, err := b.Ask(context.Background(), "opening\nhours?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "You asked: opening hours?" {
		t.Errorf("answer = %q", got)
	}
}

func TestAskBridgeError(t *testing.T) {
	_, err := helperBridge("fail", 5*time.Second).Ask(context.Background(), "hi")
	if !errors.Is(err, ErrBridge) {
		t.Fatalf("error = %v, want ErrBridge", err)
	}
}

func TestAskTimeout(t *testing.T) {
	start := time.Now()
	_, err := helperBridge("sleep", 200*time.Millisecond).Ask(context.Background(), "hi")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("error = %v, want ErrInvalidResponse", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Ask took %v, timeout not enforced", elapsed)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	b := &Bridge{Command: "does-not-matter"}
	if _, err := b.Ask(context.Background(), " \n "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("error = %v", err)
	}
}

func TestAskUnavailable(t *testing.T) {
	b := &Bridge{Command: "/nonexistent/chatbot-binary"}
	if _, err := b.Ask(context.Background(), "hi"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}
