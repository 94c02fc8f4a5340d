package completion

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/interview-prep/backend/internal/config"
)

type stubClient struct {
	content string
	err     error
	calls   int
}

func (s *stubClient) Complete(ctx context.Context, messages []Message) (*Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Response{Content: s.content}, nil
}

func TestSplitSystem(t *testing.T) {
	msgs := []Message{
		{Role: RoleSystem, Content: "rules"},
		{Role: RoleUser, Content: "question"},
		{Role: RoleSystem, Content: "more rules"},
		{Role: RoleAssistant, Content: "answer"},
	}

	system, turns := splitSystem(msgs)
	if system != "rules\n\nmore rules" {
		t.Errorf("system = %q", system)
	}
	if len(turns) != 2 || turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Errorf("unexpected turns: %+v", turns)
	}
}

func TestFallbackClient_PrimarySucceeds(t *testing.T) {
	primary := &stubClient{content: "primary"}
	secondary := &stubClient{content: "secondary"}

	resp, err := NewFallbackClient(primary, secondary).Complete(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "primary" {
		t.Errorf("content = %q, want primary", resp.Content)
	}
	if secondary.calls != 0 {
		t.Errorf("fallback called %d times, want 0", secondary.calls)
	}
}

func TestFallbackClient_PrimaryFails(t *testing.T) {
	primary := &stubClient{err: errors.New("rate limited")}
	secondary := &stubClient{content: "secondary"}

	resp, err := NewFallbackClient(primary, secondary).Complete(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "secondary" {
		t.Errorf("content = %q, want secondary", resp.Content)
	}
}

func TestFallbackClient_BothFail(t *testing.T) {
	primary := &stubClient{err: errors.New("primary down")}
	secondary := &stubClient{err: errors.New("secondary down")}

	_, err := NewFallbackClient(primary, secondary).Complete(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error when both providers fail")
	}
	if !strings.Contains(err.Error(), "secondary down") || !strings.Contains(err.Error(), "primary down") {
		t.Errorf("error should mention both failures: %v", err)
	}
}

func TestFallbackClient_NoFallback(t *testing.T) {
	primary := &stubClient{err: errors.New("boom")}

	_, err := NewFallbackClient(primary, nil).Complete(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "no fallback") {
		t.Errorf("expected no-fallback error, got %v", err)
	}
}

func TestCacheKey(t *testing.T) {
	a := []Message{{Role: RoleSystem, Content: "s"}, {Role: RoleUser, Content: "u"}}
	b := []Message{{Role: RoleSystem, Content: "s"}, {Role: RoleUser, Content: "u"}}
	c := []Message{{Role: RoleSystem, Content: "su"}}

	if CacheKey("m", a) != CacheKey("m", b) {
		t.Error("identical prompts should share a key")
	}
	if CacheKey("m", a) == CacheKey("m", c) {
		t.Error("message boundaries must affect the key")
	}
	if CacheKey("m1", a) == CacheKey("m2", a) {
		t.Error("namespace must affect the key")
	}
	if !strings.HasPrefix(CacheKey("m", a), "completion:") {
		t.Error("expected completion: prefix")
	}
}

func TestMockClient(t *testing.T) {
	resp, err := NewMockClient().Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := strings.TrimSuffix(strings.TrimPrefix(resp.Content, "```json\n"), "\n```")
	if !json.Valid([]byte(body)) {
		t.Errorf("mock response is not valid JSON: %s", resp.Content)
	}
	if !strings.Contains(body, "overallAssessment") {
		t.Error("mock response missing overallAssessment")
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default().Completion

	cfg.Provider = "none"
	client, model, err := NewFromConfig(cfg)
	if err != nil || client != nil || model != "none" {
		t.Errorf("provider none: client=%v model=%q err=%v", client, model, err)
	}

	cfg.Provider = "mock"
	client, _, err = NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("mock provider: %v", err)
	}
	if _, ok := client.(*MockClient); !ok {
		t.Errorf("expected *MockClient, got %T", client)
	}

	cfg.Provider = "anthropic"
	cfg.APIKey = ""
	if _, _, err := NewFromConfig(cfg); err == nil {
		t.Error("expected error for anthropic without key")
	}

	cfg.Provider = "mock"
	cfg.FallbackProvider = "cli"
	client, _, err = NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("mock+cli: %v", err)
	}
	if _, ok := client.(*FallbackClient); !ok {
		t.Errorf("expected *FallbackClient, got %T", client)
	}
}

func TestWithCache_Disabled(t *testing.T) {
	inner := &stubClient{content: "x"}

	client, closeFn := WithCache(context.Background(), inner, config.RedisConfig{}, "model")
	defer closeFn()
	if client != Client(inner) {
		t.Errorf("expected the inner client when no redis url is set, got %T", client)
	}

	client, closeFn = WithCache(context.Background(), nil, config.RedisConfig{URL: "redis://localhost:6379"}, "model")
	defer closeFn()
	if client != nil {
		t.Error("nil client should stay nil")
	}
}

func TestNewFromConfig_Timeout(t *testing.T) {
	cfg := config.Default().Completion
	cfg.Provider = "cli"
	cfg.TimeoutSeconds = 7

	client, _, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("cli provider: %v", err)
	}
	cli, ok := client.(*CLIClient)
	if !ok {
		t.Fatalf("expected *CLIClient, got %T", client)
	}
	if cli.timeout != 7*time.Second {
		t.Errorf("timeout = %v, want 7s", cli.timeout)
	}
}

func TestCLIClient_Timeout(t *testing.T) {
	script := filepath.Join(t.TempDir(), "slow-cli")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexec sleep 5\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	client := NewCLIClient(script, 50*time.Millisecond)
	start := time.Now()
	_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
}
