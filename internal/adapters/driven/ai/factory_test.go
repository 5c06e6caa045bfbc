package ai

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medatlas-labs/medcode-cli/internal/adapters/driven/agents"
	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

// fakeOllama returns a test server that answers the Ollama ping endpoint.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCollaborators_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &Collaborators{}
		// Should not panic
		result.Close()
	})

	t.Run("close with chat service", func(t *testing.T) {
		result := &Collaborators{
			Chat: createOllamaChat(domain.LLMConfig{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "llama3.2",
			}),
		}
		result.Close()
	})
}

func TestCreateChatService(t *testing.T) {
	tests := []struct {
		name        string
		cfg         domain.LLMConfig
		wantNil     bool
		wantErr     bool
		errContains string
	}{
		{
			name:    "unconfigured returns nil",
			cfg:     domain.LLMConfig{},
			wantNil: true,
			wantErr: false,
		},
		{
			name: "ollama provider creates service",
			cfg: domain.LLMConfig{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "llama3.2",
			},
			wantNil: false,
			wantErr: false,
		},
		{
			name: "openai provider creates service",
			cfg: domain.LLMConfig{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "gpt-4o-mini",
			},
			wantNil: false,
			wantErr: false,
		},
		{
			name: "anthropic provider creates service",
			cfg: domain.LLMConfig{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
				Model:    "claude-3-5-sonnet-latest",
			},
			wantNil: false,
			wantErr: false,
		},
		{
			name: "openai without key returns nil (not configured)",
			cfg: domain.LLMConfig{
				Provider: domain.AIProviderOpenAI,
				Model:    "gpt-4o-mini",
			},
			wantNil: true,
			wantErr: false,
		},
		{
			name: "unknown provider returns nil (not configured)",
			cfg: domain.LLMConfig{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateChatService(tt.cfg)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantNil && svc != nil {
				t.Error("expected nil service, got non-nil")
			}
			if !tt.wantNil && svc == nil {
				t.Error("expected non-nil service, got nil")
			}
			if svc != nil {
				svc.Close()
			}
		})
	}
}

func TestCreateChatService_UsesProviderDefaults(t *testing.T) {
	svc, err := CreateChatService(domain.LLMConfig{
		Provider: domain.AIProviderOllama,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc == nil {
		t.Fatal("expected non-nil service")
	}
	defer svc.Close()

	if got := svc.ModelName(); got != "llama3.2" {
		t.Errorf("default model = %q, want llama3.2", got)
	}
}

func TestCreateAndValidateChatService_NotConfigured(t *testing.T) {
	svc, err := CreateAndValidateChatService(domain.LLMConfig{})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if svc != nil {
		t.Error("expected nil service")
		svc.Close()
	}
}

func TestCreateAndValidateChatService_Reachable(t *testing.T) {
	srv := fakeOllama(t)

	svc, err := CreateAndValidateChatService(domain.LLMConfig{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
		Model:    "llama3.2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc == nil {
		t.Fatal("expected non-nil service")
	}
	svc.Close()
}

func TestCreateAndValidateChatService_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // Connection refused from here on.

	svc, err := CreateAndValidateChatService(domain.LLMConfig{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
		Model:    "llama3.2",
	})
	if svc != nil {
		t.Error("expected nil service")
		svc.Close()
	}
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, domain.ErrLLMUnavailable) {
		t.Errorf("error should wrap ErrLLMUnavailable, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Run 'medcode settings' to fix") {
		t.Errorf("error should carry settings guidance, got: %v", err)
	}
}

func TestAssemble_NoProvider(t *testing.T) {
	result := Assemble(domain.LLMConfig{})
	defer result.Close()

	if !result.Degraded {
		t.Error("expected degraded mode with no provider")
	}
	if result.Chat != nil {
		t.Error("expected nil chat service")
	}
	if _, ok := result.Classifier.(*agents.KeywordClassifier); !ok {
		t.Errorf("classifier = %T, want *agents.KeywordClassifier", result.Classifier)
	}
	if result.Suggester != nil {
		t.Error("expected nil suggester")
	}
	if result.Synthesiser != nil {
		t.Error("expected nil synthesiser")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
}

func TestAssemble_ReachableProvider(t *testing.T) {
	srv := fakeOllama(t)

	result := Assemble(domain.LLMConfig{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
		Model:    "llama3.2",
	})
	defer result.Close()

	if result.Degraded {
		t.Error("expected full LLM mode")
	}
	if result.Chat == nil {
		t.Error("expected chat service")
	}
	if _, ok := result.Classifier.(*agents.Classifier); !ok {
		t.Errorf("classifier = %T, want *agents.Classifier", result.Classifier)
	}
	if result.Suggester == nil {
		t.Error("expected suggester")
	}
	if result.Synthesiser == nil {
		t.Error("expected synthesiser")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
}

func TestAssemble_UnreachableProviderDegrades(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	result := Assemble(domain.LLMConfig{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
		Model:    "llama3.2",
	})
	defer result.Close()

	if !result.Degraded {
		t.Error("expected degraded mode when provider is unreachable")
	}
	if result.Chat != nil {
		t.Error("expected nil chat service")
	}
	if _, ok := result.Classifier.(*agents.KeywordClassifier); !ok {
		t.Errorf("classifier = %T, want *agents.KeywordClassifier", result.Classifier)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", result.Warnings)
	}
	if !strings.Contains(result.Warnings[0], "LLM service unavailable") {
		t.Errorf("warning should name the failure, got: %s", result.Warnings[0])
	}
}

func TestConfigValidator_ValidateLLM(t *testing.T) {
	validator := NewConfigValidator()

	t.Run("not configured returns nil", func(t *testing.T) {
		if err := validator.ValidateLLM(domain.LLMConfig{}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("reachable provider validates", func(t *testing.T) {
		srv := fakeOllama(t)

		err := validator.ValidateLLM(domain.LLMConfig{
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
			Model:    "llama3.2",
		})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unreachable provider fails", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		err := validator.ValidateLLM(domain.LLMConfig{
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
			Model:    "llama3.2",
		})
		if err == nil {
			t.Error("expected error for unreachable provider")
		}
	})
}
