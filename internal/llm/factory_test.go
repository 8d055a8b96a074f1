package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantName string
		wantErr  error
	}{
		{name: "openai", config: Config{Provider: "openai", APIKey: "k"}, wantName: "openai"},
		{name: "claude alias", config: Config{Provider: "Claude", APIKey: "k"}, wantName: "anthropic"},
		{name: "ollama", config: Config{Provider: "ollama", Model: "mistral"}, wantName: "ollama"},
		{name: "empty provider", config: Config{}, wantErr: ErrNotConfigured},
		{name: "openai without key", config: Config{Provider: "openai"}, wantErr: ErrNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.config)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if provider.Name() != tt.wantName {
				t.Errorf("Expected provider %s, got %s", tt.wantName, provider.Name())
			}
		})
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider(Config{Provider: "mystery"})
	if err == nil || !strings.Contains(err.Error(), "unknown LLM provider") {
		t.Errorf("Expected unknown provider error, got %v", err)
	}
}

func TestEvidenceEvaluationUser_PetitionContext(t *testing.T) {
	without := EvidenceEvaluationUser("photo", "desc", "C1", "")
	if strings.Contains(without, "Petition Context") {
		t.Errorf("Expected no petition context line, got %q", without)
	}

	with := EvidenceEvaluationUser("photo", "desc", "C1", "assault case")
	if !strings.Contains(with, "- Petition Context: assault case") {
		t.Errorf("Expected petition context line, got %q", with)
	}
}
