package llm_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zerotouch/onboard/internal/llm"
)

func TestMockClientGenerate(t *testing.T) {
	client := llm.NewMockClient()
	ctx := context.Background()

	cases := []struct {
		prompt string
		want   string
	}{
		{"Generate a warm, professional welcome email for a new employee", "Welcome to the Team"},
		{"Generate a professional employment contract for:", "EMPLOYMENT CONTRACT"},
		{"Generate a non-disclosure agreement for:", "NON-DISCLOSURE AGREEMENT"},
		{"Generate an equity agreement for:", "EQUITY AGREEMENT"},
		{"Generate a formal offer letter for:", "OFFER OF EMPLOYMENT"},
		{"Create a comprehensive 30-60-90 day onboarding plan", "30-60-90 Day Onboarding Plan"},
		{"Generate an IT equipment provisioning request", "Equipment Provisioning Request"},
		{"Produce a short completeness summary", "Validation Summary"},
	}
	for _, tc := range cases {
		got, err := client.Generate(ctx, tc.prompt, "system", "")
		assert.NoError(t, err)
		assert.Contains(t, got, tc.want, "prompt %q", tc.prompt)
	}

	// same prompt, same output
	first, err := client.Generate(ctx, "Generate a formal offer letter for:", "", "")
	assert.NoError(t, err)
	second, err := client.Generate(ctx, "Generate a formal offer letter for:", "", "")
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMockClientGenerateUnknownPrompt(t *testing.T) {
	client := llm.NewMockClient()
	got, err := client.Generate(context.Background(), "Compose a haiku about printers", "", "")
	assert.NoError(t, err)
	assert.Contains(t, got, "Generated Content")
	assert.Contains(t, got, "haiku about printers")
}

func TestMockClientGenerateStream(t *testing.T) {
	client := llm.NewMockClient()
	stream, err := client.GenerateStream(context.Background(), "Generate a non-disclosure agreement for:", "", "")
	assert.NoError(t, err)

	var sb strings.Builder
	for fragment := range stream {
		sb.WriteString(fragment)
	}
	assert.Contains(t, sb.String(), "NON-DISCLOSURE AGREEMENT")
}

func TestMockClientStreamStopsOnCancel(t *testing.T) {
	client := llm.NewMockClient()
	ctx, cancel := context.WithCancel(context.Background())
	stream, err := client.GenerateStream(ctx, "Generate a formal offer letter for:", "", "")
	assert.NoError(t, err)

	<-stream
	cancel()
	for range stream {
	}
}

func TestNewClientFallsBackToMock(t *testing.T) {
	client, err := llm.NewClient(llm.Config{Provider: "openai"})
	assert.NoError(t, err)
	assert.IsType(t, &llm.MockClient{}, client)
}
