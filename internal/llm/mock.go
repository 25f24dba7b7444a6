package llm

import (
	"context"
	"strings"
)

const mockFooter = "\n\n---\n[Mock response - configure an LLM API key for real generation]"

// MockClient produces deterministic placeholder responses keyed on prompt
// content. It stands in for a real provider when no credentials are
// configured so that document generation steps never fail offline.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Generate(ctx context.Context, prompt, systemPrompt, ragContext string) (string, error) {
	return mockResponse(prompt), nil
}

func (c *MockClient) GenerateStream(ctx context.Context, prompt, systemPrompt, ragContext string) (<-chan string, error) {
	out := make(chan string)
	go func() {
		defer close(out)
		for _, word := range strings.Split(mockResponse(prompt), " ") {
			select {
			case out <- word + " ":
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func mockResponse(prompt string) string {
	p := strings.ToLower(prompt)
	switch {
	case strings.Contains(p, "welcome email"):
		return "Subject: Welcome to the Team!\n\n" +
			"Dear New Team Member,\n\n" +
			"We're thrilled to welcome you. Here's what to expect on day one: " +
			"orientation at 9:00 AM, meeting your buddy and manager, IT setup, and a team lunch.\n\n" +
			"Best regards,\nHR Team" + mockFooter
	case strings.Contains(p, "employment contract"):
		return "# EMPLOYMENT CONTRACT\n\n" +
			"This Employment Agreement sets out the position details, compensation, " +
			"working hours, termination terms and governing law for the employee named below." + mockFooter
	case strings.Contains(p, "non-disclosure") || strings.Contains(p, "nda"):
		return "# NON-DISCLOSURE AGREEMENT\n\n" +
			"The undersigned agrees to hold in strict confidence all proprietary " +
			"information disclosed in the course of employment." + mockFooter
	case strings.Contains(p, "equity"):
		return "# EQUITY AGREEMENT\n\n" +
			"Subject to board approval, the employee will be granted stock options " +
			"vesting over four years with a one-year cliff." + mockFooter
	case strings.Contains(p, "offer letter"):
		return "# OFFER OF EMPLOYMENT\n\n" +
			"We are pleased to offer you a position with our company. Your compensation " +
			"package includes a competitive salary and comprehensive benefits. " +
			"Please sign and return within 5 business days." + mockFooter
	case strings.Contains(p, "30-60-90"):
		return "# 30-60-90 Day Onboarding Plan\n\n" +
			"First 30 days: learn and orient. Days 31-60: contribute and collaborate. " +
			"Days 61-90: own and deliver, closing with a 90-day review." + mockFooter
	case strings.Contains(p, "equipment") || strings.Contains(p, "provisioning"):
		return "# IT Equipment Provisioning Request\n\n" +
			"Hardware: laptop, monitor, peripherals, access badge. " +
			"Software: collaboration suite, VPN client, department tooling." + mockFooter
	case strings.Contains(p, "validate") || strings.Contains(p, "completeness"):
		return "# Employee Data Validation Summary\n\n" +
			"All critical fields are present. Employee is ready to proceed with onboarding." + mockFooter
	default:
		summary := prompt
		if len(summary) > 150 {
			summary = summary[:150] + "..."
		}
		return "# Generated Content\n\nGenerated response for the requested task.\n\nPrompt summary: " + summary + mockFooter
	}
}
