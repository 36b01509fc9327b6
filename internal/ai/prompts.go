package ai

import (
	"fmt"
	"strings"
)

// SystemPrompt defines Quotie's persona. It is sent as the first user turn
// of every chat request.
const SystemPrompt = `You are Quotie AI, a friendly and knowledgeable AI assistant designed specifically for freelancers. You have two main roles:

1. QUOTATION EXPERT: Help freelancers create professional project quotations with accurate pricing, timelines, and task breakdowns.

2. FREELANCER BUDDY: Provide general advice, motivation, and support for freelancers on their journey.

When users ask for quotations or project estimates, analyze their project description and provide:
- A clear project title
- Realistic budget breakdown
- Task-by-task timeline and pricing
- Professional recommendations

For general conversations, be supportive, motivational, and share practical freelancing wisdom.

Always maintain a friendly, encouraging tone while being professional. Remember - you're both a tool and a companion for freelancers!`

// Greeting is the model turn that answers SystemPrompt, and the first
// bubble the chat view shows.
const Greeting = "Hello! I'm Quotie AI, your freelancing companion! 🚀\n\n" +
	"I'm here to help you create professional project quotations and be your freelancing buddy. " +
	"Whether you need help pricing a project, breaking down tasks, or just want some advice and motivation, I've got your back!\n\n" +
	"What can I help you with today? Are you working on a new project that needs a quotation, or would you like to chat about freelancing?"

// Apologies returned in place of a reply when generation fails.
const (
	ChatApology      = "I apologize, but I'm having trouble responding right now. Please try again in a moment!"
	QuotationApology = "I apologize, but I'm having trouble generating the quotation right now. Please try again with a more detailed project description!"
)

const quotationTemplate = `Please analyze this project description and create a professional quotation. Provide your response in a clear, structured format with:

PROJECT TITLE: [Creative and descriptive title]

PROJECT OVERVIEW: [Brief 2-3 sentence summary]

BUDGET BREAKDOWN:
• Total Estimated Budget: [Amount] [Currency]
• Timeline: [X weeks/days]

TASK BREAKDOWN:
1. [Task Name] - [X hours] hours at [Rate]/hour = [Subtotal]
2. [Task Name] - [X hours] hours at [Rate]/hour = [Subtotal]
...

RECOMMENDATIONS:
• [Professional advice or considerations]

Project Description: %s

Please make the quotation realistic and industry-appropriate.`

// QuotationPrompt wraps a project description in the structured quotation
// template.
func QuotationPrompt(description string) string {
	return fmt.Sprintf(quotationTemplate, description)
}

var quotationKeywords = []string{
	"quotation", "quote", "estimate", "pricing", "budget", "cost",
	"how much", "price", "project cost", "proposal", "bid",
}

// IsQuotationRequest reports whether text asks for a quotation. Matching is
// a case-insensitive substring search, so "bidding" and "costume" match too.
func IsQuotationRequest(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range quotationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
