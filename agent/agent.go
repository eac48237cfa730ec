// Package agent implements the interactive portfolio analyst: a chat session
// seeded with the rendered portfolio reports, so the user can ask questions
// about their loans in plain language.
package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

const systemPrompt = `You are a careful financial analyst embedded in a
student-loan portfolio dashboard. You answer questions about the portfolio
reports provided below. Figures in the reports are ground truth: never invent
numbers, and say so when a question cannot be answered from the reports.`

// Analyst is a chat session over the portfolio reports.
type Analyst struct {
	ModelName string
	report    string
	chat      *genai.Chat
}

// NewAnalyst creates an analyst over the given rendered reports.
func NewAnalyst(report string) *Analyst {
	return &Analyst{ModelName: defaultModel, report: report}
}

// Start creates the underlying chat session.
func (a *Analyst) Start(ctx context.Context, client *genai.Client) error {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt + "\n\n" + a.report}},
		},
	}
	chat, err := client.Chats.Create(ctx, a.ModelName, cfg, nil)
	if err != nil {
		return fmt.Errorf("creating analyst chat: %w", err)
	}
	a.chat = chat
	return nil
}

// Ask sends one question and returns the analyst's answer.
func (a *Analyst) Ask(ctx context.Context, question string) (string, error) {
	resp, err := a.chat.Send(ctx, &genai.Part{Text: question})
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from analyst")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

const prompt = "assist> "

// Run starts the interactive REPL session for the analyst. Initial prompts
// are consumed before reading from r; "bye" or EOF ends the session.
func (a *Analyst) Run(ctx context.Context, client *genai.Client, w io.Writer, r io.Reader, prompts ...string) error {
	if a.chat == nil {
		if err := a.Start(ctx, client); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "Welcome to loandash assist. Type 'bye' to exit.")

	reader := bufio.NewReader(r)
	for {
		fmt.Fprint(w, prompt)
		var input string

		if len(prompts) > 0 {
			input, prompts = prompts[0], prompts[1:]
			fmt.Fprintln(w, input)
		} else {
			var err error
			input, err = reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					return nil // Clean exit on Ctrl+D
				}
				return err
			}
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "bye") {
			return nil
		}

		answer, err := a.Ask(ctx, input)
		if err != nil {
			return fmt.Errorf("analyst failed: %w", err)
		}
		fmt.Fprintln(w, answer)
	}
}
