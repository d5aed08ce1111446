// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const summaryPrompt = `Role: Expert in Security Research and News Writing

Task: Write a short executive summary of the cyber security news digest below.

Instructions: Combine similar stories into single points to avoid duplicates.
Order points from most serious (critical zero-day vulnerabilities, active
exploits, major enterprise breaches) to least serious. Use simple, clear
language suitable for a general audience. Explain technical jargon. Focus on
the business impact and risk.

Digest:

`

// geminiSummarize condenses the digest with the Gemini API.
func geminiSummarize(ctx context.Context, apiKey, digest string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-1.5-flash")
	resp, err := model.GenerateContent(ctx, genai.Text(summaryPrompt+digest))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("gemini returned no text")
	}
	return sb.String(), nil
}
