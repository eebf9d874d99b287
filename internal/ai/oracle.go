package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrEmptyResponse = errors.New("empty ai response")

const DefaultInstruction = `You are a meticulous copy editor.
Review the text below for grammar, spelling, punctuation and clarity problems.
- Use the same language as the content.
- Do not rewrite for style and do not change the meaning.
- "issue" must quote the exact problematic text as it appears in the content.
- "location" briefly says where the problem is (for example "paragraph 2").
- "correction" must be phrased as: Change "<exact text>" to "<replacement>".`

// ReviewRequest is one oracle call. ChunkIndex is zero-based.
type ReviewRequest struct {
	ChunkText         string
	InstructionPrompt string
	IsPartial         bool
	ChunkIndex        int
	ChunkCount        int
}

type Oracle struct {
	gen     IGenerator
	timeout time.Duration
}

func NewOracle(gen IGenerator, timeout time.Duration) *Oracle {
	return &Oracle{gen: gen, timeout: timeout}
}

// Review returns the raw oracle text. Every failure is reported as an
// *OracleError.
func (o *Oracle) Review(ctx context.Context, req ReviewRequest) (string, error) {
	if o == nil || o.gen == nil {
		return "", &OracleError{Message: "oracle not configured", Err: ErrUnavailable}
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	resp, err := o.gen.Generate(ctx, BuildPrompt(req))
	if err != nil {
		return "", asOracleError(err)
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", &OracleError{Message: ErrEmptyResponse.Error(), Err: ErrEmptyResponse}
	}
	return text, nil
}

type forgetter interface {
	Forget(prompt string)
}

// Forget evicts the cached response for req so the next Review reaches the
// provider again. Callers use it when the response could not be parsed.
func (o *Oracle) Forget(req ReviewRequest) {
	if o == nil {
		return
	}
	if f, ok := o.gen.(forgetter); ok {
		f.Forget(BuildPrompt(req))
	}
}

func BuildPrompt(req ReviewRequest) string {
	instruction := strings.TrimSpace(req.InstructionPrompt)
	if instruction == "" {
		instruction = DefaultInstruction
	}
	var sb strings.Builder
	sb.WriteString(instruction)
	sb.WriteString("\n\n")
	if req.IsPartial {
		fmt.Fprintf(&sb, "The content is section %d of %d of a longer document.\n", req.ChunkIndex+1, req.ChunkCount)
		sb.WriteString(`Respond with ONLY a JSON object in this exact format:
{"corrections":[{"issue":"...","location":"...","correction":"..."}],"summary":"..."}
Do not include the corrected text.`)
	} else {
		sb.WriteString(`Respond with ONLY a JSON object in this exact format:
{"corrections":[{"issue":"...","location":"...","correction":"..."}],"summary":"...","correctedText":"<the full corrected content>"}`)
	}
	sb.WriteString("\nIf there is nothing to fix, return an empty corrections array.\n\nCONTENT:\n")
	sb.WriteString(req.ChunkText)
	return sb.String()
}
