package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xxxsen/proofnote/internal/model"
)

type Kind int

const (
	Failure Kind = iota
	Success
	PartialSalvage
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case PartialSalvage:
		return "partial_salvage"
	default:
		return "failure"
	}
}

const (
	StrategyFenced  = "fenced"
	StrategyBraces  = "braces"
	StrategyRaw     = "raw"
	StrategySalvage = "salvage"
)

// Payload is the structured body the oracle is asked to return.
type Payload struct {
	Corrections   []model.Correction `json:"corrections"`
	Summary       string             `json:"summary"`
	CorrectedText *string            `json:"correctedText,omitempty"`
}

// Outcome is the result of parsing one oracle response. Payload is set for
// Success and PartialSalvage, Reason for Failure.
type Outcome struct {
	Kind     Kind
	Payload  *Payload
	Strategy string
	Reason   string
}

func (o Outcome) OK() bool {
	return o.Kind != Failure && o.Payload != nil
}

var fencedRe = regexp.MustCompile("(?s)```[ \\t]*[A-Za-z0-9_-]*[ \\t]*\\r?\\n?(.*?)```")

type strategy struct {
	name    string
	extract func(raw string) (string, bool)
}

var strategies = []strategy{
	{name: StrategyFenced, extract: extractFenced},
	{name: StrategyBraces, extract: extractBraces},
	{name: StrategyRaw, extract: func(raw string) (string, bool) { return raw, true }},
}

// Parse runs the strict strategies in order and returns Success or Failure.
func Parse(raw string) Outcome {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Outcome{Kind: Failure, Reason: "empty response"}
	}
	reasons := make([]string, 0, len(strategies))
	for _, s := range strategies {
		candidate, ok := s.extract(raw)
		if !ok {
			reasons = append(reasons, s.name+": not found")
			continue
		}
		payload, err := decode(candidate)
		if err != nil {
			reasons = append(reasons, s.name+": "+err.Error())
			continue
		}
		return Outcome{Kind: Success, Payload: payload, Strategy: s.name}
	}
	return Outcome{Kind: Failure, Reason: strings.Join(reasons, "; ")}
}

// ParseWhole is Parse followed by the salvage pass. It is meant for the sole
// chunk of a non-chunked document.
func ParseWhole(raw string) Outcome {
	outcome := Parse(raw)
	if outcome.OK() {
		return outcome
	}
	salvaged := Salvage(raw)
	if salvaged.OK() {
		return salvaged
	}
	salvaged.Reason = outcome.Reason + "; " + salvaged.Reason
	return salvaged
}

var (
	quotedValue = `"((?:[^"\\]|\\.)*)"`
	flatObjRe   = regexp.MustCompile(`\{[^{}]*\}`)
	tripleRe    = regexp.MustCompile(`"issue"\s*:\s*` + quotedValue + `\s*,\s*"location"\s*:\s*` + quotedValue + `\s*,\s*"correction"\s*:\s*` + quotedValue)
	summaryRe   = regexp.MustCompile(`"summary"\s*:\s*` + quotedValue)
)

// Salvage extracts whatever complete corrections it can find in a malformed
// or truncated response.
func Salvage(raw string) Outcome {
	corrections := salvageObjects(raw)
	if len(corrections) == 0 {
		corrections = salvageTriples(raw)
	}
	if len(corrections) == 0 {
		return Outcome{Kind: Failure, Strategy: StrategySalvage, Reason: "salvage: no complete corrections found"}
	}
	payload := &Payload{Corrections: corrections}
	if m := summaryRe.FindStringSubmatch(raw); m != nil {
		payload.Summary = unescape(m[1])
	}
	return Outcome{Kind: PartialSalvage, Payload: payload, Strategy: StrategySalvage}
}

func salvageObjects(raw string) []model.Correction {
	var out []model.Correction
	for _, obj := range flatObjRe.FindAllString(raw, -1) {
		var fields map[string]interface{}
		if err := json.Unmarshal([]byte(obj), &fields); err != nil {
			continue
		}
		issue, okIssue := fields["issue"].(string)
		correction, okCorrection := fields["correction"].(string)
		if !okIssue || !okCorrection {
			continue
		}
		location, _ := fields["location"].(string)
		out = append(out, model.Correction{Issue: issue, Location: location, Correction: correction})
	}
	return out
}

func salvageTriples(raw string) []model.Correction {
	var out []model.Correction
	for _, m := range tripleRe.FindAllStringSubmatch(raw, -1) {
		out = append(out, model.Correction{
			Issue:      unescape(m[1]),
			Location:   unescape(m[2]),
			Correction: unescape(m[3]),
		})
	}
	return out
}

func extractFenced(raw string) (string, bool) {
	m := fencedRe.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func extractBraces(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func decode(candidate string) (*Payload, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil, fmt.Errorf("empty candidate")
	}
	if err := validateSchema(candidate); err != nil {
		return nil, err
	}
	var payload Payload
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if payload.Corrections == nil {
		payload.Corrections = []model.Correction{}
	}
	return &payload, nil
}

func unescape(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}
