// Package standardize rewrites free-form program and university names into
// canonical forms. A local language model does the first pass; a rule-based
// fallback guarantees a usable answer when the model is down, slow, or
// replies with garbage.
package standardize

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ewalsh/admitdb/internal/clean"
	"github.com/ewalsh/admitdb/internal/ollama"
)

// Chatter is the slice of the model client the standardizer needs.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, opts *ollama.Options) (string, error)
}

// Result is one standardized program/university pair.
type Result struct {
	Program    string `json:"program"`
	University string `json:"university"`
}

const defaultChatTimeout = 60 * time.Second

// Standardizer turns raw entry text into a Result. It never returns an
// error: any model failure degrades to the rule-based path.
type Standardizer struct {
	chatter Chatter
	model   string
	matcher Matcher
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a Standardizer backed by the given model client. A nil chatter
// is valid and means rule-based standardization only.
func New(chatter Chatter, model string, logger *slog.Logger) *Standardizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Standardizer{
		chatter: chatter,
		model:   model,
		matcher: SequenceMatcher{},
		timeout: defaultChatTimeout,
		logger:  logger,
	}
}

// Model replies sometimes wrap the object in prose; grab the first balanced
// brace span and ignore the rest.
var jsonObjExpr = regexp.MustCompile(`(?s)\{.*?\}`)

// Standardize maps one raw entry onto its canonical program and university.
// Total by construction: empty input yields the Unknown pair, and every
// failure mode falls back to splitting the text on its separators.
func (s *Standardizer) Standardize(ctx context.Context, text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Program: "Unknown", University: "Unknown"}
	}

	program, university, ok := s.fromModel(ctx, text)
	if !ok {
		program, university = splitFallback(text)
	}

	program, university = repairSwap(program, university)
	program = ensureDegree(NormalizeProgram(program, s.matcher), text)
	university = NormalizeUniversity(university, s.matcher)
	if program == "" {
		program = "Unknown"
	}
	return Result{Program: program, University: university}
}

func (s *Standardizer) fromModel(ctx context.Context, text string) (program, university string, ok bool) {
	if s.chatter == nil {
		return "", "", false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.chatter.Chat(ctx, s.model, buildMessages(text), chatOptions)
	if err != nil {
		s.logger.Warn("model standardization failed, using fallback", "error", err)
		return "", "", false
	}

	obj := jsonObjExpr.FindString(reply)
	if obj == "" {
		s.logger.Warn("model reply carried no JSON object", "reply", reply)
		return "", "", false
	}

	var r struct {
		Program    string `json:"standardized_program"`
		University string `json:"standardized_university"`
	}
	if err := json.Unmarshal([]byte(obj), &r); err != nil {
		s.logger.Warn("model reply JSON did not parse", "error", err)
		return "", "", false
	}
	if r.Program == "" && r.University == "" {
		return "", "", false
	}
	return strings.TrimSpace(r.Program), strings.TrimSpace(r.University), true
}

// RowText builds the standardizer input for one record: program name first,
// then the school, comma-separated so the fallback splitter can take it
// apart again.
func RowText(rec clean.Record) string {
	if rec.University == "" {
		return rec.ProgramName
	}
	return rec.ProgramName + ", " + rec.University
}

// StandardizeRows fills the llm-generated fields of every record in place
// and returns the same slice. Stops early when ctx is done; untouched rows
// keep empty llm fields.
func (s *Standardizer) StandardizeRows(ctx context.Context, rows []clean.Record) []clean.Record {
	for i := range rows {
		if ctx.Err() != nil {
			s.logger.Warn("standardization interrupted", "done", i, "total", len(rows))
			break
		}
		res := s.Standardize(ctx, RowText(rows[i]))
		rows[i].LLMProgram = res.Program
		rows[i].LLMUniversity = res.University
	}
	return rows
}
