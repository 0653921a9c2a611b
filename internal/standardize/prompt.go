package standardize

import (
	"encoding/json"

	"github.com/ewalsh/admitdb/internal/ollama"
)

const systemPrompt = `You are a data cleaning assistant. Standardize degree program and university names.

CRITICAL RULES:
1. ALWAYS include degree type (PhD, Masters, MS, MA, MBA, etc.) in standardized_program
2. PROGRAM = Field + Degree (e.g., 'Computer Science PhD', 'Economics Masters')
3. UNIVERSITY = Full institution name ONLY, no degree types
4. Keep full university names like 'MIT', 'Stanford', 'University of Chicago'
5. Only return 'Unknown' if no university is mentioned
6. Return JSON: {standardized_program, standardized_university}
`

// fewShots anchors the output format. Each pair is an input in the same
// wrapped shape the real entry is sent in, and the exact JSON the model is
// expected to produce for it.
var fewShots = []struct {
	entry string
	reply string
}{
	{
		entry: `{"program": "Computer Science PhD, MIT"}`,
		reply: `{"standardized_program": "Computer Science PhD", "standardized_university": "MIT"}`,
	},
	{
		entry: `{"program": "Economics Masters, University of Chicago"}`,
		reply: `{"standardized_program": "Economics Masters", "standardized_university": "University of Chicago"}`,
	},
	{
		entry: `{"program": "Psychology PhD"}`,
		reply: `{"standardized_program": "Psychology PhD", "standardized_university": "Unknown"}`,
	},
}

// buildMessages assembles the chat transcript for one raw entry: the system
// instruction, the few-shot exchanges, then the entry wrapped the same way
// the examples are.
func buildMessages(text string) []ollama.Message {
	msgs := make([]ollama.Message, 0, 2+2*len(fewShots))
	msgs = append(msgs, ollama.Message{Role: "system", Content: systemPrompt})
	for _, shot := range fewShots {
		msgs = append(msgs,
			ollama.Message{Role: "user", Content: shot.entry},
			ollama.Message{Role: "assistant", Content: shot.reply},
		)
	}
	wrapped, _ := json.Marshal(map[string]string{"program": text})
	return append(msgs, ollama.Message{Role: "user", Content: string(wrapped)})
}

// chatOptions pins decoding to be deterministic and short; the reply is a
// single small JSON object.
var chatOptions = &ollama.Options{
	Temperature: 0,
	TopP:        1,
	NumPredict:  64,
}
