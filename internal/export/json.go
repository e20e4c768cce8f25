package export

import (
	"encoding/json"
	"io"

	"github.com/linuxmatters/prosody/internal/prosody"
)

// failedResult is the JSON shape of a file that could not be analysed
type failedResult struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// WriteJSON writes v as indented JSON followed by a newline
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// JSONResults converts batch results to an array of records, with failed
// slots as {"filename", "error"} objects in their original position.
func JSONResults(results []prosody.Result) []any {
	out := make([]any, 0, len(results))
	for _, res := range results {
		if res.Err != nil || res.Record == nil {
			msg := ""
			if res.Err != nil {
				msg = res.Err.Error()
			}
			out = append(out, failedResult{Filename: res.Filename, Error: msg})
			continue
		}
		out = append(out, res.Record)
	}
	return out
}
