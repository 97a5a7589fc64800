package output

import (
	"encoding/json"
	"io"

	"github.com/quarrysearch/quarry/internal/search"
)

// WriteJSON emits the whole response as one indented JSON document.
func WriteJSON(w io.Writer, resp *search.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// WriteJSONL emits one result object per line, then the summary as a
// final line tagged with "summary". Streams cleanly into line-oriented
// tools.
func WriteJSONL(w io.Writer, resp *search.Response) error {
	enc := json.NewEncoder(w)
	for _, r := range resp.Results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return enc.Encode(struct {
		Summary search.Summary `json:"summary"`
	}{resp.Summary})
}
