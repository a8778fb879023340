// Package refine decides whether a chat message adjusts the view on screen or
// asks for something new. It is a scored keyword classifier: every cue in the
// table adds its weight, the total is clamped to [0,1] and compared with a
// threshold.
package refine

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/KaramelBytes/tabula-cli/internal/query"
)

// DefaultThreshold is the minimum score for a refinement verdict.
const DefaultThreshold = 0.5

const (
	pronounBonus = 0.15
	columnBonus  = 0.2
)

// Cue is one keyword or phrase and the weight it contributes.
// Negative weights mark fresh-request language.
type Cue struct {
	Phrase string
	Weight float64
}

// DefaultCues is the keyword table.
var DefaultCues = []Cue{
	{"sort", 0.35},
	{"order by", 0.35},
	{"filter", 0.35},
	{"ascending", 0.3},
	{"descending", 0.3},
	{"reverse", 0.3},
	{"instead", 0.3},
	{"change", 0.3},
	{"update", 0.3},
	{"modify", 0.3},
	{"narrow", 0.3},
	{"limit", 0.3},
	{"top", 0.3},
	{"bottom", 0.3},
	{"only", 0.25},
	{"fewer", 0.25},
	{"more rows", 0.25},
	{"just", 0.2},
	{"exclude", 0.3},
	{"new", -0.3},
	{"another", -0.3},
	{"different dataset", -0.4},
	{"load", -0.4},
	{"upload", -0.4},
	{"start over", -0.5},
}

var pronouns = map[string]bool{"it": true, "this": true, "that": true, "these": true, "those": true, "them": true}

var (
	descWords = map[string]bool{"desc": true, "descending": true, "highest": true, "largest": true, "biggest": true, "most": true, "top": true}
	ascWords  = map[string]bool{"asc": true, "ascending": true, "lowest": true, "smallest": true, "least": true, "bottom": true}
	sortWords = map[string]bool{"sort": true, "order": true, "rank": true, "sorted": true, "ordered": true, "ranked": true}
	nWords    = map[string]bool{"top": true, "first": true, "limit": true, "bottom": true}
)

// View is the part of the on-screen result the detector needs.
type View struct {
	Kind    string   `json:"kind"`
	Columns []string `json:"columns"`
}

// Decision is the scored verdict for one message.
type Decision struct {
	Score      float64        `json:"score"`
	Threshold  float64        `json:"threshold"`
	Refinement bool           `json:"refinement"`
	Cues       []string       `json:"cues"`
	Request    *query.Request `json:"request,omitempty"`
}

type Detector struct {
	Threshold float64
	Cues      []Cue
}

// NewDetector returns a detector using the default keyword table.
// A non-positive threshold selects DefaultThreshold.
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{Threshold: threshold, Cues: DefaultCues}
}

// Detect scores message against the active view. With no view there is
// nothing to refine and the verdict is always false.
func (d *Detector) Detect(message string, view *View) Decision {
	tokens := tokenize(message)
	padded := " " + strings.Join(tokens, " ") + " "

	dec := Decision{Threshold: d.Threshold, Cues: []string{}}
	var score float64
	for _, c := range d.Cues {
		if strings.Contains(padded, " "+c.Phrase+" ") {
			score += c.Weight
			dec.Cues = append(dec.Cues, c.Phrase)
		}
	}
	for _, tok := range tokens {
		if pronouns[tok] {
			score += pronounBonus
			dec.Cues = append(dec.Cues, "pronoun:"+tok)
			break
		}
	}
	var col string
	if view != nil {
		col = mentionedColumn(padded, view.Columns)
		if col != "" {
			score += columnBonus
			dec.Cues = append(dec.Cues, "column:"+col)
		}
	}
	dec.Score = clamp(score)
	dec.Refinement = view != nil && dec.Score >= d.Threshold
	if dec.Refinement {
		dec.Request = deriveRequest(tokens, col)
	}
	return dec
}

// deriveRequest extracts "sort by X desc" and "top N" style parameters.
func deriveRequest(tokens []string, col string) *query.Request {
	var req query.Request
	found := false
	hasSort, dir := false, ""
	for i, tok := range tokens {
		if sortWords[tok] {
			hasSort = true
		}
		if descWords[tok] && dir == "" {
			dir = query.Desc
		}
		if ascWords[tok] && dir == "" {
			dir = query.Asc
		}
		if nWords[tok] && i+1 < len(tokens) && req.Limit == nil {
			if n, err := strconv.Atoi(tokens[i+1]); err == nil && n > 0 {
				req = req.WithLimit(n)
				found = true
			}
		}
	}
	if col != "" && (hasSort || dir != "") {
		req.SortColumn = col
		req.SortDirection = dir
		if req.SortDirection == "" {
			req.SortDirection = query.Asc
		}
		found = true
	}
	if !found {
		return nil
	}
	return &req
}

// mentionedColumn returns the longest view column named in the message.
func mentionedColumn(padded string, columns []string) string {
	cands := append([]string(nil), columns...)
	sort.SliceStable(cands, func(i, j int) bool { return len(cands[i]) > len(cands[j]) })
	for _, c := range cands {
		name := strings.Join(tokenize(c), " ")
		if name != "" && strings.Contains(padded, " "+name+" ") {
			return c
		}
	}
	return ""
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
