package session

import (
	"strings"
	"unicode"
)

// SegmentKind classifies one piece of model output.
type SegmentKind int

const (
	SegmentDialogue SegmentKind = iota
	SegmentEmotion
	SegmentAction
)

// Segment is a piece of model output: spoken text or a non-verbal cue.
type Segment struct {
	Kind SegmentKind
	Text string
}

// Format renders the segment as a log line attributed to name.
func (s Segment) Format(name string) string {
	switch s.Kind {
	case SegmentEmotion:
		return name + " is feeling " + s.Text
	case SegmentAction:
		return name + " " + s.Text
	default:
		return name + ": " + s.Text
	}
}

const (
	emotionToken = "$emotion("
	actionToken  = "$action("
)

// ProcessMetaCommands splits a reply into dialogue and non-verbal lines
// attributed to name. A leading "name:" on the reply is dropped.
func ProcessMetaCommands(name, text string) []string {
	text = stripSpeaker(name, text)
	segments := ParseMetaCommands(text)
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, seg.Format(name))
	}
	return lines
}

func stripSpeaker(name, text string) string {
	text = strings.TrimSpace(text)
	prefix := name + ":"
	if name != "" && len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
		return strings.TrimSpace(text[len(prefix):])
	}
	return text
}

type lexState int

const (
	collectingDialogue lexState = iota
	collectingEmotion
	collectingAction
)

type token struct {
	text       string
	start, end int
}

// ParseMetaCommands scans whitespace separated tokens. A $emotion( or
// $action( token ends the dialogue collected so far; the cue runs until the
// first token holding ")". Whitespace inside dialogue is kept as written.
func ParseMetaCommands(text string) []Segment {
	var (
		segments      []Segment
		state         = collectingDialogue
		dialogueStart = 0
		cue           []string
	)
	flushDialogue := func(end int) {
		if d := strings.TrimSpace(text[dialogueStart:end]); d != "" {
			segments = append(segments, Segment{Kind: SegmentDialogue, Text: d})
		}
	}
	closeCue := func() {
		if c := strings.TrimSpace(strings.Join(cue, " ")); c != "" {
			kind := SegmentEmotion
			if state == collectingAction {
				kind = SegmentAction
			}
			segments = append(segments, Segment{Kind: kind, Text: c})
		}
		cue = cue[:0]
		state = collectingDialogue
	}
	// consume adds part to the cue. If part closes the cue it returns the
	// offset just past ")", otherwise -1.
	consume := func(part string) int {
		if i := strings.Index(part, ")"); i >= 0 {
			cue = append(cue, part[:i])
			return i + 1
		}
		cue = append(cue, part)
		return -1
	}

	for _, tok := range tokenize(text) {
		if state == collectingDialogue {
			var rest string
			switch {
			case strings.HasPrefix(tok.text, emotionToken):
				state, rest = collectingEmotion, tok.text[len(emotionToken):]
			case strings.HasPrefix(tok.text, actionToken):
				state, rest = collectingAction, tok.text[len(actionToken):]
			default:
				continue
			}
			flushDialogue(tok.start)
			dialogueStart = tok.end
			if n := consume(rest); n >= 0 {
				dialogueStart = tok.end - len(rest) + n
				closeCue()
			}
			continue
		}
		dialogueStart = tok.end
		if n := consume(tok.text); n >= 0 {
			dialogueStart = tok.start + n
			closeCue()
		}
	}

	if state != collectingDialogue {
		closeCue()
	}
	flushDialogue(len(text))
	return segments
}

func tokenize(text string) []token {
	var tokens []token
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, token{text: text[start:i], start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{text: text[start:], start: start, end: len(text)})
	}
	return tokens
}
