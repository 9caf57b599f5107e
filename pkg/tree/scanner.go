package tree

import (
	"strings"

	"github.com/pkg/errors"
)

// Tokens of a classifier tree entry as FRaC writes it into its log:
//
//	{Waffles Decision Tree Classifier {feature: "ID"} { [|BODY|] } }
//
// Whitespace is allowed between tokens and BODY may span several lines.
const (
	entryTag     = "{Waffles Decision Tree Classifier"
	featureLabel = "feature:"
	bodyOpen     = "[|"
	bodyClose    = "|]"
)

// Entry is one decision tree found in the log
type Entry struct {
	// Target is the feature name or index the tree predicts, as written in the log
	Target string
	Body   string
	// Line is the 1-based line on which the entry starts
	Line int
}

// Scanner walks a tree log and yields one Entry at a time. Text outside of
// entries is ignored.
type Scanner struct {
	text  string
	pos   int
	entry Entry
	err   error
}

func NewScanner(text string) *Scanner {
	return &Scanner{text: text}
}

// Next advances to the next entry. It returns false at the end of the log or
// on the first malformed entry, in which case Err is set.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	offset := strings.Index(s.text[s.pos:], entryTag)
	if offset < 0 {
		s.pos = len(s.text)
		return false
	}
	start := s.pos + offset
	s.pos = start + len(entryTag)

	entry, err := s.parseEntry()
	if err != nil {
		s.err = errors.Wrapf(err, "malformed tree entry at line %d", s.lineAt(start))
		return false
	}
	entry.Line = s.lineAt(start)
	s.entry = entry
	return true
}

func (s *Scanner) Entry() Entry {
	return s.entry
}

func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) parseEntry() (Entry, error) {
	var entry Entry
	for _, token := range []string{"{", featureLabel} {
		if err := s.expect(token); err != nil {
			return entry, err
		}
	}
	target, err := s.quoted()
	if err != nil {
		return entry, err
	}
	for _, token := range []string{"}", "{", bodyOpen} {
		if err := s.expect(token); err != nil {
			return entry, err
		}
	}
	end := strings.Index(s.text[s.pos:], bodyClose)
	if end < 0 {
		return entry, errors.Errorf("missing %q", bodyClose)
	}
	body := s.text[s.pos : s.pos+end]
	s.pos += end + len(bodyClose)
	for _, token := range []string{"}", "}"} {
		if err := s.expect(token); err != nil {
			return entry, err
		}
	}
	entry.Target = target
	entry.Body = body
	return entry, nil
}

func (s *Scanner) skipSpace() {
	for s.pos < len(s.text) {
		switch s.text[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

func (s *Scanner) expect(token string) error {
	s.skipSpace()
	if !strings.HasPrefix(s.text[s.pos:], token) {
		return errors.Errorf("expected %q", token)
	}
	s.pos += len(token)
	return nil
}

func (s *Scanner) quoted() (string, error) {
	if err := s.expect(`"`); err != nil {
		return "", err
	}
	end := strings.IndexByte(s.text[s.pos:], '"')
	if end < 0 {
		return "", errors.New("unterminated feature identifier")
	}
	value := s.text[s.pos : s.pos+end]
	s.pos += end + 1
	if value == "" {
		return "", errors.New("empty feature identifier")
	}
	return value, nil
}

func (s *Scanner) lineAt(offset int) int {
	return strings.Count(s.text[:offset], "\n") + 1
}
