// Package qmakepro parses qmake project files into condition trees.
//
// The trace produced by "qmake -d" only shows the values qmake resolved
// on the host it ran on. The project grammar keeps the scopes that were
// not taken, so the parser recovers them as a tree of ConditionNodes plus
// the flat variables assigned outside any scope.
package qmakepro

import (
	"path"
	"regexp"
	"strings"

	"github.com/willibrandon/gomigrator/diagnostic"
	"github.com/willibrandon/gomigrator/model"
	"github.com/willibrandon/gomigrator/observability"
	"github.com/willibrandon/gomigrator/pathctx"
)

// A predicate is a scope test such as "win32", "!macx", "linux-g++",
// "contains(QT, gui)" or "unix|macx".
const (
	atom      = `!?[\w+]+(?:[-.][\w+]+)*(?:\([^)]*\))?`
	predicate = atom + `(?:\|` + atom + `)*`
)

var (
	includeRe    = regexp.MustCompile(`^include\s*\(\s*([^)]+?)\s*\)$`)
	colonBlockRe = regexp.MustCompile(`^(` + predicate + `(?:\s*:\s*` + predicate + `)*)\s*\{$`)
	commaBlockRe = regexp.MustCompile(`^(` + predicate + `(?:\s*,\s*` + predicate + `)*)\s*\{$`)
	inlineRe     = regexp.MustCompile(`^(` + predicate + `(?:\s*:\s*` + predicate + `)*)\s*:\s*(.+)$`)
	elsePrefixRe = regexp.MustCompile(`^else\s*:\s*(.+)$`)
	elseRe       = regexp.MustCompile(`^\}?\s*else\s*\{?$`)
	closeRe      = regexp.MustCompile(`^\}$`)
	assignRe     = regexp.MustCompile(`^([\w.]+)\s*(\+=|-=|\*=|~=|=)\s*(.*)$`)
	substituteRe = regexp.MustCompile(`\$\$(?:\{(\w+)\}|(\w+))`)
)

// Result is the parsed form of one project file.
type Result struct {
	// Path is the file the result was parsed from.
	Path string `json:"path"`
	// Variables holds assignments made outside any scope, keyed in lower case.
	Variables *model.Vars `json:"variables"`
	// Conditions holds the top-level scopes in file order.
	Conditions []*model.ConditionNode `json:"conditions"`
	// Includes lists include() targets after substitution. They are not followed.
	Includes []string `json:"includes"`
}

func newResult(name string) *Result {
	return &Result{
		Path:       name,
		Variables:  model.NewVars(),
		Conditions: []*model.ConditionNode{},
		Includes:   []string{},
	}
}

// Options configures a Parser.
type Options struct {
	// Reader fetches project files. Defaults to a FileReader without placeholders.
	Reader pathctx.Reader
	// Logger receives progress messages.
	Logger observability.Logger
	// Diagnostics collects unrecognized lines and unbalanced braces.
	Diagnostics *diagnostic.Collector
}

// Parser parses project files. Every Parse starts from an empty
// substitution table, so one Parser can be reused across files.
type Parser struct {
	reader pathctx.Reader
	logger observability.Logger
	diags  *diagnostic.Collector
}

// New creates a Parser.
func New(opts Options) *Parser {
	if opts.Logger == nil {
		opts.Logger = observability.NewNullLogger()
	}
	if opts.Reader == nil {
		opts.Reader = pathctx.NewFileReader(pathctx.New("", ""), pathctx.WithLogger(opts.Logger))
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = diagnostic.NewCollector(opts.Logger)
	}
	return &Parser{
		reader: opts.Reader,
		logger: opts.Logger.ForContext("Stage", "parse"),
		diags:  opts.Diagnostics,
	}
}

// Diagnostics returns the collector findings are reported to.
func (p *Parser) Diagnostics() *diagnostic.Collector {
	return p.diags
}

// Parse reads and parses the project file at filePath.
// An unreadable file yields an empty Result.
func (p *Parser) Parse(filePath string) *Result {
	data, err := p.reader.ReadFile(filePath)
	if err != nil {
		p.logger.Debug("Project file {Path} not readable: {Error}", filePath, err.Error())
		return newResult(filePath)
	}
	return p.ParseBytes(filePath, data)
}

// ParseBytes parses project text. name is used for diagnostics and for the
// PWD, _PRO_FILE_ and _PRO_FILE_PWD_ builtins.
func (p *Parser) ParseBytes(name string, data []byte) *Result {
	s := &parseState{
		parser: p,
		name:   name,
		result: newResult(name),
		flat:   model.NewVars(),
	}
	dir := path.Dir(name)
	s.flat.Set("pwd", []string{dir})
	s.flat.Set("_pro_file_", []string{name})
	s.flat.Set("_pro_file_pwd_", []string{dir})

	for _, line := range logicalLines(data) {
		s.line = line.number
		for _, stmt := range splitBraces(line.text) {
			s.statement(stmt)
		}
	}
	s.closeAll()

	p.logger.Debug("Parsed {Path}: {Variables} variables, {Conditions} top-level conditions, {Includes} includes",
		name, s.result.Variables.Len(), len(s.result.Conditions), len(s.result.Includes))
	return s.result
}

// parseState is the state of a single ParseBytes call.
type parseState struct {
	parser *Parser
	name   string
	line   int
	result *Result

	// flat is updated by every assignment regardless of scope and backs
	// $$NAME substitution.
	flat  *model.Vars
	stack []*model.ConditionNode
}

func (s *parseState) statement(stmt string) {
	if m := includeRe.FindStringSubmatch(stmt); m != nil {
		s.include(m[1])
		return
	}
	if m := colonBlockRe.FindStringSubmatch(stmt); m != nil {
		s.push(splitPredicates(':', m[1]))
		return
	}
	if m := commaBlockRe.FindStringSubmatch(stmt); m != nil {
		s.push(splitPredicates(',', m[1]))
		return
	}
	if s.inline(stmt) {
		return
	}
	if elseRe.MatchString(stmt) {
		if len(s.stack) > 0 {
			s.pop("else")
		}
		s.push([]string{"else"})
		return
	}
	if closeRe.MatchString(stmt) {
		if len(s.stack) == 0 {
			s.report(diagnostic.CodeUnbalancedBrace, diagnostic.SeverityWarning, "closing brace without an open block")
			return
		}
		s.pop("block")
		return
	}
	if m := assignRe.FindStringSubmatch(stmt); m != nil {
		scope := s.result.Variables
		if n := len(s.stack); n > 0 {
			scope = s.stack[n-1].Variables
		}
		s.assign(scope, m[1], m[2], m[3])
		return
	}
	s.report(diagnostic.CodeUnrecognizedLine, diagnostic.SeverityInfo, "unrecognized line: "+stmt)
}

// inline handles "pred:pred: KEY op values" and "else: KEY op values".
// The one-shot frame it builds is attached immediately, never pushed.
func (s *parseState) inline(stmt string) bool {
	var predicates []string
	rest := stmt
	if m := elsePrefixRe.FindStringSubmatch(stmt); m != nil {
		predicates = append(predicates, "else")
		rest = m[1]
	}
	if m := inlineRe.FindStringSubmatch(rest); m != nil {
		predicates = append(predicates, splitPredicates(':', m[1])...)
		rest = m[2]
	}
	if len(predicates) == 0 {
		return false
	}

	if m := includeRe.FindStringSubmatch(rest); m != nil {
		s.include(m[1])
		return true
	}
	m := assignRe.FindStringSubmatch(rest)
	if m == nil {
		return false
	}
	node := model.NewConditionNode(predicates...)
	s.assign(node.Variables, m[1], m[2], m[3])
	s.attach(node)
	observability.ConditionFramesTotal.WithLabelValues("inline").Inc()
	return true
}

func (s *parseState) include(target string) {
	inc := strings.Trim(s.substitute(target), `"`)
	s.result.Includes = append(s.result.Includes, inc)
	s.parser.logger.Debug("Include: {Path}", inc)
}

// assign applies one assignment to scope and to the flat table.
// "-=" and "~=" are recognized but have no effect.
func (s *parseState) assign(scope *model.Vars, key, op, raw string) {
	key = strings.ToLower(key)
	values := splitValues(raw)
	for i, v := range values {
		values[i] = s.substitute(v)
	}

	switch op {
	case "=":
		scope.Set(key, values)
		s.flat.Set(key, values)
	case "+=", "*=":
		scope.Append(key, values)
		s.flat.Append(key, values)
	default:
		s.parser.logger.Verbose("Ignoring {Operator} on {Key}", op, key)
	}
}

// substitute expands $$NAME and $${NAME} with the first value assigned to
// NAME so far. Unknown names are left verbatim.
func (s *parseState) substitute(value string) string {
	if !strings.Contains(value, "$$") {
		return value
	}
	return substituteRe.ReplaceAllStringFunc(value, func(ref string) string {
		m := substituteRe.FindStringSubmatch(ref)
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if v, ok := s.flat.First(strings.ToLower(name)); ok {
			return v
		}
		return ref
	})
}

func (s *parseState) push(predicates []string) {
	s.stack = append(s.stack, model.NewConditionNode(predicates...))
}

// pop closes the innermost frame and attaches it to its parent.
func (s *parseState) pop(kind string) {
	n := len(s.stack)
	node := s.stack[n-1]
	s.stack = s.stack[:n-1]
	s.attach(node)
	observability.ConditionFramesTotal.WithLabelValues(kind).Inc()
}

func (s *parseState) attach(node *model.ConditionNode) {
	if n := len(s.stack); n > 0 {
		parent := s.stack[n-1]
		parent.Children = append(parent.Children, node)
		return
	}
	s.result.Conditions = append(s.result.Conditions, node)
}

// closeAll force-closes frames left open at end of input, innermost first.
func (s *parseState) closeAll() {
	if len(s.stack) > 0 {
		s.parser.logger.Debug("Closing {Count} unterminated blocks in {Path}", len(s.stack), s.name)
	}
	for len(s.stack) > 0 {
		s.pop("forced")
	}
}

func (s *parseState) report(code diagnostic.Code, severity diagnostic.Severity, message string) {
	s.parser.diags.Add(diagnostic.Diagnostic{
		Code:     code,
		Severity: severity,
		Message:  message,
		Path:     s.name,
		Line:     s.line,
	})
}

// splitPredicates splits a predicate list on sep, ignoring separators
// inside function call parentheses.
func splitPredicates(sep byte, s string) []string {
	var out []string
	depth, start := 0, 0
	emit := func(end int) {
		if p := strings.TrimSpace(s[start:end]); p != "" {
			out = append(out, p)
		}
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				emit(i)
				start = i + 1
			}
		}
	}
	emit(len(s))
	return out
}
