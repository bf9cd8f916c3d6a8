// Package text applies post-transcription transformations: spoken
// punctuation ("period" -> "."), case-insensitive user word replacements,
// and an optional external pipe command for arbitrary cleanup.
package text

import (
	"bytes"
	"context"
	"log"
	"os/exec"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/peteonrails/voxtype/internal/config"
)

// phrase table: multi-word phrases first so they match before any of their
// constituent single words would.
var punctuationTable = []struct{ phrase, symbol string }{
	{"question mark", "?"},
	{"exclamation mark", "!"},
	{"exclamation point", "!"},
	{"open parenthesis", "("},
	{"close parenthesis", ")"},
	{"open paren", "("},
	{"close paren", ")"},
	{"open bracket", "["},
	{"close bracket", "]"},
	{"open brace", "{"},
	{"close brace", "}"},
	{"at sign", "@"},
	{"at symbol", "@"},
	{"dollar sign", "$"},
	{"percent sign", "%"},
	{"plus sign", "+"},
	{"equals sign", "="},
	{"forward slash", "/"},
	{"single quote", "'"},
	{"double quote", "\""},
	{"new paragraph", "\n\n"},
	{"new line", "\n"},
	{"period", "."},
	{"comma", ","},
	{"colon", ":"},
	{"semicolon", ";"},
	{"dash", "-"},
	{"hyphen", "-"},
	{"underscore", "_"},
	{"hash", "#"},
	{"hashtag", "#"},
	{"percent", "%"},
	{"ampersand", "&"},
	{"asterisk", "*"},
	{"plus", "+"},
	{"equals", "="},
	{"slash", "/"},
	{"backslash", "\\"},
	{"pipe", "|"},
	{"tilde", "~"},
	{"backtick", "`"},
	{"tab", "\t"},
}

// Processor applies the configured transformations to transcribed text.
type Processor struct {
	spokenPunctuation bool
	replacements       map[string]string // lowercase key -> replacement
	pipeCommand        string
	pipeTimeout        time.Duration
}

// New builds a Processor from TextConfig and the output post-process
// settings (the external pipe lives under output.post_process in config,
// but is a text transformation in spirit).
func New(textCfg config.TextConfig, postProcess config.PostProcessConfig) *Processor {
	replacements := make(map[string]string, len(textCfg.Replacements))
	for k, v := range textCfg.Replacements {
		replacements[strings.ToLower(k)] = v
	}

	timeout := time.Duration(postProcess.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Processor{
		spokenPunctuation: textCfg.SpokenPunctuation,
		replacements:       replacements,
		pipeCommand:        postProcess.Command,
		pipeTimeout:        timeout,
	}
}

// Process runs every enabled transformation over text, in order: spoken
// punctuation, then user replacements, then the external pipe.
func (p *Processor) Process(text string) string {
	result := text

	if p.spokenPunctuation {
		result = applySpokenPunctuation(result)
	}
	if len(p.replacements) > 0 {
		result = p.applyReplacements(result)
	}
	if p.pipeCommand != "" {
		result = p.applyPipe(result)
	}

	return result
}

func applySpokenPunctuation(text string) string {
	result := text
	for _, entry := range punctuationTable {
		result = replacePhraseCaseInsensitive(result, entry.phrase, entry.symbol)
	}
	return cleanPunctuationSpacing(result)
}

func (p *Processor) applyReplacements(text string) string {
	result := text
	for word, replacement := range p.replacements {
		result = replacePhraseCaseInsensitive(result, word, replacement)
	}
	return result
}

// applyPipe runs the configured shell command with text on stdin, returning
// its stdout on success. On any failure (non-zero exit, timeout, spawn
// error, empty stdout, or stdout that isn't valid UTF-8) it logs and returns
// the original text unchanged; post-processing is a convenience, never
// allowed to eat the user's dictation.
func (p *Processor) applyPipe(text string) string {
	ctx, cancel := context.WithTimeout(context.Background(), p.pipeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", p.pipeCommand)
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Printf("[TEXT] post-process command failed, using original text: %v (%s)", err, stderr.String())
		return text
	}

	result := strings.TrimRight(stdout.String(), "\n")
	if result == "" {
		log.Printf("[TEXT] post-process command produced empty output, using original text")
		return text
	}
	if !utf8.ValidString(result) {
		log.Printf("[TEXT] post-process command produced non-UTF-8 output, using original text")
		return text
	}
	return result
}

func replacePhraseCaseInsensitive(text, from, to string) string {
	pattern := `(?i)\b` + regexp.QuoteMeta(from) + `\b`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return text
	}
	return re.ReplaceAllString(text, to)
}

var spacingPairs = []struct{ old, new string }{
	{" .", "."}, {" ,", ","}, {" ?", "?"}, {" !", "!"}, {" :", ":"}, {" ;", ";"},
	{" )", ")"}, {" ]", "]"}, {" }", "}"},
	{"( ", "("}, {"[ ", "["}, {"{ ", "{"},
	{" (", "("}, {" [", "["}, {" {", "{"},
	{" #", "#"}, {" @", "@"}, {" $", "$"},
	{"# ", "#"}, {"@ ", "@"}, {"$ ", "$"},
	{" \n", "\n"}, {"\n ", "\n"},
	{" \t", "\t"}, {"\t ", "\t"},
}

func cleanPunctuationSpacing(text string) string {
	result := text
	for _, p := range spacingPairs {
		result = strings.ReplaceAll(result, p.old, p.new)
	}
	return result
}
