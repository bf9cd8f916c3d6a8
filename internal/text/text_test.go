package text

import (
	"testing"

	"github.com/peteonrails/voxtype/internal/config"
)

func makeProcessor(spokenPunctuation bool, replacements map[string]string) *Processor {
	return New(config.TextConfig{
		SpokenPunctuation: spokenPunctuation,
		Replacements:      replacements,
	}, config.PostProcessConfig{})
}

func TestSpokenPunctuationBasic(t *testing.T) {
	p := makeProcessor(true, nil)
	cases := map[string]string{
		"hello period":       "hello.",
		"hello comma world":  "hello, world",
		"what question mark": "what?",
	}
	for in, want := range cases {
		if got := p.Process(in); got != want {
			t.Errorf("Process(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSpokenPunctuationMultiWord(t *testing.T) {
	p := makeProcessor(true, nil)
	if got := p.Process("open paren test close paren"); got != "(test)" {
		t.Errorf("got %q", got)
	}
	if got := p.Process("hello exclamation mark"); got != "hello!" {
		t.Errorf("got %q", got)
	}
}

func TestSpokenPunctuationCaseInsensitive(t *testing.T) {
	p := makeProcessor(true, nil)
	if got := p.Process("hello PERIOD"); got != "hello." {
		t.Errorf("got %q", got)
	}
	if got := p.Process("hello Period"); got != "hello." {
		t.Errorf("got %q", got)
	}
}

func TestWordReplacements(t *testing.T) {
	p := makeProcessor(false, map[string]string{"vox type": "voxtype"})
	want := "I use voxtype for dictation"
	if got := p.Process("I use vox type for dictation"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWordReplacementsCaseInsensitive(t *testing.T) {
	p := makeProcessor(false, map[string]string{"rust": "Rust"})
	if got := p.Process("I love RUST"); got != "I love Rust" {
		t.Errorf("got %q", got)
	}
	if got := p.Process("rust is great"); got != "Rust is great" {
		t.Errorf("got %q", got)
	}
}

func TestDisabledProcessing(t *testing.T) {
	p := makeProcessor(false, nil)
	if got := p.Process("hello period"); got != "hello period" {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestCombinedProcessing(t *testing.T) {
	p := makeProcessor(true, map[string]string{"voxtype": "Voxtype"})
	want := "I use Voxtype."
	if got := p.Process("I use voxtype period"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDeveloperPunctuation(t *testing.T) {
	p := makeProcessor(true, nil)
	if got := p.Process("function open paren close paren"); got != "function()" {
		t.Errorf("got %q", got)
	}
	if got := p.Process("array open bracket close bracket"); got != "array[]" {
		t.Errorf("got %q", got)
	}
	if got := p.Process("hash include"); got != "#include" {
		t.Errorf("got %q", got)
	}
	if got := p.Process("user at sign example"); got != "user@example" {
		t.Errorf("got %q", got)
	}
}

func TestNewlineAndTab(t *testing.T) {
	p := makeProcessor(true, nil)
	want := "line one\nline two"
	if got := p.Process("line one new line line two"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	want2 := "col one\tcol two"
	if got := p.Process("col one tab col two"); got != want2 {
		t.Errorf("got %q, want %q", got, want2)
	}
}

func TestPipeFailureFallsBackToOriginal(t *testing.T) {
	p := New(config.TextConfig{}, config.PostProcessConfig{
		Command:   "exit 1",
		TimeoutMs: 1000,
	})
	want := "hello world"
	if got := p.Process(want); got != want {
		t.Errorf("got %q, want original text preserved on pipe failure", got)
	}
}

func TestPipeSuccessTransformsText(t *testing.T) {
	p := New(config.TextConfig{}, config.PostProcessConfig{
		Command:   "tr a-z A-Z",
		TimeoutMs: 1000,
	})
	if got := p.Process("hello"); got != "HELLO" {
		t.Errorf("got %q, want HELLO", got)
	}
}

func TestPipeEmptyOutputFallsBackToOriginal(t *testing.T) {
	p := New(config.TextConfig{}, config.PostProcessConfig{
		Command:   "true",
		TimeoutMs: 1000,
	})
	want := "hello world"
	if got := p.Process(want); got != want {
		t.Errorf("got %q, want original text preserved on empty output", got)
	}
}

func TestPipeNonUTF8OutputFallsBackToOriginal(t *testing.T) {
	p := New(config.TextConfig{}, config.PostProcessConfig{
		Command:   "printf '\\377\\376'",
		TimeoutMs: 1000,
	})
	want := "hello world"
	if got := p.Process(want); got != want {
		t.Errorf("got %q, want original text preserved on non-UTF-8 output", got)
	}
}
