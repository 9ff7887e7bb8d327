package tools

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// argsScanLines is how many leading source lines are searched for flags.
const argsScanLines = 10

// argPatterns match compile:/flags: directives in the comment styles of the
// supported languages.
var argPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)//\s*(?:compile|flags):\s*(.+)$`),
	regexp.MustCompile(`(?i)/\*\s*(?:compile|flags):\s*(.+)\*/`),
	regexp.MustCompile(`(?i)\{\s*(?:compile|flags):\s*(.+)\}`),
	regexp.MustCompile(`(?i)#\s*(?:compile|flags):\s*(.+)$`),
	regexp.MustCompile(`(?i)--\s*(?:compile|flags):\s*(.+)$`),
}

// ExtractCompileArgs returns the flags of the first compile: or flags:
// directive in the first ten lines of source, e.g.
//
//	// flags: -std=c++20 -O2
//	{ compile: -Mobjfpc }
//	# flags: -O
func ExtractCompileArgs(source string) (string, bool) {
	lines := strings.Split(source, "\n")
	if len(lines) > argsScanLines {
		lines = lines[:argsScanLines]
	}
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		for _, re := range argPatterns {
			if m := re.FindStringSubmatch(line); m != nil {
				if args := strings.TrimSpace(m[1]); args != "" {
					return args, true
				}
			}
		}
	}
	return "", false
}

// defaultTruncationNotice ends output that was cut when no notice is configured.
const defaultTruncationNotice = "... (output truncated)"

// TruncateOutput keeps at most maxLines lines of at most maxLen characters
// each. Long lines end in "..." and cut output ends in notice on its own line.
// Non-positive limits disable the corresponding check.
func TruncateOutput(text string, maxLines, maxLen int, notice string) (string, bool) {
	if text == "" {
		return "", false
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	truncated := false
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		truncated = true
	}
	if maxLen > 0 {
		for i, line := range lines {
			if utf8.RuneCountInString(line) <= maxLen {
				continue
			}
			lines[i] = string([]rune(line)[:maxLen]) + "..."
			truncated = true
		}
	}
	if !truncated {
		return text, false
	}
	if notice == "" {
		notice = defaultTruncationNotice
	}
	return strings.Join(lines, "\n") + "\n" + notice, true
}

var defaultCompilers = map[string]string{
	"c++":        "g132",
	"c":          "cg132",
	"rust":       "r1740",
	"go":         "gccgo132",
	"python":     "python311",
	"pascal":     "fpc322",
	"java":       "java2000",
	"javascript": "nodelatest",
	"typescript": "tsc500",
	"haskell":    "ghc961",
}

// DefaultCompilerForLanguage returns a sensible compiler id for a language,
// falling back to g132.
func DefaultCompilerForLanguage(language string) string {
	if id, ok := defaultCompilers[strings.ToLower(language)]; ok {
		return id
	}
	return "g132"
}

// ExtractLinkID returns the id of a shortlink. It accepts a bare id or a URL
// such as https://godbolt.org/z/G38YP7eW4.
func ExtractLinkID(shortlink string) (string, error) {
	shortlink = strings.TrimSpace(shortlink)
	if !strings.HasPrefix(shortlink, "http://") && !strings.HasPrefix(shortlink, "https://") {
		return shortlink, nil
	}
	u, err := url.Parse(shortlink)
	if err != nil {
		return "", err
	}
	path := strings.Trim(u.Path, "/")
	return strings.TrimPrefix(path, "z/"), nil
}

var suggestionPatterns = []struct {
	re     *regexp.Regexp
	format func(m []string) string
}{
	{regexp.MustCompile(`(?i)did you mean '([^']+)'`), func(m []string) string { return "did you mean '" + m[1] + "'?" }},
	{regexp.MustCompile(`(?i)use '([^']+)' instead`), func(m []string) string { return "use '" + m[1] + "' instead" }},
	{regexp.MustCompile(`(?i)suggested alternative: '([^']+)'`), func(m []string) string { return "suggested alternative: '" + m[1] + "'" }},
	{regexp.MustCompile(`(?i)fix-it[^:']*:\s*'([^']+)'`), func(m []string) string { return "fix-it: '" + m[1] + "'" }},
}

// ExtractCompilerSuggestion returns the fix suggested by a diagnostic, if any:
//
//	error: 'foo' was not declared; did you mean 'bar'?  -> did you mean 'bar'?
//	note: fix-it applied: 'auto'                        -> fix-it: 'auto'
func ExtractCompilerSuggestion(message string) (string, bool) {
	for _, p := range suggestionPatterns {
		if m := p.re.FindStringSubmatch(message); m != nil {
			return p.format(m), true
		}
	}
	return "", false
}

func joinOptions(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
