// Package section locates and rewrites the fenced blocks of a document that list
// externally supplied parameters.
//
// A block is a line holding three backticks immediately followed by a tag, one entry per
// line, and a closing line of three backticks:
//
//	```secretsEnvVariables
//	SmtpConfig__Password=********
//	```
package section

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/systmms/paramdocs/pkg/param"
)

const (
	fence = "```"

	// EnvTag is the fence tag of the environment secrets block
	EnvTag = "secretsEnvVariables"
	// RemoteStoreTag is the fence tag of the remote store block
	RemoteStoreTag = "awsParams"
	// EnvSuffix decorates every environment secret entry
	EnvSuffix = "=********"

	blockGroup = "params"
)

// Spec describes one kind of fenced section
type Spec struct {
	Kind    param.Kind
	Tag     string
	Title   string
	Intro   string
	Prefix  string
	Suffix  string
	Pattern *regexp.Regexp
}

// Match is a located block. Block is the text between the opening and closing fence
// lines; Start and End are its byte offsets in the document.
type Match struct {
	Block string
	Start int
	End   int
}

// EnvSecrets returns the spec of the environment secrets section
func EnvSecrets() Spec {
	return Spec{
		Kind:    param.KindEnvSecret,
		Tag:     EnvTag,
		Title:   "## Creating your local .env file",
		Intro:   "In order to be able to run some integration tests, you should create a `.env` file in the `src` folder with the following variables:",
		Suffix:  EnvSuffix,
		Pattern: blockPattern(EnvTag, param.EnvNameClass+`=\*+`),
	}
}

// RemoteStore returns the spec of the remote store section. prefix is prepended to
// every discovered path.
func RemoteStore(prefix string) Spec {
	return Spec{
		Kind:    param.KindRemoteStore,
		Tag:     RemoteStoreTag,
		Title:   "## AWS Parameters",
		Intro:   "In order to be able to run some integration tests you should ensure that you have access to the following AWS parameters :",
		Prefix:  prefix,
		Pattern: blockPattern(RemoteStoreTag, param.RemotePathClass),
	}
}

// ForKind returns the spec for kind
func ForKind(kind param.Kind, remotePrefix string) (Spec, error) {
	switch kind {
	case param.KindEnvSecret:
		return EnvSecrets(), nil
	case param.KindRemoteStore:
		return RemoteStore(remotePrefix), nil
	default:
		return Spec{}, fmt.Errorf("no section for parameter kind %q", kind)
	}
}

// blockPattern matches a fenced block whose entries all match entry. The block may
// be empty so that a freshly added fence can be filled in.
func blockPattern(tag, entry string) *regexp.Regexp {
	return regexp.MustCompile(
		regexp.QuoteMeta(fence+tag) + `\r?\n` +
			`(?P<` + blockGroup + `>(?:` + entry + `[ \t]*\r?\n)*)` +
			regexp.QuoteMeta(fence) + `[ \t]*(?:\r?\n|$)`)
}

// Locate finds the first block matching spec in text
func Locate(text string, spec Spec) (Match, bool) {
	if spec.Pattern == nil {
		return Match{}, false
	}
	loc := spec.Pattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return Match{}, false
	}
	idx := spec.Pattern.SubexpIndex(blockGroup)
	if idx < 0 || loc[2*idx] < 0 {
		return Match{}, false
	}
	start, end := loc[2*idx], loc[2*idx+1]
	return Match{Block: text[start:end], Start: start, End: end}, true
}

// Merge unions the entries already in block with the decorated discovered paths.
// Entries are deduplicated by exact string equality and sorted ascending; every
// entry, the last included, ends with a line break. Merge is a fixed point:
// Merge(Merge(b, d), d) == Merge(b, d).
func Merge(block string, discovered []string, spec Spec) string {
	newline := "\n"
	if strings.Contains(block, "\r\n") {
		newline = "\r\n"
	}

	seen := make(map[string]struct{})
	var entries []string
	add := func(entry string) {
		if _, ok := seen[entry]; ok {
			return
		}
		seen[entry] = struct{}{}
		entries = append(entries, entry)
	}

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		add(line)
	}
	for _, p := range discovered {
		entry := strings.TrimSpace(Decorate(p, spec))
		if entry == "" {
			continue
		}
		add(entry)
	}

	if len(entries) == 0 {
		return ""
	}
	sort.Strings(entries)
	return strings.Join(entries, newline) + newline
}

// Decorate applies the spec's prefix and suffix to path. A path that already starts
// with the prefix or ends with the suffix is not decorated again, so re-decorating
// existing entries is a no-op; an override that happens to begin with the prefix is
// therefore left as is.
func Decorate(path string, spec Spec) string {
	if spec.Prefix != "" && !strings.HasPrefix(path, spec.Prefix) {
		path = spec.Prefix + path
	}
	if spec.Suffix != "" && !strings.HasSuffix(path, spec.Suffix) {
		path += spec.Suffix
	}
	return path
}

// Replace substitutes block for the located match
func Replace(text string, m Match, block string) string {
	return text[:m.Start] + block + text[m.End:]
}

// Render writes a guidance block showing the section document should contain
func Render(w io.Writer, spec Spec, params []string, document string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Your %s file should contain the following section:\n", document)
	b.WriteString(spec.Title + "\n")
	b.WriteString(spec.Intro + "\n")
	b.WriteString(fence + spec.Tag + "\n")
	for _, p := range params {
		b.WriteString(Decorate(p, spec) + "\n")
	}
	b.WriteString(fence + "\n\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// DefaultRemotePrefix derives the remote store prefix of a module. The hosting element
// of the path and a trailing test element are dropped, dots and other characters a
// remote path cannot hold become separators, and the rest is wrapped in slashes, so
// github.com/acme/mail/tests becomes /acme/mail/ and gopkg.in/yaml.v3 becomes /yaml/v3/.
func DefaultRemotePrefix(modulePath string) string {
	elems := strings.Split(strings.Trim(modulePath, "/"), "/")
	if len(elems) > 1 && strings.Contains(elems[0], ".") {
		elems = elems[1:]
	}
	if n := len(elems); n > 1 && (elems[n-1] == "tests" || elems[n-1] == "test") {
		elems = elems[:n-1]
	}
	last := len(elems) - 1
	elems[last] = strings.TrimSuffix(strings.TrimSuffix(elems[last], "_test"), ".tests")

	joined := strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || r == '/' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			return r
		}
		return '/'
	}, strings.Join(elems, "/"))

	parts := strings.FieldsFunc(joined, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/") + "/"
}
