package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/olsclient/internal/olstest"
	olserrors "github.com/matzehuels/olsclient/pkg/errors"
)

// newTestCLI returns a CLI writing to a buffer and a fake server, with
// the environment isolated from the user's configuration.
func newTestCLI(t *testing.T, opts *olstest.Options) (*CLI, *bytes.Buffer, *olstest.Server) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("OLS_SITE", "")
	t.Setenv("OLS_BACKOFF", "1ms")
	t.Setenv("OLS_MAX_ATTEMPTS", "2")

	srv := olstest.New(opts)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	c := New(io.Discard, log.InfoLevel)
	c.Out = &out
	c.Progress = false
	return c, &out, srv
}

// execute runs the root command against srv.
func execute(t *testing.T, c *CLI, srv *olstest.Server, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(append([]string{"--site", srv.Site()}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func assertContains(t *testing.T, output string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(output, want) {
			t.Errorf("output lacks %q:\n%s", want, output)
		}
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	want := []string{"ontologies", "ontology", "terms", "term", "relatives", "search", "graph", "version", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"config", "site"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	if err := execute(t, c, srv, "version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	assertContains(t, out.String(), "version: ", "commit: ")
	if srv.Total() != 0 {
		t.Errorf("version made %d requests", srv.Total())
	}
}

func TestOntologiesCommand(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	if err := execute(t, c, srv, "ontologies", "-n", "5"); err != nil {
		t.Fatalf("ontologies: %v", err)
	}
	assertContains(t, out.String(), "duo", "DUO ontology", "efo", "5 of 12", "ols ontology duo")
	if strings.Contains(out.String(), "ont005") {
		t.Error("listing went past the limit")
	}
}

func TestOntologiesCommandPagesLazily(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	if err := execute(t, c, srv, "ontologies", "--page-size", "3", "-n", "4"); err != nil {
		t.Fatalf("ontologies: %v", err)
	}
	if got := srv.Hits("/api/ontologies"); got != 2 {
		t.Errorf("fetched %d pages, want 2", got)
	}
	assertContains(t, out.String(), "4 of 12", "page 2/4")
}

func TestOntologiesCommandAll(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	if err := execute(t, c, srv, "ontologies", "-n", "0", "--page-size", "5"); err != nil {
		t.Fatalf("ontologies: %v", err)
	}
	assertContains(t, out.String(), "ont011", "12 of 12")
}

func TestOntologyCommand(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	if err := execute(t, c, srv, "ontology", "duo"); err != nil {
		t.Fatalf("ontology: %v", err)
	}
	assertContains(t, out.String(), "DUO ontology", "CC-BY 4.0", "LOADED", "ols terms duo")
}

func TestOntologyCommandNotFound(t *testing.T) {
	c, _, srv := newTestCLI(t, nil)
	err := execute(t, c, srv, "ontology", "nope")
	if !olserrors.Is(err, olserrors.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestTermsCommand(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	if err := execute(t, c, srv, "terms", "duo", "-n", "3"); err != nil {
		t.Fatalf("terms: %v", err)
	}
	assertContains(t, out.String(), "DUO:0000000", "DUO:0000002", "3 of 25", "defining")
}

func TestTermsCommandIdentifierFilter(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	if err := execute(t, c, srv, "terms", "duo", "--obo-id", "DUO:0000007"); err != nil {
		t.Fatalf("terms: %v", err)
	}
	assertContains(t, out.String(), "duo term 7", "1 of 1")
	if got := srv.LastQuery("/api/ontologies/duo/terms").Get("obo_id"); got != "DUO:0000007" {
		t.Errorf("obo_id sent = %q", got)
	}
}

func TestTermsCommandExclusiveFilters(t *testing.T) {
	c, _, srv := newTestCLI(t, nil)
	err := execute(t, c, srv, "terms", "duo", "--obo-id", "DUO:0000007", "--short-form", "DUO_0000007")
	if !olserrors.Is(err, olserrors.ErrCodeBadFilters) {
		t.Fatalf("err = %v, want BAD_FILTERS", err)
	}
	if got := srv.Hits("/api/ontologies/duo/terms"); got != 0 {
		t.Errorf("made %d term requests", got)
	}
}

func TestTermCommand(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		wants []string
	}{
		{
			name:  "defining ontology preferred",
			args:  []string{"term", olstest.SharedIRI},
			wants: []string{"DUO:0000001", "duo", "defining"},
		},
		{
			name:  "explicit ontology",
			args:  []string{"term", "--ontology", "efo", olstest.SharedIRI},
			wants: []string{"DUO:0000001", "efo", "imported"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out, srv := newTestCLI(t, nil)
			if err := execute(t, c, srv, tt.args...); err != nil {
				t.Fatalf("term: %v", err)
			}
			assertContains(t, out.String(), tt.wants...)
		})
	}
}

func TestRelativesCommand(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	if err := execute(t, c, srv, "relatives", "duo", olstest.DUOTermIRI(1), "children"); err != nil {
		t.Fatalf("relatives: %v", err)
	}
	assertContains(t, out.String(), "children of duo term 1", "DUO:0000003", "DUO:0000004", "2 of 2")
}

func TestRelativesCommandEmpty(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	if err := execute(t, c, srv, "relatives", "duo", olstest.RootIRI, "parents"); err != nil {
		t.Fatalf("relatives: %v", err)
	}
	assertContains(t, out.String(), "no parents")
}

func TestRelativesCommandUnknownRelation(t *testing.T) {
	c, _, srv := newTestCLI(t, nil)
	err := execute(t, c, srv, "relatives", "duo", olstest.RootIRI, "cousins")
	if err == nil || !strings.Contains(err.Error(), "unknown relation") {
		t.Fatalf("err = %v, want unknown relation", err)
	}
	if srv.Total() != 0 {
		t.Errorf("made %d requests", srv.Total())
	}
}

func TestSearchCommand(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	if err := execute(t, c, srv, "search", "efo", "term", "--ontology", "efo", "--type", "class"); err != nil {
		t.Fatalf("search: %v", err)
	}
	assertContains(t, out.String(), "EFO:0000001", "efo term 4", "5 of 5", "--pick")

	q := srv.LastQuery("/api/search")
	if q.Get("q") != "efo term" || q.Get("ontology") != "efo" || q.Get("type") != "class" {
		t.Errorf("search query = %v", q)
	}
}

func TestSearchCommandRowsAndLimit(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	if err := execute(t, c, srv, "search", "duo term", "--rows", "4", "-n", "6"); err != nil {
		t.Fatalf("search: %v", err)
	}
	if got := srv.Hits("/api/search"); got != 2 {
		t.Errorf("fetched %d search pages, want 2", got)
	}
	assertContains(t, out.String(), "6 of 28")
}

func TestSearchCommandNoResults(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	if err := execute(t, c, srv, "search", "zzzz"); err != nil {
		t.Fatalf("search: %v", err)
	}
	assertContains(t, out.String(), `no results for "zzzz"`)
}

func TestSearchCommandBadType(t *testing.T) {
	c, _, srv := newTestCLI(t, nil)
	err := execute(t, c, srv, "search", "duo", "--type", "gene")
	if !olserrors.Is(err, olserrors.ErrCodeBadFilters) {
		t.Fatalf("err = %v, want BAD_FILTERS", err)
	}
}

func TestGraphCommand(t *testing.T) {
	tests := []struct {
		format string
		wants  []string
	}{
		{format: "json", wants: []string{`"nodes"`, `"edges"`, "duo term 3"}},
		{format: "dot", wants: []string{"digraph G", "rankdir=BT", `label="is a"`}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			c, out, srv := newTestCLI(t, nil)
			if err := execute(t, c, srv, "graph", "duo", olstest.DUOTermIRI(1), "-f", tt.format); err != nil {
				t.Fatalf("graph: %v", err)
			}
			assertContains(t, out.String(), tt.wants...)
		})
	}
}

func TestGraphCommandOutputFile(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	path := filepath.Join(t.TempDir(), "graph.dot")
	if err := execute(t, c, srv, "graph", "duo", olstest.DUOTermIRI(1), "-f", "dot", "-o", path); err != nil {
		t.Fatalf("graph: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "digraph G {") {
		t.Errorf("file content = %q", data)
	}
	assertContains(t, out.String(), "Wrote dot graph", path)
}

func TestGraphCommandBadFormat(t *testing.T) {
	c, _, srv := newTestCLI(t, nil)
	err := execute(t, c, srv, "graph", "duo", olstest.DUOTermIRI(1), "-f", "png")
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("err = %v, want unknown format", err)
	}
}

func TestGraphCommandTree(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	if err := execute(t, c, srv, "graph", "duo", olstest.DUOTermIRI(4), "--tree"); err != nil {
		t.Fatalf("graph --tree: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("tree has %d lines, want 3:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "duo term 0") || !strings.HasPrefix(lines[1], "  duo term 1") || !strings.Contains(lines[2], "duo term 4") {
		t.Errorf("tree = %q", lines)
	}
}

func TestCommandRetriesServerErrors(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	srv.FailNext(1, 503)
	if err := execute(t, c, srv, "ontology", "duo"); err != nil {
		t.Fatalf("ontology: %v", err)
	}
	assertContains(t, out.String(), "DUO ontology")
	if got := srv.Hits("/api"); got != 2 {
		t.Errorf("root discovery hits = %d, want 2", got)
	}
}

func TestCommandGivesUpAfterMaxAttempts(t *testing.T) {
	c, _, srv := newTestCLI(t, nil)
	srv.FailNext(2, 502)
	err := execute(t, c, srv, "ontology", "duo")
	if !olserrors.Is(err, olserrors.ErrCodeObjectNotRetrieved) {
		t.Fatalf("err = %v, want OBJECT_NOT_RETRIEVED", err)
	}
}

func TestConfigFileSite(t *testing.T) {
	c, out, srv := newTestCLI(t, nil)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("site = \""+srv.Site()+"\"\npage_size = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	root := c.RootCommand()
	root.SetArgs([]string{"--config", path, "ontologies", "-n", "3"})
	root.SetOut(io.Discard)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("ontologies: %v", err)
	}
	if got := srv.Hits("/api/ontologies"); got != 2 {
		t.Errorf("fetched %d pages of 2, want 2", got)
	}
	assertContains(t, out.String(), "3 of 12")
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	c := New(io.Discard, log.InfoLevel)
	c.Err = &buf

	c.Report(olserrors.New(olserrors.ErrCodeNotFound, "term %q not found", "x"))
	assertContains(t, buf.String(), `term "x" not found`, "NOT_FOUND")

	buf.Reset()
	c.Report(errors.New("plain failure"))
	assertContains(t, buf.String(), "plain failure")
}
