// Command report_gen merges `go test -json` output with the annotation block
// each test carries (TestPurpose, Scope, Security, Expected, Test Case ID)
// and writes JSON and Markdown reports grouped by feature area.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const modulePath = "github.com/opentrusty/contenthub/"

// areas maps a package path fragment to the report section it belongs to.
// First match wins.
var areas = []struct {
	fragment string
	name     string
}{
	{"internal/content", "Content"},
	{"internal/tenant", "Tenancy"},
	{"internal/identity", "AuthN"},
	{"internal/session", "Sessions"},
	{"internal/workflow", "Workflow"},
	{"internal/imagegen", "Image Generation"},
	{"internal/store", "Storage"},
	{"internal/transport/http", "API"},
	{"internal/audit", "Audit"},
	{"tests/e2e", "E2E"},
}

// Annotation is the metadata parsed from a test's doc comment
type Annotation struct {
	Purpose    string `json:"purpose,omitempty"`
	Scope      string `json:"scope,omitempty"`
	Security   string `json:"security,omitempty"`
	Expected   string `json:"expected,omitempty"`
	TestCaseID string `json:"test_case_id,omitempty"`
	Area       string `json:"area"`
}

// testEvent is one line of `go test -json`
type testEvent struct {
	Action  string  `json:"Action"`
	Package string  `json:"Package"`
	Test    string  `json:"Test"`
	Elapsed float64 `json:"Elapsed"`
	Output  string  `json:"Output"`
}

// Result is the outcome of one test or subtest
type Result struct {
	Name       string     `json:"name"`
	Package    string     `json:"package"`
	Status     string     `json:"status"`
	Elapsed    float64    `json:"elapsed_seconds"`
	Output     string     `json:"failure_output,omitempty"`
	Annotation Annotation `json:"annotation"`
}

// Report is the top-level document written to disk
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Total       int       `json:"total"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	Results     []Result  `json:"results"`
}

func main() {
	input := flag.String("input", "", "Path to go test -json output")
	outJSON := flag.String("out-json", "", "Path for the JSON report")
	outMD := flag.String("out-md", "", "Path for the Markdown report")
	title := flag.String("title", "Test Report", "Report title")
	only := flag.String("areas", "", "Comma-separated areas to include")
	flag.Parse()

	if *input == "" || (*outJSON == "" && *outMD == "") {
		fmt.Fprintln(os.Stderr, "usage: report_gen -input <file> [-out-json <file>] [-out-md <file>]")
		os.Exit(2)
	}

	annotations, err := scanAnnotations(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan annotations: %v\n", err)
		os.Exit(1)
	}
	results, err := readResults(*input, annotations)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read results: %v\n", err)
		os.Exit(1)
	}
	if *only != "" {
		results = filterAreas(results, strings.Split(*only, ","))
	}

	report := summarize(results)
	if *outJSON != "" {
		if err := writeJSON(report, *outJSON); err != nil {
			fmt.Fprintf(os.Stderr, "write json: %v\n", err)
			os.Exit(1)
		}
	}
	if *outMD != "" {
		if err := writeFile(*outMD, renderMarkdown(report, *title)); err != nil {
			fmt.Fprintf(os.Stderr, "write markdown: %v\n", err)
			os.Exit(1)
		}
	}

	if report.Failed > 0 {
		fmt.Printf("%d tests failed\n", report.Failed)
		os.Exit(1)
	}
}

func areaOf(pkg string) string {
	for _, a := range areas {
		if strings.Contains(pkg, a.fragment) {
			return a.name
		}
	}
	return "Other"
}

// scanAnnotations parses every _test.go file under root and indexes the
// annotation block of each top-level Test function by "<pkg>.<name>".
func scanAnnotations(root string) (map[string]Annotation, error) {
	out := make(map[string]Annotation)
	fset := token.NewFileSet()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, "_test.go") {
			return nil
		}

		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil
		}
		pkg := modulePath + filepath.ToSlash(filepath.Dir(path))

		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv != nil || !strings.HasPrefix(fn.Name.Name, "Test") {
				continue
			}
			a := Annotation{Area: areaOf(pkg)}
			if fn.Doc != nil {
				for _, c := range fn.Doc.List {
					parseAnnotationLine(&a, strings.TrimSpace(strings.TrimPrefix(c.Text, "//")))
				}
			}
			out[pkg+"."+fn.Name.Name] = a
		}
		return nil
	})
	return out, err
}

func parseAnnotationLine(a *Annotation, line string) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	value = strings.TrimSpace(value)
	switch key {
	case "TestPurpose":
		a.Purpose = value
	case "Scope":
		a.Scope = value
	case "Security":
		a.Security = value
	case "Expected":
		a.Expected = value
	case "Test Case ID":
		a.TestCaseID = value
	}
}

func readResults(path string, annotations map[string]Annotation) ([]Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	byKey := make(map[string]*Result)
	for key, a := range annotations {
		i := strings.LastIndex(key, ".")
		byKey[key] = &Result{Name: key[i+1:], Package: key[:i], Status: "not run", Annotation: a}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var ev testEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil || ev.Test == "" {
			continue
		}

		key := ev.Package + "." + ev.Test
		res, ok := byKey[key]
		if !ok {
			// Subtests inherit the parent's annotation.
			parent, _, _ := strings.Cut(ev.Test, "/")
			a, found := annotations[ev.Package+"."+parent]
			if !found {
				a = Annotation{Area: areaOf(ev.Package)}
			}
			res = &Result{Name: ev.Test, Package: ev.Package, Annotation: a}
			byKey[key] = res
		}

		switch ev.Action {
		case "pass", "fail":
			res.Status = ev.Action
			res.Elapsed = ev.Elapsed
		case "skip":
			res.Status = "skip"
		case "output":
			res.Output += ev.Output
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(byKey))
	for _, r := range byKey {
		if r.Status != "fail" {
			r.Output = ""
		}
		results = append(results, *r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Package != results[j].Package {
			return results[i].Package < results[j].Package
		}
		return results[i].Name < results[j].Name
	})
	return results, nil
}

func filterAreas(results []Result, names []string) []Result {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[strings.TrimSpace(n)] = true
	}
	var out []Result
	for _, r := range results {
		if keep[r.Annotation.Area] {
			out = append(out, r)
		}
	}
	return out
}

func summarize(results []Result) Report {
	r := Report{GeneratedAt: time.Now().UTC(), Results: results}
	for _, res := range results {
		r.Total++
		switch res.Status {
		case "pass":
			r.Passed++
		case "fail":
			r.Failed++
		case "skip":
			r.Skipped++
		}
	}
	return r
}

func writeJSON(report Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, string(data))
}

func writeFile(path, data string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(data), 0o644)
}

func renderMarkdown(report Report, title string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# ContentHub %s\n\n", title)
	fmt.Fprintf(&sb, "Generated %s\n\n", report.GeneratedAt.Format(time.RFC3339))

	rate := 0.0
	if report.Total > 0 {
		rate = float64(report.Passed) / float64(report.Total) * 100
	}
	sb.WriteString("| Total | Passed | Failed | Skipped | Pass Rate |\n")
	sb.WriteString("|-------|--------|--------|---------|-----------|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d | %d | %.1f%% |\n\n", report.Total, report.Passed, report.Failed, report.Skipped, rate)

	grouped := make(map[string][]Result)
	for _, r := range report.Results {
		grouped[r.Annotation.Area] = append(grouped[r.Annotation.Area], r)
	}

	order := make([]string, 0, len(areas)+1)
	for _, a := range areas {
		order = append(order, a.name)
	}
	order = append(order, "Other")

	for _, area := range order {
		rows := grouped[area]
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n\n", area)
		sb.WriteString("| ID | Test | Status | Purpose | Security |\n")
		sb.WriteString("|----|------|--------|---------|----------|\n")
		for _, r := range rows {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				r.Annotation.TestCaseID, r.Name, r.Status, r.Annotation.Purpose, r.Annotation.Security)
		}
		sb.WriteString("\n")
	}

	if report.Failed > 0 {
		sb.WriteString("## Failures\n\n")
		for _, r := range report.Results {
			if r.Status == "fail" {
				fmt.Fprintf(&sb, "### %s (%s)\n\n```\n%s\n```\n\n", r.Name, r.Package, r.Output)
			}
		}
	}
	return sb.String()
}
