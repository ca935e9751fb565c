package output

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/bgricker/testbridge/internal/failure"
	"github.com/bgricker/testbridge/internal/result"
)

// MainCaseName names the single test case written for a standalone record.
const MainCaseName = "[main]"

// TimestampLayout formats testsuite timestamps.
const TimestampLayout = "2006-01-02T15:04:05"

type xmlSuite struct {
	XMLName    xml.Name      `xml:"testsuite"`
	Errors     int           `xml:"errors,attr"`
	Failures   int           `xml:"failures,attr"`
	Hostname   string        `xml:"hostname,attr"`
	Name       string        `xml:"name,attr"`
	Tests      int           `xml:"tests,attr"`
	Time       string        `xml:"time,attr"`
	Timestamp  string        `xml:"timestamp,attr"`
	Properties xmlProperties `xml:"properties"`
	Cases      []xmlCase     `xml:"testcase"`
	SystemOut  string        `xml:"system-out"`
	SystemErr  string        `xml:"system-err"`
}

type xmlProperties struct {
	Property []xmlProperty `xml:"property"`
}

type xmlProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlCase struct {
	ClassName string       `xml:"classname,attr"`
	Name      string       `xml:"name,attr"`
	Time      string       `xml:"time,attr"`
	Errors    []xmlProblem `xml:"error"`
	Failures  []xmlProblem `xml:"failure"`
}

type xmlProblem struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// XMLOptions configure the JUnit-style XML report.
type XMLOptions struct {
	Dir        string
	Properties map[string]string
	Renderer   failure.Renderer
}

// XMLRenderer writes one TEST-<identity>.xml file per top-level record.
type XMLRenderer struct {
	opts XMLOptions
}

// NewXML creates an XML renderer writing into opts.Dir.
func NewXML(opts XMLOptions) *XMLRenderer {
	return &XMLRenderer{opts: opts}
}

// Render writes every record of c and returns the paths written.
func (x *XMLRenderer) Render(c *result.Collector) ([]string, error) {
	if err := os.MkdirAll(x.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create xml dir %q: %w", x.opts.Dir, err)
	}
	props := x.properties()
	var paths []string
	for _, rec := range c.Records() {
		path := filepath.Join(x.opts.Dir, FileName(rec.Identity()))
		data, err := x.marshal(c, rec, props)
		if err != nil {
			return paths, fmt.Errorf("encode %s: %w", rec.Identity(), err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %q: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// FileName is the report file name for a record identity. Path separators
// in the identity become dots.
func FileName(identity string) string {
	return "TEST-" + strings.NewReplacer("/", ".", `\`, ".").Replace(identity) + ".xml"
}

func (x *XMLRenderer) properties() xmlProperties {
	keys := make([]string, 0, len(x.opts.Properties))
	for k := range x.opts.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var props xmlProperties
	for _, k := range keys {
		props.Property = append(props.Property, xmlProperty{Name: k, Value: x.opts.Properties[k]})
	}
	return props
}

func (x *XMLRenderer) marshal(c *result.Collector, rec result.Record, props xmlProperties) ([]byte, error) {
	suite := xmlSuite{
		Errors:     rec.ErrorCount(),
		Failures:   rec.FailureCount(),
		Hostname:   c.Host(),
		Name:       rec.Identity(),
		Tests:      rec.TestCount(),
		Time:       secondsAttr(rec.TotalTime().Seconds()),
		Timestamp:  rec.StartTime().Format(TimestampLayout),
		Properties: props,
	}
	var out strings.Builder
	switch rec := rec.(type) {
	case *result.Group:
		for _, leaf := range rec.Cases() {
			suite.Cases = append(suite.Cases, x.testCase(rec.Identity(), leaf.Name, leaf))
			out.WriteString(leaf.Output())
		}
	case *result.Leaf:
		suite.Cases = append(suite.Cases, x.testCase(rec.Identity(), MainCaseName, rec))
		out.WriteString(rec.Output())
	}
	suite.SystemOut = stripansi.Strip(out.String())

	data, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

func (x *XMLRenderer) testCase(class, name string, leaf *result.Leaf) xmlCase {
	tc := xmlCase{ClassName: class, Name: name, Time: secondsAttr(leaf.Elapsed.Seconds())}
	for _, ev := range leaf.Errors {
		tc.Errors = append(tc.Errors, x.problem("error", ev.Err))
	}
	for _, ev := range leaf.Failures {
		tc.Failures = append(tc.Failures, x.problem("failure", ev.Err))
	}
	return tc
}

func (x *XMLRenderer) problem(kind string, err error) xmlProblem {
	var b strings.Builder
	if kind == "failure" {
		x.opts.Renderer.PrintFailure(&b, err)
	} else {
		x.opts.Renderer.PrintError(&b, err)
	}
	return xmlProblem{Message: err.Error(), Type: failure.TypeName(err), Body: stripansi.Strip(b.String())}
}

func secondsAttr(s float64) string {
	return fmt.Sprintf("%.3f", s)
}
