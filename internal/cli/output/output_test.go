package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

type sectionRow struct {
	ID          uint32 `json:"id"`
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint" table:"wide"`
	internal    int
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{" JSON ", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON, false).(*JSONFormatter); !ok {
		t.Fatal("json should produce *JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML, false).(*YAMLFormatter); !ok {
		t.Fatal("yaml should produce *YAMLFormatter")
	}
	tf, ok := NewFormatter("bogus", true).(*TableFormatter)
	if !ok || !tf.Wide {
		t.Fatalf("unknown format should produce a wide *TableFormatter, got %#v", tf)
	}
}

func TestTableFormatter_Table(t *testing.T) {
	tbl := NewTable("SLOT", "VERSION", "SIZE")
	tbl.AddRow("0", "9", "412")
	tbl.AddRow("1", "4")

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, tbl); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "SLOT") || !strings.Contains(lines[1], "412") {
		t.Fatalf("unexpected table:\n%s", buf.String())
	}

	buf.Reset()
	if err := (&TableFormatter{NoHeaders: true}).Format(&buf, tbl); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Contains(buf.String(), "SLOT") {
		t.Fatalf("headers printed with NoHeaders:\n%s", buf.String())
	}
}

func TestTableFormatter_Slice(t *testing.T) {
	rows := []*sectionRow{{ID: 1, Name: "player", Fingerprint: "abc"}, {ID: 3, Name: "inventory"}}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "ID") || !strings.Contains(out, "inventory") {
		t.Fatalf("missing columns:\n%s", out)
	}
	if strings.Contains(out, "FINGERPRINT") {
		t.Fatalf("wide column shown in narrow mode:\n%s", out)
	}

	buf.Reset()
	if err := (&TableFormatter{Wide: true}).Format(&buf, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "FINGERPRINT") || !strings.Contains(buf.String(), "abc") {
		t.Fatalf("wide column missing:\n%s", buf.String())
	}
}

func TestTableFormatter_StructAndMap(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, sectionRow{ID: 2, Name: "world_meta"}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "FIELD") || !strings.Contains(buf.String(), "world_meta") {
		t.Fatalf("struct table:\n%s", buf.String())
	}

	buf.Reset()
	if err := (&TableFormatter{}).Format(&buf, map[string]int{"b": 2, "a": 1}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "a") {
		t.Fatalf("map rows should be sorted:\n%s", buf.String())
	}

	buf.Reset()
	if err := (&TableFormatter{}).Format(&buf, 42); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if buf.String() != "42\n" {
		t.Fatalf("scalar = %q, want %q", buf.String(), "42\n")
	}
}

func TestCell(t *testing.T) {
	var nilPtr *int
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		in   any
		want string
	}{
		{"", "-"},
		{"x", "x"},
		{uint32(7), "7"},
		{1.5, "1.50"},
		{true, "true"},
		{[]int{}, "-"},
		{[]int{1, 2}, "[2 items]"},
		{map[string]int{"a": 1}, "{1 keys}"},
		{ts, "2024-03-01 12:30:00"},
		{time.Time{}, "-"},
		{nilPtr, ""},
	}
	for _, tt := range tests {
		got := cell(reflect.ValueOf(tt.in))
		if got != tt.want {
			t.Fatalf("cell(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJSONAndYAML(t *testing.T) {
	tbl := NewTable("SLOT", "STATUS")
	tbl.AddRow("0", "ok")

	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, tbl); err != nil {
		t.Fatalf("json Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"status": "ok"`) {
		t.Fatalf("json table records:\n%s", buf.String())
	}

	buf.Reset()
	row := sectionRow{ID: 4, Name: "skills", Fingerprint: "00ff"}
	if err := (&YAMLFormatter{}).Format(&buf, row); err != nil {
		t.Fatalf("yaml Format() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"id: 4", "name: skills", "fingerprint: 00ff"} {
		if !strings.Contains(out, want) {
			t.Fatalf("yaml output missing %q:\n%s", want, out)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("SectionCount"); got != "section_count" {
		t.Fatalf("toSnakeCase = %q, want section_count", got)
	}
}
