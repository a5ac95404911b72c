// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapmap/internal/cli/output"
)

// SalesExport is a two-mapping PowerCenter export.
//
// m_load_orders: ORDERS -> SQ_ORDERS -> EXP_TOTAL (TOTAL = PRICE * QTY) -> DW_ORDERS.
// m_customers:   CUSTOMERS -> SQ_CUSTOMERS -> DIM_CUSTOMER.
const SalesExport = `<?xml version="1.0" encoding="Windows-1252"?>
<!DOCTYPE POWERMART SYSTEM "powrmart.dtd">
<POWERMART CREATION_DATE="05/01/2024" REPOSITORY_VERSION="188.103">
<REPOSITORY NAME="REP_DEV" VERSION="188" CODEPAGE="MS1252" DATABASETYPE="Oracle">
<FOLDER NAME="SALES" OWNER="etl">
    <SOURCE NAME="ORDERS" DATABASETYPE="Oracle" OWNERNAME="SRC">
        <SOURCEFIELD NAME="ORDER_ID" DATATYPE="number" PRECISION="10" SCALE="0"/>
        <SOURCEFIELD NAME="PRICE" DATATYPE="number" PRECISION="12" SCALE="2"/>
        <SOURCEFIELD NAME="QTY" DATATYPE="number" PRECISION="10" SCALE="0"/>
    </SOURCE>
    <SOURCE NAME="CUSTOMERS" DATABASETYPE="Oracle" OWNERNAME="SRC">
        <SOURCEFIELD NAME="ID" DATATYPE="number" PRECISION="10" SCALE="0"/>
        <SOURCEFIELD NAME="NAME" DATATYPE="varchar2" PRECISION="80" SCALE="0"/>
    </SOURCE>
    <TARGET NAME="DW_ORDERS" DATABASETYPE="Oracle">
        <TARGETFIELD NAME="ORDER_ID" DATATYPE="number" PRECISION="10" SCALE="0"/>
        <TARGETFIELD NAME="ORDER_TOTAL" DATATYPE="number" PRECISION="14" SCALE="2"/>
    </TARGET>
    <TARGET NAME="DIM_CUSTOMER" DATABASETYPE="Oracle">
        <TARGETFIELD NAME="ID" DATATYPE="number" PRECISION="10" SCALE="0"/>
        <TARGETFIELD NAME="NAME" DATATYPE="varchar2" PRECISION="80" SCALE="0"/>
    </TARGET>
    <MAPPING NAME="m_load_orders" DESCRIPTION="Orders load" ISVALID="YES">
        <TRANSFORMATION NAME="SQ_ORDERS" TYPE="Source Qualifier" REUSABLE="NO">
            <TRANSFORMFIELD NAME="ORDER_ID" DATATYPE="decimal" PRECISION="10" SCALE="0" PORTTYPE="INPUT/OUTPUT"/>
            <TRANSFORMFIELD NAME="PRICE" DATATYPE="decimal" PRECISION="12" SCALE="2" PORTTYPE="INPUT/OUTPUT"/>
            <TRANSFORMFIELD NAME="QTY" DATATYPE="decimal" PRECISION="10" SCALE="0" PORTTYPE="INPUT/OUTPUT"/>
        </TRANSFORMATION>
        <TRANSFORMATION NAME="EXP_TOTAL" TYPE="Expression" REUSABLE="NO">
            <TRANSFORMFIELD NAME="ORDER_ID" DATATYPE="decimal" PRECISION="10" SCALE="0" PORTTYPE="INPUT/OUTPUT"/>
            <TRANSFORMFIELD NAME="PRICE" DATATYPE="decimal" PRECISION="12" SCALE="2" PORTTYPE="INPUT"/>
            <TRANSFORMFIELD NAME="QTY" DATATYPE="decimal" PRECISION="10" SCALE="0" PORTTYPE="INPUT"/>
            <TRANSFORMFIELD NAME="TOTAL" DATATYPE="decimal" PRECISION="14" SCALE="2" PORTTYPE="OUTPUT" EXPRESSION="PRICE * QTY"/>
        </TRANSFORMATION>
        <INSTANCE NAME="ORDERS" TYPE="SOURCE" TRANSFORMATION_TYPE="Source Definition" TRANSFORMATION_NAME="ORDERS"/>
        <INSTANCE NAME="SQ_ORDERS" TYPE="TRANSFORMATION" TRANSFORMATION_TYPE="Source Qualifier" TRANSFORMATION_NAME="SQ_ORDERS"/>
        <INSTANCE NAME="EXP_TOTAL" TYPE="TRANSFORMATION" TRANSFORMATION_TYPE="Expression" TRANSFORMATION_NAME="EXP_TOTAL"/>
        <INSTANCE NAME="DW_ORDERS" TYPE="TARGET" TRANSFORMATION_TYPE="Target Definition" TRANSFORMATION_NAME="DW_ORDERS"/>
        <CONNECTOR FROMFIELD="ORDER_ID" FROMINSTANCE="ORDERS" FROMINSTANCETYPE="Source Definition" TOFIELD="ORDER_ID" TOINSTANCE="SQ_ORDERS" TOINSTANCETYPE="Source Qualifier"/>
        <CONNECTOR FROMFIELD="PRICE" FROMINSTANCE="ORDERS" FROMINSTANCETYPE="Source Definition" TOFIELD="PRICE" TOINSTANCE="SQ_ORDERS" TOINSTANCETYPE="Source Qualifier"/>
        <CONNECTOR FROMFIELD="QTY" FROMINSTANCE="ORDERS" FROMINSTANCETYPE="Source Definition" TOFIELD="QTY" TOINSTANCE="SQ_ORDERS" TOINSTANCETYPE="Source Qualifier"/>
        <CONNECTOR FROMFIELD="ORDER_ID" FROMINSTANCE="SQ_ORDERS" FROMINSTANCETYPE="Source Qualifier" TOFIELD="ORDER_ID" TOINSTANCE="EXP_TOTAL" TOINSTANCETYPE="Expression"/>
        <CONNECTOR FROMFIELD="PRICE" FROMINSTANCE="SQ_ORDERS" FROMINSTANCETYPE="Source Qualifier" TOFIELD="PRICE" TOINSTANCE="EXP_TOTAL" TOINSTANCETYPE="Expression"/>
        <CONNECTOR FROMFIELD="QTY" FROMINSTANCE="SQ_ORDERS" FROMINSTANCETYPE="Source Qualifier" TOFIELD="QTY" TOINSTANCE="EXP_TOTAL" TOINSTANCETYPE="Expression"/>
        <CONNECTOR FROMFIELD="ORDER_ID" FROMINSTANCE="EXP_TOTAL" FROMINSTANCETYPE="Expression" TOFIELD="ORDER_ID" TOINSTANCE="DW_ORDERS" TOINSTANCETYPE="Target Definition"/>
        <CONNECTOR FROMFIELD="TOTAL" FROMINSTANCE="EXP_TOTAL" FROMINSTANCETYPE="Expression" TOFIELD="ORDER_TOTAL" TOINSTANCE="DW_ORDERS" TOINSTANCETYPE="Target Definition"/>
        <TARGETLOADORDER ORDER="1" TARGETINSTANCE="DW_ORDERS"/>
    </MAPPING>
    <MAPPING NAME="m_customers" DESCRIPTION="Customer dimension" ISVALID="YES">
        <TRANSFORMATION NAME="SQ_CUSTOMERS" TYPE="Source Qualifier" REUSABLE="NO">
            <TRANSFORMFIELD NAME="ID" DATATYPE="decimal" PRECISION="10" SCALE="0" PORTTYPE="INPUT/OUTPUT"/>
            <TRANSFORMFIELD NAME="NAME" DATATYPE="string" PRECISION="80" SCALE="0" PORTTYPE="INPUT/OUTPUT"/>
        </TRANSFORMATION>
        <INSTANCE NAME="CUSTOMERS" TYPE="SOURCE" TRANSFORMATION_TYPE="Source Definition" TRANSFORMATION_NAME="CUSTOMERS"/>
        <INSTANCE NAME="SQ_CUSTOMERS" TYPE="TRANSFORMATION" TRANSFORMATION_TYPE="Source Qualifier" TRANSFORMATION_NAME="SQ_CUSTOMERS"/>
        <INSTANCE NAME="DIM_CUSTOMER" TYPE="TARGET" TRANSFORMATION_TYPE="Target Definition" TRANSFORMATION_NAME="DIM_CUSTOMER"/>
        <CONNECTOR FROMFIELD="ID" FROMINSTANCE="CUSTOMERS" FROMINSTANCETYPE="Source Definition" TOFIELD="ID" TOINSTANCE="SQ_CUSTOMERS" TOINSTANCETYPE="Source Qualifier"/>
        <CONNECTOR FROMFIELD="NAME" FROMINSTANCE="CUSTOMERS" FROMINSTANCETYPE="Source Definition" TOFIELD="NAME" TOINSTANCE="SQ_CUSTOMERS" TOINSTANCETYPE="Source Qualifier"/>
        <CONNECTOR FROMFIELD="ID" FROMINSTANCE="SQ_CUSTOMERS" FROMINSTANCETYPE="Source Qualifier" TOFIELD="ID" TOINSTANCE="DIM_CUSTOMER" TOINSTANCETYPE="Target Definition"/>
        <CONNECTOR FROMFIELD="NAME" FROMINSTANCE="SQ_CUSTOMERS" FROMINSTANCETYPE="Source Qualifier" TOFIELD="NAME" TOINSTANCE="DIM_CUSTOMER" TOINSTANCETYPE="Target Definition"/>
    </MAPPING>
</FOLDER>
</REPOSITORY>
</POWERMART>
`

// SetupTestProject creates a temporary project with leapmap.yaml pointing at
// exports/sales.xml and a state database under .leapmap/. It returns the project directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}

	if err := os.MkdirAll(filepath.Join(tmpDir, "exports"), 0o750); err != nil {
		t.Fatalf("failed to create exports directory: %v", err)
	}
	WriteExport(t, filepath.Join(tmpDir, "exports", "sales.xml"), SalesExport)

	cfg := "input: exports/sales.xml\nstate_path: .leapmap/state.db\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "leapmap.yaml"), []byte(cfg), 0o600); err != nil {
		t.Fatalf("failed to create leapmap.yaml: %v", err)
	}

	return tmpDir
}

// WriteExport writes metadata content to path.
func WriteExport(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if fenceCount := strings.Count(md, "```"); fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
