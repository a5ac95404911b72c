package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapmap/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<?xml version="1.0" encoding="Windows-1252"?>
<!DOCTYPE POWERMART SYSTEM "powrmart.dtd">
<POWERMART CREATION_DATE="01/01/2024" REPOSITORY_VERSION="188.103">
<REPOSITORY NAME="REP_DEV" VERSION="188" CODEPAGE="MS1252" DATABASETYPE="Oracle">
<FOLDER NAME="SALES" GROUP="" OWNER="etl" SHARED="NOTSHARED">
    <SOURCE NAME="ORDERS" DATABASETYPE="Oracle" OWNERNAME="SRC">
        <SOURCEFIELD NAME="ORDER_ID" DATATYPE="number" PRECISION="10" SCALE="0" NULLABLE="NOTNULL" KEYTYPE="PRIMARY KEY"/>
        <SOURCEFIELD NAME="AMOUNT" DATATYPE="number" PRECISION="12" SCALE="2" NULLABLE="NULL" KEYTYPE="NOT A KEY"/>
    </SOURCE>
    <TARGET NAME="DW_ORDERS" DATABASETYPE="Oracle">
        <TARGETFIELD NAME="ORDER_ID" DATATYPE="number" PRECISION="10" SCALE="0"/>
        <TARGETFIELD NAME="AMOUNT_USD" DATATYPE="number" PRECISION="12" SCALE="2"/>
    </TARGET>
    <TRANSFORMATION NAME="EXP_SHARED" TYPE="Expression" REUSABLE="YES">
        <TRANSFORMFIELD NAME="AMOUNT" DATATYPE="decimal" PRECISION="12" SCALE="2" PORTTYPE="INPUT"/>
        <TRANSFORMFIELD NAME="AMOUNT_USD" DATATYPE="decimal" PRECISION="12" SCALE="2" PORTTYPE="OUTPUT" EXPRESSION="AMOUNT * RATE"/>
    </TRANSFORMATION>
    <MAPPING NAME="m_load_orders" DESCRIPTION="Orders load" ISVALID="YES">
        <TRANSFORMATION NAME="SQ_ORDERS" TYPE="Source Qualifier" REUSABLE="NO">
            <TRANSFORMFIELD NAME="ORDER_ID" DATATYPE="decimal" PRECISION="10" SCALE="0" PORTTYPE="INPUT/OUTPUT"/>
            <TABLEATTRIBUTE NAME="Sql Query" VALUE=""/>
        </TRANSFORMATION>
        <TRANSFORMATION NAME="FIL_POSITIVE" TYPE="Filter" FILTERCONDITION="AMOUNT &gt; 0">
            <TRANSFORMFIELD NAME="AMOUNT" DATATYPE="decimal" PRECISION="12" SCALE="2" PORTTYPE="INPUT/OUTPUT"/>
        </TRANSFORMATION>
        <INSTANCE NAME="ORDERS" TYPE="SOURCE" TRANSFORMATION_TYPE="Source Definition" TRANSFORMATION_NAME="ORDERS"/>
        <INSTANCE NAME="SQ_ORDERS" TYPE="TRANSFORMATION" TRANSFORMATION_TYPE="Source Qualifier" TRANSFORMATION_NAME="SQ_ORDERS" REUSABLE="NO"/>
        <INSTANCE NAME="FIL_POSITIVE" TYPE="TRANSFORMATION" TRANSFORMATION_TYPE="Filter" TRANSFORMATION_NAME="FIL_POSITIVE"/>
        <INSTANCE NAME="EXP_RATE" TYPE="TRANSFORMATION" TRANSFORMATION_TYPE="Expression" TRANSFORMATION_NAME="EXP_SHARED" REUSABLE="YES"/>
        <INSTANCE NAME="DW_ORDERS" TYPE="TARGET" TRANSFORMATION_TYPE="Target Definition" TRANSFORMATION_NAME="DW_ORDERS"/>
        <CONNECTOR FROMFIELD="ORDER_ID" FROMINSTANCE="ORDERS" FROMINSTANCETYPE="Source Definition" TOFIELD="ORDER_ID" TOINSTANCE="SQ_ORDERS" TOINSTANCETYPE="Source Qualifier"/>
        <CONNECTOR FROMFIELD="AMOUNT" FROMINSTANCE="SQ_ORDERS" FROMINSTANCETYPE="Source Qualifier" TOFIELD="AMOUNT" TOINSTANCE="FIL_POSITIVE" TOINSTANCETYPE="Filter"/>
        <CONNECTOR FROMFIELD="AMOUNT" FROMINSTANCE="FIL_POSITIVE" FROMINSTANCETYPE="Filter" TOFIELD="AMOUNT" TOINSTANCE="EXP_RATE" TOINSTANCETYPE="Expression"/>
        <CONNECTOR FROMFIELD="AMOUNT_USD" FROMINSTANCE="EXP_RATE" FROMINSTANCETYPE="Expression" TOFIELD="AMOUNT_USD" TOINSTANCE="DW_ORDERS" TOINSTANCETYPE="Target Definition"/>
        <TARGETLOADORDER ORDER="1" TARGETINSTANCE="DW_ORDERS"/>
    </MAPPING>
</FOLDER>
</REPOSITORY>
</POWERMART>`

// Single objects where the list form would repeat.
const singleShapeJSON = `{
  "POWERMART": {
    "@REPOSITORY_VERSION": "188.103",
    "REPOSITORY": {
      "@NAME": "REP_DEV",
      "FOLDER": {
        "@NAME": "SALES",
        "MAPPING": {
          "@NAME": "m_single",
          "@ISVALID": "NO",
          "TRANSFORMATION": {
            "@NAME": "LKP_CUST",
            "@TYPE": "Lookup Procedure",
            "@CONDITION": "CUST_ID = IN_CUST_ID",
            "TRANSFORMFIELD": {"@NAME": "CUST_ID", "@DATATYPE": "integer", "@PRECISION": "10", "@SCALE": "0"},
            "TABLEATTRIBUTE": {"@NAME": "Lookup table name", "@VALUE": "DIM_CUSTOMER"}
          },
          "INSTANCE": {"@NAME": "LKP_CUST", "@TYPE": "TRANSFORMATION", "@TRANSFORMATION_TYPE": "Lookup Procedure", "@TRANSFORMATION_NAME": "LKP_CUST"},
          "CONNECTOR": {
            "@FROMFIELD": "CUST_ID", "@FROMINSTANCE": "SQ_CUST", "@FROMINSTANCETYPE": "Source Qualifier",
            "@TOFIELD": "IN_CUST_ID", "@TOINSTANCE": "LKP_CUST", "@TOINSTANCETYPE": "Lookup Procedure"
          },
          "TARGETLOADORDER": {"@ORDER": "2", "@TARGETINSTANCE": "DIM"}
        }
      }
    }
  }
}`

const listShapeJSON = `{
  "POWERMART": {
    "REPOSITORY": {
      "@NAME": "REP_DEV",
      "FOLDER": [
        {"@NAME": "EMPTY"},
        {
          "@NAME": "SALES",
          "MAPPING": [
            {"@NAME": "m_one", "INSTANCE": [{"@NAME": "A", "@TYPE": "SOURCE"}, {"@NAME": "B", "@TYPE": "TARGET"}]},
            {"@NAME": "m_two", "CONNECTOR": null}
          ]
        }
      ]
    }
  }
}`

func TestRead_XML(t *testing.T) {
	cat, err := Read(strings.NewReader(sampleXML), FormatXML)
	require.NoError(t, err)

	require.Len(t, cat.Folders(), 1)
	folder := cat.Folders()[0]
	assert.Equal(t, "REP_DEV", cat.Repository.Name)
	assert.Equal(t, "SALES", folder.Name)

	require.Len(t, folder.Sources, 1)
	assert.Equal(t, "SRC", folder.Sources[0].OwnerName)
	assert.Equal(t, "number(12,2)", folder.Sources[0].Fields[1].FormattedDataType())
	assert.Equal(t, "PRIMARY KEY", folder.Sources[0].Fields[0].KeyType)
	require.Len(t, folder.Targets, 1)
	assert.Len(t, folder.Targets[0].Fields, 2)

	m, err := cat.FindMapping("m_load_orders")
	require.NoError(t, err)
	assert.True(t, m.IsValid)
	assert.Equal(t, "SALES", m.Folder)
	assert.Len(t, m.Instances, 5)
	assert.Len(t, m.Connectors, 4)
	assert.Equal(t, []core.TargetLoadOrder{{Order: 1, TargetInstance: "DW_ORDERS"}}, m.TargetLoadOrders)

	fil, ok := m.Transformation("FIL_POSITIVE")
	require.True(t, ok)
	assert.Equal(t, "AMOUNT > 0", fil.Property("FILTERCONDITION"))

	sq, ok := m.Transformation("SQ_ORDERS")
	require.True(t, ok)
	assert.Equal(t, []core.TableAttribute{{Name: "Sql Query", Value: ""}}, sq.Attributes)

	c := m.Connectors[3]
	assert.Equal(t, "EXPR_EXP_RATE", c.FromNode())
	assert.Equal(t, "TGT_DW_ORDERS", c.ToNode())
}

func TestRead_ResolvesReusableTransformations(t *testing.T) {
	cat, err := Read(strings.NewReader(sampleXML), FormatXML)
	require.NoError(t, err)

	m, err := cat.FindMapping("m_load_orders")
	require.NoError(t, err)

	shared, ok := m.Transformation("EXP_SHARED")
	require.True(t, ok, "reusable transformation should be attached to the mapping")
	assert.True(t, shared.Reusable)
	f, ok := shared.Field("AMOUNT_USD")
	require.True(t, ok)
	assert.Equal(t, "AMOUNT * RATE", f.Expression)

	inst, ok := m.Instance("EXP_RATE")
	require.True(t, ok)
	assert.True(t, inst.Reusable)
	assert.Same(t, cat.FolderOf(m).Transformations[0], shared)
}

func TestRead_JSONSingleObjectShapes(t *testing.T) {
	cat, err := Read(strings.NewReader(singleShapeJSON), FormatJSON)
	require.NoError(t, err)

	m, err := cat.FindMapping("m_single")
	require.NoError(t, err)
	assert.False(t, m.IsValid)
	require.Len(t, m.Transformations, 1)
	require.Len(t, m.Instances, 1)
	require.Len(t, m.Connectors, 1)
	assert.Equal(t, []core.TargetLoadOrder{{Order: 2, TargetInstance: "DIM"}}, m.TargetLoadOrders)

	lkp := m.Transformations[0]
	assert.Equal(t, "CUST_ID = IN_CUST_ID", lkp.Property("CONDITION"))
	assert.Equal(t, "integer(10)", lkp.Fields[0].FormattedDataType())
	table, ok := lkp.Attribute("Lookup table name")
	assert.True(t, ok)
	assert.Equal(t, "DIM_CUSTOMER", table)
	assert.Equal(t, "IN_CUST_ID", m.Connectors[0].ToField)
}

func TestRead_JSONListShapes(t *testing.T) {
	cat, err := Read(strings.NewReader(listShapeJSON), FormatJSON)
	require.NoError(t, err)

	assert.Len(t, cat.Folders(), 2)
	assert.Equal(t, []string{"m_one", "m_two"}, cat.MappingNames())

	one, err := cat.FindMapping("m_one")
	require.NoError(t, err)
	assert.Len(t, one.Instances, 2)

	two, err := cat.FindMapping("m_two")
	require.NoError(t, err)
	assert.Empty(t, two.Connectors)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
		want   string
	}{
		{"malformed xml", "<POWERMART><REPOSITORY>", FormatXML, "failed to parse XML"},
		{"malformed json", "{", FormatJSON, "failed to parse JSON"},
		{"json without root", `{"OTHER": {}}`, FormatJSON, "missing POWERMART root"},
		{"unknown format", "", Format("csv"), "unsupported metadata format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), tt.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFindMapping_NotFound(t *testing.T) {
	cat, err := Read(strings.NewReader(listShapeJSON), FormatJSON)
	require.NoError(t, err)

	_, err = cat.FindMapping("m_missing")
	require.Error(t, err)
	assert.True(t, core.IsStructural(err))
	assert.Contains(t, err.Error(), "m_missing")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "export.XML")
	require.NoError(t, os.WriteFile(xmlPath, []byte(sampleXML), 0o600))
	jsonPath := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(singleShapeJSON), 0o600))

	cat, err := Load(xmlPath)
	require.NoError(t, err)
	assert.Equal(t, xmlPath, cat.Path)
	assert.Len(t, cat.Mappings(), 1)

	cat, err = Load(jsonPath)
	require.NoError(t, err)
	assert.Len(t, cat.Mappings(), 1)

	_, err = Load(filepath.Join(dir, "export.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected .xml or .json")

	_, err = Load(filepath.Join(dir, "missing.xml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open metadata")
}
