package metadata

import "encoding/xml"

// The raw* types mirror the POWERMART export layout. XML attributes map
// through xml tags; the JSON form (xmltodict output, attributes prefixed
// with "@") maps through mapstructure tags.

type jsonDocument struct {
	PowerMart rawPowerMart `mapstructure:"POWERMART"`
}

type rawPowerMart struct {
	XMLName    xml.Name      `xml:"POWERMART" mapstructure:"-"`
	Version    string        `xml:"VERSION,attr" mapstructure:"@VERSION"`
	Repository rawRepository `xml:"REPOSITORY" mapstructure:"REPOSITORY"`
}

type rawRepository struct {
	Name    string      `xml:"NAME,attr" mapstructure:"@NAME"`
	Folders []rawFolder `xml:"FOLDER" mapstructure:"FOLDER"`
}

type rawFolder struct {
	Name            string              `xml:"NAME,attr" mapstructure:"@NAME"`
	Sources         []rawSource         `xml:"SOURCE" mapstructure:"SOURCE"`
	Targets         []rawTarget         `xml:"TARGET" mapstructure:"TARGET"`
	Transformations []rawTransformation `xml:"TRANSFORMATION" mapstructure:"TRANSFORMATION"`
	Mappings        []rawMapping        `xml:"MAPPING" mapstructure:"MAPPING"`
}

type rawSource struct {
	Name         string        `xml:"NAME,attr" mapstructure:"@NAME"`
	DatabaseType string        `xml:"DATABASETYPE,attr" mapstructure:"@DATABASETYPE"`
	OwnerName    string        `xml:"OWNERNAME,attr" mapstructure:"@OWNERNAME"`
	Fields       []rawDefField `xml:"SOURCEFIELD" mapstructure:"SOURCEFIELD"`
}

type rawTarget struct {
	Name         string        `xml:"NAME,attr" mapstructure:"@NAME"`
	DatabaseType string        `xml:"DATABASETYPE,attr" mapstructure:"@DATABASETYPE"`
	Fields       []rawDefField `xml:"TARGETFIELD" mapstructure:"TARGETFIELD"`
}

type rawDefField struct {
	Name      string `xml:"NAME,attr" mapstructure:"@NAME"`
	DataType  string `xml:"DATATYPE,attr" mapstructure:"@DATATYPE"`
	Precision string `xml:"PRECISION,attr" mapstructure:"@PRECISION"`
	Scale     string `xml:"SCALE,attr" mapstructure:"@SCALE"`
	Nullable  string `xml:"NULLABLE,attr" mapstructure:"@NULLABLE"`
	KeyType   string `xml:"KEYTYPE,attr" mapstructure:"@KEYTYPE"`
}

type rawTransformation struct {
	Name        string              `xml:"NAME,attr" mapstructure:"@NAME"`
	Type        string              `xml:"TYPE,attr" mapstructure:"@TYPE"`
	Description string              `xml:"DESCRIPTION,attr" mapstructure:"@DESCRIPTION"`
	Reusable    string              `xml:"REUSABLE,attr" mapstructure:"@REUSABLE"`
	Fields      []rawTransformField `xml:"TRANSFORMFIELD" mapstructure:"TRANSFORMFIELD"`
	Attributes  []rawAttribute      `xml:"TABLEATTRIBUTE" mapstructure:"TABLEATTRIBUTE"`

	// Remaining element attributes, one field per decoder.
	XMLExtra  []xml.Attr     `xml:",any,attr" mapstructure:"-"`
	JSONExtra map[string]any `xml:"-" mapstructure:",remain"`
}

type rawTransformField struct {
	Name         string `xml:"NAME,attr" mapstructure:"@NAME"`
	DataType     string `xml:"DATATYPE,attr" mapstructure:"@DATATYPE"`
	Precision    string `xml:"PRECISION,attr" mapstructure:"@PRECISION"`
	Scale        string `xml:"SCALE,attr" mapstructure:"@SCALE"`
	Expression   string `xml:"EXPRESSION,attr" mapstructure:"@EXPRESSION"`
	Description  string `xml:"DESCRIPTION,attr" mapstructure:"@DESCRIPTION"`
	PortType     string `xml:"PORTTYPE,attr" mapstructure:"@PORTTYPE"`
	DefaultValue string `xml:"DEFAULTVALUE,attr" mapstructure:"@DEFAULTVALUE"`
	GroupBy      string `xml:"GROUPBY,attr" mapstructure:"@GROUPBY"`
	SortKey      string `xml:"SORTKEY,attr" mapstructure:"@SORTKEY"`
}

type rawAttribute struct {
	Name  string `xml:"NAME,attr" mapstructure:"@NAME"`
	Value string `xml:"VALUE,attr" mapstructure:"@VALUE"`
}

type rawMapping struct {
	Name            string              `xml:"NAME,attr" mapstructure:"@NAME"`
	Description     string              `xml:"DESCRIPTION,attr" mapstructure:"@DESCRIPTION"`
	IsValid         string              `xml:"ISVALID,attr" mapstructure:"@ISVALID"`
	Transformations []rawTransformation `xml:"TRANSFORMATION" mapstructure:"TRANSFORMATION"`
	Instances       []rawInstance       `xml:"INSTANCE" mapstructure:"INSTANCE"`
	Connectors      []rawConnector      `xml:"CONNECTOR" mapstructure:"CONNECTOR"`
	LoadOrders      []rawLoadOrder      `xml:"TARGETLOADORDER" mapstructure:"TARGETLOADORDER"`
}

type rawInstance struct {
	Name               string `xml:"NAME,attr" mapstructure:"@NAME"`
	Type               string `xml:"TYPE,attr" mapstructure:"@TYPE"`
	TransformationType string `xml:"TRANSFORMATION_TYPE,attr" mapstructure:"@TRANSFORMATION_TYPE"`
	TransformationName string `xml:"TRANSFORMATION_NAME,attr" mapstructure:"@TRANSFORMATION_NAME"`
	Description        string `xml:"DESCRIPTION,attr" mapstructure:"@DESCRIPTION"`
	Reusable           string `xml:"REUSABLE,attr" mapstructure:"@REUSABLE"`
}

type rawConnector struct {
	FromField        string `xml:"FROMFIELD,attr" mapstructure:"@FROMFIELD"`
	FromInstance     string `xml:"FROMINSTANCE,attr" mapstructure:"@FROMINSTANCE"`
	FromInstanceType string `xml:"FROMINSTANCETYPE,attr" mapstructure:"@FROMINSTANCETYPE"`
	ToField          string `xml:"TOFIELD,attr" mapstructure:"@TOFIELD"`
	ToInstance       string `xml:"TOINSTANCE,attr" mapstructure:"@TOINSTANCE"`
	ToInstanceType   string `xml:"TOINSTANCETYPE,attr" mapstructure:"@TOINSTANCETYPE"`
}

type rawLoadOrder struct {
	Order          string `xml:"ORDER,attr" mapstructure:"@ORDER"`
	TargetInstance string `xml:"TARGETINSTANCE,attr" mapstructure:"@TARGETINSTANCE"`
}
