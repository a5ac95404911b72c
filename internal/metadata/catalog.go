// Package metadata loads PowerCenter mapping exports into core types.
//
// Both the native XML export and its xmltodict JSON rendering are accepted.
// Elements that may repeat (FOLDER, MAPPING, CONNECTOR, ...) can appear as a
// single object or a list in JSON; both shapes decode the same way.
package metadata

import (
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapmap/pkg/core"
)

// Catalog is a loaded repository export.
type Catalog struct {
	Path       string
	Version    string
	Repository *core.Repository
}

// Folders returns the folders in document order.
func (c *Catalog) Folders() []*core.Folder {
	return c.Repository.Folders
}

// Folder returns the folder with the given name.
func (c *Catalog) Folder(name string) (*core.Folder, bool) {
	for _, f := range c.Repository.Folders {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// FolderOf returns the folder a mapping was declared in.
func (c *Catalog) FolderOf(m *core.Mapping) *core.Folder {
	f, _ := c.Folder(m.Folder)
	return f
}

// Mappings returns every mapping across all folders in document order.
func (c *Catalog) Mappings() []*core.Mapping {
	var out []*core.Mapping
	for _, f := range c.Repository.Folders {
		out = append(out, f.Mappings...)
	}
	return out
}

// FindMapping returns the first mapping with the given name.
// A missing mapping is a *core.StructuralError.
func (c *Catalog) FindMapping(name string) (*core.Mapping, error) {
	for _, m := range c.Mappings() {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, core.ErrMappingNotFound("mapping %q not found", name)
}

// MappingNames returns all mapping names sorted.
func (c *Catalog) MappingNames() []string {
	var names []string
	for _, m := range c.Mappings() {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

func newCatalog(pm rawPowerMart) *Catalog {
	repo := &core.Repository{Name: pm.Repository.Name}
	for _, rf := range pm.Repository.Folders {
		repo.Folders = append(repo.Folders, convertFolder(rf))
	}
	return &Catalog{Version: pm.Version, Repository: repo}
}

func convertFolder(rf rawFolder) *core.Folder {
	f := &core.Folder{Name: rf.Name}

	for _, rs := range rf.Sources {
		f.Sources = append(f.Sources, &core.SourceDefinition{
			Name:         rs.Name,
			DatabaseType: rs.DatabaseType,
			OwnerName:    rs.OwnerName,
			Fields:       convertDefFields(rs.Fields),
		})
	}
	for _, rt := range rf.Targets {
		f.Targets = append(f.Targets, &core.TargetDefinition{
			Name:         rt.Name,
			DatabaseType: rt.DatabaseType,
			Fields:       convertDefFields(rt.Fields),
		})
	}
	for _, rt := range rf.Transformations {
		f.Transformations = append(f.Transformations, convertTransformation(rt))
	}
	for _, rm := range rf.Mappings {
		f.Mappings = append(f.Mappings, convertMapping(rm, f))
	}

	return f
}

func convertMapping(rm rawMapping, folder *core.Folder) *core.Mapping {
	m := &core.Mapping{
		Name:        rm.Name,
		Description: rm.Description,
		IsValid:     yes(rm.IsValid),
		Folder:      folder.Name,
	}

	for _, rt := range rm.Transformations {
		m.Transformations = append(m.Transformations, convertTransformation(rt))
	}
	for _, ri := range rm.Instances {
		m.Instances = append(m.Instances, &core.Instance{
			Name:               ri.Name,
			Type:               ri.Type,
			TransformationType: ri.TransformationType,
			TransformationName: ri.TransformationName,
			Description:        ri.Description,
			Reusable:           yes(ri.Reusable),
		})
	}
	for _, rc := range rm.Connectors {
		m.Connectors = append(m.Connectors, &core.Connector{
			FromInstance:     rc.FromInstance,
			FromField:        rc.FromField,
			FromInstanceType: rc.FromInstanceType,
			ToInstance:       rc.ToInstance,
			ToField:          rc.ToField,
			ToInstanceType:   rc.ToInstanceType,
		})
	}
	for _, rl := range rm.LoadOrders {
		order, _ := strconv.Atoi(strings.TrimSpace(rl.Order))
		m.TargetLoadOrders = append(m.TargetLoadOrders, core.TargetLoadOrder{Order: order, TargetInstance: rl.TargetInstance})
	}

	resolveReusable(m, folder)
	return m
}

// resolveReusable adds folder-level transformations referenced by instances
// but not declared inside the mapping.
func resolveReusable(m *core.Mapping, folder *core.Folder) {
	for _, inst := range m.Instances {
		if inst.Type != core.InstanceTypeTransformation {
			continue
		}
		name := inst.TransformationName
		if name == "" {
			name = inst.Name
		}
		if _, ok := m.Transformation(name); ok {
			continue
		}
		for _, t := range folder.Transformations {
			if t.Name == name {
				m.Transformations = append(m.Transformations, t)
				break
			}
		}
	}
}

func convertTransformation(rt rawTransformation) *core.Transformation {
	t := &core.Transformation{
		Name:        rt.Name,
		Type:        rt.Type,
		Description: rt.Description,
		Reusable:    yes(rt.Reusable),
		Properties:  make(map[string]string),
	}
	for _, rf := range rt.Fields {
		t.Fields = append(t.Fields, core.TransformField{
			Name:         rf.Name,
			DataType:     rf.DataType,
			Precision:    rf.Precision,
			Scale:        rf.Scale,
			Expression:   rf.Expression,
			Description:  rf.Description,
			PortType:     rf.PortType,
			DefaultValue: rf.DefaultValue,
			GroupBy:      yes(rf.GroupBy),
			SortKey:      yes(rf.SortKey),
		})
	}
	for _, ra := range rt.Attributes {
		t.Attributes = append(t.Attributes, core.TableAttribute{Name: ra.Name, Value: ra.Value})
	}
	for _, a := range rt.XMLExtra {
		t.Properties[a.Name.Local] = a.Value
	}
	for k, v := range rt.JSONExtra {
		s, ok := v.(string)
		if !ok || !strings.HasPrefix(k, "@") {
			continue
		}
		t.Properties[strings.TrimPrefix(k, "@")] = s
	}
	return t
}

func convertDefFields(raw []rawDefField) []core.DefinitionField {
	fields := make([]core.DefinitionField, 0, len(raw))
	for _, rf := range raw {
		fields = append(fields, core.DefinitionField{
			Name:      rf.Name,
			DataType:  rf.DataType,
			Precision: rf.Precision,
			Scale:     rf.Scale,
			Nullable:  rf.Nullable,
			KeyType:   rf.KeyType,
		})
	}
	return fields
}

func yes(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "YES")
}
