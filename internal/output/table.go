package output

import (
	"encoding/json"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/smnsjas/go-dspace/model"
)

// TableFormatter formats repository objects as aligned columns. Types
// without a table layout fall back to indented JSON.
type TableFormatter struct {
	NoHeaders bool
}

// Format formats data as a table.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}
	if s, ok := data.(string); ok {
		_, err := io.WriteString(w, s+"\n")
		return err
	}

	table, ok := toTable(data)
	if !ok {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

var objectHeaders = []string{"ID", "NAME", "HANDLE", "TYPE"}

func objectRow(o model.DSpaceObject) []string {
	return []string{cell(string(o.ID)), cell(o.Name), cell(o.Handle), cell(o.Type)}
}

func toTable(data any) (*Table, bool) {
	switch v := data.(type) {
	case *Table:
		return v, true
	case []model.Community:
		t := &Table{Headers: slices.Concat(objectHeaders, []string{"ITEMS"})}
		for _, c := range v {
			t.AddRow(append(objectRow(c.DSpaceObject), strconv.Itoa(c.CountItems))...)
		}
		return t, true
	case []model.Collection:
		t := &Table{Headers: slices.Concat(objectHeaders, []string{"ITEMS"})}
		for _, c := range v {
			t.AddRow(append(objectRow(c.DSpaceObject), strconv.Itoa(c.NumberItems))...)
		}
		return t, true
	case []model.Item:
		t := &Table{Headers: slices.Concat(objectHeaders, []string{"LAST_MODIFIED"})}
		for _, i := range v {
			t.AddRow(append(objectRow(i.DSpaceObject), cell(i.LastModified))...)
		}
		return t, true
	case []model.Bitstream:
		t := &Table{Headers: []string{"ID", "NAME", "BUNDLE", "MIME_TYPE", "SIZE"}}
		for _, b := range v {
			t.AddRow(cell(string(b.ID)), cell(b.Name), cell(b.BundleName), cell(b.MimeType),
				strconv.FormatInt(b.SizeBytes, 10))
		}
		return t, true
	case []model.MetadataEntry:
		t := &Table{Headers: []string{"KEY", "VALUE", "LANGUAGE"}}
		for _, m := range v {
			t.AddRow(cell(m.Key), cell(m.Value), cell(m.Language))
		}
		return t, true
	case []model.ResourcePolicy:
		t := &Table{Headers: []string{"ID", "ACTION", "GROUP", "EPERSON", "START", "END"}}
		for _, p := range v {
			t.AddRow(cell(string(p.ID)), cell(p.Action), cell(string(p.GroupID)), cell(string(p.EPersonID)),
				cell(p.StartDate), cell(p.EndDate))
		}
		return t, true
	case *model.Community:
		return fields(v.DSpaceObject,
			"short_description", v.ShortDescription,
			"items", strconv.Itoa(v.CountItems)), true
	case *model.Collection:
		return fields(v.DSpaceObject,
			"short_description", v.ShortDescription,
			"items", strconv.Itoa(v.NumberItems)), true
	case *model.Item:
		t := fields(v.DSpaceObject,
			"last_modified", v.LastModified,
			"archived", v.Archived,
			"withdrawn", v.Withdrawn)
		for _, m := range v.Metadata {
			t.AddRow(m.Key, cell(m.Value))
		}
		return t, true
	case *model.Bitstream:
		return fields(v.DSpaceObject,
			"bundle", v.BundleName,
			"format", v.Format,
			"mime_type", v.MimeType,
			"size", strconv.FormatInt(v.SizeBytes, 10),
			"retrieve_link", v.RetrieveLink), true
	case *model.DSpaceObject:
		return fields(*v), true
	case *model.Status:
		return &Table{
			Headers: []string{"FIELD", "VALUE"},
			Rows: [][]string{
				{"okay", strconv.FormatBool(v.Okay)},
				{"authenticated", strconv.FormatBool(v.Authenticated)},
				{"email", cell(v.Email)},
				{"fullname", cell(v.FullName)},
				{"api_version", cell(v.APIVersion)},
				{"source_version", cell(v.SourceVersion)},
			},
		}, true
	}
	return nil, false
}

// fields builds a FIELD/VALUE table from the common object fields followed
// by extra name/value pairs.
func fields(o model.DSpaceObject, extra ...string) *Table {
	t := &Table{Headers: []string{"FIELD", "VALUE"}}
	t.AddRow("id", cell(string(o.ID)))
	if o.UUID != "" {
		t.AddRow("uuid", o.UUID)
	}
	t.AddRow("name", cell(o.Name))
	t.AddRow("handle", cell(o.Handle))
	t.AddRow("type", cell(o.Type))
	for i := 0; i+1 < len(extra); i += 2 {
		t.AddRow(extra[i], cell(extra[i+1]))
	}
	return t
}

func cell(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if s == "" {
		return "-"
	}
	return s
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		if _, err := io.WriteString(tw, strings.Join(t.Headers, "\t")+"\n"); err != nil {
			return err
		}
	}
	for _, row := range t.Rows {
		if _, err := io.WriteString(tw, strings.Join(row, "\t")+"\n"); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}
