package table

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWorkbook = `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Notes" sheetId="1" r:id="rId1"/><sheet name="Reviews" sheetId="2" r:id="rId2"/></sheets>
</workbook>`
	testRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="worksheet" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Type="worksheet" Target="/xl/worksheets/sheet2.xml"/>
</Relationships>`
	testShared = `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<si><t>country</t></si><si><t>points</t></si><si><t>price</t></si><si><t>Italy</t></si><si><r><t>Port</t></r><r><t>ugal</t></r></si>
</sst>`
	testSheet1 = `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="inlineStr"><is><t>memo</t></is></c></row>
<row r="2"><c r="A2" t="inlineStr"><is><t>hello</t></is></c></row>
</sheetData></worksheet>`
	testSheet2 = `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="s"><v>2</v></c></row>
<row r="2"><c r="A2" t="s"><v>3</v></c><c r="B2"><v>87</v></c></row>
<row r="3"><c r="A3" t="s"><v>4</v></c><c r="B3"><v>88</v></c><c r="C3"><v>15.5</v></c></row>
</sheetData></worksheet>`
)

func writeWorkbook(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "reviews.xlsx")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	parts := map[string]string{
		"xl/workbook.xml":            testWorkbook,
		"xl/_rels/workbook.xml.rels": testRels,
		"xl/sharedStrings.xml":       testShared,
		"xl/worksheets/sheet1.xml":   testSheet1,
		"xl/worksheets/sheet2.xml":   testSheet2,
	}
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func TestReadXLSXBySheetName(t *testing.T) {
	p := writeWorkbook(t)
	tb, err := ReadXLSX(p, XLSXOptions{Sheet: "reviews"})
	require.NoError(t, err)
	assert.Equal(t, "reviews", tb.Name)
	assert.Equal(t, []string{"country", "points", "price"}, tb.Columns)
	require.Equal(t, 2, tb.Len())
	assert.Equal(t, []any{"Italy", int64(87), nil}, tb.Rows[0])
	assert.Equal(t, []any{"Portugal", int64(88), 15.5}, tb.Rows[1])
}

func TestReadXLSXByIndexAndDefault(t *testing.T) {
	p := writeWorkbook(t)
	tb, err := ReadXLSX(p, XLSXOptions{SheetIndex: 2, CSVOptions: CSVOptions{MaxRows: 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, tb.Len())

	tb, err = ReadXLSX(p, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"memo"}, tb.Columns)
	assert.Equal(t, "hello", tb.Rows[0][0])
}

func TestReadXLSXUnknownSheet(t *testing.T) {
	p := writeWorkbook(t)
	_, err := ReadXLSX(p, XLSXOptions{Sheet: "Prices"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Notes, Reviews")
}

func TestNormalizeRelPathAndColumnRefs(t *testing.T) {
	cases := map[string]string{
		"/xl/worksheets/sheet1.xml": "xl/worksheets/sheet1.xml",
		"xl/worksheets/sheet1.xml":  "xl/worksheets/sheet1.xml",
		"/worksheets/sheet1.xml":    "xl/worksheets/sheet1.xml",
		"styles.xml":                "xl/styles.xml",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeRelPath(in), in)
	}
	assert.Equal(t, 0, colIndexFromRef("A1"))
	assert.Equal(t, 2, colIndexFromRef("c12"))
	assert.Equal(t, 27, colIndexFromRef("AB3"))
	assert.Equal(t, -1, colIndexFromRef(""))
}
