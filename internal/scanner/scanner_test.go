package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/xsltcontext-mcp/pkg/types"
)

func newTestScanner(t *testing.T) *Scanner {
	t.Helper()
	c, err := NewClassifier(nil)
	require.NoError(t, err)
	return New(c)
}

func TestScanTemplateBoundaries(t *testing.T) {
	lines := []string{
		`<?xml version="1.0"?>`,
		`<xsl:stylesheet xmlns:xsl="http://www.w3.org/1999/XSL/Transform" version="2.0">`,
		`  <xsl:template name="vmf:vmf1_inputtoresult">`,
		`    <xsl:param name="input"/>`,
		`  </xsl:template>`,
		`  <xsl:template match="/">`,
		`  </xsl:template>`,
		`</xsl:stylesheet>`,
	}

	bounds := newTestScanner(t).Scan(lines)
	require.Len(t, bounds, 4)

	assert.Equal(t, types.BoundaryTemplateStart, bounds[0].Kind)
	assert.Equal(t, 3, bounds[0].Line)
	assert.Equal(t, "vmf:vmf1_inputtoresult", bounds[0].Name)
	assert.Equal(t, types.TemplateHelper, bounds[0].Template)

	assert.Equal(t, types.BoundaryTemplateEnd, bounds[1].Kind)
	assert.Equal(t, 5, bounds[1].Line)

	assert.Equal(t, types.BoundaryTemplateStart, bounds[2].Kind)
	assert.Equal(t, "match:/", bounds[2].Name)
	assert.Equal(t, types.TemplateMain, bounds[2].Template)

	assert.Equal(t, types.BoundaryTemplateEnd, bounds[3].Kind)
	assert.Equal(t, 7, bounds[3].Line)
}

func TestScanVariableAndImport(t *testing.T) {
	lines := []string{
		`<xsl:import href="common/formatters.xsl"/>`,
		`<xsl:include href="lookup.xslt"/>`,
		`<xsl:variable name="var17_root" select="."/>`,
	}

	bounds := newTestScanner(t).Scan(lines)
	require.Len(t, bounds, 3)

	assert.Equal(t, types.BoundaryImport, bounds[0].Kind)
	assert.Equal(t, "common/formatters.xsl", bounds[0].Href)
	assert.Equal(t, types.BoundaryImport, bounds[1].Kind)
	assert.Equal(t, "lookup.xslt", bounds[1].Href)
	assert.Equal(t, types.BoundaryVariable, bounds[2].Kind)
	assert.Equal(t, "var17_root", bounds[2].Name)
}

func TestScanChooseBoundaries(t *testing.T) {
	lines := []string{
		`<xsl:choose>`,
		`  <xsl:when test="$a">1</xsl:when>`,
		`  <xsl:otherwise>2</xsl:otherwise>`,
		`</xsl:choose>`,
	}

	bounds := newTestScanner(t).Scan(lines)
	require.Len(t, bounds, 2)
	assert.Equal(t, types.BoundaryChooseStart, bounds[0].Kind)
	assert.Equal(t, 1, bounds[0].Line)
	assert.Equal(t, types.BoundaryChooseEnd, bounds[1].Kind)
	assert.Equal(t, 4, bounds[1].Line)
}

func TestScanOneBoundaryPerLine(t *testing.T) {
	// Template start outranks the variable on the same line
	lines := []string{
		`<xsl:template name="t"><xsl:variable name="v" select="1"/>`,
	}

	bounds := newTestScanner(t).Scan(lines)
	require.Len(t, bounds, 1)
	assert.Equal(t, types.BoundaryTemplateStart, bounds[0].Kind)
	assert.Equal(t, "t", bounds[0].Name)
}

func TestScanIgnoresNonBoundaryMarkup(t *testing.T) {
	lines := []string{
		`<xsl:value-of select="$x"/>`,
		`<xsl:apply-templates/>`,
		`<Invoice>`,
		``,
	}
	assert.Empty(t, newTestScanner(t).Scan(lines))
}

func TestScanOrderIsLineOrder(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`<xsl:variable name="a" select="1"/>` + "\n")
	sb.WriteString(`<xsl:template name="t1">` + "\n")
	sb.WriteString(`</xsl:template>` + "\n")
	lines := strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n")

	bounds := newTestScanner(t).Scan(lines)
	require.Len(t, bounds, 3)
	for i := 1; i < len(bounds); i++ {
		assert.Greater(t, bounds[i].Line, bounds[i-1].Line)
	}
}

func TestScanTemplateWithoutNameOrMatchIgnored(t *testing.T) {
	// Detection requires a name or match attribute on the open tag
	lines := []string{`<xsl:template>`}
	assert.Empty(t, newTestScanner(t).Scan(lines))
}
