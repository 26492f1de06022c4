package common_test

import (
	"bytes"
	"testing"
	"text/template"

	"github.com/aspn-firehose/firehose/internal/codegen/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndentLines(t *testing.T) {
	assert.Equal(t, "    a\n\n    b", common.IndentLines(4, "a\n\nb"))
	assert.Equal(t, "", common.IndentLines(2, ""))
}

func TestCollapseBlankLines(t *testing.T) {
	in := "\n\nint a;  \n\n\n\nint b;\t\n\n"
	assert.Equal(t, "int a;\n\nint b;\n", common.CollapseBlankLines(in))
}

func TestWrapLine(t *testing.T) {
	got := common.WrapLine("one two three four", "  ", 12, "* ")
	assert.Equal(t, "one two\n  * three four", got)
}

func TestTplFuncs(t *testing.T) {
	tmpl := template.Must(template.New("t").Funcs(common.TplFuncs()).Parse(
		`{{pascal "type_header"}} {{snake "MeasurementImu"}} {{upper "x"}} {{join .L ","}}`))
	var buf bytes.Buffer
	require.NoError(t, tmpl.Execute(&buf, map[string]any{"L": []string{"a", "b"}}))
	assert.Equal(t, "TypeHeader measurement_IMU X a,b", buf.String())
}

func TestGeneratedBanner(t *testing.T) {
	assert.Equal(t,
		"# This code is generated via firehose.\n# DO NOT hand edit code.  Make any changes required using the firehose repo instead\n",
		common.GeneratedBanner("#"))
}

func TestGetVersion(t *testing.T) {
	orig := common.Version
	t.Cleanup(func() { common.Version = orig })

	common.Version = ""
	v, err := common.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, "0.0.1-dev", v)

	common.Version = "v1.2.3-rc1"
	v, err = common.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3-rc1", v)

	common.Version = "nightly"
	_, err = common.GetVersion()
	assert.Error(t, err)
}
