package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSniff(t *testing.T) {
	require.Equal(t, FormatBMS, Sniff([]byte("  \n\t<Estimate/>")))
	require.Equal(t, FormatEMS, Sniff([]byte("HD|EST-1001|2025-01-15")))
	require.Equal(t, FormatEMS, Sniff(nil))
}

func TestParseBMSNormalizesRootAliases(t *testing.T) {
	for _, root := range []string{"VehicleDamageEstimateAddRq", "EstimateDocument", "BMSEstimate"} {
		res, err := Parse([]byte("<" + root + "><VehicleInfo><VIN>1HGBH41JXMN109186</VIN></VehicleInfo></" + root + ">"))
		require.NoError(t, err)
		require.Equal(t, FormatBMS, res.Format)
		require.Equal(t, "Estimate", res.Tree.Name)
		require.Equal(t, "1HGBH41JXMN109186", res.Tree.TextAt("VehicleInfo", "VIN"))
	}
}

func TestParseBMSMalformed(t *testing.T) {
	_, err := Parse([]byte("<Estimate><VehicleInfo></Estimate>"))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, FormatBMS, perr.Format)
}

func TestParseBMSPreservesLineOrder(t *testing.T) {
	res, err := Parse([]byte(`<Estimate><DamageLine><LineType>part</LineType></DamageLine><DamageLine><LineType>labor</LineType></DamageLine></Estimate>`))
	require.NoError(t, err)
	lines := res.Tree.FindAll("DamageLine")
	require.Len(t, lines, 2)
	require.Equal(t, "part", lines[0].TextAt("LineType"))
	require.Equal(t, "labor", lines[1].TextAt("LineType"))
}

func TestSplitFieldsEscapedPipe(t *testing.T) {
	fields, err := SplitFields(`VH|2020|Toyota|Camry\|LE`)
	require.NoError(t, err)
	require.Equal(t, []string{"VH", "2020", "Toyota", "Camry|LE"}, fields)
}

func TestSplitFieldsKeepsPlainBackslash(t *testing.T) {
	fields, err := SplitFields(`NO|C:\temp note`)
	require.NoError(t, err)
	require.Equal(t, []string{"NO", `C:\temp note`}, fields)
}

func TestSplitFieldsDanglingEscape(t *testing.T) {
	_, err := SplitFields(`VH|2020|Toyota\`)
	require.True(t, errors.Is(err, ErrDanglingEscape))
}

func TestParseEMSNeverFails(t *testing.T) {
	content := []byte("HD|EST-1|2025-01-15\n\n  \nvh|2020|Toyota|Camry\ngarbage line\nLI|part|bumper|1|250.00\\")
	res, err := Parse(content)
	require.NoError(t, err)
	require.Equal(t, FormatEMS, res.Format)
	require.Len(t, res.Records, 4)

	require.Equal(t, "HD", res.Records[0].Type)
	require.Equal(t, 1, res.Records[0].LineNo)
	require.Equal(t, "VH", res.Records[1].Type)
	require.Equal(t, "GARBAGE LINE", res.Records[2].Type)
	require.Len(t, res.Records[2].Fields, 1)
	require.Error(t, res.Records[3].Err)
}
