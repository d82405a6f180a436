package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Farhaan96/CollisionOS-sub000/internal/estimate"
	"github.com/Farhaan96/CollisionOS-sub000/internal/estimate/parser"
)

const sampleBMS = `<VehicleDamageEstimateAddRq>
  <EstimateNumber>EST-4401</EstimateNumber>
  <CustomerInfo>
    <Name>Dana Whitfield</Name>
    <Phone>555-0132</Phone>
  </CustomerInfo>
  <VehicleInfo>
    <VIN>1HGBH41JXMN109186</VIN>
    <Year>2021</Year>
    <Make>Honda</Make>
    <Model>Civic</Model>
    <Odometer>42150</Odometer>
  </VehicleInfo>
  <AdminInfo>
    <PolicyHolder>Dana Whitfield</PolicyHolder>
    <InsuranceCompany>Meridian Mutual</InsuranceCompany>
    <ClaimNumber>CLM-88231</ClaimNumber>
  </AdminInfo>
  <DamageLine>
    <LineType>part</LineType>
    <Description>Front bumper cover</Description>
    <PartNumber>71101-TBA-A00</PartNumber>
    <SourceCode>O</SourceCode>
    <Quantity>1</Quantity>
    <UnitPrice>412.50</UnitPrice>
  </DamageLine>
  <DamageLine>
    <LineType>labor</LineType>
    <Description>R&amp;I bumper</Description>
    <LaborHours>2.5</LaborHours>
    <LaborRate>58</LaborRate>
  </DamageLine>
  <DamageLine>
    <LineType>paint</LineType>
    <Description>Refinish bumper</Description>
    <Coats>2</Coats>
  </DamageLine>
  <Totals>
    <Labor>145.00</Labor>
    <Parts>412.50</Parts>
    <Tax>44.60</Tax>
    <GrandTotal>602.10</GrandTotal>
  </Totals>
</VehicleDamageEstimateAddRq>`

func parseBMS(t *testing.T, content string) *parser.Result {
	t.Helper()
	res, err := parser.Parse([]byte(content))
	require.NoError(t, err)
	require.Equal(t, parser.FormatBMS, res.Format)
	return res
}

func TestBMSRoundTripLineCount(t *testing.T) {
	doc, report := Run(parseBMS(t, sampleBMS))
	require.True(t, report.IsValid)
	require.NotNil(t, doc)
	require.Len(t, doc.Lines, 3)
	require.Equal(t, estimate.LinePart, doc.Lines[0].Type)
	require.Equal(t, estimate.LineLabor, doc.Lines[1].Type)
	require.Equal(t, estimate.LinePaint, doc.Lines[2].Type)

	require.Equal(t, "EST-4401", doc.EstimateNumber)
	require.Equal(t, "1HGBH41JXMN109186", doc.Vehicle.VIN)
	require.Equal(t, 2021, doc.Vehicle.Year)
	require.Equal(t, "Meridian Mutual", doc.Admin.Insurer)
	require.NotNil(t, doc.Lines[0].Part)
	require.Equal(t, "71101-TBA-A00", doc.Lines[0].Part.PartNumber)
	require.Equal(t, "O", doc.Lines[0].Part.SourceCode)
	require.NotNil(t, doc.Lines[1].Labor)
	require.Equal(t, 2.5, doc.Lines[1].Labor.Hours)
	require.Equal(t, 602.10, doc.Totals.GrandTotal)
}

func TestBMSMissingRequiredElements(t *testing.T) {
	doc, report := Run(parseBMS(t, `<Estimate><Totals><GrandTotal>1</GrandTotal></Totals></Estimate>`))
	require.False(t, report.IsValid)
	require.Nil(t, doc)

	types := map[string]bool{}
	for _, issue := range report.Errors {
		types[issue.Type] = true
		require.Equal(t, SeverityHigh, issue.Severity)
	}
	require.True(t, types["missing_element"])
}

func TestBMSShortVINIsWarningOnly(t *testing.T) {
	content := `<Estimate>
  <VehicleInfo><VIN>1HGBH41JXMN10918</VIN><Year>2020</Year><Make>Toyota</Make><Model>Camry</Model></VehicleInfo>
  <AdminInfo><ClaimNumber>C-1</ClaimNumber></AdminInfo>
  <Totals><GrandTotal>0</GrandTotal></Totals>
</Estimate>`
	doc, report := Run(parseBMS(t, content))
	require.True(t, report.IsValid)
	require.NotNil(t, doc)

	found := false
	for _, issue := range report.Warnings {
		if issue.Type == "vin_length" {
			found = true
		}
	}
	require.True(t, found)
}

func TestBMSMissingLineTypeIsError(t *testing.T) {
	content := `<Estimate>
  <VehicleInfo><VIN>1HGBH41JXMN109186</VIN><Year>2020</Year><Make>Toyota</Make><Model>Camry</Model></VehicleInfo>
  <AdminInfo><ClaimNumber>C-1</ClaimNumber></AdminInfo>
  <DamageLine><Description>mystery</Description></DamageLine>
  <Totals><GrandTotal>0</GrandTotal></Totals>
</Estimate>`
	doc, report := Run(parseBMS(t, content))
	require.False(t, report.IsValid)
	require.Nil(t, doc)
	require.Equal(t, "missing_line_type", report.Errors[0].Type)
}

func TestBMSMissingPartNumberIsWarning(t *testing.T) {
	content := `<Estimate>
  <VehicleInfo><VIN>1HGBH41JXMN109186</VIN><Year>2020</Year><Make>Toyota</Make><Model>Camry</Model></VehicleInfo>
  <AdminInfo><ClaimNumber>C-1</ClaimNumber></AdminInfo>
  <DamageLine><LineType>part</LineType><Description>clip</Description></DamageLine>
  <Totals><GrandTotal>0</GrandTotal></Totals>
</Estimate>`
	doc, report := Run(parseBMS(t, content))
	require.True(t, report.IsValid)
	require.NotNil(t, doc)
	require.Equal(t, "missing_part_number", report.Warnings[0].Type)
}
