package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Farhaan96/CollisionOS-sub000/internal/estimate"
	"github.com/Farhaan96/CollisionOS-sub000/internal/estimate/parser"
)

const vinLength = 17

// BMS validates an XML estimate tree and builds the canonical document.
func BMS(root *parser.Node) (*estimate.Document, *Report) {
	report := &Report{}

	vehicleInfo := root.Find("VehicleInfo")
	if vehicleInfo == nil {
		report.addError("missing_element", "required element VehicleInfo is absent", SeverityHigh)
	}
	adminInfo := root.Find("AdminInfo")
	if adminInfo == nil {
		report.addError("missing_element", "required element AdminInfo is absent", SeverityHigh)
	}

	if vehicleInfo != nil {
		checkVIN(report, vehicleInfo.TextAt("VIN"))
		for _, field := range []string{"Year", "Make", "Model"} {
			if vehicleInfo.TextAt(field) == "" {
				report.addErrorAt("missing_field", fmt.Sprintf("vehicle %s is required", strings.ToLower(field)), SeverityHigh, "VehicleInfo."+field, 0)
			}
		}
	}

	lines := root.FindAll("DamageLine")
	for i, lineNode := range lines {
		lineType := strings.ToLower(lineNode.TextAt("LineType"))
		if lineType == "" {
			report.addErrorAt("missing_line_type", fmt.Sprintf("damage line %d has no line type", i+1), SeverityHigh, "DamageLine.LineType", i+1)
			continue
		}
		switch estimate.LineType(lineType) {
		case estimate.LinePart:
			if lineNode.TextAt("PartNumber") == "" {
				report.addWarningAt("missing_part_number", fmt.Sprintf("part line %d has no part number", i+1), SeverityMedium, "DamageLine.PartNumber", i+1)
			}
		case estimate.LineLabor:
			if lineNode.TextAt("LaborHours") == "" {
				report.addWarningAt("missing_labor_hours", fmt.Sprintf("labor line %d has no hours", i+1), SeverityMedium, "DamageLine.LaborHours", i+1)
			}
		}
	}

	totalsNode := root.Find("Totals")
	if totalsNode == nil {
		report.addError("missing_totals", "summary totals are absent", SeverityHigh)
	}

	report.finalize(parser.FormatBMS)
	if !report.IsValid {
		return nil, report
	}
	return buildBMSDocument(root, vehicleInfo, adminInfo, lines, totalsNode), report
}

func checkVIN(report *Report, vin string) {
	if len(vin) != vinLength {
		report.addWarningAt("vin_length", fmt.Sprintf("VIN %q is not %d characters", vin, vinLength), SeverityLow, "VehicleInfo.VIN", 0)
	}
}

func buildBMSDocument(root, vehicleInfo, adminInfo *parser.Node, lines []*parser.Node, totalsNode *parser.Node) *estimate.Document {
	doc := &estimate.Document{
		EstimateNumber: root.TextAt("EstimateNumber"),
	}
	if written, err := time.Parse("2006-01-02", root.TextAt("WrittenDate")); err == nil {
		doc.WrittenAt = written
	}
	if customer := root.Find("CustomerInfo"); customer != nil {
		doc.Customer = estimate.Customer{
			Name:    customer.TextAt("Name"),
			Phone:   customer.TextAt("Phone"),
			Email:   customer.TextAt("Email"),
			Address: customer.TextAt("Address"),
		}
	}
	doc.Vehicle = estimate.Vehicle{
		VIN:      vehicleInfo.TextAt("VIN"),
		Year:     atoi(vehicleInfo.TextAt("Year")),
		Make:     vehicleInfo.TextAt("Make"),
		Model:    vehicleInfo.TextAt("Model"),
		Trim:     vehicleInfo.TextAt("Trim"),
		Odometer: atoi(vehicleInfo.TextAt("Odometer")),
	}
	doc.Admin = estimate.Admin{
		PolicyHolder: adminInfo.TextAt("PolicyHolder"),
		Insurer:      adminInfo.TextAt("InsuranceCompany"),
		ClaimNumber:  adminInfo.TextAt("ClaimNumber"),
		PolicyNumber: adminInfo.TextAt("PolicyNumber"),
	}
	for _, node := range lines {
		doc.Lines = append(doc.Lines, buildBMSLine(node))
	}
	doc.Totals = estimate.Totals{
		Labor:      atof(totalsNode.TextAt("Labor")),
		Parts:      atof(totalsNode.TextAt("Parts")),
		Materials:  atof(totalsNode.TextAt("Materials")),
		Tax:        atof(totalsNode.TextAt("Tax")),
		GrandTotal: atof(totalsNode.TextAt("GrandTotal")),
	}
	return doc
}

func buildBMSLine(node *parser.Node) estimate.DamageLine {
	line := estimate.DamageLine{
		Type:           estimate.LineType(strings.ToLower(node.TextAt("LineType"))),
		Description:    node.TextAt("Description"),
		OperationCode:  node.TextAt("OperationCode"),
		Quantity:       atof(node.TextAt("Quantity")),
		UnitPrice:      atof(node.TextAt("UnitPrice")),
		DiscountPct:    atof(node.TextAt("DiscountPct")),
		DiscountAmount: atof(node.TextAt("DiscountAmount")),
	}
	switch line.Type {
	case estimate.LinePart:
		line.Part = &estimate.PartDetail{
			PartNumber:     node.TextAt("PartNumber"),
			OEMNumber:      node.TextAt("OEMNumber"),
			SupplierRefNum: node.TextAt("SupplierRefNum"),
			SourceCode:     node.TextAt("SourceCode"),
		}
	case estimate.LineLabor:
		line.Labor = &estimate.LaborDetail{
			Hours: atof(node.TextAt("LaborHours")),
			Rate:  atof(node.TextAt("LaborRate")),
			Skill: node.TextAt("Skill"),
		}
	case estimate.LinePaint:
		line.Paint = &estimate.PaintDetail{
			Coverage: node.TextAt("Coverage"),
			Coats:    atoi(node.TextAt("Coats")),
		}
	}
	return line
}

func atoi(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}

func atof(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}
