package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Farhaan96/CollisionOS-sub000/internal/estimate"
	"github.com/Farhaan96/CollisionOS-sub000/internal/estimate/parser"
)

// Minimum field counts per EMS record type, the type token included.
var minFieldCounts = map[string]int{
	"HD": 2,
	"VH": 4,
	"CO": 3,
	"IN": 2,
	"CL": 2,
	"LI": 4,
	"PA": 4,
	"LA": 4,
	"TO": 3,
	"TX": 3,
	"DE": 2,
	"NO": 2,
}

// Record types that must appear at least once in a well-formed EMS file.
var requiredRecordTypes = []string{"HD", "VH", "CO"}

const (
	minVehicleYear  = 1900
	yearsAheadAllow = 2
)

// EMS validates a tokenized EMS record stream and builds the canonical
// document when the stream passes.
func EMS(records []parser.Record) (*estimate.Document, *Report) {
	report := &Report{}
	seen := make(map[string]bool)

	for _, rec := range records {
		if rec.Err != nil {
			report.addErrorAt("bad_escape", fmt.Sprintf("line %d: %v", rec.LineNo, rec.Err), SeverityHigh, "", rec.LineNo)
			continue
		}
		minFields, known := minFieldCounts[rec.Type]
		if !known {
			report.addWarningAt("unknown_record", fmt.Sprintf("line %d: unknown record type %q", rec.LineNo, rec.Type), SeverityLow, "", rec.LineNo)
			continue
		}
		seen[rec.Type] = true
		if len(rec.Fields) < minFields {
			report.addErrorAt("short_record", fmt.Sprintf("line %d: %s record has %d field(s), needs %d", rec.LineNo, rec.Type, len(rec.Fields), minFields), SeverityHigh, rec.Type, rec.LineNo)
			continue
		}
		checkEMSFields(report, rec)
	}

	for _, required := range requiredRecordTypes {
		if !seen[required] {
			report.addError("missing_record", fmt.Sprintf("required record type %s is absent", required), SeverityHigh)
		}
	}

	report.finalize(parser.FormatEMS)
	if !report.IsValid {
		return nil, report
	}
	return buildEMSDocument(records), report
}

// checkEMSFields applies per-type numeric sanity checks. Failures are
// medium-severity warnings, not errors.
func checkEMSFields(report *Report, rec parser.Record) {
	warnMoney := func(idx int, name string) {
		if idx >= len(rec.Fields) {
			return
		}
		value := strings.TrimSpace(rec.Fields[idx])
		if value == "" {
			return
		}
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			report.addWarningAt("bad_amount", fmt.Sprintf("line %d: %s %s %q is not numeric", rec.LineNo, rec.Type, name, value), SeverityMedium, name, rec.LineNo)
		}
	}

	switch rec.Type {
	case "VH":
		year, err := strconv.Atoi(strings.TrimSpace(rec.Fields[1]))
		maxYear := time.Now().Year() + yearsAheadAllow
		if err != nil || year < minVehicleYear || year > maxYear {
			report.addWarningAt("bad_year", fmt.Sprintf("line %d: vehicle year %q outside [%d, %d]", rec.LineNo, rec.Fields[1], minVehicleYear, maxYear), SeverityMedium, "year", rec.LineNo)
		}
		if len(rec.Fields) > 5 {
			if vin := strings.TrimSpace(rec.Fields[5]); vin != "" && len(vin) != vinLength {
				report.addWarningAt("vin_length", fmt.Sprintf("line %d: VIN %q is not %d characters", rec.LineNo, vin, vinLength), SeverityLow, "vin", rec.LineNo)
			}
		}
	case "LI":
		warnMoney(3, "quantity")
		warnMoney(4, "unit price")
	case "PA":
		warnMoney(3, "quantity")
		warnMoney(4, "unit price")
	case "LA":
		warnMoney(3, "hours")
		warnMoney(4, "rate")
	case "TO":
		warnMoney(1, "labor total")
		warnMoney(2, "parts total")
		warnMoney(3, "grand total")
	case "TX":
		warnMoney(1, "tax rate")
		warnMoney(2, "tax amount")
	}
}

func buildEMSDocument(records []parser.Record) *estimate.Document {
	doc := &estimate.Document{}
	for _, rec := range records {
		if rec.Err != nil {
			continue
		}
		f := fieldReader{fields: rec.Fields}
		switch rec.Type {
		case "HD":
			doc.EstimateNumber = f.str(1)
			if written, err := time.Parse("2006-01-02", f.str(2)); err == nil {
				doc.WrittenAt = written
			}
		case "VH":
			doc.Vehicle = estimate.Vehicle{
				Year:     atoi(f.str(1)),
				Make:     f.str(2),
				Model:    f.str(3),
				Trim:     f.str(4),
				VIN:      f.str(5),
				Odometer: atoi(f.str(6)),
			}
		case "CO":
			doc.Customer = estimate.Customer{
				Name:    f.str(1),
				Phone:   f.str(2),
				Address: f.str(3),
				Email:   f.str(4),
			}
		case "IN":
			doc.Admin.Insurer = f.str(1)
			if policy := f.str(2); policy != "" {
				doc.Admin.PolicyNumber = policy
			}
		case "CL":
			doc.Admin.ClaimNumber = f.str(1)
			if holder := f.str(2); holder != "" {
				doc.Admin.PolicyHolder = holder
			}
		case "LI":
			lineType := estimate.LineType(strings.ToLower(f.str(1)))
			if !estimate.KnownLineType(lineType) {
				lineType = estimate.LineOther
			}
			doc.Lines = append(doc.Lines, estimate.DamageLine{
				Type:           lineType,
				Description:    f.str(2),
				Quantity:       atof(f.str(3)),
				UnitPrice:      atof(f.str(4)),
				OperationCode:  f.str(5),
				DiscountPct:    atof(f.str(6)),
				DiscountAmount: atof(f.str(7)),
			})
		case "PA":
			doc.Lines = append(doc.Lines, estimate.DamageLine{
				Type:        estimate.LinePart,
				Description: f.str(2),
				Quantity:    atof(f.str(3)),
				UnitPrice:   atof(f.str(4)),
				Part: &estimate.PartDetail{
					PartNumber:     f.str(1),
					OEMNumber:      f.str(5),
					SourceCode:     f.str(6),
					SupplierRefNum: f.str(7),
				},
			})
		case "LA":
			doc.Lines = append(doc.Lines, estimate.DamageLine{
				Type:        estimate.LineLabor,
				Description: f.str(2),
				Quantity:    atof(f.str(3)),
				UnitPrice:   atof(f.str(4)),
				Labor: &estimate.LaborDetail{
					Skill: f.str(1),
					Hours: atof(f.str(3)),
					Rate:  atof(f.str(4)),
				},
			})
		case "TO":
			doc.Totals.Labor = atof(f.str(1))
			doc.Totals.Parts = atof(f.str(2))
			doc.Totals.GrandTotal = atof(f.str(3))
			doc.Totals.Materials = atof(f.str(4))
		case "TX":
			doc.Totals.Tax = atof(f.str(2))
		case "DE", "NO":
			if note := f.str(1); note != "" {
				doc.Notes = append(doc.Notes, note)
			}
		}
	}
	return doc
}

type fieldReader struct {
	fields []string
}

func (f fieldReader) str(idx int) string {
	if idx >= len(f.fields) {
		return ""
	}
	return strings.TrimSpace(f.fields[idx])
}
