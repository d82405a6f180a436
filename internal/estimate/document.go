package estimate

import (
	"math"
	"time"
)

// LineType classifies a damage line on an estimate.
type LineType string

const (
	LinePart     LineType = "part"
	LineLabor    LineType = "labor"
	LinePaint    LineType = "paint"
	LineMaterial LineType = "material"
	LineSublet   LineType = "sublet"
	LineOther    LineType = "other"
	LineTax      LineType = "tax"
	LineDiscount LineType = "discount"
)

// KnownLineType reports whether t is one of the recognised line types.
func KnownLineType(t LineType) bool {
	switch t {
	case LinePart, LineLabor, LinePaint, LineMaterial, LineSublet, LineOther, LineTax, LineDiscount:
		return true
	}
	return false
}

// Customer identifies the estimate's customer.
type Customer struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

// Vehicle describes the damaged vehicle.
type Vehicle struct {
	VIN      string
	Year     int
	Make     string
	Model    string
	Trim     string
	Odometer int
}

// Admin carries insurer and claim references.
type Admin struct {
	PolicyHolder string
	Insurer      string
	ClaimNumber  string
	PolicyNumber string
}

// PartDetail is the part-specific payload of a damage line.
type PartDetail struct {
	PartNumber     string
	OEMNumber      string
	SupplierRefNum string
	SourceCode     string
}

// LaborDetail is the labor-specific payload of a damage line.
type LaborDetail struct {
	Hours float64
	Rate  float64
	Skill string
}

// PaintDetail is the paint-specific payload of a damage line.
type PaintDetail struct {
	Coverage string
	Coats    int
}

// DamageLine is one row of the estimate.
type DamageLine struct {
	Type           LineType
	Description    string
	OperationCode  string
	Quantity       float64
	UnitPrice      float64
	DiscountPct    float64
	DiscountAmount float64

	Part  *PartDetail
	Labor *LaborDetail
	Paint *PaintDetail
}

// Total computes the line total. The percentage discount applies before the
// fixed discount and the result never drops below zero.
func (l DamageLine) Total() float64 {
	gross := l.Quantity * l.UnitPrice * (1 - l.DiscountPct/100)
	return Round2(math.Max(0, gross-l.DiscountAmount))
}

// Totals aggregates the estimate's summary amounts.
type Totals struct {
	Labor      float64
	Parts      float64
	Materials  float64
	Tax        float64
	GrandTotal float64
}

// Document is the canonical parse result of an interchange file. It is built
// once per successful parse and is immutable after validation.
type Document struct {
	EstimateNumber string
	WrittenAt      time.Time
	Customer       Customer
	Vehicle        Vehicle
	Admin          Admin
	Lines          []DamageLine
	Totals         Totals
	Notes          []string
}

// PartLines returns the part-type lines of the document.
func (d *Document) PartLines() []DamageLine {
	var parts []DamageLine
	for _, line := range d.Lines {
		if line.Type == LinePart {
			parts = append(parts, line)
		}
	}
	return parts
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
