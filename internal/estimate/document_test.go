package estimate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineTotalDiscountOrder(t *testing.T) {
	line := DamageLine{Quantity: 2, UnitPrice: 100, DiscountPct: 10, DiscountAmount: 5}
	require.Equal(t, 175.00, line.Total())
}

func TestLineTotalNeverNegative(t *testing.T) {
	line := DamageLine{Quantity: 1, UnitPrice: 10, DiscountAmount: 25}
	require.Equal(t, 0.0, line.Total())
}

func TestLineTotalRounding(t *testing.T) {
	line := DamageLine{Quantity: 3, UnitPrice: 19.99, DiscountPct: 7.5}
	require.Equal(t, 55.47, line.Total())
}

func TestPartLinesFilter(t *testing.T) {
	doc := Document{Lines: []DamageLine{
		{Type: LinePart, Description: "bumper"},
		{Type: LineLabor, Description: "install"},
		{Type: LinePart, Description: "bracket"},
		{Type: LinePaint, Description: "base coat"},
	}}
	parts := doc.PartLines()
	require.Len(t, parts, 2)
	require.Equal(t, "bumper", parts[0].Description)
	require.Equal(t, "bracket", parts[1].Description)
}

func TestKnownLineType(t *testing.T) {
	require.True(t, KnownLineType(LineSublet))
	require.False(t, KnownLineType(LineType("freight")))
}
