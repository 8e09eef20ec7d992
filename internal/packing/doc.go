// Package packing places rectangular blocks onto a growable surface without
// overlap and reports the result.
//
// Blocks are placed largest area first (ties keep input order). Each block
// goes to the first clear position found scanning y from the largest value
// that still fits down to zero, and x left to right within each row.
// Positions use a bottom-left origin; Project converts them to a top-left
// origin for display.
//
// Surface.Fullness penalises overlap between placed blocks rather than
// measuring occupancy; Surface.Coverage reports occupancy.
package packing
