package enums

import "fmt"

// FabricGrade is the quality tier attached to a fabric. It selects which
// column of a price matrix row applies: seven cloth tiers plus leather.
type FabricGrade string

const (
	FabricGrade1       FabricGrade = "grade_1"
	FabricGrade2       FabricGrade = "grade_2"
	FabricGrade3       FabricGrade = "grade_3"
	FabricGrade4       FabricGrade = "grade_4"
	FabricGrade5       FabricGrade = "grade_5"
	FabricGrade6       FabricGrade = "grade_6"
	FabricGrade7       FabricGrade = "grade_7"
	FabricGradeLeather FabricGrade = "leather"
)

var validFabricGrades = []FabricGrade{
	FabricGrade1,
	FabricGrade2,
	FabricGrade3,
	FabricGrade4,
	FabricGrade5,
	FabricGrade6,
	FabricGrade7,
	FabricGradeLeather,
}

// String implements fmt.Stringer.
func (f FabricGrade) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FabricGrade.
func (f FabricGrade) IsValid() bool {
	for _, candidate := range validFabricGrades {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFabricGrade converts raw input into a FabricGrade.
func ParseFabricGrade(value string) (FabricGrade, error) {
	for _, candidate := range validFabricGrades {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fabric grade %q", value)
}
