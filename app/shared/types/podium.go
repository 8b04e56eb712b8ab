package sharedtypes

import (
	"fmt"
	"strings"
)

// DriverID identifies a driver by short code (e.g. "VER").
type DriverID string

// Normalize trims and upper-cases the code.
func (d DriverID) Normalize() DriverID {
	return DriverID(strings.ToUpper(strings.TrimSpace(string(d))))
}

func (d DriverID) String() string {
	return string(d)
}

// Podium is an ordered top three: first, second, third place.
type Podium struct {
	P1 DriverID `json:"p1"`
	P2 DriverID `json:"p2"`
	P3 DriverID `json:"p3"`
}

// NewPodium builds a normalized podium from three driver codes.
func NewPodium(p1, p2, p3 string) Podium {
	return Podium{
		P1: DriverID(p1).Normalize(),
		P2: DriverID(p2).Normalize(),
		P3: DriverID(p3).Normalize(),
	}
}

// Slots returns the podium positions indexed 0..2.
func (p Podium) Slots() [3]DriverID {
	return [3]DriverID{p.P1, p.P2, p.P3}
}

// IsComplete reports whether all three positions are filled.
func (p Podium) IsComplete() bool {
	return p.P1 != "" && p.P2 != "" && p.P3 != ""
}

// IsDistinct reports whether the three drivers are pairwise different.
func (p Podium) IsDistinct() bool {
	return p.P1 != p.P2 && p.P1 != p.P3 && p.P2 != p.P3
}

// Contains reports whether the driver appears anywhere on the podium.
func (p Podium) Contains(d DriverID) bool {
	return p.P1 == d || p.P2 == d || p.P3 == d
}

func (p Podium) String() string {
	return fmt.Sprintf("%s/%s/%s", p.P1, p.P2, p.P3)
}
