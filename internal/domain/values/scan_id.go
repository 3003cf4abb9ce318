package values

import (
	"fmt"

	"github.com/google/uuid"
)

// ScanID uniquely identifies one scan run across a device inventory.
// External renderers and result stores key their artifacts by it.
type ScanID struct {
	value uuid.UUID
}

// NewScanID creates a new random scan ID
func NewScanID() ScanID {
	return ScanID{value: uuid.New()}
}

// ParseScanID parses a string into a ScanID
func ParseScanID(s string) (ScanID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ScanID{}, fmt.Errorf("invalid scan ID: %w", err)
	}
	return ScanID{value: id}, nil
}

// MustParseScanID parses a string or panics (for tests only)
func MustParseScanID(s string) ScanID {
	id, err := ParseScanID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the string representation
func (s ScanID) String() string {
	return s.value.String()
}

// IsZero returns true if this is the zero value
func (s ScanID) IsZero() bool {
	return s.value == uuid.Nil
}

// Equals checks if two ScanIDs are equal
func (s ScanID) Equals(other ScanID) bool {
	return s.value == other.value
}

// MarshalJSON implements json.Marshaler
func (s ScanID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.value.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (s *ScanID) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) < 2 {
		return fmt.Errorf("invalid scan ID JSON")
	}
	str = str[1 : len(str)-1]

	id, err := ParseScanID(str)
	if err != nil {
		return err
	}
	*s = id
	return nil
}
