// Package bytesize parses and formats human-readable byte sizes for
// configuration values such as the hasher's file size cap.
package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteSize is a size in bytes. Configuration fields of this type accept
// plain numbers ("1048576"), decimal units ("100MB", "2G") and binary
// units ("500Mi", "1GiB"). Decimal units multiply by 1000, binary units
// by 1024.
type ByteSize uint64

const (
	B ByteSize = 1

	KB ByteSize = 1000 * B
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB
	TB ByteSize = 1000 * GB

	KiB ByteSize = 1024 * B
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
	TiB ByteSize = 1024 * GiB
)

// ParseByteSize converts a human-readable size string into a ByteSize.
// The numeric part may carry a fraction ("1.5Gi"); the unit suffix is
// case-insensitive and the trailing "B" is optional ("2G" == "2GB").
func ParseByteSize(s string) (ByteSize, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	// Split into the leading number and whatever suffix follows it
	split := len(trimmed)
	for i, r := range trimmed {
		if (r < '0' || r > '9') && r != '.' {
			split = i
			break
		}
	}

	numPart := trimmed[:split]
	unitPart := strings.TrimSpace(trimmed[split:])
	if numPart == "" {
		return 0, fmt.Errorf("invalid byte size format: %q", s)
	}

	mult, err := unitMultiplier(unitPart)
	if err != nil {
		return 0, fmt.Errorf("%v in %q", err, s)
	}

	if strings.Contains(numPart, ".") {
		f, err := strconv.ParseFloat(numPart, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in byte size: %q", numPart)
		}
		return ByteSize(f * float64(mult)), nil
	}

	n, err := strconv.ParseUint(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in byte size: %q", numPart)
	}
	return ByteSize(n) * mult, nil
}

func unitMultiplier(unit string) (ByteSize, error) {
	switch strings.TrimSuffix(strings.ToLower(unit), "b") {
	case "":
		return B, nil
	case "k":
		return KB, nil
	case "m":
		return MB, nil
	case "g":
		return GB, nil
	case "t":
		return TB, nil
	case "ki":
		return KiB, nil
	case "mi":
		return MiB, nil
	case "gi":
		return GiB, nil
	case "ti":
		return TiB, nil
	default:
		return 0, fmt.Errorf("unknown byte size unit %q", unit)
	}
}

// String formats the size with the largest binary unit that divides it
// cleanly enough to read, trimming trailing zeros ("1.5GiB", "2MiB",
// "512B").
func (b ByteSize) String() string {
	unit := B
	suffix := "B"
	switch {
	case b >= TiB:
		unit, suffix = TiB, "TiB"
	case b >= GiB:
		unit, suffix = GiB, "GiB"
	case b >= MiB:
		unit, suffix = MiB, "MiB"
	case b >= KiB:
		unit, suffix = KiB, "KiB"
	}

	if unit == B {
		return strconv.FormatUint(uint64(b), 10) + "B"
	}

	v := float64(b) / float64(unit)
	return strconv.FormatFloat(v, 'f', -1, 64) + suffix
}

// UnmarshalText parses a size string. This is what lets mapstructure and
// yaml decode "500Mi" straight into a ByteSize field.
func (b *ByteSize) UnmarshalText(text []byte) error {
	parsed, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalText renders the size in its human-readable form so saved
// configuration files round-trip through the same syntax users write.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Int64 returns the size as an int64 for APIs that take signed sizes.
func (b ByteSize) Int64() int64 {
	return int64(b)
}
