package common

import (
	"strings"
	"unicode"
)

// VersionPrefix is prepended to every versioned struct and enum identifier.
const VersionPrefix = "Aspn23"

// Indent is one level of indentation in every generated language.
const Indent = "    "

const (
	NullableMacro          = "ASPN_NULLABLE"
	NullabilityMacroStart  = "ASPN_ASSUME_NONNULL_BEGIN"
	NullabilityMacroEnd    = "ASPN_ASSUME_NONNULL_END"
	DisableNullabilityFlag = "ASPN_DISABLE_NULLABILITY"
)

// acronyms is applied in order by PascalToSnake. Matching is plain substring
// replacement so a needle inside an unrelated word is rewritten as well.
var acronyms = [][2]string{
	{"imu", "IMU"},
	{"tdoa1_tx2_rx", "TDOA_1Tx_2Rx"},
	{"tdoa2_tx1_rx", "TDOA_2Tx_1Rx"},
	{"beidou", "BeiDou"},
	{"galileo", "Galileo"},
	{"glonass", "GLONASS"},
	{"gps", "GPS"},
	{"cnav", "Cnav"},
	{"lnav", "Lnav"},
	{"mnav", "Mnav"},
	{"1_d", "_1d"},
	{"2_d", "_2d"},
	{"3_d", "_3d"},
}

// RoundTripExceptions maps the schema names whose PascalToSnake(SnakeToPascal(n))
// is not n to what the round trip produces instead. The acronym table is not
// invertible, so any name containing one of its needles belongs here.
var RoundTripExceptions = map[string]string{
	"measurement_imu":   "measurement_IMU",
	"metadata_gps_lnav": "metadata_GPS_Lnav",
}

// SnakeToPascal converts snake_case to PascalCase.
// The input is first capitalized (first rune upper, remainder lower) and then
// every letter following an underscore is raised. Digits do not consume the
// pending raise, so "motion_3d" becomes "Motion3D".
//
//	measurement_imu          -> MeasurementImu
//	measurement_TDOA_1Tx_2Rx -> MeasurementTdoa1Tx2Rx
func SnakeToPascal(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])

	var b strings.Builder
	raiseNext := true
	for _, r := range runes {
		switch {
		case r == '_':
			raiseNext = true
		case raiseNext && unicode.IsLetter(r):
			b.WriteRune(unicode.ToUpper(r))
			raiseNext = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PascalToSnake inserts an underscore before every upper-case rune except the
// first, lower-cases the result and then restores the domain acronyms.
// With screaming set the whole result is upper-cased.
func PascalToSnake(s string, screaming bool) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	out := strings.ToLower(b.String())
	for _, a := range acronyms {
		out = strings.ReplaceAll(out, a[0], a[1])
	}
	if screaming {
		return strings.ToUpper(out)
	}
	return out
}

// IsLengthField reports whether a field only carries the element count of a
// sibling array or matrix.
func IsLengthField(name string) bool {
	if strings.HasPrefix(name, "num_") {
		return name != "num_signal_types"
	}
	switch name {
	case "image_data_length", "descriptor_size":
		return true
	}
	return false
}

// StructName returns the versioned struct identifier, e.g. Aspn23TypeTimestamp.
func StructName(snake string) string {
	return VersionPrefix + SnakeToPascal(snake)
}

// IsVersionedType reports whether a resolved type token names another
// generated struct rather than a primitive.
func IsVersionedType(t string) bool {
	return strings.HasPrefix(t, VersionPrefix)
}

// TrimVersionPrefix strips the Aspn23 prefix from a struct identifier.
func TrimVersionPrefix(t string) string {
	return strings.TrimPrefix(t, VersionPrefix)
}
