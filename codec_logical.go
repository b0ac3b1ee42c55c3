package avro

import (
	"math/big"
	"regexp"
	"time"
)

const daySeconds = int64(24 * time.Hour / time.Second)

var uuidRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// applyLogical converts a decoded base value (int32, int64, []byte, string)
// into the idiomatic Go value a logical type surfaces as. Unrecognized
// logical types are left as their base value.
func applyLogical(ls LogicalSchema, base any) (any, error) {
	if ls == nil {
		return base, nil
	}
	switch ls.Type() {
	case Decimal:
		dec := ls.(*logicalSchema)
		b, ok := base.([]byte)
		if !ok {
			return base, nil
		}
		return ratFromDecimalBytes(b, dec.Scale()), nil

	case Date:
		i, ok := base.(int32)
		if !ok {
			return base, nil
		}
		return time.Unix(int64(i)*daySeconds, 0).UTC(), nil

	case TimeMillis:
		i, ok := base.(int32)
		if !ok {
			return base, nil
		}
		return time.Duration(i) * time.Millisecond, nil

	case TimeMicros:
		i, ok := base.(int64)
		if !ok {
			return base, nil
		}
		return time.Duration(i) * time.Microsecond, nil

	case TimestampMillis, LocalTimestampMillis:
		i, ok := base.(int64)
		if !ok {
			return base, nil
		}
		sec := i / 1e3
		nsec := (i - sec*1e3) * 1e6
		t := time.Unix(sec, nsec)
		if ls.Type() == LocalTimestampMillis {
			return stripZoneOffset(t), nil
		}
		return t.UTC(), nil

	case TimestampMicros, LocalTimestampMicros:
		i, ok := base.(int64)
		if !ok {
			return base, nil
		}
		sec := i / 1e6
		nsec := (i - sec*1e6) * 1e3
		t := time.Unix(sec, nsec)
		if ls.Type() == LocalTimestampMicros {
			return stripZoneOffset(t), nil
		}
		return t.UTC(), nil

	case UUID:
		s, ok := base.(string)
		if !ok {
			return base, nil
		}
		if !uuidRe.MatchString(s) {
			return nil, &ValidationError{Schema: ls, Reason: "invalid uuid string " + s}
		}
		return s, nil

	default:
		return base, nil
	}
}

// stripZoneOffset undoes the Local-zone shift time.Unix applies, so a
// local-timestamp value round-trips as the wall-clock instant it encodes
// rather than one shifted by the reading machine's zone offset.
func stripZoneOffset(t time.Time) time.Time {
	_, offset := t.Zone()
	return t.Add(time.Duration(-offset) * time.Second)
}

// baseFromLogical converts an idiomatic Go logical-type value back into the
// base wire value its schema's underlying primitive/fixed type encodes.
func baseFromLogical(ls LogicalSchema, v any) (any, error) {
	if ls == nil {
		return v, nil
	}
	switch ls.Type() {
	case Decimal:
		r, ok := v.(*big.Rat)
		if !ok {
			return nil, &ValidationError{Schema: ls, Reason: "expected *big.Rat for decimal"}
		}
		// The bytes/fixed codec does the actual scaling, since it needs the
		// schema's scale alongside the encoded byte width.
		return r, nil

	case Date:
		t, ok := v.(time.Time)
		if !ok {
			return nil, &ValidationError{Schema: ls, Reason: "expected time.Time for date"}
		}
		return int32(t.Unix() / daySeconds), nil

	case TimeMillis:
		d, ok := v.(time.Duration)
		if !ok {
			return nil, &ValidationError{Schema: ls, Reason: "expected time.Duration for time-millis"}
		}
		return int32(d.Nanoseconds() / int64(time.Millisecond)), nil

	case TimeMicros:
		d, ok := v.(time.Duration)
		if !ok {
			return nil, &ValidationError{Schema: ls, Reason: "expected time.Duration for time-micros"}
		}
		return d.Nanoseconds() / int64(time.Microsecond), nil

	case TimestampMillis, LocalTimestampMillis:
		t, ok := v.(time.Time)
		if !ok {
			return nil, &ValidationError{Schema: ls, Reason: "expected time.Time for timestamp-millis"}
		}
		if ls.Type() == LocalTimestampMillis {
			t = localToUTCWall(t)
		}
		return t.Unix()*1e3 + int64(t.Nanosecond()/1e6), nil

	case TimestampMicros, LocalTimestampMicros:
		t, ok := v.(time.Time)
		if !ok {
			return nil, &ValidationError{Schema: ls, Reason: "expected time.Time for timestamp-micros"}
		}
		if ls.Type() == LocalTimestampMicros {
			t = localToUTCWall(t)
		}
		return t.Unix()*1e6 + int64(t.Nanosecond()/1e3), nil

	case UUID:
		s, ok := v.(string)
		if !ok {
			return nil, &ValidationError{Schema: ls, Reason: "expected string for uuid"}
		}
		if !uuidRe.MatchString(s) {
			return nil, &ValidationError{Schema: ls, Reason: "invalid uuid string " + s}
		}
		return s, nil

	default:
		return v, nil
	}
}

// localToUTCWall reinterprets t's local wall-clock fields as UTC, the
// mirror image of stripZoneOffset applied during decode.
func localToUTCWall(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
