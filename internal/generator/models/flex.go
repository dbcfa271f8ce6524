package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FlexString decodes a JSON string, number or boolean into its string form.
// Models are loose about scalar types; null and objects decode as "".
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == 'n' || data[0] == '{' || data[0] == '[' {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	*s = FlexString(data)
	return nil
}

func (s FlexString) String() string {
	return strings.TrimSpace(string(s))
}

// FlexInt decodes a JSON number or numeric string. Fractions are rounded and
// anything unparsable decodes as 0 so callers can apply a default.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*n = 0
		return nil
	}
	*n = FlexInt(math.Round(f))
	return nil
}

// FlexStrings decodes a list of loosely typed scalars, or a single scalar, into
// trimmed non-empty strings.
type FlexStrings []string

func (l *FlexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		var single FlexString
		if err := single.UnmarshalJSON(data); err != nil {
			return err
		}
		*l = compact([]FlexString{single})
		return nil
	}
	var items []FlexString
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = compact(items)
	return nil
}

func compact(items []FlexString) FlexStrings {
	out := make(FlexStrings, 0, len(items))
	for _, item := range items {
		if s := item.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
