package scraper

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number is a numeric field that the builder site emits as a number, a
// numeric string ("1,995"), null, or a QuantitativeValue object.
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n.parse(s)
		return nil
	case '{':
		var obj struct {
			Value Number `json:"value"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		*n = obj.Value
		return nil
	case '[', 't', 'f':
		return nil
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return nil
	}
	n.Value, n.Valid = v, true
	return nil
}

func (n *Number) parse(s string) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return
	}
	n.Value, n.Valid = v, true
}

func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// NonZero treats 0 like a missing value.
func (n Number) NonZero() *float64 {
	if !n.Valid || n.Value == 0 {
		return nil
	}
	v := n.Value
	return &v
}

func (n Number) Int() *int {
	if !n.Valid || n.Value == 0 {
		return nil
	}
	v := int(n.Value)
	return &v
}

// Flag is a boolean that also accepts "true"/"false" strings and 0/1.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.ToLower(string(bytes.TrimSpace(data))), `"`)
	*f = Flag(s == "true" || s == "1" || s == "yes")
	return nil
}
