package value

import (
	"encoding/json"
	"fmt"
)

// jsonValue is the stable wire form of a TaggedValue. Exactly one field
// is set, mirroring the populated variant; an all-empty object decodes
// to the empty value. Dicts keep their field order, which plain JSON
// objects would lose. List and dict use pointers so an empty collection
// survives the round trip.
type jsonValue struct {
	Num    *float64       `json:"num,omitempty"`
	Str    *string        `json:"str,omitempty"`
	List   *[]TaggedValue `json:"list,omitempty"`
	Fields *[]Field       `json:"dict,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (v TaggedValue) MarshalJSON() ([]byte, error) {
	var jv jsonValue
	switch v.kind {
	case KindNumber:
		jv.Num = &v.num
	case KindString:
		jv.Str = &v.str
	case KindList:
		list := v.list
		if list == nil {
			list = []TaggedValue{}
		}
		jv.List = &list
	case KindDict:
		fields := v.fields
		if fields == nil {
			fields = []Field{}
		}
		jv.Fields = &fields
	}
	return json.Marshal(jv)
}

// UnmarshalJSON implements json.Unmarshaler
func (v *TaggedValue) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}

	set := 0
	if jv.Num != nil {
		set++
	}
	if jv.Str != nil {
		set++
	}
	if jv.List != nil {
		set++
	}
	if jv.Fields != nil {
		set++
	}
	if set > 1 {
		return fmt.Errorf("tagged value sets %d variants, want at most 1", set)
	}

	switch {
	case jv.Num != nil:
		*v = Number(*jv.Num)
	case jv.Str != nil:
		*v = String(*jv.Str)
	case jv.List != nil:
		if len(*jv.List) == 0 {
			*v = List()
		} else {
			*v = List(*jv.List...)
		}
	case jv.Fields != nil:
		if len(*jv.Fields) == 0 {
			*v = Dict()
		} else {
			*v = Dict(*jv.Fields...)
		}
	default:
		*v = TaggedValue{}
	}
	return nil
}
