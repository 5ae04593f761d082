package doctor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Doctor documents written by the public site store hospital, education and
// experience loosely: the same field may hold a string, a number or an
// object. Each is modeled as an explicit variant that keeps the shape it was
// written in.

type HospitalKind int

const (
	HospitalNone HospitalKind = iota
	HospitalName
	HospitalDetailed
)

// HospitalRef is either a bare hospital name or a {name, id} reference.
type HospitalRef struct {
	Kind HospitalKind
	Name string
	ID   string
}

func HospitalByName(name string) HospitalRef {
	return HospitalRef{Kind: HospitalName, Name: name}
}

func HospitalWithID(name, id string) HospitalRef {
	return HospitalRef{Kind: HospitalDetailed, Name: name, ID: id}
}

type hospitalObject struct {
	Name string `json:"name" bson:"name"`
	ID   string `json:"id,omitempty" bson:"id,omitempty"`
}

func (h HospitalRef) MarshalJSON() ([]byte, error) {
	switch h.Kind {
	case HospitalName:
		return json.Marshal(h.Name)
	case HospitalDetailed:
		return json.Marshal(hospitalObject{Name: h.Name, ID: h.ID})
	}
	return []byte("null"), nil
}

func (h *HospitalRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*h = HospitalRef{}
	case len(b) > 0 && b[0] == '"':
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*h = HospitalByName(name)
	case len(b) > 0 && b[0] == '{':
		var o hospitalObject
		if err := json.Unmarshal(b, &o); err != nil {
			return err
		}
		*h = HospitalWithID(o.Name, o.ID)
	default:
		return fmt.Errorf("hospital: expected a name or an object")
	}
	return nil
}

func (h HospitalRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch h.Kind {
	case HospitalName:
		return bson.MarshalValue(h.Name)
	case HospitalDetailed:
		return bson.MarshalValue(hospitalObject{Name: h.Name, ID: h.ID})
	}
	return bsontype.Null, nil, nil
}

func (h *HospitalRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*h = HospitalRef{}
	case bsontype.String:
		*h = HospitalByName(rv.StringValue())
	case bsontype.EmbeddedDocument:
		var o hospitalObject
		if err := rv.Unmarshal(&o); err != nil {
			return err
		}
		*h = HospitalWithID(o.Name, o.ID)
	default:
		return fmt.Errorf("hospital: unexpected bson type %s", t)
	}
	return nil
}

// Qualification is free text ("MBBS, AIIMS") or a structured degree.
type Qualification struct {
	Text        string
	Degree      string
	Institution string
	Year        int
}

// Structured reports whether q was given as a degree object.
func (q Qualification) Structured() bool {
	return q.Text == "" && (q.Degree != "" || q.Institution != "" || q.Year != 0)
}

func (q Qualification) String() string {
	if !q.Structured() {
		return q.Text
	}
	parts := []string{q.Degree}
	if q.Institution != "" {
		parts = append(parts, q.Institution)
	}
	if q.Year != 0 {
		parts = append(parts, strconv.Itoa(q.Year))
	}
	return strings.Join(parts, ", ")
}

type qualificationObject struct {
	Degree      string `json:"degree" bson:"degree"`
	Institution string `json:"institution,omitempty" bson:"institution,omitempty"`
	Year        int    `json:"year,omitempty" bson:"year,omitempty"`
}

func (q Qualification) MarshalJSON() ([]byte, error) {
	if q.Structured() {
		return json.Marshal(qualificationObject{Degree: q.Degree, Institution: q.Institution, Year: q.Year})
	}
	return json.Marshal(q.Text)
}

func (q *Qualification) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var o qualificationObject
		if err := json.Unmarshal(b, &o); err != nil {
			return err
		}
		*q = Qualification{Degree: o.Degree, Institution: o.Institution, Year: o.Year}
		return nil
	}
	var text string
	if err := json.Unmarshal(b, &text); err != nil {
		return fmt.Errorf("education: expected text or a degree object")
	}
	*q = Qualification{Text: text}
	return nil
}

func (q Qualification) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if q.Structured() {
		return bson.MarshalValue(qualificationObject{Degree: q.Degree, Institution: q.Institution, Year: q.Year})
	}
	return bson.MarshalValue(q.Text)
}

func (q *Qualification) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*q = Qualification{Text: rv.StringValue()}
	case bsontype.EmbeddedDocument:
		var o qualificationObject
		if err := rv.Unmarshal(&o); err != nil {
			return err
		}
		*q = Qualification{Degree: o.Degree, Institution: o.Institution, Year: o.Year}
	default:
		return fmt.Errorf("education: unexpected bson type %s", t)
	}
	return nil
}

type ExperienceKind int

const (
	ExperienceNone ExperienceKind = iota
	ExperienceYears
	ExperienceText
	ExperienceDetailed
)

// Experience is a number of years, free text ("15+ years") or
// {years, summary}.
type Experience struct {
	Kind    ExperienceKind
	Years   float64
	Text    string
	Summary string
}

func ExperienceInYears(years float64) Experience {
	return Experience{Kind: ExperienceYears, Years: years}
}

func ExperienceAsText(text string) Experience {
	return Experience{Kind: ExperienceText, Text: text}
}

type experienceObject struct {
	Years   float64 `json:"years" bson:"years"`
	Summary string  `json:"summary,omitempty" bson:"summary,omitempty"`
}

func (e Experience) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case ExperienceYears:
		return json.Marshal(e.Years)
	case ExperienceText:
		return json.Marshal(e.Text)
	case ExperienceDetailed:
		return json.Marshal(experienceObject{Years: e.Years, Summary: e.Summary})
	}
	return []byte("null"), nil
}

func (e *Experience) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*e = Experience{}
	case len(b) > 0 && b[0] == '"':
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		*e = ExperienceAsText(text)
	case len(b) > 0 && b[0] == '{':
		var o experienceObject
		if err := json.Unmarshal(b, &o); err != nil {
			return err
		}
		*e = Experience{Kind: ExperienceDetailed, Years: o.Years, Summary: o.Summary}
	default:
		var years float64
		if err := json.Unmarshal(b, &years); err != nil {
			return fmt.Errorf("experience: expected years, text or an object")
		}
		*e = ExperienceInYears(years)
	}
	return nil
}

func (e Experience) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch e.Kind {
	case ExperienceYears:
		return bson.MarshalValue(e.Years)
	case ExperienceText:
		return bson.MarshalValue(e.Text)
	case ExperienceDetailed:
		return bson.MarshalValue(experienceObject{Years: e.Years, Summary: e.Summary})
	}
	return bsontype.Null, nil, nil
}

func (e *Experience) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*e = Experience{}
	case bsontype.Double:
		*e = ExperienceInYears(rv.Double())
	case bsontype.Int32:
		*e = ExperienceInYears(float64(rv.Int32()))
	case bsontype.Int64:
		*e = ExperienceInYears(float64(rv.Int64()))
	case bsontype.String:
		*e = ExperienceAsText(rv.StringValue())
	case bsontype.EmbeddedDocument:
		var o experienceObject
		if err := rv.Unmarshal(&o); err != nil {
			return err
		}
		*e = Experience{Kind: ExperienceDetailed, Years: o.Years, Summary: o.Summary}
	default:
		return fmt.Errorf("experience: unexpected bson type %s", t)
	}
	return nil
}
