package doctor

import (
	"time"

	"github.com/google/uuid"
)

var sampleDoctors = []*Doctor{
	{
		ID:             uuid.MustParse("5a2e8c1d-7b3f-4e6a-9c0d-2b1f3e4a5c01"),
		Name:           "Dr. Meera Iyer",
		Email:          "meera.iyer@example.com",
		Specialization: "Cardiology",
		Gender:         "Female",
		Hospital:       HospitalWithID("Apollo Hospitals", "apollo-chennai"),
		Education: []Qualification{
			{Degree: "MBBS", Institution: "Madras Medical College", Year: 2004},
			{Degree: "DM Cardiology", Institution: "AIIMS Delhi", Year: 2010},
		},
		Experience: Experience{Kind: ExperienceDetailed, Years: 15, Summary: "Interventional cardiology"},
		Fee:        1200,
	},
	{
		ID:             uuid.MustParse("5a2e8c1d-7b3f-4e6a-9c0d-2b1f3e4a5c02"),
		Name:           "Dr. Arjun Nair",
		Email:          "arjun.nair@example.com",
		Specialization: "General Medicine",
		Gender:         "Male",
		Hospital:       HospitalByName("Fortis Hospital"),
		Education:      []Qualification{{Text: "MBBS, MD (Internal Medicine)"}},
		Experience:     ExperienceInYears(9),
		Fee:            600,
	},
	{
		ID:             uuid.MustParse("5a2e8c1d-7b3f-4e6a-9c0d-2b1f3e4a5c03"),
		Name:           "Dr. Kavya Reddy",
		Email:          "kavya.reddy@example.com",
		Specialization: "Dermatology",
		Gender:         "Female",
		Hospital:       HospitalByName("Manipal Hospital"),
		Education:      []Qualification{{Text: "MBBS, DVD"}},
		Experience:     ExperienceAsText("10+ years"),
		Fee:            800,
	},
}

// SampleDoctors is the stand-in directory served when the store cannot be
// read. The filter still applies.
func SampleDoctors(f Filter, now time.Time) []*Doctor {
	created := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*Doctor, 0, len(sampleDoctors))
	for _, d := range sampleDoctors {
		if !f.Matches(d) {
			continue
		}
		cp := *d
		cp.CreatedAt = created
		out = append(out, &cp)
	}
	return out
}
