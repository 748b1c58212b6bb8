package workload

import (
	"time"

	"github.com/trezcool/sikap/core"
)

type (
	// SubjectAllocation is one teaching line of an assignment: a subject
	// taught to a number of sections at a class level, plus the intra- and
	// co-curricular hours attached to it.
	SubjectAllocation struct {
		SubjectID       string  `json:"subject_id" validate:"required"`
		SubjectName     string  `json:"subject_name"`
		ClassLevel      string  `json:"class_level"`
		SectionCount    int     `json:"section_count" validate:"min=0"`
		HoursPerSection float64 `json:"hours_per_section" validate:"min=0"`
		IntraHours      float64 `json:"intra_hours" validate:"min=0"`
		CoHours         float64 `json:"co_hours" validate:"min=0"`
	}

	// DutyAllocation is one additional duty (wali kelas, pembina, etc.)
	// counted as an hour equivalence toward the workload.
	DutyAllocation struct {
		DutyID          string  `json:"duty_id" validate:"required"`
		DutyName        string  `json:"duty_name"`
		HoursEquivalent float64 `json:"hours_equivalent" validate:"min=0"`
	}

	// Assignment is a teacher's full allocation for one semester.
	Assignment struct {
		ID           string              `json:"id"`
		StaffNIP     string              `json:"staff_nip" validate:"required"`
		Semester     string              `json:"semester" validate:"required"`
		AcademicYear string              `json:"academic_year" validate:"required"`
		Subjects     []SubjectAllocation `json:"subjects" validate:"dive"`
		Duties       []DutyAllocation    `json:"duties" validate:"dive"`
		CreatedAt    time.Time           `json:"created_at"` // UTC
		UpdatedAt    time.Time           `json:"updated_at"` // UTC
	}

	// Totals is the derived workload summary of an Assignment.
	Totals struct {
		SubjectHours float64 `json:"subject_hours"`
		IntraHours   float64 `json:"intra_hours"`
		CoHours      float64 `json:"co_hours"`
		DutyHours    float64 `json:"duty_hours"`
		Total        float64 `json:"total"`
		MeetsMinimum bool    `json:"meets_minimum"`
	}

	// DutyLog is one logged activity against an assigned duty.
	DutyLog struct {
		ID        string    `json:"id"`
		StaffNIP  string    `json:"staff_nip"`
		DutyID    string    `json:"duty_id"`
		Date      time.Time `json:"date"`
		Activity  string    `json:"activity"`
		Result    string    `json:"result"`
		Note      string    `json:"note"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	QueryFilter struct {
		StaffNIP     string `json:"staff_nip" query:"staff_nip"`
		Semester     string `json:"semester" query:"semester"`
		AcademicYear string `json:"academic_year" query:"academic_year"`
	}
)

func (a *Assignment) Validate() error {
	a.StaffNIP = core.CleanString(a.StaffNIP)
	a.Semester = core.CleanString(a.Semester)
	a.AcademicYear = core.CleanString(a.AcademicYear)
	return core.Validate.Struct(a)
}

type NewDutyLogInput struct {
	StaffNIP string    `json:"staff_nip" validate:"required"`
	DutyID   string    `json:"duty_id" validate:"required"`
	Date     time.Time `json:"date" validate:"required"`
	Activity string    `json:"activity" validate:"required"`
	Result   string    `json:"result"`
	Note     string    `json:"note"`
}

func (in *NewDutyLogInput) Validate() error {
	in.StaffNIP = core.CleanString(in.StaffNIP)
	in.DutyID = core.CleanString(in.DutyID)
	in.Activity = core.CleanString(in.Activity)
	in.Result = core.CleanString(in.Result)
	in.Note = core.CleanString(in.Note)
	return core.Validate.Struct(in)
}

// ComputeTotals derives the workload summary of an assignment against the
// school's minimum weekly hours. Subject hours count sections times hours per
// section; intra-, co-curricular and duty hours add on top.
func ComputeTotals(a Assignment, minHours float64) Totals {
	var t Totals
	for _, s := range a.Subjects {
		t.SubjectHours += float64(s.SectionCount) * s.HoursPerSection
		t.IntraHours += s.IntraHours
		t.CoHours += s.CoHours
	}
	for _, d := range a.Duties {
		t.DutyHours += d.HoursEquivalent
	}
	t.Total = t.SubjectHours + t.IntraHours + t.CoHours + t.DutyHours
	t.MeetsMinimum = t.Total >= minHours
	return t
}
