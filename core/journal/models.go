package journal

import (
	"time"

	"github.com/trezcool/sikap/core"
)

// Entry is one teaching-journal row: what was taught in a class on a date.
// An entry counts as filled once its material description is present.
type Entry struct {
	ID         string    `json:"id"`
	TeacherNIP string    `json:"teacher_nip"`
	ClassID    string    `json:"class_id"`
	SubjectID  string    `json:"subject_id"`
	Date       time.Time `json:"date"`
	Material   string    `json:"material"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

func (e Entry) Filled() bool { return e.Material != "" }

// NewEntry contains information needed to create a journal Entry.
type NewEntry struct {
	TeacherNIP string    `json:"teacher_nip" validate:"required"`
	ClassID    string    `json:"class_id" validate:"required"`
	SubjectID  string    `json:"subject_id" validate:"required"`
	Date       time.Time `json:"date" validate:"required"`
	Material   string    `json:"material" validate:"required"`
	Note       string    `json:"note"`
}

func (ne *NewEntry) Validate() error {
	ne.TeacherNIP = core.CleanString(ne.TeacherNIP)
	ne.ClassID = core.CleanString(ne.ClassID)
	ne.SubjectID = core.CleanString(ne.SubjectID)
	ne.Material = core.CleanString(ne.Material)
	ne.Note = core.CleanString(ne.Note)
	return core.Validate.Struct(ne)
}

type QueryFilter struct {
	TeacherNIP string    `query:"teacher_nip"`
	ClassID    string    `query:"class_id"`
	SubjectID  string    `query:"subject_id"`
	DateFrom   time.Time `query:"date_from"`
	DateTo     time.Time `query:"date_to"`
}
