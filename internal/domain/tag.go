package domain

// CanonicalTag is an opaque taxonomy identifier produced by the external
// alias resolver. The engine only compares tags; it never inspects them.
type CanonicalTag string

// TagFamily names one of the four taxonomy families attached to postings.
type TagFamily string

const (
	FamilyProfession TagFamily = "profession"
	FamilyGrade      TagFamily = "grade"
	FamilyWorkFormat TagFamily = "work_format"
	FamilySkill      TagFamily = "skill"
)
