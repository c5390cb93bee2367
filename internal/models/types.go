package models

import "fmt"

type Role string

const (
	RoleResume         Role = "resume"
	RoleJobDescription Role = "job_description"
)

func (r Role) Valid() bool {
	return r == RoleResume || r == RoleJobDescription
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q: expected %q or %q", s, RoleResume, RoleJobDescription)
	}
	return r, nil
}

type SectionType string

// Resume sections.
const (
	SectionSummary        SectionType = "summary"
	SectionExperience     SectionType = "experience"
	SectionSkills         SectionType = "skills"
	SectionEducation      SectionType = "education"
	SectionProjects       SectionType = "projects"
	SectionCertifications SectionType = "certifications"
	SectionAwards         SectionType = "awards"
	SectionContact        SectionType = "contact"
)

// Job description sections.
const (
	SectionCompanyInfo      SectionType = "company_info"
	SectionResponsibilities SectionType = "responsibilities"
	SectionRequirements     SectionType = "requirements"
	SectionPreferred        SectionType = "preferred"
	SectionBenefits         SectionType = "benefits"
	SectionSalary           SectionType = "salary"
	SectionTechStack        SectionType = "tech_stack"
)

const SectionUnknown SectionType = "unknown"

var roleSections = map[Role][]SectionType{
	RoleResume: {
		SectionSummary, SectionExperience, SectionSkills, SectionEducation,
		SectionProjects, SectionCertifications, SectionAwards, SectionContact, SectionUnknown,
	},
	RoleJobDescription: {
		SectionCompanyInfo, SectionResponsibilities, SectionRequirements, SectionPreferred,
		SectionBenefits, SectionSalary, SectionTechStack, SectionUnknown,
	},
}

// SectionsFor returns the closed set of section types allowed for a role.
func SectionsFor(role Role) []SectionType {
	return append([]SectionType(nil), roleSections[role]...)
}

func (s SectionType) ValidFor(role Role) bool {
	for _, st := range roleSections[role] {
		if st == s {
			return true
		}
	}
	return false
}

type EmbeddingStatus string

const (
	StatusPending    EmbeddingStatus = "pending"
	StatusProcessing EmbeddingStatus = "processing"
	StatusCompleted  EmbeddingStatus = "completed"
	StatusFailed     EmbeddingStatus = "failed"
)

func (s EmbeddingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo enforces pending -> processing -> completed|failed.
// processing -> processing resumes a run that was interrupted.
func (s EmbeddingStatus) CanTransitionTo(next EmbeddingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusProcessing || next == StatusCompleted || next == StatusFailed
	}
	return false
}

type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)
