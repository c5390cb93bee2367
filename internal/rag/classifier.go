package rag

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"alfredoptarigan/resume-matcher/internal/models"
)

// MaxHeaderLength is the longest line (in runes) that can still be a section header.
const MaxHeaderLength = 80

// headerPrefix allows leading whitespace, bullets, numbering, opening brackets
// such as 【 and 「, and emoji markers including variation selectors and ZWJ.
const headerPrefix = `(?i)^(?:[\s\-*•·▪■□◆◇○●#>\[\]|\p{Ps}\p{M}\x{200D}]|\d+[.)]|\p{So})*\s*`

type sectionPattern struct {
	section  models.SectionType
	patterns []*regexp.Regexp
}

type sectionKeywords struct {
	section  models.SectionType
	keywords []string
}

// Classifier detects section headers and infers section types from body text.
// It holds only read-only tables and is safe for concurrent use.
type Classifier struct {
	headers  map[models.Role][]sectionPattern
	keywords map[models.Role][]sectionKeywords
}

func header(alternatives ...string) *regexp.Regexp {
	return regexp.MustCompile(headerPrefix + `(?:` + strings.Join(alternatives, `|`) + `)`)
}

func NewClassifier() *Classifier {
	return &Classifier{
		headers: map[models.Role][]sectionPattern{
			models.RoleResume: {
				{models.SectionSummary, []*regexp.Regexp{
					header(`summary\b`, `profile\b`, `about\s*me\b`, `자기\s*소개`, `소개`, `요약`, `개요`),
					header(`professional\s*summary\b`, `career\s*summary\b`, `executive\s*summary\b`),
				}},
				{models.SectionExperience, []*regexp.Regexp{
					header(`experience\b`, `work\s*experience\b`, `employment\b`, `career\b`, `경력`, `경험`, `이력`, `직장\s*경력`),
					header(`professional\s*experience\b`, `work\s*history\b`, `업무\s*경력`, `근무\s*경력`),
				}},
				{models.SectionSkills, []*regexp.Regexp{
					header(`skills\b`, `technical\s*skills\b`, `기술`, `스킬`, `역량`, `기술\s*스택`, `보유\s*기술`),
					header(`core\s*competencies\b`, `expertise\b`, `technologies\b`, `tools\b`),
				}},
				{models.SectionEducation, []*regexp.Regexp{
					header(`education\b`, `academic\b`, `학력`, `교육`, `학교`),
					header(`educational\s*background\b`, `학력\s*사항`),
				}},
				{models.SectionProjects, []*regexp.Regexp{
					header(`projects\b`, `프로젝트`, `포트폴리오`, `portfolio\b`),
					header(`personal\s*projects\b`, `side\s*projects\b`, `개인\s*프로젝트`),
				}},
				{models.SectionCertifications, []*regexp.Regexp{
					header(`certifications?\b`, `licenses?\b`, `자격증`, `자격\s*사항`, `면허`),
					header(`professional\s*certifications?\b`, `certificates?\b`),
				}},
				{models.SectionAwards, []*regexp.Regexp{
					header(`awards?\b`, `honors?\b`, `achievements?\b`, `수상`, `수상\s*경력`, `성과`),
				}},
				{models.SectionContact, []*regexp.Regexp{
					header(`contact\b`, `연락처`, `인적\s*사항`, `개인\s*정보`),
				}},
			},
			models.RoleJobDescription: {
				{models.SectionCompanyInfo, []*regexp.Regexp{
					header(`about\s*us\b`, `company\b`, `회사\s*소개`, `기업\s*소개`, `우리\s*회사`),
					header(`who\s*we\s*are\b`, `our\s*company\b`, `회사\s*정보`),
				}},
				{models.SectionResponsibilities, []*regexp.Regexp{
					header(`responsibilities\b`, `duties\b`, `role\b`, `담당\s*업무`, `주요\s*업무`, `업무\s*내용`),
					header(`what\s*you.+do\b`, `job\s*description\b`, `하는\s*일`, `역할`),
					header(`key\s*responsibilities\b`, `업무\s*소개`),
				}},
				{models.SectionRequirements, []*regexp.Regexp{
					header(`requirements?\b`, `qualifications?\b`, `자격\s*요건`, `필수\s*요건`, `지원\s*자격`),
					header(`what\s*we.+looking\b`, `필수\s*조건`, `기본\s*자격`, `required\b`),
					header(`must\s*have\b`, `minimum\s*requirements?\b`, `필수\s*사항`),
				}},
				{models.SectionPreferred, []*regexp.Regexp{
					header(`preferred\b`, `nice\s*to\s*have\b`, `우대\s*사항`, `우대\s*조건`, `플러스`),
					header(`bonus\b`, `plus\b`, `desired\b`, `선호\s*사항`, `가점\s*사항`),
				}},
				{models.SectionBenefits, []*regexp.Regexp{
					header(`benefits?\b`, `perks?\b`, `복리\s*후생`, `혜택`, `베네핏`, `복지`),
					header(`what\s*we\s*offer\b`, `우리가\s*제공`, `근무\s*환경`),
				}},
				{models.SectionSalary, []*regexp.Regexp{
					header(`salary\b`, `compensation\b`, `연봉`, `급여`, `보상`, `처우`),
					header(`pay\b`, `remuneration\b`, `급여\s*조건`),
				}},
				{models.SectionTechStack, []*regexp.Regexp{
					header(`tech\s*stack\b`, `technology\s*stack\b`, `기술\s*스택`, `사용\s*기술`, `개발\s*환경`),
				}},
			},
		},
		keywords: map[models.Role][]sectionKeywords{
			models.RoleResume: {
				{models.SectionSummary, []string{"passionate", "motivated", "years of experience", "열정", "성장", "목표", "저는"}},
				{models.SectionExperience, []string{"worked", "developed", "led", "managed", "company", "inc.", "corp", "재직", "근무", "담당", "개발", "주식회사", "㈜"}},
				{models.SectionSkills, []string{"python", "java", "javascript", "typescript", "react", "vue", "golang", "docker", "kubernetes", "aws", "sql", "git", "spring", "django", "node"}},
				{models.SectionEducation, []string{"university", "college", "bachelor", "master", "degree", "gpa", "대학교", "대학", "학사", "석사", "전공", "졸업"}},
				{models.SectionProjects, []string{"project", "built", "implemented", "github", "repository", "구현", "구축", "개인 프로젝트", "팀 프로젝트"}},
				{models.SectionCertifications, []string{"certified", "certificate", "license", "toeic", "opic", "정보처리기사", "취득", "자격"}},
				{models.SectionAwards, []string{"award", "winner", "prize", "hackathon", "수상", "대상", "우수상", "최우수"}},
				{models.SectionContact, []string{"email", "phone", "@", "linkedin", "address", "이메일", "전화", "주소", "010-"}},
			},
			models.RoleJobDescription: {
				{models.SectionCompanyInfo, []string{"we are", "our mission", "founded", "startup", "series", "회사는", "기업", "설립", "투자", "서비스를 운영"}},
				{models.SectionResponsibilities, []string{"you will", "develop", "design", "maintain", "collaborate", "build", "개발", "설계", "운영", "담당", "협업"}},
				{models.SectionRequirements, []string{"required", "years of experience", "must", "proficiency", "degree", "이상", "경력", "필수", "능숙", "가능하신 분"}},
				{models.SectionPreferred, []string{"preferred", "nice to have", "plus", "bonus", "experience with", "우대", "있으신 분", "경험이 있으면"}},
				{models.SectionBenefits, []string{"insurance", "vacation", "remote", "flexible", "lunch", "equipment", "휴가", "보험", "재택", "유연", "식대", "지원금"}},
				{models.SectionSalary, []string{"salary", "compensation", "krw", "usd", "stock option", "연봉", "만원", "급여", "스톡옵션", "협의"}},
				{models.SectionTechStack, []string{"stack", "python", "java", "go", "typescript", "react", "kotlin", "spring", "aws", "kubernetes", "postgresql", "redis", "kafka"}},
			},
		},
	}
}

// DetectSection returns the section type for a header line, or false when the
// line is not a recognised header. Tables are evaluated in declared order so the
// first matching section wins.
func (c *Classifier) DetectSection(line string, role models.Role) (models.SectionType, bool) {
	cleaned := strings.TrimSpace(line)
	if cleaned == "" || utf8.RuneCountInString(cleaned) > MaxHeaderLength {
		return "", false
	}

	for _, table := range c.headers[role] {
		for _, re := range table.patterns {
			if re.MatchString(cleaned) {
				return table.section, true
			}
		}
	}
	return "", false
}

// InferSection scores each section type by the number of distinct keywords found
// in content and returns the best one. Ties go to the first declared type.
func (c *Classifier) InferSection(content string, role models.Role) (models.SectionType, bool) {
	lower := strings.ToLower(content)

	best := models.SectionType("")
	bestScore := 0
	for _, set := range c.keywords[role] {
		score := 0
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = set.section, score
		}
	}

	if bestScore == 0 {
		return "", false
	}
	return best, true
}

// Classify resolves a span's final type: the declared type if known, else
// inferred from content, else unknown.
func (c *Classifier) Classify(declared models.SectionType, content string, role models.Role) models.SectionType {
	if declared != "" && declared != models.SectionUnknown {
		return declared
	}
	if inferred, ok := c.InferSection(content, role); ok {
		return inferred
	}
	return models.SectionUnknown
}
