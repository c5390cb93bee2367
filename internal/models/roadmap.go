package models

type Roadmap struct {
	TotalWeeks          int           `json:"total_weeks" mapstructure:"total_weeks"`
	MatchGrade          string        `json:"match_grade" mapstructure:"match_grade"`
	TargetGrade         string        `json:"target_grade" mapstructure:"target_grade"`
	Summary             string        `json:"summary" mapstructure:"summary"`
	KeyImprovementAreas []string      `json:"key_improvement_areas" mapstructure:"key_improvement_areas"`
	WeeklyPlan          []RoadmapWeek `json:"weekly_plan" mapstructure:"weekly_plan"`
}

type RoadmapWeek struct {
	WeekNumber  int                `json:"week_number" mapstructure:"week_number"`
	Title       string             `json:"title" mapstructure:"title"`
	Duration    string             `json:"duration" mapstructure:"duration"`
	Description string             `json:"description" mapstructure:"description"`
	Keywords    []string           `json:"keywords" mapstructure:"keywords"`
	Tasks       []RoadmapTask      `json:"tasks" mapstructure:"tasks"`
	Resources   []LearningResource `json:"resources" mapstructure:"resources"`
}

type RoadmapTask struct {
	Task      string `json:"task" mapstructure:"task"`
	Completed bool   `json:"completed" mapstructure:"completed"`
	Priority  string `json:"priority" mapstructure:"priority"`
}

type LearningResource struct {
	Title          string `json:"title" yaml:"title" mapstructure:"title"`
	URL            string `json:"url" yaml:"url" mapstructure:"url"`
	Type           string `json:"type" yaml:"type" mapstructure:"type"`
	Platform       string `json:"platform" yaml:"platform" mapstructure:"platform"`
	Difficulty     string `json:"difficulty" yaml:"difficulty" mapstructure:"difficulty"`
	Description    string `json:"description,omitempty" yaml:"description" mapstructure:"description"`
	EstimatedHours int    `json:"estimated_hours,omitempty" yaml:"estimated_hours" mapstructure:"estimated_hours"`
}
