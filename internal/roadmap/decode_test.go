package roadmap

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose", "Here is the plan:\n{\"a\":1}\nGood luck!", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.in); got != tt.want {
				t.Fatalf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeLenient(t *testing.T) {
	response := "```json\n" + `{
  "total_weeks": "2",
  "match_grade": "C",
  "target_grade": "A",
  "summary": "Close the backend gap.",
  "key_improvement_areas": ["requirements"],
  "weekly_plan": [
    {"week_number": 1, "title": "HTTP", "keywords": ["REST API"], "tasks": [{"task": "Read", "completed": false, "priority": "high"}]},
    {"title": "SQL", "keywords": "sql"}
  ]
}` + "\n```"

	r, err := Decode(response)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if r.TotalWeeks != 2 || r.MatchGrade != "C" || len(r.WeeklyPlan) != 2 {
		t.Fatalf("unexpected roadmap: %+v", r)
	}
	if r.WeeklyPlan[1].WeekNumber != 2 {
		t.Fatalf("missing week number should default to position, got %d", r.WeeklyPlan[1].WeekNumber)
	}
	if len(r.WeeklyPlan[1].Keywords) != 1 || r.WeeklyPlan[1].Keywords[0] != "sql" {
		t.Fatalf("single keyword not lifted to a slice: %v", r.WeeklyPlan[1].Keywords)
	}
	if r.WeeklyPlan[0].Tasks[0].Priority != "high" {
		t.Fatalf("tasks not decoded: %+v", r.WeeklyPlan[0].Tasks)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode("not json"); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := Decode(`{"total_weeks": 4, "weekly_plan": []}`); err == nil {
		t.Fatalf("expected error for empty plan")
	}
}
