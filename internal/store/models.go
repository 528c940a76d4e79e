package store

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Difficulty levels as stored on problems and ladders.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Session types and lifecycle states.
const (
	SessionTypeStandard   = "standard"
	SessionTypeAdaptive   = "adaptive"
	SessionTypeDiagnostic = "diagnostic"

	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// Problem is a catalog entry plus the learner's review state for it.
// Rows are never deleted, only evolved.
type Problem struct {
	ProblemID          string `gorm:"column:problem_id;primaryKey"`
	LeetcodeID         int    `gorm:"column:leetcode_id"`
	Title              string `gorm:"column:title"`
	Difficulty         string `gorm:"column:difficulty;index"`
	Tags               datatypes.JSON `gorm:"column:tags"` // []string, normalized
	BoxLevel           int            `gorm:"column:box_level;default:1"`
	Stability          float64        `gorm:"column:stability;default:2.5"`
	LastAttemptDate    *time.Time     `gorm:"column:last_attempt_date;index"`
	NeedsRecalibration bool           `gorm:"column:needs_recalibration"`
	TotalAttempts      int            `gorm:"column:total_attempts"`
	SuccessfulAttempts int            `gorm:"column:successful_attempts"`

	// Decay bookkeeping. OriginalBoxLevel holds the pre-sweep value so a
	// later recalibration can restore part of the reduction.
	DecayAppliedDate       *time.Time `gorm:"column:decay_applied_date"`
	OriginalBoxLevel       *int       `gorm:"column:original_box_level"`
	DiagnosticRecalibrated bool       `gorm:"column:diagnostic_recalibrated"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Problem) TableName() string { return "problems" }

func (p *Problem) TagList() []string        { return unmarshalStrings(p.Tags) }
func (p *Problem) SetTagList(tags []string) { p.Tags = marshalJSON(tags) }

// Attempt is an immutable fact recorded once per solve action.
type Attempt struct {
	AttemptID   string    `gorm:"column:attempt_id;primaryKey"`
	ProblemID   string    `gorm:"column:problem_id;index"`
	SessionID   string    `gorm:"column:session_id;index"`
	Success     bool      `gorm:"column:success"`
	TimeSpent   int       `gorm:"column:time_spent"` // seconds
	AttemptDate time.Time `gorm:"column:attempt_date;index"`
}

func (Attempt) TableName() string { return "attempts" }

// TagMastery is the per-concept record driving the mastery gate.
type TagMastery struct {
	Tag                 string         `gorm:"column:tag;primaryKey"`
	TotalAttempts       int            `gorm:"column:total_attempts"`
	SuccessfulAttempts  int            `gorm:"column:successful_attempts"`
	AttemptedProblemIDs datatypes.JSON `gorm:"column:attempted_problem_ids"` // []string, deduplicated
	DecayScore          float64        `gorm:"column:decay_score"`
	Mastered            bool           `gorm:"column:mastered"`
	MasteryDate         *time.Time     `gorm:"column:mastery_date"`
	Strength            int            `gorm:"column:strength"` // 0-100
	LastPracticed       *time.Time     `gorm:"column:last_practiced"`
}

func (TagMastery) TableName() string { return "tag_mastery" }

func (m *TagMastery) AttemptedIDs() []string        { return unmarshalStrings(m.AttemptedProblemIDs) }
func (m *TagMastery) SetAttemptedIDs(ids []string)  { m.AttemptedProblemIDs = marshalJSON(ids) }

// DifficultyDistribution is the per-tag Easy/Medium/Hard mix from the
// seeded reference data. Fractions, not counts.
type DifficultyDistribution struct {
	Easy   float64 `json:"easy"`
	Medium float64 `json:"medium"`
	Hard   float64 `json:"hard"`
}

// TagRelationship is read-only reference data seeded with the catalog.
type TagRelationship struct {
	Tag                    string         `gorm:"column:tag;primaryKey"`
	Classification         string         `gorm:"column:classification"`
	MasteryThreshold       float64        `gorm:"column:mastery_threshold"`
	MinAttemptsRequired    int            `gorm:"column:min_attempts_required"`
	DifficultyDistribution datatypes.JSON `gorm:"column:difficulty_distribution"`
	RelatedTags            datatypes.JSON `gorm:"column:related_tags"` // []string
}

func (TagRelationship) TableName() string { return "tag_relationships" }

func (t *TagRelationship) Distribution() *DifficultyDistribution {
	if len(t.DifficultyDistribution) == 0 {
		return nil
	}
	var d DifficultyDistribution
	if err := json.Unmarshal(t.DifficultyDistribution, &d); err != nil {
		return nil
	}
	return &d
}

func (t *TagRelationship) SetDistribution(d DifficultyDistribution) {
	t.DifficultyDistribution = marshalJSON(d)
}

func (t *TagRelationship) RelatedTagList() []string        { return unmarshalStrings(t.RelatedTags) }
func (t *TagRelationship) SetRelatedTagList(tags []string) { t.RelatedTags = marshalJSON(tags) }

// ProblemRelationship is one directed weighted edge. The table is an
// append log: duplicate edges in either direction between the same pair
// are legal and folded at read time.
type ProblemRelationship struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement"`
	ProblemID1 string    `gorm:"column:problem_id_1;index"`
	ProblemID2 string    `gorm:"column:problem_id_2;index"`
	Strength   float64   `gorm:"column:strength"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (ProblemRelationship) TableName() string { return "problem_relationships" }

// LadderProblem is one rung of a pattern ladder.
type LadderProblem struct {
	ID         string   `json:"id"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
	Attempted  bool     `json:"attempted"`
}

// PatternLadder is a per-tag renewable candidate pool.
type PatternLadder struct {
	Tag         string         `gorm:"column:tag;primaryKey"`
	Problems    datatypes.JSON `gorm:"column:problems"` // []LadderProblem
	GeneratedAt time.Time      `gorm:"column:generated_at"`
}

func (PatternLadder) TableName() string { return "pattern_ladders" }

func (l *PatternLadder) ProblemList() []LadderProblem {
	if len(l.Problems) == 0 {
		return nil
	}
	var out []LadderProblem
	if err := json.Unmarshal(l.Problems, &out); err != nil {
		return nil
	}
	return out
}

func (l *PatternLadder) SetProblemList(problems []LadderProblem) {
	l.Problems = marshalJSON(problems)
}

// LevelStats counts problems and accumulated time at one difficulty level.
type LevelStats struct {
	Problems  int `json:"problems"`
	TotalTime int `json:"total_time"` // seconds
}

// DifficultyState is the singleton promotion state machine record.
type DifficultyState struct {
	ID                          uint           `gorm:"column:id;primaryKey"`
	CurrentDifficultyCap        string         `gorm:"column:current_difficulty_cap"`
	DifficultyTimeStats         datatypes.JSON `gorm:"column:difficulty_time_stats"` // map[difficulty]LevelStats
	SessionsAtCurrentDifficulty int            `gorm:"column:sessions_at_current_difficulty"`
	CurrentPromotionType        string         `gorm:"column:current_promotion_type"`
	ActivatedEscapeHatches      datatypes.JSON `gorm:"column:activated_escape_hatches"` // []string
	LastDifficultyPromotion     *time.Time     `gorm:"column:last_difficulty_promotion"`
}

func (DifficultyState) TableName() string { return "difficulty_state" }

func (d *DifficultyState) TimeStats() map[string]LevelStats {
	out := map[string]LevelStats{}
	if len(d.DifficultyTimeStats) > 0 {
		_ = json.Unmarshal(d.DifficultyTimeStats, &out)
	}
	return out
}

func (d *DifficultyState) SetTimeStats(stats map[string]LevelStats) {
	d.DifficultyTimeStats = marshalJSON(stats)
}

func (d *DifficultyState) EscapeHatches() []string { return unmarshalStrings(d.ActivatedEscapeHatches) }
func (d *DifficultyState) SetEscapeHatches(hatches []string) {
	d.ActivatedEscapeHatches = marshalJSON(hatches)
}

// Session is one orchestrated practice session. At most one active row
// per session type.
type Session struct {
	SessionID   string         `gorm:"column:session_id;primaryKey"`
	SessionType string         `gorm:"column:session_type;index"`
	Status      string         `gorm:"column:status;index"`
	ProblemIDs  datatypes.JSON `gorm:"column:problem_ids"` // []string
	StartedAt   time.Time      `gorm:"column:started_at"`
	CompletedAt *time.Time     `gorm:"column:completed_at"`
}

func (Session) TableName() string { return "sessions" }

func (s *Session) ProblemIDList() []string       { return unmarshalStrings(s.ProblemIDs) }
func (s *Session) SetProblemIDList(ids []string) { s.ProblemIDs = marshalJSON(ids) }

// RunTimestamp records when a named background job last ran.
type RunTimestamp struct {
	Name    string    `gorm:"column:name;primaryKey"`
	LastRun time.Time `gorm:"column:last_run"`
}

func (RunTimestamp) TableName() string { return "run_timestamps" }

// Setting is one key-value preference row.
type Setting struct {
	Key   string         `gorm:"column:key;primaryKey"`
	Value datatypes.JSON `gorm:"column:value"`
}

func (Setting) TableName() string { return "settings" }

func (s *Setting) SetValue(v interface{})     { s.Value = marshalJSON(v) }
func (s *Setting) Decode(v interface{}) error { return json.Unmarshal(s.Value, v) }

func marshalJSON(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// unmarshalStrings reads a JSON string array, returning nil on absent or
// malformed data. Corrupted rows degrade to empty, they do not error.
func unmarshalStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
