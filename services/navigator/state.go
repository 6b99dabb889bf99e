package navigator

// State is the menu a chat is currently looking at
type State string

const (
	StateRoot           State = "root"
	StateAbout          State = "about"
	StateSubjectList    State = "subject_list"
	StateTermList       State = "term_list"
	StateCourseList     State = "course_list"
	StateInstructorList State = "instructor_list"
	StateDocumentList   State = "document_list"
	StateRatingPrompt   State = "rating_prompt"
)

// Level names the kind of catalog entry a selection refers to
type Level int

const (
	LevelSubject Level = iota + 1
	LevelTerm
	LevelCourse
	LevelInstructor
	LevelDocument
)

var levelNames = map[Level]string{
	LevelSubject:    "subject",
	LevelTerm:       "term",
	LevelCourse:     "course",
	LevelInstructor: "instructor",
	LevelDocument:   "document",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

func parseLevel(s string) (Level, bool) {
	for level, name := range levelNames {
		if name == s {
			return level, true
		}
	}
	return 0, false
}

// listStates is indexed by stack depth: with n ancestors selected the chat sees listStates[n]
var listStates = [MaxDepth + 1]State{
	StateSubjectList,
	StateTermList,
	StateCourseList,
	StateInstructorList,
	StateDocumentList,
}

func listStateForDepth(depth int) State {
	if depth < 0 || depth > MaxDepth {
		return StateRoot
	}
	return listStates[depth]
}

// listLevel returns the level of the entries shown in a list state
func listLevel(state State) (Level, bool) {
	for depth, s := range listStates {
		if s == state {
			return Level(depth + 1), true
		}
	}
	return 0, false
}
