package jobs

import "strings"

// Level is a seniority value from the fixed 9-point taxonomy.
type Level string

const (
	LevelIntern   Level = "Intern"
	LevelEntry    Level = "Entry"
	LevelMid      Level = "Mid"
	LevelSenior   Level = "Senior"
	LevelLead     Level = "Lead"
	LevelManager  Level = "Manager"
	LevelDirector Level = "Director"
	LevelVP       Level = "VP"
	LevelCSuite   Level = "C-Suite"
)

// Levels lists the taxonomy from least to most senior.
var Levels = []Level{
	LevelIntern,
	LevelEntry,
	LevelMid,
	LevelSenior,
	LevelLead,
	LevelManager,
	LevelDirector,
	LevelVP,
	LevelCSuite,
}

// ParseLevel resolves a case-insensitive level name. The second value is false
// when the name is not part of the taxonomy.
func ParseLevel(name string) (Level, bool) {
	name = strings.TrimSpace(name)
	for _, lvl := range Levels {
		if strings.EqualFold(name, string(lvl)) {
			return lvl, true
		}
	}
	return "", false
}

// Index returns the ordinal position of the level, or -1 when unknown.
func (l Level) Index() int {
	for i, lvl := range Levels {
		if strings.EqualFold(string(l), string(lvl)) {
			return i
		}
	}
	return -1
}

func (l Level) String() string {
	return string(l)
}
