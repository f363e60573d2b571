package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var difficultyNames = map[Difficulty]string{
	DifficultyEasy:   "Novice",
	DifficultyMedium: "Adept",
	DifficultyHard:   "Master",
	DifficultyAny:    "Any Difficulty",
}

// DisplayName is the player-facing label for a difficulty.
func (d Difficulty) DisplayName() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return string(d)
}

var defaultCategories = map[string]string{
	"9": "General Knowledge", "10": "Books", "11": "Film", "12": "Music",
	"13": "Musicals & Theatres", "14": "Television", "15": "Video Games",
	"16": "Board Games", "17": "Science & Nature", "18": "Computers",
	"19": "Mathematics", "20": "Mythology", "21": "Sports", "22": "Geography",
	"23": "History", "24": "Politics", "25": "Art", "26": "Celebrities",
	"27": "Animals", "28": "Vehicles", "29": "Comics", "30": "Gadgets",
	"31": "Anime & Manga", "32": "Cartoon & Animations",
}

// DefaultCategories returns the built-in catalog ordered by numeric id.
func DefaultCategories() []Category {
	out := make([]Category, 0, len(defaultCategories))
	for id, name := range defaultCategories {
		out = append(out, Category{ID: id, Name: name})
	}
	SortCategories(out)
	return out
}

// SortCategories orders categories by numeric id.
func SortCategories(categories []Category) {
	sort.Slice(categories, func(i, j int) bool {
		a, errA := strconv.Atoi(categories[i].ID)
		b, errB := strconv.Atoi(categories[j].ID)
		if errA != nil || errB != nil {
			return categories[i].ID < categories[j].ID
		}
		return a < b
	})
}

// CategoryName resolves an id against the given catalog, then the built-in one.
func CategoryName(id string, catalog []Category) string {
	if id == "" || id == CategoryAny {
		return "Any Realm"
	}
	for _, c := range catalog {
		if c.ID == id {
			return c.Name
		}
	}
	if name, ok := defaultCategories[id]; ok {
		return name
	}
	return id
}

// ShareText formats a finished quiz for copying to the clipboard.
func ShareText(summary Summary, catalog []Category) string {
	p := summary.Parameters
	lines := []string{
		fmt.Sprintf("My CogniQuiz Score: %d points!", summary.FinalScore),
		fmt.Sprintf("Correct Answers: %d/%d", summary.TotalCorrect, summary.TotalQuestions),
		fmt.Sprintf("Difficulty: %s", p.Difficulty.DisplayName()),
		fmt.Sprintf("Category: %s", CategoryName(p.Category, catalog)),
		fmt.Sprintf("Number of Questions: %d", p.NumQuestions),
		fmt.Sprintf("Time Per Question: %ds", p.TimePerChallenge),
	}
	return strings.Join(lines, "\n")
}
