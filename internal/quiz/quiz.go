// Package quiz holds the career-interest question bank and its scoring.
package quiz

import (
	"errors"
	"fmt"
)

type Track string

const (
	Tech       Track = "tech"
	Creative   Track = "creative"
	Helping    Track = "helping"
	Leadership Track = "leadership"
)

// tieOrder decides the winner when two tracks share the top score.
var tieOrder = []Track{Tech, Creative, Helping, Leadership}

var labels = map[Track]string{
	Tech:       "Technology & Engineering",
	Creative:   "Creative & Design",
	Helping:    "Healthcare & Education",
	Leadership: "Business & Leadership",
}

var ErrInvalidAnswers = errors.New("invalid quiz answers")

type Question struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type weight struct {
	track  Track
	points int
}

var bank = []Question{
	{ID: 1, Question: "What type of work environment do you prefer?", Options: []string{
		"Collaborative team setting", "Independent work", "Mixed environment", "Remote work",
	}},
	{ID: 2, Question: "Which activities energize you most?", Options: []string{
		"Problem-solving and analysis", "Creative design and innovation", "Helping and teaching others", "Leading and managing projects",
	}},
	{ID: 3, Question: "What motivates you in your career?", Options: []string{
		"Financial stability and growth", "Making a positive impact", "Learning new skills", "Recognition and advancement",
	}},
	{ID: 4, Question: "How do you prefer to learn new things?", Options: []string{
		"Hands-on practice", "Reading and research", "Video tutorials", "Working with mentors",
	}},
	{ID: 5, Question: "What type of challenges do you enjoy?", Options: []string{
		"Technical problems", "Creative challenges", "Interpersonal issues", "Strategic planning",
	}},
}

// weights[q][option]; a zero-value weight scores nothing.
var weights = [][]weight{
	{{Leadership, 2}, {Tech, 2}, {Helping, 1}, {}},
	{{Tech, 2}, {Creative, 2}, {Helping, 2}, {Leadership, 2}},
	{{Leadership, 1}, {Helping, 2}, {Tech, 1}, {}},
	{{Tech, 2}, {Creative, 1}, {Creative, 1}, {Helping, 2}},
	{{Tech, 2}, {Creative, 2}, {Helping, 2}, {Leadership, 2}},
}

type Scores struct {
	Tech       int `json:"tech"`
	Creative   int `json:"creative"`
	Helping    int `json:"helping"`
	Leadership int `json:"leadership"`
}

func (s Scores) of(t Track) int {
	switch t {
	case Tech:
		return s.Tech
	case Creative:
		return s.Creative
	case Helping:
		return s.Helping
	default:
		return s.Leadership
	}
}

func (s *Scores) add(t Track, n int) {
	switch t {
	case Tech:
		s.Tech += n
	case Creative:
		s.Creative += n
	case Helping:
		s.Helping += n
	case Leadership:
		s.Leadership += n
	}
}

type Result struct {
	Scores         Scores `json:"scores"`
	Track          Track  `json:"track"`
	Recommendation string `json:"recommendation"`
}

// Questions returns a copy of the question bank.
func Questions() []Question {
	out := make([]Question, len(bank))
	for i, q := range bank {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

// Score tallies answers[i] as the option picked for question i. Fewer answers
// than questions are scored as given.
func Score(answers []int) (Result, error) {
	if len(answers) > len(bank) {
		return Result{}, fmt.Errorf("%w: %d answers for %d questions", ErrInvalidAnswers, len(answers), len(bank))
	}

	var s Scores
	for q, opt := range answers {
		if opt < 0 || opt >= len(weights[q]) {
			return Result{}, fmt.Errorf("%w: question %d has no option %d", ErrInvalidAnswers, q+1, opt)
		}
		w := weights[q][opt]
		if w.track != "" {
			s.add(w.track, w.points)
		}
	}

	best := tieOrder[0]
	for _, t := range tieOrder[1:] {
		if s.of(t) > s.of(best) {
			best = t
		}
	}

	return Result{Scores: s, Track: best, Recommendation: labels[best]}, nil
}
