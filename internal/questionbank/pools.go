package questionbank

import (
	"context"

	"doubt-battle-service/internal/domain"
)

// StaticPoolLoader serves curated pools from memory (useful without Postgres
// and in tests). Content follows the NCERT class 10 syllabus plus a small
// competitive-exam mix.
type StaticPoolLoader struct {
	pools map[domain.Subject][]domain.Question
}

func NewStaticPoolLoader(pools map[domain.Subject][]domain.Question) *StaticPoolLoader {
	return &StaticPoolLoader{pools: pools}
}

func (l *StaticPoolLoader) LoadPool(_ context.Context, subject domain.Subject) ([]domain.Question, error) {
	if pool, ok := l.pools[subject]; ok {
		return pool, nil
	}
	return nil, domain.ErrPoolNotFound
}

// DefaultPools returns the built-in curated question pools.
func DefaultPools() map[domain.Subject][]domain.Question {
	return map[domain.Subject][]domain.Question{
		domain.SubjectClass10Science: {
			{Prompt: "Which gas is produced when dilute hydrochloric acid reacts with zinc?", Options: []string{"Oxygen", "Hydrogen", "Chlorine", "Carbon dioxide"}, CorrectIndex: 1, Explanation: "Metals above hydrogen in the reactivity series displace hydrogen from dilute acids."},
			{Prompt: "The focal length of a plane mirror is", Options: []string{"Zero", "Infinity", "Equal to object distance", "25 cm"}, CorrectIndex: 1, Explanation: "A plane mirror can be treated as a spherical mirror of infinite radius of curvature."},
			{Prompt: "Which part of the human eye controls the amount of light entering it?", Options: []string{"Cornea", "Retina", "Iris", "Lens"}, CorrectIndex: 2, Explanation: "The iris adjusts the size of the pupil."},
			{Prompt: "The chemical formula of washing soda is", Options: []string{"NaHCO3", "Na2CO3.10H2O", "CaOCl2", "CaSO4.2H2O"}, CorrectIndex: 1, Explanation: "Washing soda is sodium carbonate decahydrate."},
			{Prompt: "In the equation V = IR, R stands for", Options: []string{"Radiation", "Resistance", "Reactance", "Reluctance"}, CorrectIndex: 1, Explanation: "Ohm's law relates potential difference, current and resistance."},
			{Prompt: "Which of these is a decomposer in an ecosystem?", Options: []string{"Grass", "Deer", "Fungi", "Tiger"}, CorrectIndex: 2, Explanation: "Fungi and bacteria break down dead organic matter."},
			{Prompt: "The process by which plants lose water through leaves is called", Options: []string{"Transpiration", "Translocation", "Respiration", "Photosynthesis"}, CorrectIndex: 0},
			{Prompt: "Which metal is liquid at room temperature?", Options: []string{"Sodium", "Mercury", "Aluminium", "Calcium"}, CorrectIndex: 1},
			{Prompt: "The pH of a neutral solution at 25°C is", Options: []string{"0", "7", "14", "1"}, CorrectIndex: 1, Explanation: "Pure water has equal H+ and OH- concentrations, giving pH 7."},
			{Prompt: "Myopia can be corrected using a", Options: []string{"Convex lens", "Concave lens", "Cylindrical lens", "Plane glass"}, CorrectIndex: 1, Explanation: "A concave lens diverges rays so the image falls on the retina."},
			{Prompt: "Which hormone regulates blood sugar level in humans?", Options: []string{"Thyroxine", "Insulin", "Adrenaline", "Growth hormone"}, CorrectIndex: 1},
			{Prompt: "An electric fuse works on the", Options: []string{"Chemical effect of current", "Magnetic effect of current", "Heating effect of current", "Photoelectric effect"}, CorrectIndex: 2, Explanation: "Excess current melts the fuse wire and breaks the circuit."},
		},
		domain.SubjectClass10Math: {
			{Prompt: "The HCF of 12 and 18 is", Options: []string{"2", "3", "6", "36"}, CorrectIndex: 2},
			{Prompt: "If the discriminant of a quadratic equation is zero, its roots are", Options: []string{"Real and distinct", "Real and equal", "Imaginary", "Irrational"}, CorrectIndex: 1, Explanation: "b² - 4ac = 0 gives a repeated real root."},
			{Prompt: "The distance between the points (0, 0) and (3, 4) is", Options: []string{"5", "7", "12", "25"}, CorrectIndex: 0, Explanation: "√(3² + 4²) = √25 = 5."},
			{Prompt: "sin 30° equals", Options: []string{"1", "1/2", "√3/2", "1/√2"}, CorrectIndex: 1},
			{Prompt: "The sum of the first n natural numbers is", Options: []string{"n²", "n(n+1)/2", "2n+1", "n(n-1)/2"}, CorrectIndex: 1},
			{Prompt: "The 10th term of the AP 2, 5, 8, ... is", Options: []string{"27", "29", "30", "32"}, CorrectIndex: 1, Explanation: "a + 9d = 2 + 27 = 29."},
			{Prompt: "A tangent to a circle intersects it in exactly", Options: []string{"One point", "Two points", "Three points", "No point"}, CorrectIndex: 0},
			{Prompt: "The probability of drawing an ace from a standard deck of 52 cards is", Options: []string{"1/52", "1/26", "1/13", "4/13"}, CorrectIndex: 2, Explanation: "4 aces out of 52 cards simplifies to 1/13."},
			{Prompt: "The zeroes of the polynomial x² - 5x + 6 are", Options: []string{"2 and 3", "-2 and -3", "1 and 6", "-1 and -6"}, CorrectIndex: 0},
			{Prompt: "The volume of a sphere of radius r is", Options: []string{"4πr²", "(4/3)πr³", "πr²h", "(1/3)πr²h"}, CorrectIndex: 1},
			{Prompt: "If two triangles are similar, the ratio of their areas equals", Options: []string{"The ratio of their sides", "The square of the ratio of their sides", "The cube of the ratio of their sides", "Twice the ratio of their sides"}, CorrectIndex: 1},
			{Prompt: "The mode of the data 3, 5, 7, 5, 9, 5, 11 is", Options: []string{"3", "5", "7", "9"}, CorrectIndex: 1},
		},
		domain.SubjectCompetitive: {
			{Prompt: "Which planet has the shortest day in the solar system?", Options: []string{"Mercury", "Jupiter", "Earth", "Mars"}, CorrectIndex: 1, Explanation: "Jupiter rotates once in under 10 hours."},
			{Prompt: "The SI unit of electric charge is", Options: []string{"Ampere", "Volt", "Coulomb", "Ohm"}, CorrectIndex: 2},
			{Prompt: "Who proposed the theory of natural selection?", Options: []string{"Gregor Mendel", "Charles Darwin", "Louis Pasteur", "Isaac Newton"}, CorrectIndex: 1},
			{Prompt: "Find the next number in the series: 2, 6, 12, 20, 30, ...", Options: []string{"36", "40", "42", "44"}, CorrectIndex: 2, Explanation: "Differences grow by 2: +4, +6, +8, +10, +12."},
			{Prompt: "A train 120 m long passes a pole in 6 seconds. Its speed is", Options: []string{"20 m/s", "24 m/s", "60 m/s", "72 m/s"}, CorrectIndex: 0},
			{Prompt: "Which element has the highest electronegativity?", Options: []string{"Oxygen", "Chlorine", "Fluorine", "Nitrogen"}, CorrectIndex: 2},
			{Prompt: "If CODE is written as DPEF, how is QUIZ written?", Options: []string{"RVJA", "RWJA", "PVJA", "RVKA"}, CorrectIndex: 0, Explanation: "Each letter shifts forward by one."},
			{Prompt: "The value of log₁₀ 1000 is", Options: []string{"2", "3", "10", "100"}, CorrectIndex: 1},
			{Prompt: "Mitochondria are known as the", Options: []string{"Brain of the cell", "Powerhouse of the cell", "Kitchen of the cell", "Post office of the cell"}, CorrectIndex: 1},
			{Prompt: "15% of 240 is", Options: []string{"24", "30", "36", "40"}, CorrectIndex: 2},
			{Prompt: "The chemical symbol for gold is", Options: []string{"Go", "Gd", "Au", "Ag"}, CorrectIndex: 2},
			{Prompt: "Light takes about how long to travel from the Sun to Earth?", Options: []string{"8 seconds", "8 minutes", "8 hours", "80 minutes"}, CorrectIndex: 1},
		},
	}
}
