package server

import "math/rand/v2"

// Namer produces display names for anonymous clients.
type Namer interface {
	Name() string
}

// NamerFunc adapts a function to the Namer interface.
type NamerFunc func() string

// Name implements Namer.
func (f NamerFunc) Name() string {
	return f()
}

var (
	firstNames = []string{
		"Alice", "Bob", "Carol", "David", "Emma", "Frank", "Grace", "Henry",
		"Irene", "James", "Karen", "Louis", "Maria", "Nathan", "Olga", "Peter",
		"Quinn", "Rachel", "Samuel", "Tina", "Victor", "Wendy", "Yuri", "Zoe",
	}
	lastNames = []string{
		"Anderson", "Brown", "Clark", "Davis", "Evans", "Fisher", "Garcia",
		"Harris", "Johnson", "King", "Lewis", "Miller", "Nelson", "Owens",
		"Parker", "Roberts", "Smith", "Taylor", "Walker", "Young",
	}
)

// RandomNamer picks a random first and last name pair.
type RandomNamer struct{}

// NewRandomNamer returns the default Namer.
func NewRandomNamer() RandomNamer {
	return RandomNamer{}
}

// Name implements Namer.
func (RandomNamer) Name() string {
	return firstNames[rand.IntN(len(firstNames))] + " " + lastNames[rand.IntN(len(lastNames))]
}
