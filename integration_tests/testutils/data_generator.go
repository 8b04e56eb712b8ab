//go:build integration

package testutils

import (
	"fmt"
	"strings"
	"time"

	raceservice "github.com/Black-And-White-Club/podium-bot/app/modules/race/application"
	userservice "github.com/Black-And-White-Club/podium-bot/app/modules/user/application"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/brianvoe/gofakeit/v7"
)

// TestDataGenerator produces reproducible fixtures for a seed.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator seeds the generator. Without a seed it uses the clock.
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	s := time.Now().UnixNano()
	if len(seed) > 0 {
		s = seed[0]
	}
	return &TestDataGenerator{faker: gofakeit.New(uint64(s)), seed: s}
}

func (g *TestDataGenerator) Seed() int64 { return g.seed }

// GenerateUsers returns registration input with unique emails.
func (g *TestDataGenerator) GenerateUsers(n int) []userservice.RegisterInput {
	users := make([]userservice.RegisterInput, 0, n)
	for i := range n {
		users = append(users, userservice.RegisterInput{
			Email:       fmt.Sprintf("%d.%s", i, strings.ToLower(g.faker.Email())),
			DisplayName: g.faker.Name(),
		})
	}
	return users
}

// GenerateDrivers returns n drivers with distinct three-letter codes.
func (g *TestDataGenerator) GenerateDrivers(n int) []raceservice.DriverInfo {
	seen := make(map[sharedtypes.DriverID]bool, n)
	drivers := make([]raceservice.DriverInfo, 0, n)
	for len(drivers) < n {
		code := sharedtypes.DriverID(strings.ToUpper(g.faker.LetterN(3)))
		if seen[code] {
			continue
		}
		seen[code] = true
		drivers = append(drivers, raceservice.DriverInfo{
			ID:     code,
			Name:   g.faker.Name(),
			Team:   g.faker.Company(),
			Number: g.faker.IntRange(1, 99),
		})
	}
	return drivers
}

// GenerateRace returns a race starting at startsAt.
func (g *TestDataGenerator) GenerateRace(startsAt time.Time) raceservice.RaceInput {
	return raceservice.RaceInput{
		Name:     g.faker.Country() + " Grand Prix",
		Location: g.faker.City(),
		StartsAt: startsAt,
	}
}

// Podium builds a podium from the drivers at positions i, j and k.
func Podium(drivers []raceservice.DriverInfo, i, j, k int) sharedtypes.Podium {
	return sharedtypes.NewPodium(string(drivers[i].ID), string(drivers[j].ID), string(drivers[k].ID))
}
