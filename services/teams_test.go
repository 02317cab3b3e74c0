package services

import (
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spellingsByCode groups every accepted spelling under its tricode, in a stable order.
func spellingsByCode() ([]string, map[string][]string) {
	spellings := make(map[string][]string, 30)
	for name, code := range teamCodes {
		spellings[code] = append(spellings[code], name)
	}
	codes := make([]string, 0, len(spellings))
	for code := range spellings {
		sort.Strings(spellings[code])
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, spellings
}

func TestMatchupKeyIsOrderIndependent(t *testing.T) {
	normalizer := NewTeamNormalizer()
	codes, spellings := spellingsByCode()
	count := len(codes)

	// pick chooses one spelling of a team, full name or nickname alike.
	pick := func(code string, variant int) string {
		names := spellings[code]
		return names[variant%len(names)]
	}

	properties := gopter.NewProperties(nil)

	properties.Property("swapping teams keeps the matchup key", prop.ForAll(
		func(first, offset, variantA, variantB int) bool {
			a := pick(codes[first], variantA)
			b := pick(codes[(first+offset)%count], variantB)

			forward, ok1 := normalizer.Normalize(a + " vs " + b)
			backward, ok2 := normalizer.Normalize(b + " @ " + a)
			return ok1 && ok2 && forward.Key == backward.Key && len(forward.Key) == 6
		},
		gen.IntRange(0, count-1),
		gen.IntRange(1, count-1),
		gen.IntRange(0, 3),
		gen.IntRange(0, 3),
	))

	properties.Property("first team in the title is away", prop.ForAll(
		func(first, offset, variantA, variantB int) bool {
			awayCode := codes[first]
			homeCode := codes[(first+offset)%count]

			matchup, ok := normalizer.Normalize(pick(awayCode, variantA) + " vs. " + pick(homeCode, variantB))
			return ok && matchup.AwayCode == awayCode && matchup.HomeCode == homeCode
		},
		gen.IntRange(0, count-1),
		gen.IntRange(1, count-1),
		gen.IntRange(0, 3),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNormalize(t *testing.T) {
	normalizer := NewTeamNormalizer()

	matchup, ok := normalizer.Normalize("Los Angeles Lakers vs Boston Celtics")
	require.True(t, ok)
	assert.Equal(t, "BOSLAL", matchup.Key)
	assert.Equal(t, "LAL", matchup.AwayCode)
	assert.Equal(t, "BOS", matchup.HomeCode)
	assert.Equal(t, "Los Angeles Lakers vs. Boston Celtics", matchup.Title)

	// Both spellings of one franchise count once.
	matchup, ok = normalizer.Normalize("Los Angeles Clippers (LA Clippers) at Denver Nuggets")
	require.True(t, ok)
	assert.Equal(t, "DENLAC", matchup.Key)
	assert.Equal(t, "LAC", matchup.AwayCode)

	_, ok = normalizer.Normalize("Boston Celtics Media Day")
	assert.False(t, ok)

	_, ok = normalizer.Normalize("Celtics vs. Celtics")
	assert.False(t, ok)
}

func TestNormalizeNicknames(t *testing.T) {
	normalizer := NewTeamNormalizer()

	forward, ok := normalizer.Normalize("Lakers vs. Celtics")
	require.True(t, ok)
	backward, ok := normalizer.Normalize("Celtics vs. Lakers")
	require.True(t, ok)

	assert.Equal(t, "BOSLAL", forward.Key)
	assert.Equal(t, "BOSLAL", backward.Key)
	assert.Equal(t, "LAL", forward.AwayCode)
	assert.Equal(t, "BOS", backward.AwayCode)
	assert.Equal(t, "Los Angeles Lakers vs. Boston Celtics", forward.Title, "titles use display names")

	// "Lakers" inside "Los Angeles Lakers" is the same team, not a second one.
	_, ok = normalizer.Normalize("Los Angeles Lakers Lakers Media Day")
	assert.False(t, ok)

	// "Nets" embedded in "Hornets" is not a match.
	matchup, ok := normalizer.Normalize("Hornets vs Suns")
	require.True(t, ok)
	assert.Equal(t, "CHAPHX", matchup.Key)

	matchup, ok = normalizer.Normalize("Nets @ Hornets")
	require.True(t, ok)
	assert.Equal(t, "BKN", matchup.AwayCode)
	assert.Equal(t, "CHA", matchup.HomeCode)

	matchup, ok = normalizer.Normalize("Sixers vs Blazers")
	require.True(t, ok)
	assert.Equal(t, "PHIPOR", matchup.Key)
	assert.Equal(t, "Philadelphia 76ers vs. Portland Trail Blazers", matchup.Title)
}

func TestIndexWord(t *testing.T) {
	assert.Equal(t, -1, indexWord("Charlotte Hornets", "Nets"))
	assert.Equal(t, 8, indexWord("Hornets Nets", "Nets"))
	assert.Equal(t, 0, indexWord("Heat", "Heat"))
	assert.Equal(t, -1, indexWord("Heatwave", "Heat"))
}

func TestTeamLookups(t *testing.T) {
	normalizer := NewTeamNormalizer()

	name, ok := normalizer.TeamName("lac")
	require.True(t, ok)
	assert.Equal(t, "LA Clippers", name)

	name, ok = normalizer.TeamName("LAL")
	require.True(t, ok)
	assert.Equal(t, "Los Angeles Lakers", name)

	_, ok = normalizer.TeamName("XYZ")
	assert.False(t, ok)
	assert.Len(t, normalizer.byCode, 30)
}
