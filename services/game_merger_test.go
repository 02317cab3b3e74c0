package services

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/nba-watcher/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gameRecord(key, source string, start int64, streams ...string) *models.GameRecord {
	return &models.GameRecord{
		ID:             key,
		Date:           key[:10],
		Title:          source + " title",
		StartTimestamp: start,
		Status:         source + " status",
		EmbedURLs:      streams,
		Sources:        []string{source},
	}
}

func TestMergeGamesUnion(t *testing.T) {
	lotus := map[string]*models.GameRecord{
		"2026-01-20_BOSLAL": gameRecord("2026-01-20_BOSLAL", "lotus", 100, "https://a/1", "https://shared/1"),
		"2026-01-20_DENCHI": gameRecord("2026-01-20_DENCHI", "lotus", 200, "https://a/2"),
	}
	streamed := map[string]*models.GameRecord{
		"2026-01-20_BOSLAL": gameRecord("2026-01-20_BOSLAL", "streamed", 999, "https://shared/1", "https://b/1", "https://b/2"),
		"2026-01-21_MIAORL": gameRecord("2026-01-21_MIAORL", "streamed", 300, "https://b/3"),
	}

	merged := MergeGames(lotus, streamed)
	require.Len(t, merged, 3)

	both := merged["2026-01-20_BOSLAL"]
	assert.Equal(t, "lotus title", both.Title, "first source wins on fields")
	assert.Equal(t, int64(100), both.StartTimestamp)
	assert.Equal(t, []string{"https://a/1", "https://shared/1", "https://b/1", "https://b/2"}, both.EmbedURLs)
	assert.Equal(t, []string{models.SourceLotus, models.SourceStreamed}, both.Sources)

	assert.Equal(t, []string{"https://b/3"}, merged["2026-01-21_MIAORL"].EmbedURLs, "single-source games are kept")

	// Inputs are never mutated.
	assert.Equal(t, []string{"https://a/1", "https://shared/1"}, lotus["2026-01-20_BOSLAL"].EmbedURLs)
	assert.Equal(t, []string{"lotus"}, lotus["2026-01-20_BOSLAL"].Sources)
}

func TestMergeGamesProperties(t *testing.T) {
	keys := []string{"2026-01-20_BOSLAL", "2026-01-20_DENCHI", "2026-01-21_MIAORL"}
	urls := []string{"u1", "u2", "u3", "u4"}

	genGames := func(source string) gopter.Gen {
		return gen.SliceOfN(4, gen.IntRange(0, 15)).Map(func(masks []int) map[string]*models.GameRecord {
			games := make(map[string]*models.GameRecord)
			for i, key := range keys {
				var streams []string
				for bit, url := range urls {
					if masks[i]&(1<<bit) != 0 {
						streams = append(streams, url)
					}
				}
				if len(streams) > 0 {
					games[key] = gameRecord(key, source, int64(i), streams...)
				}
			}
			return games
		})
	}

	properties := gopter.NewProperties(nil)

	properties.Property("merged games carry no duplicate embed URLs", prop.ForAll(
		func(a, b map[string]*models.GameRecord) bool {
			for _, game := range MergeGames(a, b) {
				seen := make(map[string]bool)
				for _, url := range game.EmbedURLs {
					if seen[url] {
						return false
					}
					seen[url] = true
				}
			}
			return true
		},
		genGames("lotus"), genGames("streamed"),
	))

	properties.Property("every input URL survives the merge", prop.ForAll(
		func(a, b map[string]*models.GameRecord) bool {
			merged := MergeGames(a, b)
			for _, source := range []map[string]*models.GameRecord{a, b} {
				for key, game := range source {
					for _, url := range game.EmbedURLs {
						if !merged[key].HasEmbedURL(url) {
							return false
						}
					}
				}
			}
			return true
		},
		genGames("lotus"), genGames("streamed"),
	))

	properties.Property("merging a result again changes nothing", prop.ForAll(
		func(a, b map[string]*models.GameRecord) bool {
			once := MergeGames(a, b)
			twice := MergeGames(once, b)
			if len(once) != len(twice) {
				return false
			}
			for key, game := range once {
				if len(game.EmbedURLs) != len(twice[key].EmbedURLs) {
					return false
				}
			}
			return true
		},
		genGames("lotus"), genGames("streamed"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSortGames(t *testing.T) {
	games := map[string]*models.GameRecord{
		"2026-01-21_AAA": gameRecord("2026-01-21_AAA", "lotus", 50),
		"2026-01-20_CCC": gameRecord("2026-01-20_CCC", "lotus", 200),
		"2026-01-20_BBB": gameRecord("2026-01-20_BBB", "lotus", 100),
		"2026-01-20_AAA": gameRecord("2026-01-20_AAA", "lotus", 200),
	}

	sorted := SortGames(games)
	ids := make([]string, 0, len(sorted))
	for _, game := range sorted {
		ids = append(ids, game.ID)
	}
	assert.Equal(t, []string{"2026-01-20_BBB", "2026-01-20_AAA", "2026-01-20_CCC", "2026-01-21_AAA"}, ids)
	assert.Empty(t, SortGames(nil))
}
