package services

import (
	"sort"

	"github.com/nba-watcher/backend/models"
)

// MergeGames unions per-source game maps given in priority order.
//
// A key present in several sources keeps the first source's fields and gains the
// later sources' embed URLs that it does not already have, in first-seen order.
// Games reported only by a later source are kept as they are.
func MergeGames(sources ...map[string]*models.GameRecord) map[string]*models.GameRecord {
	merged := make(map[string]*models.GameRecord)

	for _, games := range sources {
		for _, key := range sortedKeys(games) {
			incoming := games[key]
			existing, exists := merged[key]
			if !exists {
				merged[key] = incoming.Clone()
				continue
			}

			for _, stream := range incoming.EmbedURLs {
				if !existing.HasEmbedURL(stream) {
					existing.EmbedURLs = append(existing.EmbedURLs, stream)
				}
			}
			for _, source := range incoming.Sources {
				if !containsString(existing.Sources, source) {
					existing.Sources = append(existing.Sources, source)
				}
			}
		}
	}

	return merged
}

// SortGames orders records by date, then start time, then key.
func SortGames(games map[string]*models.GameRecord) []models.GameRecord {
	out := make([]models.GameRecord, 0, len(games))
	for _, key := range sortedKeys(games) {
		out = append(out, *games[key])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].StartTimestamp != out[j].StartTimestamp {
			return out[i].StartTimestamp < out[j].StartTimestamp
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortedKeys(games map[string]*models.GameRecord) []string {
	keys := make([]string, 0, len(games))
	for key := range games {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
