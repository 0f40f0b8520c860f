package pool

import (
	"time"

	"github.com/Dosada05/bracket-pool/models"
)

// maxUpsetBonus caps the seed-differential bonus of an upset win.
const maxUpsetBonus = 10

// Recompute re-derives every participant's per-period and cumulative
// points from the full set of completed games. It is total: all stored
// score values are treated as stale, nothing is updated incrementally.
// Переигранный или исправленный результат поэтому никогда не оставляет
// хвостов: пересчёт всегда сходится к одному и тому же состоянию.
//
// Only primary assignments contribute. A completed game whose winner is
// missing or matches neither of its teams contributes nothing and is not
// an error: scoring is best-effort over the results that parse.
// EliminatedTeams derives the set of knocked-out team IDs from the full
// completed-game set: every loser of a usable result. Флаги выбывания
// выводятся целиком из игр, как и очки, поэтому повторный или
// исправленный ввод результата не оставляет устаревших флагов.
func EliminatedTeams(games []models.Game) map[int]bool {
	out := make(map[int]bool)
	for _, game := range games {
		if !game.Completed || game.WinnerID == nil {
			continue
		}
		switch *game.WinnerID {
		case game.TeamAID:
			out[game.TeamBID] = true
		case game.TeamBID:
			out[game.TeamAID] = true
		}
	}
	return out
}

func Recompute(
	participants []models.Participant,
	assignments []models.Assignment,
	teams []models.Team,
	games []models.Game,
) []models.Score {
	teamSeeds := make(map[int]int, len(teams))
	for _, team := range teams {
		teamSeeds[team.ID] = team.Seed
	}

	bundles := make(map[int]map[int]bool, len(participants))
	for _, a := range assignments {
		if !a.Primary {
			continue
		}
		if bundles[a.ParticipantID] == nil {
			bundles[a.ParticipantID] = make(map[int]bool, TierCount)
		}
		bundles[a.ParticipantID][a.TeamID] = true
	}

	// Points per winning team id per period, shared by every participant
	// holding that team.
	var teamPoints [PeriodCount + 1]map[int]int
	for p := 1; p <= PeriodCount; p++ {
		teamPoints[p] = make(map[int]int)
	}

	for _, game := range games {
		if !game.Completed || game.WinnerID == nil {
			continue
		}
		winnerID := *game.WinnerID

		var loserID int
		switch winnerID {
		case game.TeamAID:
			loserID = game.TeamBID
		case game.TeamBID:
			loserID = game.TeamAID
		default:
			// Записанный победитель не из этой игры, пропускаем.
			continue
		}

		period := PeriodOf(game.Round)
		if period == 0 {
			continue
		}

		points := BasePoints(game.Round)
		winnerSeed, okW := teamSeeds[winnerID]
		loserSeed, okL := teamSeeds[loserID]
		if okW && okL && winnerSeed > loserSeed {
			// Upset bonus, kept exactly as the product defined it:
			// min(loserSeed-winnerSeed, 10). The difference is negative
			// for a genuine upset, so the "bonus" subtracts points.
			bonus := loserSeed - winnerSeed
			if bonus > maxUpsetBonus {
				bonus = maxUpsetBonus
			}
			points += bonus
		}

		teamPoints[period][winnerID] += points
	}

	now := time.Now()
	scores := make([]models.Score, 0, len(participants)*PeriodCount)
	for _, participant := range participants {
		cumulative := 0
		for period := 1; period <= PeriodCount; period++ {
			periodPoints := 0
			for teamID := range bundles[participant.ID] {
				periodPoints += teamPoints[period][teamID]
			}
			cumulative += periodPoints
			scores = append(scores, models.Score{
				ParticipantID: participant.ID,
				Period:        period,
				Points:        periodPoints,
				Cumulative:    cumulative,
				UpdatedAt:     now,
			})
		}
	}
	return scores
}
