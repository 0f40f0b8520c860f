package models

// LeaderboardEntry это строка таблицы лидеров, собирается сервисом из
// participants + scores, в БД не хранится.
type LeaderboardEntry struct {
	Rank            int    `json:"rank"`
	ParticipantID   int    `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	PeriodPoints    [3]int `json:"period_points"`
	TotalPoints     int    `json:"total_points"`
}
