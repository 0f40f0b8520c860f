package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Dosada05/bracket-pool/cache"
	"github.com/Dosada05/bracket-pool/models"
	"github.com/Dosada05/bracket-pool/pool"
	"github.com/Dosada05/bracket-pool/repositories"
)

// StandingsCache хранит собранную таблицу лидеров между пересчётами.
type StandingsCache interface {
	Get(ctx context.Context) ([]models.LeaderboardEntry, error)
	Set(ctx context.Context, entries []models.LeaderboardEntry) error
	Invalidate(ctx context.Context) error
}

// DigestSender delivers the standings digest to one recipient.
type DigestSender interface {
	SendStandingsDigest(email string, entries []models.LeaderboardEntry) error
}

// StandingsService собирает таблицу лидеров из участников и их очков.
type StandingsService struct {
	participantRepo repositories.ParticipantRepository
	scoreRepo       repositories.ScoreRepository
	cache           StandingsCache
	logger          *slog.Logger
}

func NewStandingsService(
	participantRepo repositories.ParticipantRepository,
	scoreRepo repositories.ScoreRepository,
	standingsCache StandingsCache,
	logger *slog.Logger,
) *StandingsService {
	return &StandingsService{
		participantRepo: participantRepo,
		scoreRepo:       scoreRepo,
		cache:           standingsCache,
		logger:          logger,
	}
}

// Leaderboard returns ranked standings, freshly assembled on a cache miss.
func (s *StandingsService) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	if s.cache != nil {
		entries, err := s.cache.Get(ctx)
		if err == nil {
			return entries, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) && s.logger != nil {
			s.logger.Warn("standings cache read failed, rebuilding", slog.Any("error", err))
		}
	}

	entries, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, entries); err != nil && s.logger != nil {
			s.logger.Warn("standings cache write failed", slog.Any("error", err))
		}
	}
	return entries, nil
}

func (s *StandingsService) build(ctx context.Context) ([]models.LeaderboardEntry, error) {
	participants, err := s.participantRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for standings: %w", err)
	}
	scores, err := s.scoreRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores for standings: %w", err)
	}

	byParticipant := make(map[int][pool.PeriodCount]int, len(participants))
	for _, score := range scores {
		if score.Period < 1 || score.Period > pool.PeriodCount {
			continue
		}
		periods := byParticipant[score.ParticipantID]
		periods[score.Period-1] = score.Points
		byParticipant[score.ParticipantID] = periods
	}

	entries := make([]models.LeaderboardEntry, 0, len(participants))
	for _, participant := range participants {
		periods := byParticipant[participant.ID]
		total := 0
		for _, points := range periods {
			total += points
		}
		entries = append(entries, models.LeaderboardEntry{
			ParticipantID:   participant.ID,
			ParticipantName: participant.Name,
			PeriodPoints:    periods,
			TotalPoints:     total,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return entries[i].ParticipantName < entries[j].ParticipantName
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// SendDailyDigest рассылает текущую таблицу лидеров всем участникам.
// Вызывается планировщиком; ошибка доставки одному адресату не прерывает
// рассылку остальным.
func (s *StandingsService) SendDailyDigest(ctx context.Context, sender DigestSender) error {
	entries, err := s.Leaderboard(ctx)
	if err != nil {
		return err
	}
	participants, err := s.participantRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list digest recipients: %w", err)
	}

	for _, participant := range participants {
		if err := sender.SendStandingsDigest(participant.Email, entries); err != nil && s.logger != nil {
			s.logger.Warn("failed to send standings digest",
				slog.String("email", participant.Email),
				slog.Any("error", err),
			)
		}
	}
	return nil
}
