package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/bracket-pool/models"
	"github.com/Dosada05/bracket-pool/pool"
	"github.com/Dosada05/bracket-pool/repositories"
	"golang.org/x/sync/errgroup"
)

type CreateGameInput struct {
	Round   models.Round `json:"round"`
	TeamAID int          `json:"team_a_id"`
	TeamBID int          `json:"team_b_id"`
}

type ResultInput struct {
	WinnerID int  `json:"winner_id"`
	ScoreA   *int `json:"score_a"`
	ScoreB   *int `json:"score_b"`
}

// StandingsInvalidator сбрасывает закэшированную таблицу лидеров после
// пересчёта. Реализуется cache.LeaderboardCache.
type StandingsInvalidator interface {
	Invalidate(ctx context.Context) error
}

type EventBroadcaster interface {
	BroadcastEvent(eventType string, payload interface{})
}

// GameService отвечает за настройку сетки, ввод результатов и полный
// пересчёт очков по всем участникам.
type GameService struct {
	txRunner        repositories.TxRunner
	gameRepo        repositories.GameRepository
	teamRepo        repositories.TeamRepository
	participantRepo repositories.ParticipantRepository
	assignmentRepo  repositories.AssignmentRepository
	scoreRepo       repositories.ScoreRepository
	cache           StandingsInvalidator
	hub             EventBroadcaster
	logger          *slog.Logger
}

func NewGameService(
	txRunner repositories.TxRunner,
	gameRepo repositories.GameRepository,
	teamRepo repositories.TeamRepository,
	participantRepo repositories.ParticipantRepository,
	assignmentRepo repositories.AssignmentRepository,
	scoreRepo repositories.ScoreRepository,
	cache StandingsInvalidator,
	hub EventBroadcaster,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		txRunner:        txRunner,
		gameRepo:        gameRepo,
		teamRepo:        teamRepo,
		participantRepo: participantRepo,
		assignmentRepo:  assignmentRepo,
		scoreRepo:       scoreRepo,
		cache:           cache,
		hub:             hub,
		logger:          logger,
	}
}

// CreateGame заводит игру сетки (внешняя настройка турнира).
func (s *GameService) CreateGame(ctx context.Context, input CreateGameInput) (*models.Game, error) {
	if !input.Round.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRound, input.Round)
	}
	if input.TeamAID == input.TeamBID {
		return nil, ErrGameTeamsIdentical
	}

	game := &models.Game{
		Round:   input.Round,
		TeamAID: input.TeamAID,
		TeamBID: input.TeamBID,
	}
	if err := s.gameRepo.Create(ctx, game); err != nil {
		if errors.Is(err, repositories.ErrGameTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return game, nil
}

func (s *GameService) ListGames(ctx context.Context, round *models.Round) ([]*models.Game, error) {
	if round != nil && !round.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRound, *round)
	}
	games, err := s.gameRepo.List(ctx, round)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// EnterResult записывает (или перезаписывает) результат игры и запускает
// полный пересчёт. Повторный ввод по той же игре идемпотентен: старый
// результат замещается, а очки и флаги выбывания выводятся заново из
// полного множества завершённых игр, поэтому всегда сходятся к одному
// состоянию.
func (s *GameService) EnterResult(ctx context.Context, gameID int, input ResultInput) error {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return ErrGameNotFound
		}
		return fmt.Errorf("failed to load game %d: %w", gameID, err)
	}

	if input.WinnerID != game.TeamAID && input.WinnerID != game.TeamBID {
		return ErrInvalidWinner
	}

	winnerID := input.WinnerID
	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.gameRepo.SaveResult(ctx, exec, gameID, &winnerID, input.ScoreA, input.ScoreB)
	})
	if err != nil {
		return fmt.Errorf("failed to save result for game %d: %w", gameID, err)
	}

	if err := s.RecomputeScores(ctx); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(pool.EventScoresRecomputed, map[string]interface{}{
			"game_id": gameID,
			"period":  pool.PeriodOf(game.Round),
		})
	}
	return nil
}

// RecomputeScores полностью переигрывает подсчёт по завершённым играм:
// атомарно перезаписывает таблицу scores и выводит флаги выбывания команд
// заново, не доверяя сохранённым значениям.
func (s *GameService) RecomputeScores(ctx context.Context) error {
	var (
		participants []*models.Participant
		assignments  []*models.Assignment
		teams        []*models.Team
		games        []*models.Game
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		participants, err = s.participantRepo.List(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		assignments, err = s.assignmentRepo.List(gCtx, true)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.List(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		games, err = s.gameRepo.ListCompleted(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load scoring inputs: %w", err)
	}

	s.logInvalidResults(games)

	scores := pool.Recompute(deref(participants), deref(assignments), deref(teams), deref(games))
	if err := s.scoreRepo.BatchUpsert(ctx, scores); err != nil {
		return fmt.Errorf("failed to store recomputed scores: %w", err)
	}

	eliminated := pool.EliminatedTeams(deref(games))
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, team := range teams {
			if team.Eliminated == eliminated[team.ID] {
				continue
			}
			if err := s.teamRepo.SetEliminated(ctx, exec, team.ID, eliminated[team.ID]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update elimination flags: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil && s.logger != nil {
			s.logger.Warn("failed to invalidate standings cache", slog.Any("error", err))
		}
	}
	return nil
}

// logInvalidResults: движок пропускает битые результаты молча, журналирует
// их вызывающая сторона.
func (s *GameService) logInvalidResults(games []*models.Game) {
	if s.logger == nil {
		return
	}
	for _, game := range games {
		if !game.Completed || game.WinnerID == nil {
			continue
		}
		if *game.WinnerID != game.TeamAID && *game.WinnerID != game.TeamBID {
			s.logger.Warn("completed game has a winner from neither side, skipping in scoring",
				slog.Int("game_id", game.ID),
				slog.Int("winner_id", *game.WinnerID),
			)
		}
	}
}

func deref[T any](items []*T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = *item
	}
	return out
}
