package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/Dosada05/bracket-pool/models"
	"github.com/Dosada05/bracket-pool/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gameFixture struct {
	service         *GameService
	registration    *RegistrationService
	gameRepo        *fakeGameRepo
	teamRepo        *fakeTeamRepo
	participantRepo *fakeParticipantRepo
	assignmentRepo  *fakeAssignmentRepo
	scoreRepo       *fakeScoreRepo
	cache           *fakeStandingsCache
	broadcaster     *fakeBroadcaster
}

func newGameFixture(t *testing.T) *gameFixture {
	t.Helper()
	f := &gameFixture{
		gameRepo:        newFakeGameRepo(),
		teamRepo:        newFakeTeamRepo(fullRosterTeams()...),
		participantRepo: newFakeParticipantRepo(),
		assignmentRepo:  newFakeAssignmentRepo(),
		scoreRepo:       newFakeScoreRepo(),
		cache:           &fakeStandingsCache{},
		broadcaster:     &fakeBroadcaster{},
	}
	f.service = NewGameService(
		fakeTxRunner{},
		f.gameRepo,
		f.teamRepo,
		f.participantRepo,
		f.assignmentRepo,
		f.scoreRepo,
		f.cache,
		f.broadcaster,
		slog.Default(),
	)
	f.registration = NewRegistrationService(
		fakeTxRunner{},
		f.participantRepo,
		f.teamRepo,
		f.assignmentRepo,
		f.scoreRepo,
		pool.NewAllocator(rand.New(rand.NewSource(1))),
	)
	return f
}

func (f *gameFixture) register(t *testing.T, name string) *RegistrationResult {
	t.Helper()
	result, err := f.registration.Register(context.Background(), RegisterInput{
		Name:  name,
		Email: fmt.Sprintf("%s@example.com", name),
	})
	require.NoError(t, err)
	return result
}

func TestCreateGameValidation(t *testing.T) {
	f := newGameFixture(t)

	_, err := f.service.CreateGame(context.Background(), CreateGameInput{
		Round: "Quarterfinal", TeamAID: 1, TeamBID: 2,
	})
	assert.ErrorIs(t, err, ErrInvalidRound)

	_, err = f.service.CreateGame(context.Background(), CreateGameInput{
		Round: models.RoundOf64, TeamAID: 1, TeamBID: 1,
	})
	assert.ErrorIs(t, err, ErrGameTeamsIdentical)

	game, err := f.service.CreateGame(context.Background(), CreateGameInput{
		Round: models.RoundOf64, TeamAID: 1, TeamBID: 2,
	})
	require.NoError(t, err)
	assert.NotZero(t, game.ID)
	assert.False(t, game.Completed)
}

func TestEnterResultRejectsOutsideWinner(t *testing.T) {
	f := newGameFixture(t)

	game, err := f.service.CreateGame(context.Background(), CreateGameInput{
		Round: models.RoundOf64, TeamAID: 1, TeamBID: 2,
	})
	require.NoError(t, err)

	err = f.service.EnterResult(context.Background(), game.ID, ResultInput{WinnerID: 3})
	assert.ErrorIs(t, err, ErrInvalidWinner)

	err = f.service.EnterResult(context.Background(), 999, ResultInput{WinnerID: 1})
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestEnterResultScoresOnlyBundleHolders(t *testing.T) {
	f := newGameFixture(t)
	holder := f.register(t, "holder")

	// Второй участник со связкой целиком из другого региона, собранной
	// вручную: ни одна из играющих команд ему не принадлежит.
	held := holder.Teams[0]
	allTeams, err := f.teamRepo.List(context.Background())
	require.NoError(t, err)

	var opponent *models.Team
	var bystanderIDs []int
	for _, team := range allTeams {
		if team.Region == held.Region {
			if team.ID != held.ID && team.Seed == 16 {
				opponent = team
			}
			continue
		}
		if len(bystanderIDs) < pool.TierCount && pool.TierOf(team.Seed) == len(bystanderIDs) {
			bystanderIDs = append(bystanderIDs, team.ID)
		}
	}
	require.NotNil(t, opponent)
	require.Len(t, bystanderIDs, pool.TierCount)

	bystander := &models.Participant{Name: "bystander", Email: "bystander@example.com"}
	require.NoError(t, f.participantRepo.Create(context.Background(), nil, bystander))
	require.NoError(t, f.assignmentRepo.SaveBundle(context.Background(), nil, bystander.ID, bystanderIDs, true))
	require.NoError(t, f.scoreRepo.InitForParticipant(context.Background(), nil, bystander.ID))

	game, err := f.service.CreateGame(context.Background(), CreateGameInput{
		Round: models.RoundOf64, TeamAID: held.ID, TeamBID: opponent.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.EnterResult(context.Background(), game.ID, ResultInput{WinnerID: held.ID}))

	// Победа фаворита в первом раунде: одно очко в первом периоде,
	// остальные нулевые.
	scores, err := f.scoreRepo.ListByParticipant(context.Background(), holder.Participant.ID)
	require.NoError(t, err)
	require.Len(t, scores, pool.PeriodCount)
	assert.Equal(t, 1, scores[0].Points)
	assert.Equal(t, 0, scores[1].Points)
	assert.Equal(t, 0, scores[2].Points)
	assert.Equal(t, 1, scores[2].Cumulative)

	// Участник без этой команды в связке не получает ничего.
	otherScores, err := f.scoreRepo.ListByParticipant(context.Background(), bystander.ID)
	require.NoError(t, err)
	for _, score := range otherScores {
		assert.Zero(t, score.Points)
	}

	// Проигравший выбывает.
	loser, err := f.teamRepo.GetByID(context.Background(), opponent.ID)
	require.NoError(t, err)
	assert.True(t, loser.Eliminated)
	winner, err := f.teamRepo.GetByID(context.Background(), held.ID)
	require.NoError(t, err)
	assert.False(t, winner.Eliminated)

	// Кэш сброшен, событие ушло подписчикам.
	assert.Equal(t, 1, f.cache.invalidated)
	assert.Equal(t, []string{pool.EventScoresRecomputed}, f.broadcaster.events)
}

func TestEnterResultCorrectionReversesOutcome(t *testing.T) {
	f := newGameFixture(t)
	holder := f.register(t, "holder")

	holderTeams := make(map[int]bool)
	for _, team := range holder.Teams {
		holderTeams[team.ID] = true
	}

	// Соперник не из связки участника, иначе исправленный результат
	// тоже принёс бы ему очки.
	held := holder.Teams[0]
	allTeams, err := f.teamRepo.List(context.Background())
	require.NoError(t, err)
	var opponent *models.Team
	for _, team := range allTeams {
		if !holderTeams[team.ID] && team.Seed >= 10 && team.Region == held.Region {
			opponent = team
			break
		}
	}
	require.NotNil(t, opponent)

	game, err := f.service.CreateGame(context.Background(), CreateGameInput{
		Round: models.RoundOf64, TeamAID: held.ID, TeamBID: opponent.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.EnterResult(context.Background(), game.ID, ResultInput{WinnerID: held.ID}))
	// Оператор исправляет результат: выиграла другая сторона.
	require.NoError(t, f.service.EnterResult(context.Background(), game.ID, ResultInput{WinnerID: opponent.ID}))

	// Полный пересчёт не оставляет хвостов от прежнего результата.
	scores, err := f.scoreRepo.ListByParticipant(context.Background(), holder.Participant.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, scores[0].Points)

	// Флаги выбывания следуют исправленному результату.
	nowLoser, err := f.teamRepo.GetByID(context.Background(), held.ID)
	require.NoError(t, err)
	assert.True(t, nowLoser.Eliminated)
	nowWinner, err := f.teamRepo.GetByID(context.Background(), opponent.ID)
	require.NoError(t, err)
	assert.False(t, nowWinner.Eliminated)
}

func TestEnterResultReentryKeepsLaterElimination(t *testing.T) {
	f := newGameFixture(t)

	// Команда 1 выигрывает R64 у команды 2, затем проигрывает R32
	// команде 3 и выбывает.
	r64, err := f.service.CreateGame(context.Background(), CreateGameInput{
		Round: models.RoundOf64, TeamAID: 1, TeamBID: 2,
	})
	require.NoError(t, err)
	r32, err := f.service.CreateGame(context.Background(), CreateGameInput{
		Round: models.RoundOf32, TeamAID: 1, TeamBID: 3,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.EnterResult(context.Background(), r64.ID, ResultInput{WinnerID: 1}))
	require.NoError(t, f.service.EnterResult(context.Background(), r32.ID, ResultInput{WinnerID: 3}))

	out, err := f.teamRepo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, out.Eliminated)

	// Повторный ввод того же результата R64 не воскрешает команду,
	// проигравшую в следующем раунде.
	require.NoError(t, f.service.EnterResult(context.Background(), r64.ID, ResultInput{WinnerID: 1}))

	out, err = f.teamRepo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, out.Eliminated)

	r64Loser, err := f.teamRepo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, r64Loser.Eliminated)
	r32Winner, err := f.teamRepo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, r32Winner.Eliminated)
}

func TestListGamesFiltersByRound(t *testing.T) {
	f := newGameFixture(t)

	_, err := f.service.CreateGame(context.Background(), CreateGameInput{Round: models.RoundOf64, TeamAID: 1, TeamBID: 2})
	require.NoError(t, err)
	_, err = f.service.CreateGame(context.Background(), CreateGameInput{Round: models.RoundOf32, TeamAID: 3, TeamBID: 4})
	require.NoError(t, err)

	round := models.RoundOf32
	games, err := f.service.ListGames(context.Background(), &round)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, models.RoundOf32, games[0].Round)

	badRound := models.Round("Play-In")
	_, err = f.service.ListGames(context.Background(), &badRound)
	assert.ErrorIs(t, err, ErrInvalidRound)
}
