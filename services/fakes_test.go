package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dosada05/bracket-pool/cache"
	"github.com/Dosada05/bracket-pool/models"
	"github.com/Dosada05/bracket-pool/repositories"
)

// In-memory заглушки репозиториев для сервисных тестов. Транзакций нет:
// fakeTxRunner просто вызывает коллбэк с nil-экзекьютором, репозитории это
// позволяют.

type fakeTxRunner struct{}

func (fakeTxRunner) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeTeamRepo struct {
	mu     sync.Mutex
	nextID int
	teams  []*models.Team
}

func newFakeTeamRepo(teams ...*models.Team) *fakeTeamRepo {
	repo := &fakeTeamRepo{nextID: 1}
	for _, team := range teams {
		copied := *team
		if copied.ID == 0 {
			copied.ID = repo.nextID
		}
		if copied.ID >= repo.nextID {
			repo.nextID = copied.ID + 1
		}
		repo.teams = append(repo.teams, &copied)
	}
	return repo
}

func (r *fakeTeamRepo) Create(_ context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team.ID = r.nextID
	r.nextID++
	copied := *team
	r.teams = append(r.teams, &copied)
	return nil
}

func (r *fakeTeamRepo) BatchCreate(_ context.Context, _ repositories.SQLExecutor, teams []*models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Вставка атомарна, как и у настоящего репозитория: сначала все
	// проверки, потом все строки.
	for _, team := range teams {
		for _, existing := range r.teams {
			if existing.Region == team.Region && existing.Seed == team.Seed {
				return repositories.ErrTeamSeedConflict
			}
			if existing.Name == team.Name {
				return repositories.ErrTeamNameConflict
			}
		}
	}
	for _, team := range teams {
		team.ID = r.nextID
		r.nextID++
		copied := *team
		r.teams = append(r.teams, &copied)
	}
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, team := range r.teams {
		if team.ID == id {
			copied := *team
			return &copied, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) List(_ context.Context) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Team, len(r.teams))
	for i, team := range r.teams {
		copied := *team
		out[i] = &copied
	}
	return out, nil
}

func (r *fakeTeamRepo) SetEliminated(_ context.Context, _ repositories.SQLExecutor, id int, eliminated bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, team := range r.teams {
		if team.ID == id {
			team.Eliminated = eliminated
			return nil
		}
	}
	return repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) UpdateLogoKey(_ context.Context, id int, logoKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, team := range r.teams {
		if team.ID == id {
			team.LogoKey = logoKey
			return nil
		}
	}
	return repositories.ErrTeamNotFound
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	nextID       int
	participants []*models.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{nextID: 1}
}

func (r *fakeParticipantRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.participants {
		if existing.Email == p.Email {
			return repositories.ErrParticipantEmailConflict
		}
	}
	p.ID = r.nextID
	r.nextID++
	copied := *p
	r.participants = append(r.participants, &copied)
	return nil
}

func (r *fakeParticipantRepo) GetByID(_ context.Context, id int) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) GetByEmail(_ context.Context, email string) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) List(_ context.Context) ([]*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Participant, len(r.participants))
	for i, p := range r.participants {
		copied := *p
		out[i] = &copied
	}
	return out, nil
}

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	nextID      int
	assignments []models.Assignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{nextID: 1}
}

func (r *fakeAssignmentRepo) SaveBundle(_ context.Context, _ repositories.SQLExecutor, participantID int, teamIDs []int, primary bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, teamID := range teamIDs {
		r.assignments = append(r.assignments, models.Assignment{
			ID:            r.nextID,
			ParticipantID: participantID,
			TeamID:        teamID,
			Primary:       primary,
		})
		r.nextID++
	}
	return nil
}

func (r *fakeAssignmentRepo) List(_ context.Context, primaryOnly bool) ([]*models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Assignment
	for i := range r.assignments {
		if primaryOnly && !r.assignments[i].Primary {
			continue
		}
		copied := r.assignments[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeAssignmentRepo) ListByParticipant(_ context.Context, participantID int) ([]*models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Assignment
	for i := range r.assignments {
		if r.assignments[i].ParticipantID != participantID {
			continue
		}
		copied := r.assignments[i]
		out = append(out, &copied)
	}
	return out, nil
}

type fakeGameRepo struct {
	mu     sync.Mutex
	nextID int
	games  []*models.Game
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{nextID: 1}
}

func (r *fakeGameRepo) Create(_ context.Context, game *models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	game.ID = r.nextID
	r.nextID++
	copied := *game
	r.games = append(r.games, &copied)
	return nil
}

func (r *fakeGameRepo) GetByID(_ context.Context, id int) (*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, game := range r.games {
		if game.ID == id {
			copied := *game
			return &copied, nil
		}
	}
	return nil, repositories.ErrGameNotFound
}

func (r *fakeGameRepo) List(_ context.Context, round *models.Round) ([]*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Game
	for _, game := range r.games {
		if round != nil && game.Round != *round {
			continue
		}
		copied := *game
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeGameRepo) ListCompleted(_ context.Context) ([]*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Game
	for _, game := range r.games {
		if !game.Completed {
			continue
		}
		copied := *game
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeGameRepo) SaveResult(_ context.Context, _ repositories.SQLExecutor, id int, winnerID *int, scoreA, scoreB *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, game := range r.games {
		if game.ID == id {
			game.WinnerID = winnerID
			game.ScoreA = scoreA
			game.ScoreB = scoreB
			game.Completed = true
			return nil
		}
	}
	return repositories.ErrGameNotFound
}

type fakeScoreRepo struct {
	mu   sync.Mutex
	rows map[string]models.Score
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{rows: make(map[string]models.Score)}
}

func scoreKey(participantID, period int) string {
	return fmt.Sprintf("%d/%d", participantID, period)
}

func (r *fakeScoreRepo) InitForParticipant(_ context.Context, _ repositories.SQLExecutor, participantID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for period := 1; period <= 3; period++ {
		r.rows[scoreKey(participantID, period)] = models.Score{
			ParticipantID: participantID,
			Period:        period,
		}
	}
	return nil
}

func (r *fakeScoreRepo) BatchUpsert(_ context.Context, scores []models.Score) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, score := range scores {
		r.rows[scoreKey(score.ParticipantID, score.Period)] = score
	}
	return nil
}

func (r *fakeScoreRepo) ListByParticipant(_ context.Context, participantID int) ([]models.Score, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Score
	for period := 1; period <= 3; period++ {
		if score, ok := r.rows[scoreKey(participantID, period)]; ok {
			out = append(out, score)
		}
	}
	return out, nil
}

func (r *fakeScoreRepo) ListAll(_ context.Context) ([]models.Score, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Score, 0, len(r.rows))
	for _, score := range r.rows {
		out = append(out, score)
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users []*models.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = len(r.users) + 1
	copied := *user
	r.users = append(r.users, &copied)
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeStandingsCache struct {
	mu          sync.Mutex
	entries     []models.LeaderboardEntry
	populated   bool
	invalidated int
}

func (c *fakeStandingsCache) Get(_ context.Context) ([]models.LeaderboardEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.populated {
		return nil, cache.ErrCacheMiss
	}
	return c.entries, nil
}

func (c *fakeStandingsCache) Set(_ context.Context, entries []models.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = entries
	c.populated = true
	return nil
}

func (c *fakeStandingsCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.populated = false
	c.invalidated++
	return nil
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *fakeBroadcaster) BroadcastEvent(eventType string, _ interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

type fakeDigestSender struct {
	mu         sync.Mutex
	recipients []string
}

func (s *fakeDigestSender) SendStandingsDigest(email string, _ []models.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipients = append(s.recipients, email)
	return nil
}
