package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/Dosada05/bracket-pool/models"
	"github.com/Dosada05/bracket-pool/pool"
	"github.com/Dosada05/bracket-pool/repositories"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type RegisterInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegistrationResult carries everything the caller needs to notify the
// participant: the created record, the drawn bundle and the degradation flag.
type RegistrationResult struct {
	Participant *models.Participant
	Teams       []models.Team
	Degraded    bool
}

// RegistrationService регистрирует участника: вызывает аллокатор и атомарно
// сохраняет участника, его связку и нулевые строки очков.
type RegistrationService struct {
	txRunner        repositories.TxRunner
	participantRepo repositories.ParticipantRepository
	teamRepo        repositories.TeamRepository
	assignmentRepo  repositories.AssignmentRepository
	scoreRepo       repositories.ScoreRepository
	allocator       *pool.Allocator

	// mu serializes allocate+persist. Две параллельные регистрации иначе
	// могли бы проверить индекс связок до того, как первая запишет свою,
	// и получить одинаковую связку.
	mu sync.Mutex
}

func NewRegistrationService(
	txRunner repositories.TxRunner,
	participantRepo repositories.ParticipantRepository,
	teamRepo repositories.TeamRepository,
	assignmentRepo repositories.AssignmentRepository,
	scoreRepo repositories.ScoreRepository,
	allocator *pool.Allocator,
) *RegistrationService {
	return &RegistrationService{
		txRunner:        txRunner,
		participantRepo: participantRepo,
		teamRepo:        teamRepo,
		assignmentRepo:  assignmentRepo,
		scoreRepo:       scoreRepo,
		allocator:       allocator,
	}
}

func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*RegistrationResult, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return nil, ErrParticipantNameRequired
	}
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rosterPtrs, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	roster := make([]models.Team, len(rosterPtrs))
	for i, team := range rosterPtrs {
		roster[i] = *team
	}

	existing, err := s.issuedBundles(ctx)
	if err != nil {
		return nil, err
	}

	allocation, err := s.allocator.Allocate(roster, existing)
	if err != nil {
		return nil, err
	}

	teamIDs := make([]int, len(allocation.Teams))
	for i, team := range allocation.Teams {
		teamIDs[i] = team.ID
	}

	participant := &models.Participant{Name: name, Email: email}
	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.participantRepo.Create(ctx, exec, participant); err != nil {
			return err
		}
		if err := s.assignmentRepo.SaveBundle(ctx, exec, participant.ID, teamIDs, true); err != nil {
			return err
		}
		return s.scoreRepo.InitForParticipant(ctx, exec, participant.ID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantEmailConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to persist registration: %w", err)
	}

	participant.Teams = allocation.Teams
	return &RegistrationResult{
		Participant: participant,
		Teams:       allocation.Teams,
		Degraded:    allocation.Degraded,
	}, nil
}

// issuedBundles строит индекс уже выданных связок по первичным назначениям.
func (s *RegistrationService) issuedBundles(ctx context.Context) (map[pool.BundleKey]struct{}, error) {
	assignments, err := s.assignmentRepo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load issued assignments: %w", err)
	}

	byParticipant := make(map[int][]int)
	for _, a := range assignments {
		byParticipant[a.ParticipantID] = append(byParticipant[a.ParticipantID], a.TeamID)
	}

	index := make(map[pool.BundleKey]struct{}, len(byParticipant))
	for _, teamIDs := range byParticipant {
		index[pool.KeyForIDs(teamIDs)] = struct{}{}
	}
	return index, nil
}

func (s *RegistrationService) GetParticipant(ctx context.Context, id int) (*models.Participant, error) {
	participant, err := s.participantRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to load participant %d: %w", id, err)
	}

	assignments, err := s.assignmentRepo.ListByParticipant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments for participant %d: %w", id, err)
	}
	for _, a := range assignments {
		if !a.Primary {
			continue
		}
		team, err := s.teamRepo.GetByID(ctx, a.TeamID)
		if err != nil {
			return nil, fmt.Errorf("failed to load team %d: %w", a.TeamID, err)
		}
		participant.Teams = append(participant.Teams, *team)
	}

	scores, err := s.scoreRepo.ListByParticipant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores for participant %d: %w", id, err)
	}
	participant.Scores = scores

	return participant, nil
}

func (s *RegistrationService) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	participants, err := s.participantRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}
