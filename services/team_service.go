package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Dosada05/bracket-pool/models"
	"github.com/Dosada05/bracket-pool/repositories"
	"github.com/Dosada05/bracket-pool/storage"
)

var validRegions = map[models.Region]bool{
	models.RegionEast:    true,
	models.RegionWest:    true,
	models.RegionSouth:   true,
	models.RegionMidwest: true,
}

// TeamService обслуживает состав пула: импорт CSV-ростера и логотипы команд.
type TeamService struct {
	txRunner  repositories.TxRunner
	teamRepo  repositories.TeamRepository
	logoStore storage.LogoStore
	logger    *slog.Logger
}

func NewTeamService(
	txRunner repositories.TxRunner,
	teamRepo repositories.TeamRepository,
	logoStore storage.LogoStore,
	logger *slog.Logger,
) *TeamService {
	return &TeamService{
		txRunner:  txRunner,
		teamRepo:  teamRepo,
		logoStore: logoStore,
		logger:    logger,
	}
}

func (s *TeamService) ListTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	if s.logoStore != nil {
		for _, team := range teams {
			if team.LogoKey != nil {
				url := s.logoStore.PublicURL(*team.LogoKey)
				team.LogoURL = &url
			}
		}
	}
	return teams, nil
}

// ImportRosterCSV читает строки вида name,seed,region и атомарно вставляет
// весь ростер. Первая строка с нечисловым посевом считается заголовком.
func (s *TeamService) ImportRosterCSV(ctx context.Context, r io.Reader) ([]*models.Team, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	teams := make([]*models.Team, 0)
	seen := make(map[string]bool)
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed CSV: %v", ErrRosterImportInvalid, err)
		}
		line++

		name := strings.TrimSpace(record[0])
		seedField := strings.TrimSpace(record[1])
		region := models.Region(strings.ToLower(strings.TrimSpace(record[2])))

		seed, err := strconv.Atoi(seedField)
		if err != nil {
			if line == 1 {
				// Строка-заголовок.
				continue
			}
			return nil, fmt.Errorf("%w: line %d: seed %q is not a number", ErrRosterImportInvalid, line, seedField)
		}

		if name == "" {
			return nil, fmt.Errorf("%w: line %d: team name is empty", ErrRosterImportInvalid, line)
		}
		if seed < 1 || seed > 16 {
			return nil, fmt.Errorf("%w: line %d: seed %d out of range 1-16", ErrRosterImportInvalid, line, seed)
		}
		if !validRegions[region] {
			return nil, fmt.Errorf("%w: line %d: unknown region %q", ErrRosterImportInvalid, line, region)
		}
		slot := fmt.Sprintf("%s/%d", region, seed)
		if seen[slot] {
			return nil, fmt.Errorf("%w: line %d: duplicate seed %d in region %s", ErrRosterImportInvalid, line, seed, region)
		}
		seen[slot] = true

		teams = append(teams, &models.Team{Name: name, Seed: seed, Region: region})
	}

	if len(teams) == 0 {
		return nil, fmt.Errorf("%w: no team rows found", ErrRosterImportInvalid)
	}

	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.teamRepo.BatchCreate(ctx, exec, teams)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import roster: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("roster imported", slog.Int("teams", len(teams)))
	}
	return teams, nil
}

// UploadLogo сохраняет логотип команды в объектное хранилище и запоминает
// ключ. Старый объект удаляется по принципу best-effort.
func (s *TeamService) UploadLogo(ctx context.Context, teamID int, filename, contentType string, body io.Reader) (string, error) {
	if s.logoStore == nil {
		return "", errors.New("logo storage is not configured")
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return "", ErrTeamNotFound
		}
		return "", fmt.Errorf("failed to load team %d: %w", teamID, err)
	}

	key := storage.NewLogoKey(teamID, strings.ToLower(filepath.Ext(filename)))
	object, err := s.logoStore.Put(ctx, key, contentType, body)
	if err != nil {
		return "", fmt.Errorf("failed to upload logo for team %d: %w", teamID, err)
	}

	if err := s.teamRepo.UpdateLogoKey(ctx, teamID, &object.Key); err != nil {
		return "", fmt.Errorf("failed to save logo key for team %d: %w", teamID, err)
	}

	if team.LogoKey != nil && *team.LogoKey != object.Key {
		if err := s.logoStore.Remove(ctx, *team.LogoKey); err != nil && s.logger != nil {
			s.logger.Warn("failed to remove previous logo object",
				slog.String("key", *team.LogoKey),
				slog.Any("error", err),
			)
		}
	}
	return object.Location, nil
}
