package services

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/Dosada05/bracket-pool/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeamServiceFixture(teams ...*models.Team) (*TeamService, *fakeTeamRepo) {
	repo := newFakeTeamRepo(teams...)
	service := NewTeamService(fakeTxRunner{}, repo, nil, slog.Default())
	return service, repo
}

func TestImportRosterCSV(t *testing.T) {
	service, repo := newTeamServiceFixture()

	csv := strings.Join([]string{
		"name,seed,region",
		"Duke,1,east",
		"Kentucky,2,East",
		"Gonzaga,1,west",
	}, "\n")

	teams, err := service.ImportRosterCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, teams, 3)

	stored, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 3)

	// Регион нормализуется к нижнему регистру.
	assert.Equal(t, models.RegionEast, teams[1].Region)
	assert.NotZero(t, teams[0].ID)
}

func TestImportRosterCSVWithoutHeader(t *testing.T) {
	service, _ := newTeamServiceFixture()

	teams, err := service.ImportRosterCSV(context.Background(), strings.NewReader("Duke,1,east\n"))
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "Duke", teams[0].Name)
	assert.Equal(t, 1, teams[0].Seed)
}

func TestImportRosterCSVRejectsBadRows(t *testing.T) {
	service, _ := newTeamServiceFixture()

	cases := map[string]string{
		"seed out of range": "Duke,17,east\n",
		"seed not a number": "name,seed,region\nDuke,abc,east\n",
		"unknown region":    "Duke,1,north\n",
		"empty name":        ",1,east\n",
		"duplicate slot":    "Duke,1,east\nKentucky,1,east\n",
		"empty file":        "",
		"header only":       "name,seed,region\n",
	}
	for label, csv := range cases {
		_, err := service.ImportRosterCSV(context.Background(), strings.NewReader(csv))
		assert.ErrorIs(t, err, ErrRosterImportInvalid, label)
	}
}

func TestImportRosterCSVAtomicOnConflict(t *testing.T) {
	service, repo := newTeamServiceFixture(&models.Team{Name: "Duke", Seed: 1, Region: models.RegionEast})

	// Вторая строка конфликтует со слотом east/1, импорт не проходит целиком.
	csv := "Gonzaga,1,west\nKentucky,1,east\n"
	_, err := service.ImportRosterCSV(context.Background(), strings.NewReader(csv))
	require.Error(t, err)

	stored, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestListTeamsWithoutLogoStore(t *testing.T) {
	service, _ := newTeamServiceFixture(&models.Team{Name: "Duke", Seed: 1, Region: models.RegionEast})

	teams, err := service.ListTeams(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Nil(t, teams[0].LogoURL)
}

func TestUploadLogoWithoutStore(t *testing.T) {
	service, _ := newTeamServiceFixture(&models.Team{Name: "Duke", Seed: 1, Region: models.RegionEast})

	_, err := service.UploadLogo(context.Background(), 1, "logo.png", "image/png", strings.NewReader("img"))
	assert.Error(t, err)
}
