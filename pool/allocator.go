package pool

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/Dosada05/bracket-pool/models"
)

const (
	// maxDraws bounds the rejection-sampling loop. After that the last
	// candidate is returned as-is: регистрация важнее строгости связки.
	maxDraws = 1000

	// regionCap: не больше двух команд одного региона в связке.
	regionCap = 2
)

var ErrInsufficientRoster = errors.New("roster does not cover every seed tier")

// BundleKey is the canonical identity of a bundle: the team IDs of its
// primary assignments, sorted and joined. Two bundles with the same teams
// in any order produce the same key.
type BundleKey string

func KeyForIDs(teamIDs []int) BundleKey {
	ids := make([]int, len(teamIDs))
	copy(ids, teamIDs)
	sort.Ints(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return BundleKey(strings.Join(parts, "-"))
}

func KeyForTeams(teams []models.Team) BundleKey {
	ids := make([]int, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	return KeyForIDs(ids)
}

// Allocation is the outcome of one draw for one new participant.
type Allocation struct {
	// Teams holds exactly one team per seed tier, in tier order.
	Teams []models.Team

	// Degraded is set when the retry budget ran out and the returned
	// bundle may collide with an issued one or break the region cap.
	// Это сигнал оператору, не ошибка: регистрация всё равно проходит.
	Degraded bool
}

func (al *Allocation) Key() BundleKey {
	return KeyForTeams(al.Teams)
}

// Allocator draws constrained-random team bundles. It is pure over its
// inputs: the randomness source is injected, so a fixed-seed rand.Rand
// makes every draw reproducible.
type Allocator struct {
	rng *rand.Rand
}

func NewAllocator(rng *rand.Rand) *Allocator {
	return &Allocator{rng: rng}
}

// Allocate draws one team per tier from the roster until the candidate
// bundle both respects the region cap and is absent from existing.
// Draws are bounded by maxDraws; on exhaustion the last candidate is
// returned with Degraded set instead of failing the registration.
func (a *Allocator) Allocate(roster []models.Team, existing map[BundleKey]struct{}) (*Allocation, error) {
	var tiers [TierCount][]models.Team
	for _, team := range roster {
		tier := TierOf(team.Seed)
		if tier < 0 {
			continue
		}
		tiers[tier] = append(tiers[tier], team)
	}

	for i, tier := range tiers {
		if len(tier) == 0 {
			return nil, fmt.Errorf("%w: no teams seeded %d-%d", ErrInsufficientRoster, tierBounds[i][0], tierBounds[i][1])
		}
	}

	var candidate []models.Team
	for draw := 0; draw < maxDraws; draw++ {
		candidate = make([]models.Team, TierCount)
		for i, tier := range tiers {
			candidate[i] = tier[a.rng.Intn(len(tier))]
		}

		if exceedsRegionCap(candidate) {
			continue
		}
		if _, taken := existing[KeyForTeams(candidate)]; taken {
			continue
		}
		return &Allocation{Teams: candidate}, nil
	}

	return &Allocation{Teams: candidate, Degraded: true}, nil
}

func exceedsRegionCap(teams []models.Team) bool {
	counts := make(map[models.Region]int, TierCount)
	for _, team := range teams {
		counts[team.Region]++
		if counts[team.Region] > regionCap {
			return true
		}
	}
	return false
}
