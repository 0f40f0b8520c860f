package pool

import "github.com/Dosada05/bracket-pool/models"

// PeriodCount: пул считается по трём периодам, каждый покрывает два раунда сетки.
const PeriodCount = 3

// basePoints is the fixed per-round value of a correctly held winner.
var basePoints = map[models.Round]int{
	models.RoundOf64:    1,
	models.RoundOf32:    2,
	models.RoundSweet16: 4,
	models.RoundElite8:  7,
	models.RoundFinal4:  12,
	models.RoundChamp:   20,
}

// roundPeriods maps every round label to its scoring period.
var roundPeriods = map[models.Round]int{
	models.RoundOf64:    1,
	models.RoundOf32:    1,
	models.RoundSweet16: 2,
	models.RoundElite8:  2,
	models.RoundFinal4:  3,
	models.RoundChamp:   3,
}

// BasePoints returns the base value of a win in the given round,
// or 0 for an unknown round label.
func BasePoints(round models.Round) int {
	return basePoints[round]
}

// PeriodOf returns the scoring period (1..3) of a round, or 0 for an
// unknown round label.
func PeriodOf(round models.Round) int {
	return roundPeriods[round]
}
