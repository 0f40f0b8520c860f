package services

import "errors"

// Общие ошибки сервисного слоя, используются и в маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed        = errors.New("validation failed")
	ErrParticipantNameRequired = errors.New("participant name is required")
	ErrInvalidEmail            = errors.New("a valid email address is required")
	ErrInvalidRound            = errors.New("unknown round label")
	ErrInvalidWinner           = errors.New("winner must be one of the game's two teams")
	ErrGameTeamsIdentical      = errors.New("a game requires two distinct teams")
	ErrRosterImportInvalid     = errors.New("roster import rejected")

	// Ошибки конфликтов
	ErrEmailTaken = errors.New("email address is already registered")

	// Ошибки аутентификации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")

	// Ошибки, специфичные для сущностей
	ErrTeamNotFound        = errors.New("team not found")
	ErrGameNotFound        = errors.New("game not found")
	ErrParticipantNotFound = errors.New("participant not found")
)
