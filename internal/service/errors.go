package service

import "errors"

var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrAccountNotFound   = errors.New("social account not found")
	ErrStore             = errors.New("campaign store failure")
	ErrRunInProgress     = errors.New("campaign run already in progress")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidCampaign   = errors.New("invalid campaign")
	ErrInvalidAccount    = errors.New("invalid account")
)
