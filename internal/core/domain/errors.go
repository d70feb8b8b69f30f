package domain

import "errors"

var (
	ErrRelayNotFound    = errors.New("relay job not found")
	ErrSourceNotFound   = errors.New("source not found")
	ErrTemplateNotFound = errors.New("layout template not found")
	ErrTemplateInUse    = errors.New("layout template is referenced by a relay job")
	ErrNoMappings       = errors.New("relay job has no slot mappings")
	ErrEmptyLayout      = errors.New("no slots mapped in layout")
	ErrSlotOutOfRange   = errors.New("slot index outside layout grid")
	ErrNoFreePort       = errors.New("no free port in configured range")
	ErrAlreadyRunning   = errors.New("relay job is already running")
	ErrNotRunning       = errors.New("relay job is not running")
)
