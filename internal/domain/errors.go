package domain

import "errors"

var (
	// ErrNotFound signals a missing posting.
	ErrNotFound = errors.New("posting not found")
	// ErrInvalidCandidate signals a malformed ingestion candidate.
	ErrInvalidCandidate = errors.New("invalid candidate")
	// ErrDuplicateIdentity signals an identity key collision at write time.
	ErrDuplicateIdentity = errors.New("duplicate identity key")
	// ErrUnknownSource signals an ingestion run for an unsupported source.
	ErrUnknownSource = errors.New("unknown source")
)
