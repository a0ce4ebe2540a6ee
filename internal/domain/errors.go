package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no quiz session exists for the user.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionFinished is returned when acting on a completed session.
	ErrSessionFinished = errors.New("quiz session already finished")
	// ErrNoActiveQuestion is returned when an answer arrives outside a question window.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrAlreadyAnswered is returned when a question has been resolved; the first answer wins.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrOptionNotFound indicates a submitted option ID is not part of the question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrLibraryUnavailable indicates the saved-track fetch failed.
	ErrLibraryUnavailable = errors.New("library unavailable")
	// ErrInsufficientLibrary indicates too few qualifying tracks to run a quiz.
	ErrInsufficientLibrary = errors.New("not enough playable tracks")
	// ErrInvalidTrack indicates track data that fails validation.
	ErrInvalidTrack = errors.New("invalid track")
	// ErrNotAuthenticated indicates no stored credentials for the user.
	ErrNotAuthenticated = errors.New("user not authenticated")
)
