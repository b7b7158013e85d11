package quiz

import "errors"

var (
	ErrSessionFinished    = errors.New("session is finished")
	ErrSessionNotFinished = errors.New("session is not finished")
	ErrQuestionLocked     = errors.New("question is locked")
	ErrEmptyAnswer        = errors.New("please provide an answer first")
	ErrIndexOutOfRange    = errors.New("question index out of range")
	ErrNoNextQuestion     = errors.New("already at the last question")
	ErrNoPreviousQuestion = errors.New("already at the first question")
	ErrSubmitNotAllowed   = errors.New("submit requires the last question to be checked")
)
