package domain

import "errors"

var (
	ErrProfileNotFound = errors.New("user profile not found")
	ErrElementNotFound = errors.New("page element not found")
	ErrNoPendingTask   = errors.New("no pending task")
	ErrPostNotReposted = errors.New("repost was not confirmed")
	ErrEmptyPermalink  = errors.New("post has no permalink")
)
