// pkg/core/errors.go
package core

import "errors"

// Every extraction failure matches exactly one of these with errors.Is.
// None of them is retried; the call that produced one returns no result.
var (
	ErrConfig       = errors.New("invalid extraction criteria")
	ErrFileNotFound = errors.New("file not found")
	ErrArchive      = errors.New("archive error")
	ErrSyntax       = errors.New("syntax error")
	ErrData         = errors.New("data error")
	ErrTransform    = errors.New("coordinate transform error")
)
