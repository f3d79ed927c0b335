// Package editor turns user gestures on the sequence list and the workflow
// canvas into model commands and keeps each editing session in sync with the
// remote store.
package editor

import "errors"

var (
	ErrNotOpen                = errors.New("editor is not open")
	ErrAlreadyOpen            = errors.New("editor is already open")
	ErrNotEditable            = errors.New("node type has no editable parameters")
	ErrApprovalNotSupported   = errors.New("only manual email steps can be approved")
	ErrStaleForm              = errors.New("form does not match the current node")
	ErrMissingRemote          = errors.New("remote store is required")
	ErrMissingCampaign        = errors.New("campaign id is required")
	ErrMissingParameterSchema = errors.New("parameter registry is required")
)
