package interfaces

import (
	"context"
	"errors"
)

// ErrNoAttachment is returned by FetchAttachmentMetadata when an item has
// no usable document attachment.
var ErrNoAttachment = errors.New("item has no document attachment")

// AttachmentRef identifies one downloadable attachment of a library item
type AttachmentRef struct {
	Key         string `json:"key"`
	ItemID      string `json:"item_id"`
	Title       string `json:"title,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// LibraryService is the remote research-library collaborator: it resolves
// and downloads item attachments and writes summary notes back.
type LibraryService interface {
	// FetchAttachmentMetadata resolves the item's primary document
	// attachment. Returns ErrNoAttachment when none exists.
	FetchAttachmentMetadata(ctx context.Context, itemID string) (*AttachmentRef, error)

	// DownloadAttachment retrieves the attachment bytes
	DownloadAttachment(ctx context.Context, ref *AttachmentRef) ([]byte, error)

	// PublishNote uploads content as a child note of the item and returns
	// the remote note key. Tag is optional.
	PublishNote(ctx context.Context, itemID, content, tag string) (string, error)
}
