package services

import (
	"net/url"
	"strconv"

	"borgview/internal/domain"
)

// ListRequest carries every parameter of one file list retrieval.
type ListRequest struct {
	ArchiveID        string
	DiffArchiveID    string
	Force            bool
	SearchString     string
	Mode             domain.ListMode
	CurrentDirectory string
	MaxResultSize    string
}

// Query encodes the request the way the filelist endpoint expects it.
func (req ListRequest) Query() url.Values {
	values := url.Values{}
	values.Set("archiveId", req.ArchiveID)
	values.Set("diffArchiveId", req.DiffArchiveID)
	values.Set("force", strconv.FormatBool(req.Force))
	values.Set("searchString", req.SearchString)
	values.Set("mode", string(req.Mode))
	values.Set("currentDirectory", req.CurrentDirectory)
	values.Set("maxResultSize", req.MaxResultSize)
	return values
}
