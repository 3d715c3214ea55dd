package vfs

import (
	"slices"
	"time"
)

// NodeType tells files and directories apart.
type NodeType string

const (
	TypeFile      NodeType = "file"
	TypeDirectory NodeType = "directory"
)

const (
	filePermissions = "-rw-r--r--"
	dirPermissions  = "drwxr-xr-x"
	encodingUTF8    = "utf-8"
)

// FileNode is the metadata of one entry. Content lives in a separate
// FileContent blob referenced by ContentID so listings never load it.
type FileNode struct {
	Name        string    `json:"name"`
	Type        NodeType  `json:"type"`
	Path        string    `json:"path"`
	Parent      string    `json:"parent,omitempty"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
	ModifiedAt  time.Time `json:"modifiedAt"`
	Permissions string    `json:"permissions"`
	Extension   string    `json:"extension,omitempty"`
	Children    []string  `json:"children,omitempty"`
	ContentID   string    `json:"contentId,omitempty"`
}

// IsDir reports whether the node is a directory.
func (n *FileNode) IsDir() bool {
	return n.Type == TypeDirectory
}

// Clone returns a deep copy that callers may modify freely.
func (n *FileNode) Clone() *FileNode {
	c := *n
	c.Children = slices.Clone(n.Children)
	return &c
}

// FileContent is the payload of a file.
type FileContent struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// State is the whole persisted disk.
type State struct {
	Nodes    map[string]*FileNode `json:"nodes"`
	Cwd      string               `json:"currentWorkingDirectory"`
	RootPath string               `json:"rootPath"`
}

// SortBy selects the secondary listing order; directories always come first.
type SortBy string

const (
	SortByName      SortBy = "name"
	SortBySize      SortBy = "size"
	SortByModified  SortBy = "modified"
	SortByExtension SortBy = "extension"
)

// ListOptions controls ListDirectory.
type ListOptions struct {
	ShowHidden bool
	SortBy     SortBy
	Reverse    bool
}

// CopyOptions controls Copy.
type CopyOptions struct {
	Recursive          bool
	Force              bool
	PreserveTimestamps bool
}

// Stats aggregates usage of the whole disk.
type Stats struct {
	Files            int   `json:"files"`
	Directories      int   `json:"directories"`
	StorageUsed      int64 `json:"storageUsed"`
	StorageQuota     int64 `json:"storageQuota"`
	StorageAvailable int64 `json:"storageAvailable"`
}

// TreeEntry is one node of a Tree listing.
type TreeEntry struct {
	Node     *FileNode    `json:"node"`
	Children []*TreeEntry `json:"children,omitempty"`
}
