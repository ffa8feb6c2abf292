package apiclient

import (
	"net/url"
)

// Node represents a node of the in-memory tree.
type Node struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	MTime    int64  `json:"mtime"`
	Size     int64  `json:"size,omitempty"`
	Hash     string `json:"hash,omitempty"`
	Magic    string `json:"magic,omitempty"`
	Parent   string `json:"parent,omitempty"`
	Children int    `json:"children,omitempty"`
	Drive    string `json:"drive,omitempty"`
}

// NodePath is the response of the node path endpoint.
type NodePath struct {
	Path string `json:"path"`
}

// NodePermissions is the evaluated permission matrix for one identity on
// one node.
type NodePermissions struct {
	User  string `json:"user"`
	Read  bool   `json:"read"`
	Write bool   `json:"write"`
	Share bool   `json:"share"`
	Owner bool   `json:"owner"`
}

// ProbeResult summarizes a subtree probe.
type ProbeResult struct {
	Nodes  int `json:"nodes"`
	Queued int `json:"queued"`
}

// GetNode returns a node by identifier.
func (c *Client) GetNode(id string) (*Node, error) {
	return getResource[Node](c, resourcePath("/api/v1/nodes/%s", url.PathEscape(id)))
}

// GetNodePath returns the node's absolute path on the volume.
func (c *Client) GetNodePath(id string) (string, error) {
	p, err := getResource[NodePath](c, resourcePath("/api/v1/nodes/%s/path", url.PathEscape(id)))
	if err != nil {
		return "", err
	}
	return p.Path, nil
}

// ListNodeChildren returns the direct children of a directory node.
func (c *Client) ListNodeChildren(id string) ([]Node, error) {
	return listResources[Node](c, resourcePath("/api/v1/nodes/%s/children", url.PathEscape(id)))
}

// GetNodePermissions evaluates the permission matrix for the given user on
// the given node.
func (c *Client) GetNodePermissions(id, user string) (*NodePermissions, error) {
	path := resourcePath("/api/v1/nodes/%s/permissions?user=%s", url.PathEscape(id), url.QueryEscape(user))
	return getResource[NodePermissions](c, path)
}

// ProbeNode re-scans the node's subtree from disk and queues digests for any
// files still missing one.
func (c *Client) ProbeNode(id string) (*ProbeResult, error) {
	return createResource[ProbeResult](c, resourcePath("/api/v1/nodes/%s/probe", url.PathEscape(id)), nil)
}
