package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marmos91/nestfs/pkg/hasher"
	"github.com/marmos91/nestfs/pkg/tree"
)

// NodeHandler handles tree inspection API endpoints.
//
// The hash pool is optional; when nil, probes reconcile the tree but leave
// missing digests alone.
type NodeHandler struct {
	tree   *tree.Tree
	hasher *hasher.Pool
}

// NewNodeHandler creates a new NodeHandler.
func NewNodeHandler(t *tree.Tree, pool *hasher.Pool) *NodeHandler {
	return &NodeHandler{tree: t, hasher: pool}
}

// NodeResponse is the response body for node endpoints.
type NodeResponse struct {
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

// PermissionsResponse is the response body for the node permissions endpoint.
type PermissionsResponse struct {
	User  string `json:"user"`
	Read  bool   `json:"read"`
	Write bool   `json:"write"`
	Share bool   `json:"share"`
	Owner bool   `json:"owner"`
}

// ProbeResponse is the response body for the probe endpoint.
type ProbeResponse struct {
	Nodes  int `json:"nodes"`
	Queued int `json:"queued"`
}

// Get handles GET /api/v1/nodes/{id}.
func (h *NodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseNodeID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	n := h.tree.Lookup(id)
	if n == nil {
		NotFound(w, "Node not found")
		return
	}

	WriteJSONOK(w, nodeToResponse(n))
}

// Path handles GET /api/v1/nodes/{id}/path.
// Returns the node's absolute path on the volume.
func (h *NodeHandler) Path(w http.ResponseWriter, r *http.Request) {
	id, ok := parseNodeID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	path, err := h.tree.AbsPath(id)
	if err != nil {
		NotFound(w, "Node not found")
		return
	}

	WriteJSONOK(w, map[string]string{"path": path})
}

// Children handles GET /api/v1/nodes/{id}/children.
func (h *NodeHandler) Children(w http.ResponseWriter, r *http.Request) {
	id, ok := parseNodeID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	n := h.tree.Lookup(id)
	if n == nil {
		NotFound(w, "Node not found")
		return
	}

	children := n.Children()
	response := make([]NodeResponse, len(children))
	for i, c := range children {
		response[i] = nodeToResponse(c)
	}

	WriteJSONOK(w, response)
}

// Permissions handles GET /api/v1/nodes/{id}/permissions?user={user}.
// Evaluates the permission matrix for one identity against one node.
func (h *NodeHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseNodeID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	user := r.URL.Query().Get("user")
	if user == "" {
		BadRequest(w, "Query parameter 'user' is required")
		return
	}

	read, err := h.tree.CanReadID(user, id)
	if err != nil {
		NotFound(w, "Node not found")
		return
	}
	write, err := h.tree.CanWriteID(user, id)
	if err != nil {
		NotFound(w, "Node not found")
		return
	}
	share, err := h.tree.CanShareID(user, id)
	if err != nil {
		NotFound(w, "Node not found")
		return
	}
	owner, err := h.tree.IsOwnerID(user, id)
	if err != nil {
		NotFound(w, "Node not found")
		return
	}

	WriteJSONOK(w, PermissionsResponse{
		User:  user,
		Read:  read,
		Write: write,
		Share: share,
		Owner: owner,
	})
}

// Probe handles POST /api/v1/nodes/{id}/probe.
// Re-scans the node's subtree from disk and reconciles the tree, then queues
// digests for any files still missing one.
func (h *NodeHandler) Probe(w http.ResponseWriter, r *http.Request) {
	id, ok := parseNodeID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Probe itself skips unknown identifiers silently; the API reports them.
	if h.tree.Lookup(id) == nil {
		NotFound(w, "Node not found")
		return
	}

	if err := h.tree.Probe(r.Context(), id); err != nil {
		InternalServerError(w, "Probe failed: "+err.Error())
		return
	}

	queued := 0
	if h.hasher != nil {
		n, err := h.hasher.EnqueueMissing(id)
		if err == nil {
			queued = n
		}
	}

	WriteJSONOK(w, ProbeResponse{
		Nodes:  h.tree.NodeCount(),
		Queued: queued,
	})
}

// nodeToResponse converts a tree.Node to NodeResponse.
func nodeToResponse(n *tree.Node) NodeResponse {
	resp := NodeResponse{
		ID:    n.ID().String(),
		Kind:  n.Kind().String(),
		Name:  n.Name(),
		MTime: n.MTime(),
	}
	if n.IsFile() {
		resp.Size = n.Size()
		resp.Hash = n.Hash()
		resp.Magic = n.Magic()
	} else {
		resp.Children = len(n.Children())
	}
	if p := n.Parent(); p != nil {
		resp.Parent = p.ID().String()
	}
	if d := n.Drive(); d != nil {
		resp.Drive = d.ID.String()
	}
	return resp
}

// parseNodeID parses a node identifier from a URL parameter.
func parseNodeID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		BadRequest(w, "Invalid node ID")
		return uuid.Nil, false
	}
	return id, true
}
