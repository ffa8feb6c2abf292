package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/drive"
	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
)

// DriveHandler handles drive management API endpoints.
type DriveHandler struct {
	drives *drive.Service
}

// NewDriveHandler creates a new DriveHandler.
func NewDriveHandler(drives *drive.Service) *DriveHandler {
	return &DriveHandler{drives: drives}
}

// CreateDriveRequest is the request body for POST /api/v1/drives.
type CreateDriveRequest struct {
	Name         string   `json:"name"`
	Access       string   `json:"access,omitempty"`
	Owner        string   `json:"owner"`
	WriteList    []string `json:"writelist,omitempty"`
	ReadList     []string `json:"readlist,omitempty"`
	ShareAllowed bool     `json:"share_allowed,omitempty"`
	Ref          string   `json:"ref,omitempty"`
}

// UpdateDriveRequest is the request body for PUT /api/v1/drives/{name}.
// Only the fields present in the body are changed.
type UpdateDriveRequest struct {
	Name         *string   `json:"name,omitempty"`
	Access       *string   `json:"access,omitempty"`
	Owner        *string   `json:"owner,omitempty"`
	WriteList    *[]string `json:"writelist,omitempty"`
	ReadList     *[]string `json:"readlist,omitempty"`
	ShareAllowed *bool     `json:"share_allowed,omitempty"`
	Ref          *string   `json:"ref,omitempty"`
}

// DriveResponse is the response body for drive endpoints.
type DriveResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Access       string   `json:"access"`
	Owner        string   `json:"owner"`
	WriteList    []string `json:"writelist,omitempty"`
	ReadList     []string `json:"readlist,omitempty"`
	ShareAllowed bool     `json:"share_allowed"`
	Ref          string   `json:"ref,omitempty"`
}

// Create handles POST /api/v1/drives.
// Registers a new drive and mounts its subtree.
func (h *DriveHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDriveRequest
	if !readJSON(w, r, &req) {
		return
	}

	if req.Name == "" {
		BadRequest(w, "Drive name is required")
		return
	}
	if req.Owner == "" {
		BadRequest(w, "Drive owner is required")
		return
	}

	// Private is the conservative default: only the owner can touch the drive
	// until the admin widens access.
	access := drive.AccessType(req.Access)
	if req.Access == "" {
		access = drive.AccessPrivate
	}

	d := drive.Drive{
		Name:         req.Name,
		Access:       access,
		Owner:        req.Owner,
		WriteList:    req.WriteList,
		ReadList:     req.ReadList,
		ShareAllowed: req.ShareAllowed,
		Ref:          drive.RefTag(req.Ref),
	}

	created, err := h.drives.Create(r.Context(), d)
	if err != nil {
		writeDriveError(w, err, "Failed to create drive")
		return
	}

	WriteJSONCreated(w, driveToResponse(created))
}

// List handles GET /api/v1/drives.
func (h *DriveHandler) List(w http.ResponseWriter, r *http.Request) {
	drives := h.drives.List()

	response := make([]DriveResponse, len(drives))
	for i := range drives {
		response[i] = driveToResponse(&drives[i])
	}

	WriteJSONOK(w, response)
}

// Get handles GET /api/v1/drives/{name}.
func (h *DriveHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		BadRequest(w, "Drive name is required")
		return
	}

	d, err := h.drives.GetByName(name)
	if err != nil {
		writeDriveError(w, err, "Failed to get drive")
		return
	}

	WriteJSONOK(w, driveToResponse(d))
}

// Update handles PUT /api/v1/drives/{name}.
// Applies the requested field changes and republishes the descriptor. Renames
// move the backing directory on disk.
func (h *DriveHandler) Update(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		BadRequest(w, "Drive name is required")
		return
	}

	var req UpdateDriveRequest
	if !readJSON(w, r, &req) {
		return
	}

	// Fetch the existing descriptor and patch it
	d, err := h.drives.GetByName(name)
	if err != nil {
		writeDriveError(w, err, "Failed to get drive")
		return
	}

	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Access != nil {
		d.Access = drive.AccessType(*req.Access)
	}
	if req.Owner != nil {
		d.Owner = *req.Owner
	}
	if req.WriteList != nil {
		d.WriteList = *req.WriteList
	}
	if req.ReadList != nil {
		d.ReadList = *req.ReadList
	}
	if req.ShareAllowed != nil {
		d.ShareAllowed = *req.ShareAllowed
	}
	if req.Ref != nil {
		d.Ref = drive.RefTag(*req.Ref)
	}

	updated, err := h.drives.Update(r.Context(), *d)
	if err != nil {
		logger.Error("Failed to update drive", "drive", name, "error", err)
		writeDriveError(w, err, "Failed to update drive")
		return
	}

	WriteJSONOK(w, driveToResponse(updated))
}

// Delete handles DELETE /api/v1/drives/{name}.
// Forgets the drive registration. The backing directory stays on disk.
func (h *DriveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		BadRequest(w, "Drive name is required")
		return
	}

	d, err := h.drives.GetByName(name)
	if err != nil {
		writeDriveError(w, err, "Failed to get drive")
		return
	}

	if err := h.drives.Delete(r.Context(), d.ID); err != nil {
		writeDriveError(w, err, "Failed to delete drive")
		return
	}

	WriteNoContent(w)
}

// writeDriveError maps drive service errors onto problem responses.
func writeDriveError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case nestfserrors.IsDriveNotFound(err):
		NotFound(w, "Drive not found")
	case nestfserrors.IsDriveExists(err):
		Conflict(w, "Drive already exists")
	case nestfserrors.IsDriveConfig(err):
		UnprocessableEntity(w, err.Error())
	default:
		InternalServerError(w, fallback)
	}
}

// driveToResponse converts a drive.Drive to DriveResponse.
func driveToResponse(d *drive.Drive) DriveResponse {
	return DriveResponse{
		ID:           d.ID.String(),
		Name:         d.Name,
		Access:       d.Access.String(),
		Owner:        d.Owner,
		WriteList:    d.WriteList,
		ReadList:     d.ReadList,
		ShareAllowed: d.ShareAllowed,
		Ref:          d.Ref.String(),
	}
}
