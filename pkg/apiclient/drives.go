package apiclient

import (
	"net/url"
)

// Drive represents a registered drive.
type Drive struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Access       string   `json:"access"`
	Owner        string   `json:"owner"`
	WriteList    []string `json:"writelist,omitempty"`
	ReadList     []string `json:"readlist,omitempty"`
	ShareAllowed bool     `json:"share_allowed"`
	Ref          string   `json:"ref,omitempty"`
}

// CreateDriveRequest is the request to register a drive.
type CreateDriveRequest struct {
	Name         string   `json:"name"`
	Access       string   `json:"access,omitempty"`
	Owner        string   `json:"owner"`
	WriteList    []string `json:"writelist,omitempty"`
	ReadList     []string `json:"readlist,omitempty"`
	ShareAllowed bool     `json:"share_allowed,omitempty"`
	Ref          string   `json:"ref,omitempty"`
}

// UpdateDriveRequest is the request to update a drive. Only non-nil fields
// are changed.
type UpdateDriveRequest struct {
	Name         *string   `json:"name,omitempty"`
	Access       *string   `json:"access,omitempty"`
	Owner        *string   `json:"owner,omitempty"`
	WriteList    *[]string `json:"writelist,omitempty"`
	ReadList     *[]string `json:"readlist,omitempty"`
	ShareAllowed *bool     `json:"share_allowed,omitempty"`
	Ref          *string   `json:"ref,omitempty"`
}

// ListDrives returns all registered drives.
func (c *Client) ListDrives() ([]Drive, error) {
	return listResources[Drive](c, "/api/v1/drives")
}

// GetDrive returns a drive by name.
func (c *Client) GetDrive(name string) (*Drive, error) {
	return getResource[Drive](c, resourcePath("/api/v1/drives/%s", url.PathEscape(name)))
}

// CreateDrive registers a new drive.
func (c *Client) CreateDrive(req *CreateDriveRequest) (*Drive, error) {
	return createResource[Drive](c, "/api/v1/drives", req)
}

// UpdateDrive updates an existing drive.
func (c *Client) UpdateDrive(name string, req *UpdateDriveRequest) (*Drive, error) {
	return updateResource[Drive](c, resourcePath("/api/v1/drives/%s", url.PathEscape(name)), req)
}

// DeleteDrive forgets a drive registration. The backing directory stays on
// disk.
func (c *Client) DeleteDrive(name string) error {
	return deleteResource(c, resourcePath("/api/v1/drives/%s", url.PathEscape(name)))
}
