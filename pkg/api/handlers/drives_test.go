package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/nestfs/pkg/attrcache"
	"github.com/marmos91/nestfs/pkg/drive"
	"github.com/marmos91/nestfs/pkg/drive/store/memory"
	"github.com/marmos91/nestfs/pkg/tree"
)

func setupDriveTest(t *testing.T) (*tree.Tree, *drive.Service, *DriveHandler) {
	t.Helper()

	tr := tree.New(t.TempDir(), attrcache.New(nil), nil)
	svc := drive.NewService(memory.New(), tr, nil)
	t.Cleanup(func() { _ = svc.Close() })

	return tr, svc, NewDriveHandler(svc)
}

func createTestDrive(t *testing.T, svc *drive.Service, name, owner string) *drive.Drive {
	t.Helper()

	created, err := svc.Create(context.Background(), drive.Drive{
		Name:   name,
		Access: drive.AccessPrivate,
		Owner:  owner,
	})
	if err != nil {
		t.Fatalf("Failed to create test drive: %v", err)
	}
	return created
}

// driveRequest builds a request with the drive name routed as a chi URL param.
func driveRequest(method, name string, body []byte) *http.Request {
	req := httptest.NewRequest(method, "/api/v1/drives/"+name, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("name", name)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestDriveHandler_Create(t *testing.T) {
	_, _, handler := setupDriveTest(t)

	tests := []struct {
		name       string
		body       CreateDriveRequest
		wantStatus int
	}{
		{
			name:       "valid drive",
			body:       CreateDriveRequest{Name: "media", Owner: "alice"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing name",
			body:       CreateDriveRequest{Owner: "alice"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing owner",
			body:       CreateDriveRequest{Name: "docs"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "duplicate name",
			body:       CreateDriveRequest{Name: "media", Owner: "bob"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unknown access type",
			body:       CreateDriveRequest{Name: "scratch", Owner: "alice", Access: "shared"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "name with path separator",
			body:       CreateDriveRequest{Name: "a/b", Owner: "alice"},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/drives", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Create(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Create() status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusCreated {
				var resp DriveResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("Failed to unmarshal response: %v", err)
				}
				if resp.ID == "" {
					t.Error("Expected drive ID to be assigned")
				}
				if resp.Access != "private" {
					t.Errorf("Create() access = %s, want private (default)", resp.Access)
				}
			}
		})
	}
}

func TestDriveHandler_Create_MountsSubtree(t *testing.T) {
	tr, _, handler := setupDriveTest(t)

	body, _ := json.Marshal(CreateDriveRequest{Name: "media", Owner: "alice"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drives", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Create() status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp DriveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	// The drive node is mounted under the tree root with the same identifier
	root := tr.Root()
	if len(root.Children()) != 1 {
		t.Fatalf("Expected 1 mounted drive, got %d", len(root.Children()))
	}
	if root.Children()[0].ID().String() != resp.ID {
		t.Error("Mounted node identifier does not match the created drive")
	}
}

func TestDriveHandler_List(t *testing.T) {
	_, svc, handler := setupDriveTest(t)

	createTestDrive(t, svc, "media", "alice")
	createTestDrive(t, svc, "docs", "bob")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drives", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("List() status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []DriveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("List() returned %d drives, want 2", len(resp))
	}
}

func TestDriveHandler_Get(t *testing.T) {
	_, svc, handler := setupDriveTest(t)

	createTestDrive(t, svc, "media", "alice")

	tests := []struct {
		name       string
		driveName  string
		wantStatus int
	}{
		{
			name:       "existing drive",
			driveName:  "media",
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown drive",
			driveName:  "nonexistent",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := driveRequest(http.MethodGet, tt.driveName, nil)
			w := httptest.NewRecorder()

			handler.Get(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Get() status = %d, want %d", w.Code, tt.wantStatus)
			}

			if tt.wantStatus == http.StatusOK {
				var resp DriveResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("Failed to unmarshal response: %v", err)
				}
				if resp.Name != tt.driveName {
					t.Errorf("Get() name = %s, want %s", resp.Name, tt.driveName)
				}
				if resp.Owner != "alice" {
					t.Errorf("Get() owner = %s, want alice", resp.Owner)
				}
			}
		})
	}
}

func TestDriveHandler_Update(t *testing.T) {
	_, svc, handler := setupDriveTest(t)

	createTestDrive(t, svc, "media", "alice")
	createTestDrive(t, svc, "docs", "bob")

	t.Run("widen access", func(t *testing.T) {
		access := "public"
		writeList := []string{"bob"}
		body, _ := json.Marshal(UpdateDriveRequest{Access: &access, WriteList: &writeList})

		req := driveRequest(http.MethodPut, "media", body)
		w := httptest.NewRecorder()

		handler.Update(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Update() status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
		}

		var resp DriveResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if resp.Access != "public" {
			t.Errorf("Update() access = %s, want public", resp.Access)
		}
		if len(resp.WriteList) != 1 || resp.WriteList[0] != "bob" {
			t.Errorf("Update() writelist = %v, want [bob]", resp.WriteList)
		}

		// Untouched fields survive the patch
		if resp.Owner != "alice" {
			t.Errorf("Update() owner = %s, want alice", resp.Owner)
		}
	})

	t.Run("rename", func(t *testing.T) {
		newName := "movies"
		body, _ := json.Marshal(UpdateDriveRequest{Name: &newName})

		req := driveRequest(http.MethodPut, "media", body)
		w := httptest.NewRecorder()

		handler.Update(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Update() status = %d, want %d, body = %s", w.Code, http.StatusOK, w.Body.String())
		}

		if _, err := svc.GetByName("movies"); err != nil {
			t.Errorf("Renamed drive not found under new name: %v", err)
		}
	})

	t.Run("rename onto taken name", func(t *testing.T) {
		newName := "docs"
		body, _ := json.Marshal(UpdateDriveRequest{Name: &newName})

		req := driveRequest(http.MethodPut, "movies", body)
		w := httptest.NewRecorder()

		handler.Update(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("Update() status = %d, want %d", w.Code, http.StatusConflict)
		}
	})

	t.Run("unknown drive", func(t *testing.T) {
		access := "public"
		body, _ := json.Marshal(UpdateDriveRequest{Access: &access})

		req := driveRequest(http.MethodPut, "nonexistent", body)
		w := httptest.NewRecorder()

		handler.Update(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Update() status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestDriveHandler_Delete(t *testing.T) {
	tr, svc, handler := setupDriveTest(t)

	createTestDrive(t, svc, "media", "alice")

	t.Run("existing drive", func(t *testing.T) {
		req := driveRequest(http.MethodDelete, "media", nil)
		w := httptest.NewRecorder()

		handler.Delete(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("Delete() status = %d, want %d", w.Code, http.StatusNoContent)
		}
		if svc.Count() != 0 {
			t.Errorf("Expected 0 drives after delete, got %d", svc.Count())
		}
		if len(tr.Root().Children()) != 0 {
			t.Error("Expected drive subtree to be unmounted")
		}
	})

	t.Run("unknown drive", func(t *testing.T) {
		req := driveRequest(http.MethodDelete, "media", nil)
		w := httptest.NewRecorder()

		handler.Delete(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Delete() status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}
