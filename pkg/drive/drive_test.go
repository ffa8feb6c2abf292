package drive

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
)

func validDrive() Drive {
	return Drive{
		ID:     uuid.New(),
		Name:   "media",
		Access: AccessPrivate,
		Owner:  "alice",
	}
}

func TestAccessType(t *testing.T) {
	assert.True(t, AccessPrivate.IsValid())
	assert.True(t, AccessPublic.IsValid())
	assert.False(t, AccessType("archive").IsValid())
	assert.False(t, AccessType("").IsValid())
	assert.Equal(t, "private", AccessPrivate.String())
}

func TestRefTag(t *testing.T) {
	assert.True(t, RefNone.IsValid())
	assert.True(t, RefHome.IsValid())
	assert.True(t, RefLibrary.IsValid())
	assert.True(t, RefService.IsValid())
	assert.False(t, RefTag("backup").IsValid())
	assert.Equal(t, "home", RefHome.String())
}

func TestDriveValidate(t *testing.T) {
	t.Run("ValidDescriptorPasses", func(t *testing.T) {
		d := validDrive()
		require.NoError(t, d.Validate())

		d.Access = AccessPublic
		d.WriteList = []string{"bob"}
		d.Ref = RefLibrary
		require.NoError(t, d.Validate())
	})

	t.Run("InvalidDescriptorsRejected", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Drive)
		}{
			{"NilIdentifier", func(d *Drive) { d.ID = uuid.Nil }},
			{"EmptyName", func(d *Drive) { d.Name = "" }},
			{"NameWithSeparator", func(d *Drive) { d.Name = "a/b" }},
			{"NameEscapingRoot", func(d *Drive) { d.Name = ".." }},
			{"UnknownAccess", func(d *Drive) { d.Access = "archive" }},
			{"EmptyOwner", func(d *Drive) { d.Owner = "" }},
			{"UnknownRef", func(d *Drive) { d.Ref = "backup" }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				d := validDrive()
				tt.mutate(&d)

				err := d.Validate()
				require.Error(t, err)
				assert.True(t, nestfserrors.IsDriveConfig(err))
			})
		}
	})
}

func TestDriveClone(t *testing.T) {
	d := validDrive()
	d.Access = AccessPublic
	d.WriteList = []string{"alice"}
	d.ReadList = []string{"bob", "carol"}

	clone := d.Clone()
	clone.Name = "other"
	clone.WriteList[0] = "mallory"
	clone.ReadList = append(clone.ReadList, "mallory")

	assert.Equal(t, "media", d.Name)
	assert.Equal(t, []string{"alice"}, d.WriteList)
	assert.Equal(t, []string{"bob", "carol"}, d.ReadList)
}

func TestDriveLists(t *testing.T) {
	d := validDrive()
	d.WriteList = []string{"alice"}
	d.ReadList = []string{"bob"}

	assert.True(t, d.InWriteList("alice"))
	assert.False(t, d.InWriteList("bob"))
	assert.True(t, d.InReadList("bob"))
	assert.False(t, d.InReadList("alice"))

	empty := validDrive()
	assert.False(t, empty.InWriteList("alice"))
	assert.False(t, empty.InReadList("alice"))
}
