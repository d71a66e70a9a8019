package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My App", "my-app"},
		{"  Hello   World  ", "-hello-world-"},
		{"Acme, Inc.", "acme-inc"},
		{"tabs\tand\nnewlines", "tabs-and-newlines"},
		{"Über Café", "ber-caf"},
		{"already-a-slug", "already-a-slug"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestProjectStatus_CanGenerate(t *testing.T) {
	assert.True(t, ProjectStatusCreated.CanGenerate())
	assert.True(t, ProjectStatusError.CanGenerate())
	assert.False(t, ProjectStatusGenerating.CanGenerate())
	assert.False(t, ProjectStatusReady.CanGenerate())
}

func TestCreateProjectRequest_Validate(t *testing.T) {
	req := CreateProjectRequest{Name: "  My App ", TemplateID: " t1 ", Description: " d "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "My App", req.Name)
	assert.Equal(t, "t1", req.TemplateID)
	assert.Equal(t, "d", req.Description)

	bad := []CreateProjectRequest{
		{Name: "", TemplateID: "t"},
		{Name: "???", TemplateID: "t"},
		{Name: "ok"},
	}
	for _, r := range bad {
		assert.Error(t, r.Validate(), "%+v", r)
	}
}

func TestUpdateProjectRequest_Validate(t *testing.T) {
	empty := "  "
	assert.Error(t, (&UpdateProjectRequest{Name: &empty}).Validate())

	name := " New "
	req := UpdateProjectRequest{Name: &name}
	require.NoError(t, req.Validate())
	assert.Equal(t, "New", *req.Name)
}

func TestRegisterRequest_Validate(t *testing.T) {
	req := RegisterRequest{Email: " Ada@Example.COM ", Password: "secret", Name: " Ada "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "ada@example.com", req.Email)
	assert.Equal(t, "Ada", req.Name)

	assert.Error(t, (&RegisterRequest{Email: "nope", Password: "secret"}).Validate())
	assert.Error(t, (&RegisterRequest{Email: "a@b.co", Password: "12345"}).Validate())
	assert.Error(t, (&RegisterRequest{Password: "secret"}).Validate())
}

func TestCreateDeploymentRequest_Validate(t *testing.T) {
	req := CreateDeploymentRequest{}
	require.NoError(t, req.Validate())
	assert.Equal(t, EnvProduction, req.Environment)

	req = CreateDeploymentRequest{Environment: EnvStaging}
	require.NoError(t, req.Validate())
	assert.Equal(t, EnvStaging, req.Environment)

	assert.Error(t, (&CreateDeploymentRequest{Environment: "qa"}).Validate())
}
