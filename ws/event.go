package ws

import "github.com/akinalp/scaffoldr/models"

// Event is the envelope of every WebSocket frame in both directions.
//
//	{"op": "project_update", "d": {...}, "seq": 42}
//
// Seq is a per-hub counter that lets the client detect gaps.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client -> server.
const (
	OpHeartbeat = "heartbeat" // sent every 30s by the dashboard
)

// Server -> client.
const (
	OpReady            = "ready"
	OpHeartbeatAck     = "heartbeat_ack"
	OpProjectUpdate    = "project_update"
	OpDeploymentUpdate = "deployment_update"
	OpTemplatesUpdate  = "templates_update"
)

// ReadyData is sent once after the connection is registered.
type ReadyData struct {
	UserID string `json:"userId"`
}

// ProjectUpdateData reports a project status change.
type ProjectUpdateData struct {
	ProjectID    string               `json:"projectId"`
	Status       models.ProjectStatus `json:"status"`
	RepoURL      *string              `json:"repoUrl,omitempty"`
	ErrorMessage *string              `json:"errorMessage,omitempty"`
}

// DeploymentUpdateData reports a deployment status change.
type DeploymentUpdateData struct {
	ProjectID     string                  `json:"projectId"`
	DeploymentID  string                  `json:"deploymentId"`
	Status        models.DeploymentStatus `json:"status"`
	DeploymentURL *string                 `json:"deploymentUrl,omitempty"`
}

// TemplatesUpdateData is broadcast when the template catalog is reloaded.
type TemplatesUpdateData struct {
	Count int `json:"count"`
}
