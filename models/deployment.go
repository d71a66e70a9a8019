package models

import (
	"fmt"
	"time"
)

// DeploymentStatus is the state of a simulated deployment.
type DeploymentStatus string

const (
	DeploymentStatusPending   DeploymentStatus = "pending"
	DeploymentStatusBuilding  DeploymentStatus = "building"
	DeploymentStatusDeploying DeploymentStatus = "deploying"
	DeploymentStatusSuccess   DeploymentStatus = "success"
	DeploymentStatusFailed    DeploymentStatus = "failed"
)

// Deployment environments.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Deployment is one (simulated) deployment of a ready project.
type Deployment struct {
	ID            string           `json:"id"`
	ProjectID     string           `json:"projectId"`
	Environment   string           `json:"environment"`
	Status        DeploymentStatus `json:"status"`
	DeploymentURL *string          `json:"deploymentUrl"`
	TriggeredBy   string           `json:"triggeredBy"`
	Logs          string           `json:"logs"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// CreateDeploymentRequest is the body of POST .../deployments.
type CreateDeploymentRequest struct {
	Environment string `json:"environment"`
}

// Validate defaults Environment to production and rejects unknown values.
func (r *CreateDeploymentRequest) Validate() error {
	switch r.Environment {
	case "":
		r.Environment = EnvProduction
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("environment must be one of %s, %s, %s", EnvDevelopment, EnvStaging, EnvProduction)
	}
	return nil
}
