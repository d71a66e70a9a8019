package main

import (
	"github.com/akinalp/scaffoldr/database"
	"github.com/akinalp/scaffoldr/repository"
)

// Repositories holds every repository, so the init functions take one
// argument instead of five.
type Repositories struct {
	User       repository.UserRepository
	Session    repository.SessionRepository
	Template   repository.TemplateRepository
	Project    repository.ProjectRepository
	Deployment repository.DeploymentRepository
}

func initRepositories(db database.TxQuerier) *Repositories {
	return &Repositories{
		User:       repository.NewSQLiteUserRepo(db),
		Session:    repository.NewSQLiteSessionRepo(db),
		Template:   repository.NewSQLiteTemplateRepo(db),
		Project:    repository.NewSQLiteProjectRepo(db),
		Deployment: repository.NewSQLiteDeploymentRepo(db),
	}
}
