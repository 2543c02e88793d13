package controllers

import (
	"business-directory-backend/imports/repositories"
	"business-directory-backend/imports/services"
)

// ImportController bundles the import surface's dependencies.
type ImportController struct {
	Orchestrator  *services.ImportOrchestrator
	ImportJobRepo repositories.ImportJobRepository
}
