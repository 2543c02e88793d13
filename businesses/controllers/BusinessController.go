package controllers

import (
	indexing_repository "business-directory-backend/bleve/repositories"
	"business-directory-backend/businesses/repositories"
)

// BusinessController bundles the business listing and search dependencies.
type BusinessController struct {
	BusinessRepo repositories.BusinessRepository
	SearchRepo   indexing_repository.BusinessSearchRepositoryInterface
}
