package repositories

import (
	"business-directory-backend/config"
	"business-directory-backend/db/models"

	bleveindex "business-directory-backend/bleve/services"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"
)

const businessIndex = "businesses"

type BusinessSearchRepositoryInterface interface {
	IndexSingleBusiness(business models.Business) error
	IndexExistingBusinesses(businesses []models.Business) error
	DeleteBusiness(businessID string) error
	SearchBusinesses(queryString string, size int) (*bleve.SearchResult, error)
}

type BusinessSearchRepository struct {
	indexer bleveindex.IndexingServiceInterface
}

func NewBusinessSearchRepository(indexer bleveindex.IndexingServiceInterface) *BusinessSearchRepository {
	return &BusinessSearchRepository{indexer: indexer}
}

// businessDoc is the flattened shape stored in the search index.
type businessDoc struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Suburb   string `json:"suburb,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Category string `json:"category,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Status   string `json:"approval_status"`
}

func toBusinessDoc(business models.Business) businessDoc {
	return businessDoc{
		ID:       business.ID.String(),
		Name:     business.Name,
		Suburb:   business.Attribute("suburb"),
		Postcode: business.Attribute("postcode"),
		Category: business.Attribute("category"),
		Bio:      business.Attribute("bio"),
		Phone:    business.Attribute("phone"),
		Email:    business.Attribute("email"),
		Status:   string(business.ApprovalStatus),
	}
}

func (r *BusinessSearchRepository) IndexSingleBusiness(business models.Business) error {
	err := r.indexer.IndexDocument(businessIndex, business.ID.String(), toBusinessDoc(business))
	if err != nil {
		config.Logger.Error("Failed to index business into Bleve",
			zap.Error(err), zap.String("business_id", business.ID.String()))
		return err
	}
	return nil
}

func (r *BusinessSearchRepository) IndexExistingBusinesses(businesses []models.Business) error {
	docs := make(map[string]interface{}, len(businesses))
	for _, business := range businesses {
		docs[business.ID.String()] = toBusinessDoc(business)
	}
	if len(docs) == 0 {
		return nil
	}

	config.Logger.Info("Bulk indexing businesses into Bleve", zap.Int("count", len(docs)))
	return r.indexer.BulkIndexDocuments(businessIndex, docs)
}

func (r *BusinessSearchRepository) DeleteBusiness(businessID string) error {
	return r.indexer.DeleteDocument(businessIndex, businessID)
}

func (r *BusinessSearchRepository) SearchBusinesses(queryString string, size int) (*bleve.SearchResult, error) {
	query := bleve.NewMatchQuery(queryString)
	return r.indexer.SearchIndex(businessIndex, query, size)
}
