package postgres

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
)

// orderColumn sorts by the "order" column. The name is a reserved word, so it
// always goes through a quoted clause.
var orderColumn = clause.OrderByColumn{Column: clause.Column{Name: "order"}}

func getDB(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector != nil && db.Dialector.Name() == "postgres"
}

// orderedModules preloads modules in display order
func orderedModules(db *gorm.DB) *gorm.DB {
	return db.Order(orderColumn).Order("id ASC")
}

func byID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// preloadResponses loads responses with everything the score engine needs
func preloadResponses(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Responses", byID).
		Preload("Responses.Question").
		Preload("Responses.Question.Options", byID).
		Preload("Responses.Option")
}

// applyAttemptFilters applies common filters to attempt queries
func applyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	query = query.Where("attempts.tenant_id = ?", filters.TenantID)
	if filters.StudentID != nil {
		query = query.Where("attempts.student_id = ?", *filters.StudentID)
	}
	if filters.AssessmentID != nil {
		query = query.Where("attempts.assessment_id = ?", *filters.AssessmentID)
	}
	if filters.SubmittedOnly || filters.SubmittedFrom != nil || filters.SubmittedTo != nil {
		query = query.Where("attempts.submitted_at IS NOT NULL")
	}
	if filters.SubmittedFrom != nil {
		query = query.Where("attempts.submitted_at >= ?", *filters.SubmittedFrom)
	}
	if filters.SubmittedTo != nil {
		query = query.Where("attempts.submitted_at <= ?", *filters.SubmittedTo)
	}
	if filters.WithResponses {
		query = preloadResponses(query)
	}
	if filters.WithStudent {
		query = query.Preload("Student").Preload("Student.College")
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	return query
}
