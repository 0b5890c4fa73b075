package store

import (
	"context"
	"errors"

	"github.com/pagemint/pagemint/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	return g.db.WithContext(ctx).Create(doc).Error
}

func (g *GormStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (g *GormStore) UpdateDocument(ctx context.Context, doc *model.Document) error {
	return g.db.WithContext(ctx).Save(doc).Error
}

func (g *GormStore) ListDocuments(ctx context.Context, workspaceID string) ([]*model.Document, int64, error) {
	var docs []*model.Document
	err := g.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).Order("sort_order").Find(&docs).Error
	if err != nil {
		return nil, 0, err
	}
	return docs, int64(len(docs)), nil
}

// siblings scopes a query to one sibling group. A nil parent selects roots.
func siblings(db *gorm.DB, parentID *string) *gorm.DB {
	if parentID == nil {
		return db.Where("parent_id IS NULL")
	}
	return db.Where("parent_id = ?", *parentID)
}

func (g *GormStore) ListChildren(ctx context.Context, parentID *string) ([]*model.Document, error) {
	var docs []*model.Document
	err := siblings(g.db.WithContext(ctx), parentID).Order("sort_order").Find(&docs).Error
	return docs, err
}

func (g *GormStore) MaxSiblingOrder(ctx context.Context, parentID *string) (int, error) {
	var max *int
	err := siblings(g.db.WithContext(ctx).Model(&model.Document{}), parentID).
		Select("max(sort_order)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return -1, nil
	}
	return *max, nil
}

func (g *GormStore) ShiftSiblingRange(ctx context.Context, parentID *string, low, high, delta int) error {
	return siblings(g.db.WithContext(ctx).Model(&model.Document{}), parentID).
		Where("sort_order >= ? AND sort_order <= ?", low, high).
		UpdateColumn("sort_order", gorm.Expr("sort_order + ?", delta)).Error
}

func (g *GormStore) ShiftSiblingsFrom(ctx context.Context, parentID *string, low, delta int) error {
	return siblings(g.db.WithContext(ctx).Model(&model.Document{}), parentID).
		Where("sort_order >= ?", low).
		UpdateColumn("sort_order", gorm.Expr("sort_order + ?", delta)).Error
}

func (g *GormStore) EraseDocument(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&model.Document{}).Error
}

func (g *GormStore) ListExpiredWebLinks(ctx context.Context, now int64) ([]*model.Document, error) {
	var docs []*model.Document
	err := g.db.WithContext(ctx).
		Where("web_link_enabled = ? AND public_link_expires_at IS NOT NULL AND public_link_expires_at <= ?", true, now).
		Find(&docs).Error
	return docs, err
}

func (g *GormStore) GetWorkspaceMembership(ctx context.Context, workspaceID, userID string) (*model.WorkspaceMembership, error) {
	var m model.WorkspaceMembership
	err := g.db.WithContext(ctx).Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (g *GormStore) CreateWorkspaceMembership(ctx context.Context, m *model.WorkspaceMembership) error {
	return g.db.WithContext(ctx).Create(m).Error
}

func (g *GormStore) GetTeamspace(ctx context.Context, id string) (*model.Teamspace, error) {
	var ts model.Teamspace
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&ts).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (g *GormStore) CreateTeamspace(ctx context.Context, ts *model.Teamspace) error {
	return g.db.WithContext(ctx).Create(ts).Error
}

func (g *GormStore) HasTeamspaceMembership(ctx context.Context, teamspaceID, userID string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&model.TeamspaceMembership{}).
		Where("teamspace_id = ? AND user_id = ?", teamspaceID, userID).Count(&count).Error
	return count > 0, err
}

func (g *GormStore) CreateTeamspaceMembership(ctx context.Context, m *model.TeamspaceMembership) error {
	return g.db.WithContext(ctx).Create(m).Error
}

func (g *GormStore) GetDocumentPermission(ctx context.Context, documentID, userID string) (*model.DocumentPermission, error) {
	var p model.DocumentPermission
	err := g.db.WithContext(ctx).Where("document_id = ? AND grantee_id = ?", documentID, userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (g *GormStore) UpsertDocumentPermission(ctx context.Context, p *model.DocumentPermission) error {
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_id"}, {Name: "grantee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_level"}),
	}).Create(p).Error
}

func (g *GormStore) DeleteDocumentPermission(ctx context.Context, documentID, userID string) error {
	return g.db.WithContext(ctx).Unscoped().
		Where("document_id = ? AND grantee_id = ?", documentID, userID).
		Delete(&model.DocumentPermission{}).Error
}

func (g *GormStore) DeleteDocumentPermissions(ctx context.Context, documentID string) error {
	return g.db.WithContext(ctx).Unscoped().
		Where("document_id = ?", documentID).
		Delete(&model.DocumentPermission{}).Error
}

func (g *GormStore) LatestStepVersion(ctx context.Context, documentID string) (int64, bool, error) {
	var version *int64
	err := g.db.WithContext(ctx).Model(&model.Step{}).
		Where("document_id = ?", documentID).
		Select("max(version)").Scan(&version).Error
	if err != nil {
		return 0, false, err
	}
	if version == nil {
		return 0, false, nil
	}
	return *version, true, nil
}

func (g *GormStore) GetSnapshot(ctx context.Context, documentID string) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	err := g.db.WithContext(ctx).Where("document_id = ?", documentID).First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (g *GormStore) SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) error {
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "content", "compression"}),
	}).Create(snapshot).Error
}

func (g *GormStore) ListStepsSince(ctx context.Context, documentID string, sinceVersion int64, limit int) ([]*model.Step, error) {
	var steps []*model.Step
	query := g.db.WithContext(ctx).
		Where("document_id = ? AND version > ?", documentID, sinceVersion).
		Order("version")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&steps).Error
	return steps, err
}

func (g *GormStore) CreateSteps(ctx context.Context, steps []*model.Step) error {
	if len(steps) == 0 {
		return nil
	}
	return g.db.WithContext(ctx).Create(steps).Error
}

func (g *GormStore) CountStepsSince(ctx context.Context, documentID string, sinceVersion int64) (int64, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&model.Step{}).
		Where("document_id = ? AND version > ?", documentID, sinceVersion).
		Count(&count).Error
	return count, err
}

func (g *GormStore) DeleteStepsThrough(ctx context.Context, documentID string, version int64) error {
	return g.db.WithContext(ctx).Unscoped().
		Where("document_id = ? AND version <= ?", documentID, version).
		Delete(&model.Step{}).Error
}

func (g *GormStore) DeleteStepState(ctx context.Context, documentID string) error {
	err := g.db.WithContext(ctx).Unscoped().
		Where("document_id = ?", documentID).
		Delete(&model.Snapshot{}).Error
	if err != nil {
		return err
	}
	return g.db.WithContext(ctx).Unscoped().
		Where("document_id = ?", documentID).
		Delete(&model.Step{}).Error
}

func (g *GormStore) ListStepDocumentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := g.db.WithContext(ctx).Model(&model.Step{}).
		Distinct("document_id").Pluck("document_id", &ids).Error
	return ids, err
}

func (g *GormStore) CreatePublishedDocument(ctx context.Context, doc *model.PublishedDocument) error {
	return g.db.WithContext(ctx).Create(doc).Error
}

func (g *GormStore) GetLatestPublishedDocument(ctx context.Context, documentID string) (*model.PublishedDocument, error) {
	var doc model.PublishedDocument
	err := g.db.WithContext(ctx).Where("document_id = ?", documentID).
		Order("id desc").First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLatestPublishedDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (g *GormStore) ListPublishedVersions(ctx context.Context, documentID string) ([]*model.PublishedDocument, error) {
	var docs []*model.PublishedDocument
	err := g.db.WithContext(ctx).Where("document_id = ?", documentID).
		Order("id desc").Find(&docs).Error
	return docs, err
}

func (g *GormStore) DeletePublishedDocuments(ctx context.Context, documentID string) error {
	return g.db.WithContext(ctx).Unscoped().
		Where("document_id = ?", documentID).
		Delete(&model.PublishedDocument{}).Error
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
