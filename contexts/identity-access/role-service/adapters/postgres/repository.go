package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"mandate/contexts/identity-access/role-service/domain/entities"
	domainerrors "mandate/contexts/identity-access/role-service/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetRoleByTypeAndParty(ctx context.Context, typeCode string, partyID string) (entities.Role, error) {
	var row roleModel
	err := r.db.WithContext(ctx).
		Where("type_code = ? AND party_id = ?", strings.TrimSpace(typeCode), strings.TrimSpace(partyID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Role{}, domainerrors.ErrRoleNotFound
		}
		return entities.Role{}, err
	}
	return row.toEntity()
}

func (r *Repository) SaveRole(ctx context.Context, role entities.Role) error {
	row, err := roleModelFromEntity(role)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "role_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "attributes", "updated_at",
			}),
		}).
		Create(&row).
		Error
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidRoleInput
		}
		return err
	}
	return nil
}

func (r *Repository) ListRolesByParty(ctx context.Context, partyID string) ([]entities.Role, error) {
	var rows []roleModel
	if err := r.db.WithContext(ctx).
		Where("party_id = ?", strings.TrimSpace(partyID)).
		Order("created_at ASC, role_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.Role, 0, len(rows))
	for _, row := range rows {
		role, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, role)
	}
	return items, nil
}

func (r *Repository) FindRoleTypeValidAt(ctx context.Context, code string, asOf time.Time) (entities.RoleType, bool, error) {
	var row roleTypeModel
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.TrimSpace(code)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RoleType{}, false, nil
		}
		return entities.RoleType{}, false, err
	}
	roleType := row.toEntity()
	if !roleType.ValidAt(asOf.UTC()) {
		return entities.RoleType{}, false, nil
	}
	return roleType, true, nil
}

func (r *Repository) FindAttributeName(ctx context.Context, code string) (entities.AttributeName, bool, error) {
	var row attributeNameModel
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.TrimSpace(code)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AttributeName{}, false, nil
		}
		return entities.AttributeName{}, false, err
	}
	return row.toEntity(), true, nil
}

type roleModel struct {
	RoleID   string `gorm:"column:role_id;primaryKey"`
	TypeCode string `gorm:"column:type_code;uniqueIndex:idx_roles_type_party"`
	PartyID  string `gorm:"column:party_id;uniqueIndex:idx_roles_type_party"`
	Status   string `gorm:"column:status"`

	Attributes []byte `gorm:"column:attributes;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (roleModel) TableName() string {
	return "roles"
}

func roleModelFromEntity(item entities.Role) (roleModel, error) {
	attributes, err := json.Marshal(item.Attributes)
	if err != nil {
		return roleModel{}, err
	}
	return roleModel{
		RoleID:     strings.TrimSpace(item.RoleID),
		TypeCode:   strings.TrimSpace(item.TypeCode),
		PartyID:    strings.TrimSpace(item.PartyID),
		Status:     string(item.Status),
		Attributes: attributes,
		CreatedAt:  item.CreatedAt.UTC(),
		UpdatedAt:  item.UpdatedAt.UTC(),
	}, nil
}

func (m roleModel) toEntity() (entities.Role, error) {
	var attributes []entities.RoleAttribute
	if len(m.Attributes) > 0 {
		if err := json.Unmarshal(m.Attributes, &attributes); err != nil {
			return entities.Role{}, err
		}
	}
	return entities.Role{
		RoleID:     m.RoleID,
		TypeCode:   m.TypeCode,
		PartyID:    m.PartyID,
		Status:     entities.RoleStatus(m.Status),
		Attributes: attributes,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}, nil
}

type roleTypeModel struct {
	Code    string     `gorm:"column:code;primaryKey"`
	StartAt time.Time  `gorm:"column:start_at"`
	EndAt   *time.Time `gorm:"column:end_at"`
}

func (roleTypeModel) TableName() string {
	return "role_types"
}

func (m roleTypeModel) toEntity() entities.RoleType {
	return entities.RoleType{
		Code:    m.Code,
		StartAt: m.StartAt.UTC(),
		EndAt:   normalizeOptionalTime(m.EndAt),
	}
}

type attributeNameModel struct {
	Code         string     `gorm:"column:code;primaryKey"`
	Domain       string     `gorm:"column:domain"`
	Classifier   string     `gorm:"column:classifier"`
	Category     string     `gorm:"column:category"`
	DefaultValue string     `gorm:"column:default_value"`
	StartAt      time.Time  `gorm:"column:start_at"`
	EndAt        *time.Time `gorm:"column:end_at"`
}

func (attributeNameModel) TableName() string {
	return "role_attribute_names"
}

func (m attributeNameModel) toEntity() entities.AttributeName {
	return entities.AttributeName{
		Code:         m.Code,
		Domain:       entities.AttributeDomain(m.Domain),
		Classifier:   entities.AttributeClassifier(m.Classifier),
		Category:     m.Category,
		DefaultValue: m.DefaultValue,
		StartAt:      m.StartAt.UTC(),
		EndAt:        normalizeOptionalTime(m.EndAt),
	}
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
